package chip8

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/retroenv/retrogolib/assert"
)

func TestDrawSprite(t *testing.T) {
	c := New()
	c.memory[0x300] = 0xF0
	c.index = 0x300
	c.ClearDrawPending()

	assert.NoError(t, c.drawSprite(2, 3, 1))

	for x := 2; x <= 5; x++ {
		assert.Equal(t, uint8(1), c.Pixel(x, 3))
	}
	assert.Equal(t, uint8(0), c.Pixel(1, 3))
	assert.Equal(t, uint8(0), c.Pixel(6, 3))
	assert.Equal(t, uint8(0), c.registers[0xF])
	assert.True(t, c.DrawPending())
}

func TestDrawSpriteCollision(t *testing.T) {
	c := New()
	c.memory[0x300] = 0xF0
	c.index = 0x300

	assert.NoError(t, c.drawSprite(2, 3, 1))
	assert.NoError(t, c.drawSprite(2, 3, 1))

	// Drawing the same sprite twice erases it and reports the collision.
	assert.Equal(t, uint8(1), c.registers[0xF])
	for _, b := range c.Framebuffer() {
		assert.Equal(t, uint8(0), b)
	}
}

func TestDrawSpriteComplement(t *testing.T) {
	c := New()
	c.memory[0x300] = 0x50
	c.memory[0x301] = 0xA0
	c.index = 0x300

	assert.NoError(t, c.drawSprite(8, 4, 1))
	assert.Equal(t, uint8(0), c.registers[0xF])

	c.index = 0x301
	assert.NoError(t, c.drawSprite(8, 4, 1))

	// The rows share no set bits, so nothing collides and the pixels merge.
	assert.Equal(t, uint8(0), c.registers[0xF])
	for x := 8; x <= 11; x++ {
		assert.Equal(t, uint8(1), c.Pixel(x, 4))
	}
}

func TestDrawSpriteWrapsHorizontally(t *testing.T) {
	c := New()
	c.memory[0x300] = 0xF0
	c.index = 0x300

	assert.NoError(t, c.drawSprite(62, 5, 1))

	assert.Equal(t, uint8(1), c.Pixel(62, 5))
	assert.Equal(t, uint8(1), c.Pixel(63, 5))
	assert.Equal(t, uint8(1), c.Pixel(0, 5))
	assert.Equal(t, uint8(1), c.Pixel(1, 5))
	assert.Equal(t, uint8(0), c.Pixel(2, 5))
}

func TestDrawSpriteWrapsVertically(t *testing.T) {
	c := New()
	c.memory[0x300] = 0x80
	c.memory[0x301] = 0x80
	c.index = 0x300

	assert.NoError(t, c.drawSprite(10, 31, 2))

	assert.Equal(t, uint8(1), c.Pixel(10, 31))
	assert.Equal(t, uint8(1), c.Pixel(10, 0))
}

func TestDrawSpriteZeroHeight(t *testing.T) {
	c := New()
	c.ClearDrawPending()

	assert.NoError(t, c.drawSprite(0, 0, 0))

	assert.True(t, c.DrawPending())
	for _, b := range c.Framebuffer() {
		assert.Equal(t, uint8(0), b)
	}
}

func TestDrawSpriteOutOfRange(t *testing.T) {
	c := New()
	c.index = 0xFFE
	c.registers[0xF] = 5

	err := c.drawSprite(0, 0, 3)
	assert.Error(t, err)

	var memErr *MemoryError
	assert.True(t, errors.As(err, &memErr))
	assert.Equal(t, 0x1000, memErr.Addr)

	// The draw was rejected before touching any state.
	assert.Equal(t, uint8(5), c.registers[0xF])
	for _, b := range c.Framebuffer() {
		assert.Equal(t, uint8(0), b)
	}
}

func TestDrawSpriteInstruction(t *testing.T) {
	c := New()
	c.registers[1] = 4
	c.registers[2] = 6
	c.index = FontStart

	assert.NoError(t, c.HandleOpcode(0xD125))

	// Glyph 0 is a 4x5 box.
	for x := 4; x <= 7; x++ {
		assert.Equal(t, uint8(1), c.Pixel(x, 6))
		assert.Equal(t, uint8(1), c.Pixel(x, 10))
	}
	assert.Equal(t, uint8(1), c.Pixel(4, 8))
	assert.Equal(t, uint8(1), c.Pixel(7, 8))
	assert.Equal(t, uint8(0), c.Pixel(5, 8))
	assert.Equal(t, uint8(0), c.Pixel(6, 8))
}

func TestClearScreen(t *testing.T) {
	c := New()
	c.index = FontStart
	assert.NoError(t, c.drawSprite(0, 0, FontGlyphSize))
	c.ClearDrawPending()

	assert.NoError(t, c.HandleOpcode(0x00E0))

	assert.True(t, c.DrawPending())
	for _, b := range c.Framebuffer() {
		assert.Equal(t, uint8(0), b)
	}
}

func TestDisplayString(t *testing.T) {
	c := New()
	c.index = FontStart + FontGlyphSize
	assert.NoError(t, c.HandleOpcode(0xD005))

	s := c.DisplayString()
	lines := strings.Split(s, "\n")

	assert.Equal(t, ScreenHeight+1, len(lines))
	assert.Equal(t, "", lines[ScreenHeight])
	for y := 0; y < ScreenHeight; y++ {
		assert.Equal(t, ScreenWidth, utf8.RuneCountInString(lines[y]))
	}

	// Glyph 1 drawn at the origin.
	assert.True(t, strings.HasPrefix(lines[0], "◻◻◼◻"))
	assert.True(t, strings.HasPrefix(lines[1], "◻◼◼◻"))
	assert.True(t, strings.HasPrefix(lines[4], "◻◼◼◼"))
}
