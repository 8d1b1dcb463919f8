package chip8

import "strings"

const spriteWidth = 8

// drawSprite XORs an n-row sprite read from the index register onto the
// framebuffer, anchored at (x, y). Every target pixel wraps around the
// screen edges. VF reports whether any pixel was erased by the draw.
func (c *Chip8) drawSprite(x, y, n uint8) error {
	if err := c.memRange(c.index, int(n)); err != nil {
		return err
	}

	c.registers[0xF] = 0

	for row := uint16(0); row < uint16(n); row++ {
		bits := c.memory[c.index+row]

		for col := uint16(0); col < spriteWidth; col++ {
			if bits&(0x80>>col) == 0 {
				continue
			}

			if c.xorPixel(uint16(x)+col, uint16(y)+row) {
				c.registers[0xF] = 1
			}
		}
	}

	c.drawFlag = true
	return nil
}

// xorPixel toggles a single pixel, wrapping the coordinates, and reports
// whether the pixel was erased.
func (c *Chip8) xorPixel(x, y uint16) bool {
	x %= ScreenWidth
	y %= ScreenHeight

	addr := ScreenWidth*y + x
	c.gfx[addr] ^= 1

	return c.gfx[addr] == 0
}

// DisplayString renders the framebuffer as text, one line per scanline,
// with filled and empty squares for lit and dark pixels.
func (c *Chip8) DisplayString() string {
	var sb strings.Builder

	for y := 0; y < ScreenHeight; y++ {
		for x := 0; x < ScreenWidth; x++ {
			if c.gfx[ScreenWidth*y+x] != 0 {
				sb.WriteRune('◼')
			} else {
				sb.WriteRune('◻')
			}
		}
		sb.WriteByte('\n')
	}

	return sb.String()
}
