package chip8

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/retroenv/retrogolib/assert"
)

func TestALUOps(t *testing.T) {
	tests := []struct {
		name   string
		v2     uint8
		v3     uint8
		opcode uint16
		wantV2 uint8
		wantVF uint8
	}{
		{"mov", 5, 9, 0x8230, 9, 0},
		{"or", 0x0F, 0xF0, 0x8231, 0xFF, 0},
		{"and", 0x0F, 0x1E, 0x8232, 0x0E, 0},
		{"xor", 0x0F, 0x1E, 0x8233, 0x11, 0},
		{"add", 200, 55, 0x8234, 255, 0},
		{"add with carry", 200, 100, 0x8234, 44, 1},
		{"sub", 200, 100, 0x8235, 100, 1},
		{"sub with borrow", 100, 200, 0x8235, 156, 0},
		{"sub equal", 100, 100, 0x8235, 0, 1},
		{"shr", 11, 0, 0x8236, 5, 1},
		{"shr even", 8, 0, 0x8236, 4, 0},
		{"rsb", 50, 200, 0x8237, 150, 1},
		{"rsb with borrow", 200, 50, 0x8237, 106, 0},
		{"shl", 0x81, 0, 0x823E, 0x02, 1},
		{"shl no carry", 0x41, 0, 0x823E, 0x82, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New()
			c.registers[2] = tt.v2
			c.registers[3] = tt.v3

			assert.NoError(t, c.HandleOpcode(tt.opcode))
			assert.Equal(t, tt.wantV2, c.registers[2])
			assert.Equal(t, tt.wantVF, c.registers[0xF])
		})
	}
}

func TestSkips(t *testing.T) {
	tests := []struct {
		name   string
		opcode uint16
		setup  func(c *Chip8)
		wantPC uint16
	}{
		{"skeq const taken", 0x3207, func(c *Chip8) { c.registers[2] = 7 }, 0x204},
		{"skeq const not taken", 0x3207, func(c *Chip8) { c.registers[2] = 8 }, 0x202},
		{"skne const taken", 0x4207, func(c *Chip8) { c.registers[2] = 8 }, 0x204},
		{"skne const not taken", 0x4207, func(c *Chip8) { c.registers[2] = 7 }, 0x202},
		{"skeq reg taken", 0x5230, func(c *Chip8) { c.registers[2], c.registers[3] = 9, 9 }, 0x204},
		{"skeq reg not taken", 0x5230, func(c *Chip8) { c.registers[2], c.registers[3] = 9, 4 }, 0x202},
		{"skne reg taken", 0x9230, func(c *Chip8) { c.registers[2], c.registers[3] = 9, 4 }, 0x204},
		{"skne reg not taken", 0x9230, func(c *Chip8) { c.registers[2], c.registers[3] = 9, 9 }, 0x202},
		{"skpr taken", 0xE29E, func(c *Chip8) {
			c.registers[2] = 5
			c.SetKey(Key5, true)
		}, 0x204},
		{"skpr not taken", 0xE29E, func(c *Chip8) { c.registers[2] = 5 }, 0x202},
		{"skpr masks key", 0xE29E, func(c *Chip8) {
			c.registers[2] = 0x15
			c.SetKey(Key5, true)
		}, 0x204},
		{"skup taken", 0xE2A1, func(c *Chip8) { c.registers[2] = 5 }, 0x204},
		{"skup not taken", 0xE2A1, func(c *Chip8) {
			c.registers[2] = 5
			c.SetKey(Key5, true)
		}, 0x202},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New()
			assert.NoError(t, c.Load([]byte{uint8(tt.opcode >> 8), uint8(tt.opcode)}))
			tt.setup(c)

			assert.NoError(t, c.Tick())
			assert.Equal(t, tt.wantPC, c.PC())
		})
	}
}

func TestCallRet(t *testing.T) {
	c := New()
	c.pc = 0x250

	assert.NoError(t, c.HandleOpcode(0x2ABC))
	assert.Equal(t, uint16(0xABC), c.PC())
	assert.Equal(t, 1, c.StackDepth())

	assert.NoError(t, c.HandleOpcode(0x00EE))
	assert.Equal(t, uint16(0x250), c.PC())
	assert.Equal(t, 0, c.StackDepth())
}

func TestCallRetProgram(t *testing.T) {
	c := New()
	assert.NoError(t, c.Load([]byte{0x22, 0x04, 0x61, 0x05, 0x00, 0xEE}))

	assert.NoError(t, c.Tick())
	assert.Equal(t, uint16(0x204), c.PC())
	assert.Equal(t, 1, c.StackDepth())

	// Returning lands on the instruction right after the call.
	assert.NoError(t, c.Tick())
	assert.Equal(t, uint16(0x202), c.PC())
	assert.Equal(t, 0, c.StackDepth())

	assert.NoError(t, c.Tick())
	assert.Equal(t, uint8(5), c.Registers()[1])
}

func TestCallStackOverflow(t *testing.T) {
	c := New()

	for i := 0; i < StackSize; i++ {
		assert.NoError(t, c.HandleOpcode(0x2300))
	}

	err := c.HandleOpcode(0x2300)
	assert.True(t, errors.Is(err, ErrStackOverflow))
	assert.Equal(t, StackSize, c.StackDepth())
}

func TestRetStackUnderflow(t *testing.T) {
	c := New()

	err := c.HandleOpcode(0x00EE)
	assert.True(t, errors.Is(err, ErrStackUnderflow))
}

func TestJumps(t *testing.T) {
	c := New()

	assert.NoError(t, c.HandleOpcode(0x1ABC))
	assert.Equal(t, uint16(0xABC), c.PC())

	c.registers[0] = 5
	assert.NoError(t, c.HandleOpcode(0xB100))
	assert.Equal(t, uint16(0x105), c.PC())
}

func TestAddImmediate(t *testing.T) {
	c := New()
	c.registers[2] = 250
	c.registers[0xF] = 3

	assert.NoError(t, c.HandleOpcode(0x7210))

	// Wraps around without touching the carry flag.
	assert.Equal(t, uint8(10), c.registers[2])
	assert.Equal(t, uint8(3), c.registers[0xF])
}

func TestLoadIndex(t *testing.T) {
	c := New()

	assert.NoError(t, c.HandleOpcode(0xA123))
	assert.Equal(t, uint16(0x123), c.Index())
}

func TestAddIndex(t *testing.T) {
	c := New()
	c.index = 0xFFF
	c.registers[1] = 0x10
	c.registers[0xF] = 7

	assert.NoError(t, c.HandleOpcode(0xF11E))

	// The index register is 16 bits wide and Fx1E carries past 0xFFF
	// without setting a flag.
	assert.Equal(t, uint16(0x100F), c.Index())
	assert.Equal(t, uint8(7), c.registers[0xF])
}

func TestFontAddress(t *testing.T) {
	c := New()

	c.registers[3] = 0xB
	assert.NoError(t, c.HandleOpcode(0xF329))
	assert.Equal(t, FontStart+0xB*FontGlyphSize, c.Index())

	// Only the low nibble selects the glyph.
	c.registers[3] = 0x1B
	assert.NoError(t, c.HandleOpcode(0xF329))
	assert.Equal(t, FontStart+0xB*FontGlyphSize, c.Index())

	c.registers[3] = 0
	assert.NoError(t, c.HandleOpcode(0xF329))
	if diff := cmp.Diff(fontSet[:FontGlyphSize], c.memory[c.index:c.index+FontGlyphSize]); diff != "" {
		t.Errorf("glyph 0 mismatch (-want +got):\n%s", diff)
	}
}

func TestBCD(t *testing.T) {
	tests := []struct {
		value uint8
		want  []uint8
	}{
		{157, []uint8{1, 5, 7}},
		{0, []uint8{0, 0, 0}},
		{9, []uint8{0, 0, 9}},
		{255, []uint8{2, 5, 5}},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d", tt.value), func(t *testing.T) {
			c := New()
			c.registers[7] = tt.value
			c.index = 0x300

			assert.NoError(t, c.HandleOpcode(0xF733))
			if diff := cmp.Diff(tt.want, c.memory[0x300:0x303]); diff != "" {
				t.Errorf("digits mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBCDOutOfRange(t *testing.T) {
	c := New()
	c.registers[7] = 123
	c.index = 0xFFE

	err := c.HandleOpcode(0xF733)
	assert.Error(t, err)

	var memErr *MemoryError
	assert.True(t, errors.As(err, &memErr))
	assert.Equal(t, 0x1000, memErr.Addr)

	// Nothing was written.
	assert.Equal(t, uint8(0), c.memory[0xFFE])
	assert.Equal(t, uint8(0), c.memory[0xFFF])
}

func TestRegisterStore(t *testing.T) {
	c := New()
	c.registers[0] = 10
	c.registers[1] = 20
	c.registers[2] = 30
	c.registers[3] = 40
	c.index = 0x400

	assert.NoError(t, c.HandleOpcode(0xF355))

	if diff := cmp.Diff([]uint8{10, 20, 30, 40}, c.memory[0x400:0x404]); diff != "" {
		t.Errorf("memory mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, uint16(0x404), c.Index())
}

func TestRegisterStoreSingle(t *testing.T) {
	c := New()
	c.registers[0] = 10
	c.registers[1] = 20
	c.index = 0x400

	assert.NoError(t, c.HandleOpcode(0xF055))

	assert.Equal(t, uint8(10), c.memory[0x400])
	assert.Equal(t, uint8(0), c.memory[0x401])
	assert.Equal(t, uint16(0x401), c.Index())
}

func TestRegisterStoreOutOfRange(t *testing.T) {
	c := New()
	c.registers[0] = 10
	c.index = 0xFFF

	err := c.HandleOpcode(0xF155)
	assert.Error(t, err)

	var memErr *MemoryError
	assert.True(t, errors.As(err, &memErr))

	assert.Equal(t, uint8(0), c.memory[0xFFF])
	assert.Equal(t, uint16(0xFFF), c.Index())
}

func TestRegisterLoad(t *testing.T) {
	c := New()
	copy(c.memory[0x400:], []uint8{10, 20, 30, 40, 50})
	c.index = 0x400

	assert.NoError(t, c.HandleOpcode(0xF365))

	regs := c.Registers()
	if diff := cmp.Diff([]uint8{10, 20, 30, 40}, regs[:4]); diff != "" {
		t.Errorf("registers mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, uint8(0), regs[4])
	assert.Equal(t, uint16(0x404), c.Index())
}

func TestRegisterRoundTrip(t *testing.T) {
	c := New()
	c.registers[0] = 11
	c.registers[1] = 22
	c.registers[2] = 33
	c.index = 0x400

	assert.NoError(t, c.HandleOpcode(0xF255))
	assert.Equal(t, uint16(0x403), c.Index())

	for i := range c.registers {
		c.registers[i] = 0
	}
	c.index = 0x400

	assert.NoError(t, c.HandleOpcode(0xF265))
	assert.Equal(t, uint16(0x403), c.Index())

	regs := c.Registers()
	if diff := cmp.Diff([]uint8{11, 22, 33}, regs[:3]); diff != "" {
		t.Errorf("registers mismatch (-want +got):\n%s", diff)
	}
}

func TestRegisterLoadOutOfRange(t *testing.T) {
	c := New()
	c.index = 0xFFF

	err := c.HandleOpcode(0xF165)
	assert.Error(t, err)

	var memErr *MemoryError
	assert.True(t, errors.As(err, &memErr))
	assert.Equal(t, uint16(0xFFF), c.Index())
}

func TestTimerOps(t *testing.T) {
	c := New()

	c.delayTimer = 42
	assert.NoError(t, c.HandleOpcode(0xF507))
	assert.Equal(t, uint8(42), c.registers[5])

	c.registers[5] = 99
	assert.NoError(t, c.HandleOpcode(0xF515))
	assert.Equal(t, uint8(99), c.DelayTimer())

	c.registers[5] = 77
	assert.NoError(t, c.HandleOpcode(0xF518))
	assert.Equal(t, uint8(77), c.SoundTimer())
}

func TestRandMasked(t *testing.T) {
	c := New()
	c.registers[4] = 0xAA

	// A zero mask forces the result to zero regardless of the roll.
	for i := 0; i < 8; i++ {
		assert.NoError(t, c.HandleOpcode(0xC400))
		assert.Equal(t, uint8(0), c.registers[4])
	}
}

func TestInvalidOpcodes(t *testing.T) {
	opcodes := []uint16{
		0x0000,
		0x0123,
		0x00FF,
		0x8AB8,
		0x8ABF,
		0xE000,
		0xF000,
		0xF066,
		0xF0FF,
	}

	for _, op := range opcodes {
		t.Run(fmt.Sprintf("%04X", op), func(t *testing.T) {
			c := New()

			err := c.HandleOpcode(op)
			assert.Error(t, err)

			var opErr *OpcodeError
			assert.True(t, errors.As(err, &opErr))
			assert.Equal(t, op, opErr.Opcode)
		})
	}
}

func TestSkipIgnoresLowNibble(t *testing.T) {
	// The machine decodes 5XY_ and 9XY_ on the high nibble alone.
	c := New()
	c.registers[0xA] = 9
	c.registers[0xB] = 9

	assert.NoError(t, c.HandleOpcode(0x5AB1))
	assert.Equal(t, ProgramStart+InstructionSize, c.PC())
}

func TestInstructionNames(t *testing.T) {
	tests := []struct {
		opcode uint16
		want   string
	}{
		{0x00E0, "cls"},
		{0x00EE, "rts"},
		{0x1ABC, "jmp 0x0abc"},
		{0x2ABC, "jsr 0x0abc"},
		{0x6A42, "mov va, 66"},
		{0x8236, "shr v2"},
		{0xA123, "mvi 0x0123"},
		{0xD125, "sprite v1, v2, 5"},
		{0xF518, "ssound v5"},
		{0xF51E, "adi v5"},
		{0xF029, "font v0"},
		{0xF355, "str 3"},
		{0xF365, "ldr 3"},
		{0xFFFF, "unknown 0xFFFF"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			op := opcode(tt.opcode)
			assert.Equal(t, tt.want, decode(op).Name(op))
		})
	}
}
