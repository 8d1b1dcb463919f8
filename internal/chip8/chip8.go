package chip8

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
)

const (
	MemorySize    = 4096
	StackSize     = 16
	RegisterCount = 16
	ScreenWidth   = 64
	ScreenHeight  = 32
	KeyCount      = 16

	ProgramStart    = uint16(0x200)
	InstructionSize = 2

	MaxProgramSize = MemorySize - int(ProgramStart)
)

// Chip8 is a single CHIP-8 machine. It owns all of its state and does no
// I/O of its own; a host drives it one Tick at a time and presents the
// framebuffer, key and timer state through whatever front end it likes.
type Chip8 struct {
	memory    []uint8 // Memory (4k)
	registers []uint8 // V registers (V0-VF)

	stack []uint16 // Stack
	sp    uint16   // Stack pointer

	pc    uint16 // Program counter
	index uint16 // Index register

	delayTimer uint8 // Delay timer
	soundTimer uint8 // Sound timer

	gfx      []uint8 // Graphics buffer
	keypad   []bool  // Keypad
	drawFlag bool    // Indicates a draw has occurred

	waitingForKey bool  // Fx0A is pending
	waitKeyReg    uint8 // Register the awaited key goes into

	rng *rand.Rand
}

// Option configures a machine at construction time.
type Option func(*Chip8)

// WithStackDepth overrides the default call stack depth.
func WithStackDepth(n int) Option {
	return func(c *Chip8) {
		if n > 0 {
			c.stack = make([]uint16, n)
		}
	}
}

// WithRandSeed fixes the seed of the Cxkk instruction's random source.
func WithRandSeed(seed uint64) Option {
	return func(c *Chip8) {
		c.rng = rand.New(rand.NewPCG(seed, 0))
	}
}

// New returns a reset machine with no program loaded.
func New(opts ...Option) *Chip8 {
	c := &Chip8{
		memory:    make([]uint8, MemorySize),
		registers: make([]uint8, RegisterCount),
		stack:     make([]uint16, StackSize),
		gfx:       make([]uint8, ScreenWidth*ScreenHeight),
		keypad:    make([]bool, KeyCount),
		rng:       rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}

	for _, opt := range opts {
		opt(c)
	}

	c.Reset()
	return c
}

type Key uint8

const (
	Key0 = Key(iota)
	Key1
	Key2
	Key3
	Key4
	Key5
	Key6
	Key7
	Key8
	Key9
	KeyA
	KeyB
	KeyC
	KeyD
	KeyE
	KeyF
)

// Reset returns the machine to its power-on state. Memory is zeroed and
// the font sprites are reloaded; a program must be loaded again afterwards.
func (c *Chip8) Reset() {
	c.pc = ProgramStart
	c.index = 0
	c.sp = 0

	// Clear the display
	for i := range c.gfx {
		c.gfx[i] = 0
	}
	c.drawFlag = true

	// Clear the stack, keypad, and V registers
	slog.Debug("clear stack", "n", len(c.stack))
	for i := range c.stack {
		c.stack[i] = 0
	}

	slog.Debug("clear keypad", "n", len(c.keypad))
	for i := range c.keypad {
		c.keypad[i] = false
	}

	slog.Debug("clear registers", "n", len(c.registers))
	for i := range c.registers {
		c.registers[i] = 0
	}

	// Clear memory
	slog.Debug("clear memory", "n", len(c.memory))
	for i := range c.memory {
		c.memory[i] = 0
	}

	// Load font set into memory
	slog.Debug("load font", "at", fmt.Sprintf("0x%04x", FontStart), "n", len(fontSet))
	copy(c.memory[FontStart:], fontSet)

	// Reset timers
	c.delayTimer = 0
	c.soundTimer = 0

	c.waitingForKey = false
	c.waitKeyReg = 0
}

// Load copies a program into memory at the program start address.
func (c *Chip8) Load(program []byte) error {
	if len(program) > MaxProgramSize {
		return fmt.Errorf("program too large: %d bytes, max %d", len(program), MaxProgramSize)
	}

	slog.Info("load program", "at", fmt.Sprintf("0x%04x", ProgramStart), "n", len(program))
	copy(c.memory[ProgramStart:], program)
	return nil
}

// Tick advances the machine by one cycle: fetch, execute, count down the
// timers. While a Fx0A is pending the machine executes nothing and only
// the timers run, until a pressed key shows up in the keypad.
func (c *Chip8) Tick() error {
	if c.waitingForKey {
		for i := range c.keypad {
			if c.keypad[i] {
				c.registers[c.waitKeyReg] = uint8(i)
				c.waitingForKey = false
				break
			}
		}

		c.tickTimers()
		return nil
	}

	opcode, err := c.fetchOpcode()
	if err != nil {
		return err
	}

	if err := c.HandleOpcode(opcode); err != nil {
		return err
	}

	c.tickTimers()
	return nil
}

func (c *Chip8) fetchOpcode() (uint16, error) {
	if err := c.memRange(c.pc, InstructionSize); err != nil {
		return 0, err
	}

	hi := c.memory[c.pc]
	lo := c.memory[c.pc+1]
	c.pc += InstructionSize

	opcode := uint16(hi)<<8 | uint16(lo) // Op code is two bytes
	return opcode, nil
}

func (c *Chip8) tickTimers() {
	if c.delayTimer > 0 {
		c.delayTimer--
	}

	if c.soundTimer > 0 {
		c.soundTimer--
	}
}

// memRange validates that n bytes starting at addr fall inside memory.
func (c *Chip8) memRange(addr uint16, n int) error {
	if end := int(addr) + n; end > len(c.memory) {
		return &MemoryError{Addr: end - 1}
	}
	return nil
}

func (c *Chip8) push(v uint16) error {
	if int(c.sp) == len(c.stack) {
		return ErrStackOverflow
	}

	c.stack[c.sp] = v
	c.sp++
	return nil
}

func (c *Chip8) pop() (uint16, error) {
	if c.sp == 0 {
		return 0, ErrStackUnderflow
	}

	c.sp--
	return c.stack[c.sp], nil
}

// SetKey records a key press or release. The engine never mutates key
// state on its own.
func (c *Chip8) SetKey(key Key, pressed bool) {
	if int(key) < len(c.keypad) {
		c.keypad[key] = pressed
	}
}

func (c *Chip8) KeyState(key Key) bool {
	return int(key) < len(c.keypad) && c.keypad[key]
}

// Pixel reports the state of a framebuffer pixel, 0 or 1. Coordinates
// outside the screen read as 0.
func (c *Chip8) Pixel(x, y int) uint8 {
	if x < 0 || x >= ScreenWidth || y < 0 || y >= ScreenHeight {
		return 0
	}
	return c.gfx[y*ScreenWidth+x]
}

// Framebuffer returns a copy of the graphics buffer, one byte per pixel
// in row-major order.
func (c *Chip8) Framebuffer() []uint8 {
	gfx := make([]uint8, len(c.gfx))
	copy(gfx, c.gfx)
	return gfx
}

// Memory returns a copy of the full 4k address space.
func (c *Chip8) Memory() []uint8 {
	mem := make([]uint8, len(c.memory))
	copy(mem, c.memory)
	return mem
}

// Registers returns the current values of V0-VF.
func (c *Chip8) Registers() [RegisterCount]uint8 {
	var regs [RegisterCount]uint8
	copy(regs[:], c.registers)
	return regs
}

func (c *Chip8) PC() uint16 { return c.pc }

func (c *Chip8) Index() uint16 { return c.index }

func (c *Chip8) StackDepth() int { return int(c.sp) }

func (c *Chip8) DelayTimer() uint8 { return c.delayTimer }

func (c *Chip8) SoundTimer() uint8 { return c.soundTimer }

func (c *Chip8) WaitingForKey() bool { return c.waitingForKey }

// DrawPending reports whether the framebuffer has changed since the last
// ClearDrawPending call.
func (c *Chip8) DrawPending() bool { return c.drawFlag }

func (c *Chip8) ClearDrawPending() { c.drawFlag = false }
