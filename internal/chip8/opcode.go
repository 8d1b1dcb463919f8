package chip8

import (
	"context"
	"fmt"
	"log/slog"
)

// opcode is a single 16-bit CHIP-8 instruction word.
type opcode uint16

func (op opcode) x() uint8    { return uint8(op>>8) & 0x0F }
func (op opcode) y() uint8    { return uint8(op>>4) & 0x0F }
func (op opcode) kk() uint8   { return uint8(op) }
func (op opcode) nnn() uint16 { return uint16(op) & 0x0FFF }
func (op opcode) n() uint8    { return uint8(op) & 0x0F }

// HandleOpcode decodes and executes a single instruction against the
// current machine state. The program counter has already moved past the
// instruction by the time a handler runs, so jumps and skips simply
// overwrite or bump it.
func (c *Chip8) HandleOpcode(word uint16) error {
	op := opcode(word)
	instr := decode(op)

	if slog.Default().Enabled(context.Background(), slog.LevelDebug) {
		slog.Debug(
			"exec",
			"pc", fmt.Sprintf("0x%04x", c.pc),
			"opcode", fmt.Sprintf("0x%04x", word),
			"instr", instr.Name(op),
		)
	}

	return instr.Execute(c, op)
}

type instruction struct {
	Name    func(op opcode) string
	Execute func(c *Chip8, op opcode) error
}

func decode(op opcode) instruction {
	switch op & 0xF000 {
	case 0x0000:
		switch op & 0x00FF {
		case 0x00E0:
			// 00E0 - Clear screen
			return clsInstruction

		case 0x00EE:
			// 00EE - Return from subroutine
			return rtsInstruction
		}

	case 0x1000:
		// 1NNN - Jumps to address NNN
		return jmpInstruction

	case 0x2000:
		// 2NNN - Calls subroutine at NNN
		return jsrInstruction

	case 0x3000:
		// 3XNN - Skips the next instruction if VX equals NN
		return skeq1Instruction

	case 0x4000:
		// 4XNN - Skips the next instruction if VX does not equal NN
		return skne1Instruction

	case 0x5000:
		// 5XY0 - Skips the next instruction if VX equals VY
		return skeq2Instruction

	case 0x6000:
		// 6XNN - Sets VX to NN
		return mov1Instruction

	case 0x7000:
		// 7XNN - Adds NN to VX
		return add1Instruction

	case 0x8000:
		// 8XY_
		switch op & 0x000F {
		case 0x0000:
			// 8XY0 - Sets VX to the value of VY
			return mov2Instruction

		case 0x0001:
			// 8XY1 - Sets VX to (VX OR VY)
			return orInstruction

		case 0x0002:
			// 8XY2 - Sets VX to (VX AND VY)
			return andInstruction

		case 0x0003:
			// 8XY3 - Sets VX to (VX XOR VY)
			return xorInstruction

		case 0x0004:
			// 8XY4 - Adds VY to VX. VF is set to 1 when there's a carry, and to 0 when there isn't.
			return add2Instruction

		case 0x0005:
			// 8XY5 - VY is subtracted from VX. VF is set to 0 when there's a borrow, and 1 when there isn't.
			return subInstruction

		case 0x0006:
			// 0x8XY6 - Shifts VX right by one. VF is set to the value of the least significant bit of VX before the shift.
			return shrInstruction

		case 0x0007:
			// 0x8XY7: Sets VX to VY minus VX. VF is set to 0 when there's a borrow, and 1 when there isn't.
			return rsbInstruction

		case 0x000E:
			// 0x8XYE: Shifts VX left by one. VF is set to the value of the most significant bit of VX before the shift.
			return shlInstruction
		}

	case 0x9000:
		// 9XY0 - Skips the next instruction if VX doesn't equal VY
		return skne2Instruction

	case 0xA000:
		// ANNN - Sets I to the address NNN
		return mviInstruction

	case 0xB000:
		// BNNN - Jumps to the address NNN plus V0
		return jmiInstruction

	case 0xC000:
		// CXNN - Sets VX to a random number, masked by NN
		return randInstruction

	case 0xD000:
		// DXYN: Draws a sprite at coordinate (VX, VY) that has a width of 8
		// pixels and a height of N pixels.
		// Each row of 8 pixels is read as bit-coded starting from memory
		// location I;
		// I value doesn't change after the execution of this instruction.
		// VF is set to 1 if any screen pixels are flipped from set to unset
		// when the sprite is drawn, and to 0 if that doesn't happen.
		return spriteInstruction

	case 0xE000:
		switch op & 0x00FF {
		case 0x009E:
			// EX9E - Skips the next instruction if the key stored in VX is pressed
			return skprInstruction

		case 0x00A1:
			// EXA1 - Skips the next instruction if the key stored in VX isn't pressed
			return skupInstruction
		}

	case 0xF000:
		switch op & 0x00FF {
		case 0x0007:
			// FX07 - Sets VX to the value of the delay timer
			return gdelayInstruction

		case 0x000A:
			// FX0A - A key press is awaited, and then stored in VX
			return keyInstruction

		case 0x0015:
			// FX15 - Sets the delay timer to VX
			return sdelayInstruction

		case 0x0018:
			// FX18 - Sets the sound timer to VX
			return ssoundInstruction

		case 0x001E:
			// FX1E - Adds VX to I
			return adiInstruction

		case 0x0029:
			// FX29 - Sets I to the location of the sprite for the
			// character in VX. Characters 0-F (in hexadecimal) are
			// represented by a 4x5 font
			return fontInstruction

		case 0x0033:
			// FX33 - Stores the Binary-coded decimal representation of VX
			// at the addresses I, I plus 1, and I plus 2
			return bcdInstruction

		case 0x0055:
			// FX55 - Stores V0 to VX in memory starting at address I
			return strInstruction

		case 0x0065:
			// FX65 - Reads memory starting at address I into V0...VX
			return ldrInstruction
		}
	}

	return unknownInstruction
}

var (
	// 00E0	cls	Clear the screen
	clsInstruction = instruction{
		Name: func(op opcode) string {
			return "cls"
		},
		Execute: func(c *Chip8, op opcode) error {
			for i := range c.gfx {
				c.gfx[i] = 0
			}
			c.drawFlag = true
			return nil
		},
	}

	// 00EE	rts	return from subroutine call
	rtsInstruction = instruction{
		Name: func(op opcode) string {
			return "rts"
		},
		Execute: func(c *Chip8, op opcode) error {
			pc, err := c.pop()
			if err != nil {
				return err
			}

			c.pc = pc
			return nil
		},
	}

	// 1xxx	jmp xxx	jump to address xxx
	jmpInstruction = instruction{
		Name: func(op opcode) string {
			return fmt.Sprintf("jmp 0x%04x", op.nnn())
		},
		Execute: func(c *Chip8, op opcode) error {
			c.pc = op.nnn()
			return nil
		},
	}

	// 2xxx	jsr xxx	jump to subroutine at address xxx
	jsrInstruction = instruction{
		Name: func(op opcode) string {
			return fmt.Sprintf("jsr 0x%04x", op.nnn())
		},
		Execute: func(c *Chip8, op opcode) error {
			if err := c.push(c.pc); err != nil {
				return err
			}

			c.pc = op.nnn()
			return nil
		},
	}

	// 3rxx	skeq vr,xx	skip if register r = constant
	skeq1Instruction = instruction{
		Name: func(op opcode) string {
			return fmt.Sprintf("skeq v%x, %d", op.x(), op.kk())
		},
		Execute: func(c *Chip8, op opcode) error {
			if c.registers[op.x()] == op.kk() {
				c.pc += InstructionSize
			}
			return nil
		},
	}

	// 4rxx	skne vr,xx	skip if register r <> constant
	skne1Instruction = instruction{
		Name: func(op opcode) string {
			return fmt.Sprintf("skne v%x, %d", op.x(), op.kk())
		},
		Execute: func(c *Chip8, op opcode) error {
			if c.registers[op.x()] != op.kk() {
				c.pc += InstructionSize
			}
			return nil
		},
	}

	// 5ry0	skeq vr,vy	skip if register r = register y
	skeq2Instruction = instruction{
		Name: func(op opcode) string {
			return fmt.Sprintf("skeq v%x, v%x", op.x(), op.y())
		},
		Execute: func(c *Chip8, op opcode) error {
			if c.registers[op.x()] == c.registers[op.y()] {
				c.pc += InstructionSize
			}
			return nil
		},
	}

	// 6rxx	mov vr,xx	move constant to register r
	mov1Instruction = instruction{
		Name: func(op opcode) string {
			return fmt.Sprintf("mov v%x, %d", op.x(), op.kk())
		},
		Execute: func(c *Chip8, op opcode) error {
			c.registers[op.x()] = op.kk()
			return nil
		},
	}

	// 7rxx	add vr,xx	add constant to register r	No carry generated
	add1Instruction = instruction{
		Name: func(op opcode) string {
			return fmt.Sprintf("add v%x, %d", op.x(), op.kk())
		},
		Execute: func(c *Chip8, op opcode) error {
			c.registers[op.x()] += op.kk()
			return nil
		},
	}

	// 8ry0	mov vr,vy	move register vy into vr
	mov2Instruction = instruction{
		Name: func(op opcode) string {
			return fmt.Sprintf("mov v%x, v%x", op.x(), op.y())
		},
		Execute: func(c *Chip8, op opcode) error {
			c.registers[op.x()] = c.registers[op.y()]
			return nil
		},
	}

	// 8ry1	or rx,ry	or register vy into register vx
	orInstruction = instruction{
		Name: func(op opcode) string {
			return fmt.Sprintf("or v%x, v%x", op.x(), op.y())
		},
		Execute: func(c *Chip8, op opcode) error {
			c.registers[op.x()] |= c.registers[op.y()]
			return nil
		},
	}

	// 8ry2	and rx,ry	and register vy into register vx
	andInstruction = instruction{
		Name: func(op opcode) string {
			return fmt.Sprintf("and v%x, v%x", op.x(), op.y())
		},
		Execute: func(c *Chip8, op opcode) error {
			c.registers[op.x()] &= c.registers[op.y()]
			return nil
		},
	}

	// 8ry3	xor rx,ry	exclusive or register ry into register rx
	xorInstruction = instruction{
		Name: func(op opcode) string {
			return fmt.Sprintf("xor v%x, v%x", op.x(), op.y())
		},
		Execute: func(c *Chip8, op opcode) error {
			c.registers[op.x()] ^= c.registers[op.y()]
			return nil
		},
	}

	// 8ry4	add vr,vy	add register vy to vr, carry in vf
	add2Instruction = instruction{
		Name: func(op opcode) string {
			return fmt.Sprintf("add v%x, v%x", op.x(), op.y())
		},
		Execute: func(c *Chip8, op opcode) error {
			sum := uint16(c.registers[op.x()]) + uint16(c.registers[op.y()])

			c.registers[op.x()] = uint8(sum)
			if sum > 0xFF {
				c.registers[0xF] = 1
			} else {
				c.registers[0xF] = 0
			}

			return nil
		},
	}

	// 8ry5	sub vr,vy	subtract register vy from vr	vf set to 0 if borrows
	subInstruction = instruction{
		Name: func(op opcode) string {
			return fmt.Sprintf("sub v%x, v%x", op.x(), op.y())
		},
		Execute: func(c *Chip8, op opcode) error {
			x := c.registers[op.x()]
			y := c.registers[op.y()]

			c.registers[op.x()] = x - y
			if x >= y {
				c.registers[0xF] = 1
			} else {
				c.registers[0xF] = 0
			}

			return nil
		},
	}

	// 8r06	shr vr	shift register vr right, bit 0 goes into register vf
	shrInstruction = instruction{
		Name: func(op opcode) string {
			return fmt.Sprintf("shr v%x", op.x())
		},
		Execute: func(c *Chip8, op opcode) error {
			x := c.registers[op.x()]

			c.registers[op.x()] = x >> 1
			c.registers[0xF] = x & 0x1

			return nil
		},
	}

	// 8ry7	rsb vr,vy	subtract register vr from register vy, result in vr	vf set to 0 if borrows
	rsbInstruction = instruction{
		Name: func(op opcode) string {
			return fmt.Sprintf("rsb v%x, v%x", op.x(), op.y())
		},
		Execute: func(c *Chip8, op opcode) error {
			x := c.registers[op.x()]
			y := c.registers[op.y()]

			c.registers[op.x()] = y - x
			if y >= x {
				c.registers[0xF] = 1
			} else {
				c.registers[0xF] = 0
			}

			return nil
		},
	}

	// 8r0e	shl vr	shift register vr left, bit 7 goes into register vf
	shlInstruction = instruction{
		Name: func(op opcode) string {
			return fmt.Sprintf("shl v%x", op.x())
		},
		Execute: func(c *Chip8, op opcode) error {
			x := c.registers[op.x()]

			c.registers[op.x()] = x << 1
			c.registers[0xF] = x >> 7

			return nil
		},
	}

	// 9ry0	skne vr,vy	skip if register r <> register y
	skne2Instruction = instruction{
		Name: func(op opcode) string {
			return fmt.Sprintf("skne v%x, v%x", op.x(), op.y())
		},
		Execute: func(c *Chip8, op opcode) error {
			if c.registers[op.x()] != c.registers[op.y()] {
				c.pc += InstructionSize
			}
			return nil
		},
	}

	// axxx	mvi xxx	Load index register with constant xxx
	mviInstruction = instruction{
		Name: func(op opcode) string {
			return fmt.Sprintf("mvi 0x%04x", op.nnn())
		},
		Execute: func(c *Chip8, op opcode) error {
			c.index = op.nnn()
			return nil
		},
	}

	// bxxx	jmi xxx	Jump to address xxx+register v0
	jmiInstruction = instruction{
		Name: func(op opcode) string {
			return fmt.Sprintf("jmi 0x%04x", op.nnn())
		},
		Execute: func(c *Chip8, op opcode) error {
			c.pc = op.nnn() + uint16(c.registers[0])
			return nil
		},
	}

	// crxx	rand vr,xx	vr = random number masked by xx
	randInstruction = instruction{
		Name: func(op opcode) string {
			return fmt.Sprintf("rand v%x", op.x())
		},
		Execute: func(c *Chip8, op opcode) error {
			c.registers[op.x()] = uint8(c.rng.IntN(256)) & op.kk()
			return nil
		},
	}

	// drys	sprite rx,ry,s	Draw sprite at screen location rx,ry height s
	// Sprites stored in memory at location in index register, maximum 8 bits wide.
	// Wraps around the screen.
	// If when drawn, clears a pixel, vf is set to 1 otherwise it is zero.
	// All drawing is xor drawing (e.g. it toggles the screen pixels)
	spriteInstruction = instruction{
		Name: func(op opcode) string {
			return fmt.Sprintf("sprite v%x, v%x, %d", op.x(), op.y(), op.n())
		},
		Execute: func(c *Chip8, op opcode) error {
			return c.drawSprite(c.registers[op.x()], c.registers[op.y()], op.n())
		},
	}

	// er9e	skpr k	skip if key (register rk) pressed
	skprInstruction = instruction{
		Name: func(op opcode) string {
			return fmt.Sprintf("skpr v%x", op.x())
		},
		Execute: func(c *Chip8, op opcode) error {
			if c.keypad[c.registers[op.x()]&0x0F] {
				c.pc += InstructionSize
			}
			return nil
		},
	}

	// era1	skup k	skip if key (register rk) not pressed
	skupInstruction = instruction{
		Name: func(op opcode) string {
			return fmt.Sprintf("skup v%x", op.x())
		},
		Execute: func(c *Chip8, op opcode) error {
			if !c.keypad[c.registers[op.x()]&0x0F] {
				c.pc += InstructionSize
			}
			return nil
		},
	}

	// fr07	gdelay vr	get delay timer into vr
	gdelayInstruction = instruction{
		Name: func(op opcode) string {
			return fmt.Sprintf("gdelay v%x", op.x())
		},
		Execute: func(c *Chip8, op opcode) error {
			c.registers[op.x()] = c.delayTimer
			return nil
		},
	}

	// fr0a	key vr	wait for keypress, put key in register vr
	keyInstruction = instruction{
		Name: func(op opcode) string {
			return fmt.Sprintf("key v%x", op.x())
		},
		Execute: func(c *Chip8, op opcode) error {
			c.waitKeyReg = op.x()
			c.waitingForKey = true
			return nil
		},
	}

	// fr15	sdelay vr	set the delay timer to vr
	sdelayInstruction = instruction{
		Name: func(op opcode) string {
			return fmt.Sprintf("sdelay v%x", op.x())
		},
		Execute: func(c *Chip8, op opcode) error {
			c.delayTimer = c.registers[op.x()]
			return nil
		},
	}

	// fr18	ssound vr	set the sound timer to vr
	ssoundInstruction = instruction{
		Name: func(op opcode) string {
			return fmt.Sprintf("ssound v%x", op.x())
		},
		Execute: func(c *Chip8, op opcode) error {
			c.soundTimer = c.registers[op.x()]
			return nil
		},
	}

	// fr1e	adi vr	add register vr to the index register
	adiInstruction = instruction{
		Name: func(op opcode) string {
			return fmt.Sprintf("adi v%x", op.x())
		},
		Execute: func(c *Chip8, op opcode) error {
			c.index += uint16(c.registers[op.x()])
			return nil
		},
	}

	// fr29	font vr	point I to the sprite for hexadecimal character in vr	Sprite is 5 bytes high
	fontInstruction = instruction{
		Name: func(op opcode) string {
			return fmt.Sprintf("font v%x", op.x())
		},
		Execute: func(c *Chip8, op opcode) error {
			digit := uint16(c.registers[op.x()] & 0x0F)
			c.index = FontStart + digit*FontGlyphSize
			return nil
		},
	}

	// fr33	bcd vr	store the bcd representation of register vr at location I,I+1,I+2	Doesn't change I
	bcdInstruction = instruction{
		Name: func(op opcode) string {
			return fmt.Sprintf("bcd v%x", op.x())
		},
		Execute: func(c *Chip8, op opcode) error {
			if err := c.memRange(c.index, 3); err != nil {
				return err
			}

			x := c.registers[op.x()]
			c.memory[c.index] = x / 100
			c.memory[c.index+1] = (x / 10) % 10
			c.memory[c.index+2] = x % 10

			return nil
		},
	}

	// fr55	str v0-vr	store registers v0-vr at location I onwards	I is incremented to point to the next location on. e.g. I = I + r + 1
	strInstruction = instruction{
		Name: func(op opcode) string {
			return fmt.Sprintf("str %d", op.x())
		},
		Execute: func(c *Chip8, op opcode) error {
			n := uint16(op.x())
			if err := c.memRange(c.index, int(n)+1); err != nil {
				return err
			}

			for i := uint16(0); i <= n; i++ {
				c.memory[c.index+i] = c.registers[i]
			}

			// On the original interpreter, when the operation is done, I = I + X + 1.
			c.index += n + 1

			return nil
		},
	}

	// fr65	ldr v0-vr	load registers v0-vr from location I onwards.
	ldrInstruction = instruction{
		Name: func(op opcode) string {
			return fmt.Sprintf("ldr %d", op.x())
		},
		Execute: func(c *Chip8, op opcode) error {
			n := uint16(op.x())
			if err := c.memRange(c.index, int(n)+1); err != nil {
				return err
			}

			for i := uint16(0); i <= n; i++ {
				c.registers[i] = c.memory[c.index+i]
			}

			// On the original interpreter, when the operation is done, I = I + X + 1.
			c.index += n + 1

			return nil
		},
	}

	unknownInstruction = instruction{
		Name: func(op opcode) string {
			return fmt.Sprintf("unknown 0x%04X", uint16(op))
		},
		Execute: func(c *Chip8, op opcode) error {
			return &OpcodeError{Opcode: uint16(op)}
		},
	}
)
