package disasm

import (
	"fmt"
	"io"

	"github.com/vip8/vip8/internal/chip8"
)

// opcodeInfo matches an instruction word by mask and renders its
// mnemonic in Cowgod notation.
type opcodeInfo struct {
	mask   uint16
	value  uint16
	format func(op uint16) string
}

// Exact matches come before family matches; the first hit wins.
var opcodes = []opcodeInfo{
	{0xFFFF, 0x00E0, func(uint16) string { return "CLS" }},
	{0xFFFF, 0x00EE, func(uint16) string { return "RET" }},
	{0xF000, 0x0000, func(op uint16) string { return fmt.Sprintf("SYS $%03X", op&0x0FFF) }},
	{0xF000, 0x1000, func(op uint16) string { return fmt.Sprintf("JP $%03X", op&0x0FFF) }},
	{0xF000, 0x2000, func(op uint16) string { return fmt.Sprintf("CALL $%03X", op&0x0FFF) }},
	{0xF000, 0x3000, func(op uint16) string { return fmt.Sprintf("SE V%X, $%02X", x(op), kk(op)) }},
	{0xF000, 0x4000, func(op uint16) string { return fmt.Sprintf("SNE V%X, $%02X", x(op), kk(op)) }},
	{0xF00F, 0x5000, func(op uint16) string { return fmt.Sprintf("SE V%X, V%X", x(op), y(op)) }},
	{0xF000, 0x6000, func(op uint16) string { return fmt.Sprintf("LD V%X, $%02X", x(op), kk(op)) }},
	{0xF000, 0x7000, func(op uint16) string { return fmt.Sprintf("ADD V%X, $%02X", x(op), kk(op)) }},
	{0xF00F, 0x8000, func(op uint16) string { return fmt.Sprintf("LD V%X, V%X", x(op), y(op)) }},
	{0xF00F, 0x8001, func(op uint16) string { return fmt.Sprintf("OR V%X, V%X", x(op), y(op)) }},
	{0xF00F, 0x8002, func(op uint16) string { return fmt.Sprintf("AND V%X, V%X", x(op), y(op)) }},
	{0xF00F, 0x8003, func(op uint16) string { return fmt.Sprintf("XOR V%X, V%X", x(op), y(op)) }},
	{0xF00F, 0x8004, func(op uint16) string { return fmt.Sprintf("ADD V%X, V%X", x(op), y(op)) }},
	{0xF00F, 0x8005, func(op uint16) string { return fmt.Sprintf("SUB V%X, V%X", x(op), y(op)) }},
	{0xF00F, 0x8006, func(op uint16) string { return fmt.Sprintf("SHR V%X", x(op)) }},
	{0xF00F, 0x8007, func(op uint16) string { return fmt.Sprintf("SUBN V%X, V%X", x(op), y(op)) }},
	{0xF00F, 0x800E, func(op uint16) string { return fmt.Sprintf("SHL V%X", x(op)) }},
	{0xF00F, 0x9000, func(op uint16) string { return fmt.Sprintf("SNE V%X, V%X", x(op), y(op)) }},
	{0xF000, 0xA000, func(op uint16) string { return fmt.Sprintf("LD I, $%03X", op&0x0FFF) }},
	{0xF000, 0xB000, func(op uint16) string { return fmt.Sprintf("JP V0, $%03X", op&0x0FFF) }},
	{0xF000, 0xC000, func(op uint16) string { return fmt.Sprintf("RND V%X, $%02X", x(op), kk(op)) }},
	{0xF000, 0xD000, func(op uint16) string { return fmt.Sprintf("DRW V%X, V%X, $%X", x(op), y(op), op&0x0F) }},
	{0xF0FF, 0xE09E, func(op uint16) string { return fmt.Sprintf("SKP V%X", x(op)) }},
	{0xF0FF, 0xE0A1, func(op uint16) string { return fmt.Sprintf("SKNP V%X", x(op)) }},
	{0xF0FF, 0xF007, func(op uint16) string { return fmt.Sprintf("LD V%X, DT", x(op)) }},
	{0xF0FF, 0xF00A, func(op uint16) string { return fmt.Sprintf("LD V%X, K", x(op)) }},
	{0xF0FF, 0xF015, func(op uint16) string { return fmt.Sprintf("LD DT, V%X", x(op)) }},
	{0xF0FF, 0xF018, func(op uint16) string { return fmt.Sprintf("LD ST, V%X", x(op)) }},
	{0xF0FF, 0xF01E, func(op uint16) string { return fmt.Sprintf("ADD I, V%X", x(op)) }},
	{0xF0FF, 0xF029, func(op uint16) string { return fmt.Sprintf("LD F, V%X", x(op)) }},
	{0xF0FF, 0xF033, func(op uint16) string { return fmt.Sprintf("LD B, V%X", x(op)) }},
	{0xF0FF, 0xF055, func(op uint16) string { return fmt.Sprintf("LD [I], V%X", x(op)) }},
	{0xF0FF, 0xF065, func(op uint16) string { return fmt.Sprintf("LD V%X, [I]", x(op)) }},
}

func x(op uint16) uint16 { return op >> 8 & 0x0F }

func y(op uint16) uint16 { return op >> 4 & 0x0F }

func kk(op uint16) uint16 { return op & 0xFF }

// Disassemble writes a listing of a program as it would appear loaded at
// the program start address, one instruction word per line. Words that
// decode to nothing are listed as data.
func Disassemble(program []byte, w io.Writer) error {
	for i := 0; i+1 < len(program); i += 2 {
		word := uint16(program[i])<<8 | uint16(program[i+1])
		addr := chip8.ProgramStart + uint16(i)

		if _, err := fmt.Fprintf(w, "%04X  %04X  %s\n", addr, word, format(word)); err != nil {
			return err
		}
	}

	if len(program)%2 != 0 {
		b := program[len(program)-1]
		addr := chip8.ProgramStart + uint16(len(program)-1)

		if _, err := fmt.Fprintf(w, "%04X  %02X    .byte $%02X\n", addr, b, b); err != nil {
			return err
		}
	}

	return nil
}

func format(op uint16) string {
	for _, info := range opcodes {
		if op&info.mask == info.value {
			return info.format(op)
		}
	}

	return fmt.Sprintf(".word $%04X", op)
}
