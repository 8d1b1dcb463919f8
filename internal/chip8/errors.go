package chip8

import (
	"errors"
	"fmt"
)

var (
	ErrStackOverflow  = errors.New("call stack overflow")
	ErrStackUnderflow = errors.New("call stack underflow")
)

// OpcodeError reports an instruction word that does not decode to any
// CHIP-8 instruction.
type OpcodeError struct {
	Opcode uint16
}

func (e *OpcodeError) Error() string {
	return fmt.Sprintf("unknown op code 0x%04X", e.Opcode)
}

// MemoryError reports an access outside the 4k address space.
type MemoryError struct {
	Addr int
}

func (e *MemoryError) Error() string {
	return fmt.Sprintf("memory address out of range 0x%04X", e.Addr)
}
