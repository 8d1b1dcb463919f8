package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/vip8/vip8/internal/disasm"
)

func newDisasmCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "disasm PATH_TO_ROM_FILE",
		Short: "Print a listing of a ROM file",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			rom, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("unable to load file %q: %w", args[0], err)
			}

			return disasm.Disassemble(rom, os.Stdout)
		},
	}
}
