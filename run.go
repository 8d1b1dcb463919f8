package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/vip8/vip8/internal/chip8"
	"github.com/vip8/vip8/internal/hal"
	"github.com/vip8/vip8/internal/host"
	"github.com/vip8/vip8/internal/term"
)

func newRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run PATH_TO_ROM_FILE",
		Short: "Run a ROM file",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runROM(args[0])
		},
	}

	flags := cmd.Flags()
	flags.Bool("term", false, "render into the terminal instead of an SDL window")
	flags.Int("scale", hal.DefaultScale, "window scale factor")
	flags.String("fg", fmt.Sprintf("%06x", hal.DefaultFgColor), "foreground color (hex RGB)")
	flags.String("bg", fmt.Sprintf("%06x", hal.DefaultBgColor), "background color (hex RGB)")
	flags.Duration("cycle-delay", hal.DefaultCycleDelay, "delay between machine cycles")
	flags.Int("stack-depth", chip8.StackSize, "call stack depth")
	flags.Uint64("seed", 0, "random seed, 0 seeds from entropy")

	for _, name := range []string{"term", "scale", "fg", "bg", "cycle-delay", "stack-depth", "seed"} {
		cobra.CheckErr(viper.BindPFlag(name, flags.Lookup(name)))
	}

	return cmd
}

func runROM(path string) error {
	rom, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("unable to load file %q: %w", path, err)
	}

	opts := []chip8.Option{chip8.WithStackDepth(viper.GetInt("stack-depth"))}
	if seed := viper.GetUint64("seed"); seed != 0 {
		opts = append(opts, chip8.WithRandSeed(seed))
	}

	machine := chip8.New(opts...)

	h, err := newFrontend()
	if err != nil {
		return fmt.Errorf("unable to initialize front end: %w", err)
	}
	defer h.Shutdown()

	for {
		if err := machine.Load(rom); err != nil {
			return err
		}

		err = host.Run(machine, h)

		if errors.Is(err, host.ErrQuit) {
			return nil
		}

		if errors.Is(err, host.ErrReboot) {
			machine.Reset()
			continue
		}

		return err
	}
}

// frontend is a HAL the run command can also tear down.
type frontend interface {
	host.HAL
	Shutdown()
}

func newFrontend() (frontend, error) {
	cycleDelay := viper.GetDuration("cycle-delay")

	if viper.GetBool("term") {
		return term.New(term.Config{CycleDelay: cycleDelay})
	}

	fg, err := parseColor(viper.GetString("fg"))
	if err != nil {
		return nil, fmt.Errorf("invalid foreground color: %w", err)
	}

	bg, err := parseColor(viper.GetString("bg"))
	if err != nil {
		return nil, fmt.Errorf("invalid background color: %w", err)
	}

	return hal.New(hal.Config{
		Scale:      viper.GetInt("scale"),
		FgColor:    fg,
		BgColor:    bg,
		CycleDelay: cycleDelay,
	})
}

func parseColor(s string) (uint32, error) {
	v, err := strconv.ParseUint(strings.TrimPrefix(s, "#"), 16, 32)
	if err != nil {
		return 0, err
	}

	return uint32(v), nil
}
