package host

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/vip8/vip8/internal/chip8"
)

// Front ends return these from ReadInput to unwind the run loop.
var (
	ErrReboot = errors.New("reboot")
	ErrQuit   = errors.New("quit")
)

var errProgramLoop = errors.New("program loop")

// HAL is the hardware boundary a front end implements: pixels out, key
// events in, a beeper, and frame pacing.
type HAL interface {
	ReadInput(keyDown func(chip8.Key), keyUp func(chip8.Key)) error
	Draw(gfx []uint8) error
	Beep(on bool) error
	WaitForNextFrame() error
}

// Run drives a machine against a front end until the front end asks to
// quit or reboot. A program that spins on itself, or faults the machine,
// parks the emulator with input polling only; the user decides whether
// to reboot or quit from there.
func Run(m *chip8.Chip8, h HAL) error {
	for {
		err := runStep(m, h)
		if err == nil {
			continue
		}

		if errors.Is(err, errProgramLoop) {
			slog.Info("program looped", "pc", fmt.Sprintf("0x%04x", m.PC()))
			return waitForReboot(h)
		}

		if isMachineFault(err) {
			slog.Error("machine fault", "pc", fmt.Sprintf("0x%04x", m.PC()), "err", err)
			return waitForReboot(h)
		}

		return err
	}
}

func runStep(m *chip8.Chip8, h HAL) error {
	pc, waiting := m.PC(), m.WaitingForKey()

	if err := m.Tick(); err != nil {
		return err
	}

	if !waiting && m.PC() == pc {
		return errProgramLoop
	}

	if m.DrawPending() {
		if err := h.Draw(m.Framebuffer()); err != nil {
			return err
		}
		m.ClearDrawPending()
	}

	if err := h.Beep(m.SoundTimer() > 0); err != nil {
		return err
	}

	if err := h.ReadInput(
		func(key chip8.Key) { m.SetKey(key, true) },
		func(key chip8.Key) { m.SetKey(key, false) },
	); err != nil {
		return err
	}

	return h.WaitForNextFrame()
}

func waitForReboot(h HAL) error {
	if err := h.Beep(false); err != nil {
		return err
	}

	for {
		if err := h.WaitForNextFrame(); err != nil {
			return err
		}

		if err := h.ReadInput(func(chip8.Key) {}, func(chip8.Key) {}); err != nil {
			return err
		}
	}
}

func isMachineFault(err error) bool {
	var opErr *chip8.OpcodeError
	var memErr *chip8.MemoryError

	return errors.As(err, &opErr) || errors.As(err, &memErr) ||
		errors.Is(err, chip8.ErrStackOverflow) || errors.Is(err, chip8.ErrStackUnderflow)
}
