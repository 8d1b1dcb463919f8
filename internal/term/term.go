package term

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/pkg/term/termios"
	"github.com/vip8/vip8/internal/chip8"
	"github.com/vip8/vip8/internal/host"
	"golang.org/x/sys/unix"
)

const (
	DefaultCycleDelay = 1200 * time.Microsecond

	// Raw terminals report key presses but never releases, so every press
	// is held for this long and then released by the input poll.
	keyHoldDuration = 100 * time.Millisecond
)

// Config controls the frame pacing. Zero values fall back to the
// defaults.
type Config struct {
	CycleDelay time.Duration
}

// Term renders the machine into an ANSI terminal switched to raw mode.
// Escape quits, backspace reboots.
type Term struct {
	saved      unix.Termios
	keys       chan byte
	deadlines  [chip8.KeyCount]time.Time
	beeping    bool
	cycleDelay time.Duration
}

func New(cfg Config) (*Term, error) {
	if cfg.CycleDelay <= 0 {
		cfg.CycleDelay = DefaultCycleDelay
	}

	t := &Term{
		keys:       make(chan byte, 64),
		cycleDelay: cfg.CycleDelay,
	}

	if err := termios.Tcgetattr(os.Stdin.Fd(), &t.saved); err != nil {
		return nil, fmt.Errorf("failed to read terminal attributes: %w", err)
	}

	raw := t.saved
	raw.Lflag &^= unix.ICANON | unix.ECHO
	if err := termios.Tcsetattr(os.Stdin.Fd(), termios.TCSANOW, &raw); err != nil {
		return nil, fmt.Errorf("failed to enable raw mode: %w", err)
	}
	slog.Debug("term: raw mode enabled")

	// Clear the screen and hide the cursor
	if _, err := os.Stdout.WriteString("\x1b[2J\x1b[?25l"); err != nil {
		return nil, err
	}

	go t.readLoop()

	return t, nil
}

func (t *Term) readLoop() {
	buf := make([]byte, 1)
	for {
		n, err := os.Stdin.Read(buf)
		if err != nil || n == 0 {
			return
		}

		select {
		case t.keys <- buf[0]:
		default:
		}
	}
}

func (t *Term) Shutdown() {
	if err := termios.Tcsetattr(os.Stdin.Fd(), termios.TCSANOW, &t.saved); err != nil {
		slog.Error("failed to restore terminal attributes", "err", err)
	}

	// Show the cursor again
	if _, err := os.Stdout.WriteString("\x1b[?25h\n"); err != nil {
		slog.Error("failed to restore cursor", "err", err)
	}
}

func (t *Term) ReadInput(keyDown func(chip8.Key), keyUp func(chip8.Key)) error {
	now := time.Now()

drain:
	for {
		select {
		case b := <-t.keys:
			switch b {
			case 0x1b: // Escape
				slog.Debug("term: exit requested")
				return host.ErrQuit

			case 0x08, 0x7f: // Backspace
				return host.ErrReboot

			default:
				if key, ok := keyFor(b); ok {
					keyDown(key)
					t.deadlines[key] = now.Add(keyHoldDuration)
				}
			}

		default:
			break drain
		}
	}

	for k := range t.deadlines {
		if !t.deadlines[k].IsZero() && now.After(t.deadlines[k]) {
			keyUp(chip8.Key(k))
			t.deadlines[k] = time.Time{}
		}
	}

	return nil
}

func keyFor(b byte) (chip8.Key, bool) {
	// Physical                Logical
	// ================        =================
	// | 1 | 2 | 3 | 4 |       | 1 | 2 | 3 | C |
	// | q | w | e | r |       | 4 | 5 | 6 | D |
	// | a | s | d | f |  <=>  | 7 | 8 | 9 | E |
	// | z | x | c | v |       | A | 0 | B | F |
	// ================        =================

	switch b {
	case 'x':
		return chip8.Key0, true
	case '1':
		return chip8.Key1, true
	case '2':
		return chip8.Key2, true
	case '3':
		return chip8.Key3, true
	case 'q':
		return chip8.Key4, true
	case 'w':
		return chip8.Key5, true
	case 'e':
		return chip8.Key6, true
	case 'a':
		return chip8.Key7, true
	case 's':
		return chip8.Key8, true
	case 'd':
		return chip8.Key9, true
	case 'z':
		return chip8.KeyA, true
	case 'c':
		return chip8.KeyB, true
	case '4':
		return chip8.KeyC, true
	case 'r':
		return chip8.KeyD, true
	case 'f':
		return chip8.KeyE, true
	case 'v':
		return chip8.KeyF, true
	default:
		return 0, false
	}
}

func (t *Term) Draw(gfx []uint8) error {
	var sb strings.Builder
	sb.WriteString("\x1b[H")

	for y := 0; y < chip8.ScreenHeight; y++ {
		for x := 0; x < chip8.ScreenWidth; x++ {
			if gfx[y*chip8.ScreenWidth+x] != 0 {
				sb.WriteString("██")
			} else {
				sb.WriteString("  ")
			}
		}
		sb.WriteString("\r\n")
	}

	_, err := os.Stdout.WriteString(sb.String())
	return err
}

func (t *Term) Beep(on bool) error {
	if on && !t.beeping {
		if _, err := os.Stdout.WriteString("\a"); err != nil {
			return err
		}
	}

	t.beeping = on
	return nil
}

func (t *Term) WaitForNextFrame() error {
	time.Sleep(t.cycleDelay)
	return nil
}
