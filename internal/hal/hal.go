package hal

import (
	"fmt"
	"log/slog"
	"time"
	"unsafe"

	"github.com/veandco/go-sdl2/sdl"
	"github.com/vip8/vip8/internal/chip8"
	"github.com/vip8/vip8/internal/host"
)

const (
	DefaultScale      = 16
	DefaultFgColor    = uint32(0xbea700)
	DefaultBgColor    = uint32(0x000000)
	DefaultCycleDelay = 1200 * time.Microsecond
)

// Config controls the window and the frame pacing. Zero values fall back
// to the defaults.
type Config struct {
	Scale      int
	FgColor    uint32
	BgColor    uint32
	CycleDelay time.Duration
}

// HAL renders the machine into an SDL window and feeds keyboard events
// back to it.
type HAL struct {
	window          *sdl.Window
	renderer        *sdl.Renderer
	texture         *sdl.Texture
	backBuffer      []uint32
	backBufferPitch int
	beeper          *beeper
	fgColor         uint32
	bgColor         uint32
	cycleDelay      time.Duration
}

func New(cfg Config) (*HAL, error) {
	if cfg.Scale <= 0 {
		cfg.Scale = DefaultScale
	}
	if cfg.FgColor == 0 {
		cfg.FgColor = DefaultFgColor
	}
	if cfg.CycleDelay <= 0 {
		cfg.CycleDelay = DefaultCycleDelay
	}

	if err := sdl.Init(sdl.INIT_EVERYTHING); err != nil {
		return nil, fmt.Errorf("failed to init sdl: %w", err)
	}

	windowWidth := int32(chip8.ScreenWidth * cfg.Scale)
	windowHeight := int32(chip8.ScreenHeight * cfg.Scale)

	window, err := sdl.CreateWindow("vip8", sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED, windowWidth, windowHeight, sdl.WINDOW_SHOWN|sdl.WINDOW_UTILITY)
	if err != nil {
		return nil, fmt.Errorf("failed to create sdl window: %w", err)
	}
	slog.Debug("hal: create window")
	window.Show()

	renderer, err := sdl.CreateRenderer(window, -1, sdl.RENDERER_ACCELERATED)
	if err != nil {
		return nil, fmt.Errorf("failed to create sdl renderer: %w", err)
	}
	err = renderer.SetLogicalSize(windowWidth, windowHeight)
	if err != nil {
		return nil, fmt.Errorf("failed to resize sdl renderer: %w", err)
	}
	slog.Debug("hal: create renderer")

	texture, err := renderer.CreateTexture(sdl.PIXELFORMAT_ARGB8888, sdl.TEXTUREACCESS_STREAMING, chip8.ScreenWidth, chip8.ScreenHeight)
	if err != nil {
		return nil, fmt.Errorf("failed to create sdl texture: %w", err)
	}
	slog.Debug("hal: create texture")

	bpr, err := newBeeper()
	if err != nil {
		return nil, fmt.Errorf("failed to init beeper: %w", err)
	}
	slog.Debug("hal: create beeper")

	return &HAL{
		window:          window,
		renderer:        renderer,
		texture:         texture,
		backBuffer:      make([]uint32, chip8.ScreenWidth*chip8.ScreenHeight),
		backBufferPitch: int(chip8.ScreenWidth) * int(unsafe.Sizeof(uint32(0))),
		beeper:          bpr,
		fgColor:         cfg.FgColor,
		bgColor:         cfg.BgColor,
		cycleDelay:      cfg.CycleDelay,
	}, nil
}

func (hal *HAL) Shutdown() {
	hal.beeper.close()

	if err := hal.texture.Destroy(); err != nil {
		slog.Error("failed to destroy sdl texture", "err", err)
	}

	if err := hal.renderer.Destroy(); err != nil {
		slog.Error("failed to destroy sdl renderer", "err", err)
	}

	if err := hal.window.Destroy(); err != nil {
		slog.Error("failed to destroy sdl window", "err", err)
	}

	sdl.Quit()
}

func (hal *HAL) ReadInput(keyDown func(chip8.Key), keyUp func(chip8.Key)) error {
	for e := sdl.PollEvent(); e != nil; e = sdl.PollEvent() {
		switch e.GetType() {
		case sdl.QUIT:
			slog.Debug("hal: exit requested")
			return host.ErrQuit
		case sdl.KEYDOWN:
			err := hal.processKeyDown(e.(*sdl.KeyboardEvent), keyDown)
			if err != nil {
				return err
			}

		case sdl.KEYUP:
			hal.processKeyUp(e.(*sdl.KeyboardEvent), keyUp)
		}
	}

	return nil
}

func (hal *HAL) processKeyDown(e *sdl.KeyboardEvent, callback func(chip8.Key)) error {
	if e.Keysym.Scancode == sdl.SCANCODE_BACKSPACE {
		return host.ErrReboot
	}

	key, ok := keyMap(e)
	if ok {
		callback(key)
	}

	return nil
}

func (hal *HAL) processKeyUp(e *sdl.KeyboardEvent, callback func(chip8.Key)) {
	key, ok := keyMap(e)
	if ok {
		callback(key)
	}
}

func keyMap(e *sdl.KeyboardEvent) (chip8.Key, bool) {
	// Physical                Logical
	// ================        =================
	// | 1 | 2 | 3 | 4 |       | 1 | 2 | 3 | C |
	// | q | w | e | r |       | 4 | 5 | 6 | D |
	// | a | s | d | f |  <=>  | 7 | 8 | 9 | E |
	// | z | x | c | v |       | A | 0 | B | F |
	// ================        =================

	switch e.Keysym.Scancode {
	case sdl.SCANCODE_X:
		return chip8.Key0, true
	case sdl.SCANCODE_1:
		return chip8.Key1, true
	case sdl.SCANCODE_2:
		return chip8.Key2, true
	case sdl.SCANCODE_3:
		return chip8.Key3, true
	case sdl.SCANCODE_Q:
		return chip8.Key4, true
	case sdl.SCANCODE_W:
		return chip8.Key5, true
	case sdl.SCANCODE_E:
		return chip8.Key6, true
	case sdl.SCANCODE_A:
		return chip8.Key7, true
	case sdl.SCANCODE_S:
		return chip8.Key8, true
	case sdl.SCANCODE_D:
		return chip8.Key9, true
	case sdl.SCANCODE_Z:
		return chip8.KeyA, true
	case sdl.SCANCODE_C:
		return chip8.KeyB, true
	case sdl.SCANCODE_4:
		return chip8.KeyC, true
	case sdl.SCANCODE_R:
		return chip8.KeyD, true
	case sdl.SCANCODE_F:
		return chip8.KeyE, true
	case sdl.SCANCODE_V:
		return chip8.KeyF, true
	default:
		return 0, false
	}
}

func (hal *HAL) Draw(gfx []uint8) error {
	for y := 0; y < chip8.ScreenHeight; y++ {
		for x := 0; x < chip8.ScreenWidth; x++ {
			i := x + y*chip8.ScreenWidth

			color := hal.bgColor
			if gfx[i] != 0 {
				color = hal.fgColor
			}

			hal.backBuffer[i] = color
		}
	}

	backBufferPtr := unsafe.Pointer(&hal.backBuffer[0])
	if err := hal.texture.Update(nil, backBufferPtr, hal.backBufferPitch); err != nil {
		return fmt.Errorf("failed to update sdl texture: %w", err)
	}

	if err := hal.renderer.Clear(); err != nil {
		return fmt.Errorf("failed to clear sdl renderer: %w", err)
	}

	if err := hal.renderer.Copy(hal.texture, nil, nil); err != nil {
		return fmt.Errorf("failed to copy sdl texture to renderer: %w", err)
	}

	hal.renderer.Present()
	hal.window.SetAlwaysOnTop(true)
	return nil
}

func (hal *HAL) Beep(on bool) error {
	hal.beeper.set(on)
	return nil
}

func (hal *HAL) WaitForNextFrame() error {
	time.Sleep(hal.cycleDelay)
	return nil
}
