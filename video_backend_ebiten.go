//go:build !headless

// video_backend_ebiten.go - ebiten display/keyboard/accelerometer adapter

/*
 ██▓ ███▄    █ ▄▄▄█████▓ █    ██  ██▓▄▄▄█████▓ ██▓ ▒█████   ███▄    █    ▓█████  ███▄    █   ▄████  ██▓ ███▄    █ ▓█████
▓██▒ ██ ▀█   █ ▓  ██▒ ▓▒ ██  ▓██▒▓██▒▓  ██▒ ▓▒▓██▒▒██▒  ██▒ ██ ▀█   █    ▓█   ▀  ██ ▀█   █  ██▒ ▀█▒▓██▒ ██ ▀█   █ ▓█   ▀
▒██▒▓██  ▀█ ██▒▒ ▓██░ ▒░▓██  ▒██░▒██▒▒ ▓██░ ▒░▒██▒▒██░  ██▒▓██  ▀█ ██▒   ▒███   ▓██  ▀█ ██▒▒██░▄▄▄░▒██▒▓██  ▀█ ██▒▒███
░██░▓██▒  ▐▌██▒░ ▓██▓ ░ ▓▓█  ░██░░██░░ ▓██▓ ░ ░██░▒██   ██░▓██▒  ▐▌██▒   ▒▓█  ▄ ▓██▒  ▐▌██▒░▓█  ██▓░██░▓██▒  ▐▌██▒▒▓█  ▄
░██░▒██░   ▓██░  ▒██▒ ░ ▒▒█████▓ ░██░  ▒██▒ ░ ░██░░ ████▓▒░▒██░   ▓██░   ░▒████▒▒██░   ▓██░░▒▓███▀▒░██░▒██░   ▓██░░▒████▒
░▓  ░ ▒░   ▒ ▒   ▒ ░░   ░▒▓▒ ▒ ▒ ░▓    ▒ ░░   ░▓  ░ ▒░▒░▒░ ░ ▒░   ▒ ▒    ░░ ▒░ ░░ ▒░   ▒ ▒  ░▒   ▒ ░▓  ░ ▒░   ▒ ▒ ░░ ▒░ ░
 ▒ ░░ ░░   ░ ▒░    ░    ░░▒░ ░ ░  ▒ ░    ░     ▒ ░  ░ ▒ ▒░ ░ ░░   ░ ▒░    ░ ░  ░░ ░░   ░ ▒░  ░   ░  ▒ ░░ ░░   ░ ▒░ ░ ░  ░
 ▒ ░   ░   ░ ░   ░       ░░░ ░ ░  ▒ ░  ░       ▒ ░░ ░ ░ ▒     ░   ░ ░       ░      ░   ░ ░ ░ ░   ░  ▒ ░   ░   ░ ░    ░
 ░           ░             ░      ░            ░      ░ ░           ░       ░  ░         ░       ░  ░           ░    ░  ░

(c) 2026 Zayn Otley
License: GPLv3 or later
*/

package main

import (
	"fmt"
	"image"
	_ "image/png"
	"os"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"golang.org/x/image/draw"
)

// buttonRoute maps an on-screen rectangle to a GPIO-expander bank/index.
type buttonRoute struct {
	x, y, w, h  int
	bank, index int
}

// EbitenOutput is an ebiten.Game implementing Display and Keyboard: the
// PPI writes RGB565 rows into its framebuffer image, the keyboard poll
// happens once per Update, and an optional mouse-drag gesture feeds the
// accelerometer callback since no physical sensor exists to drive it.
type EbitenOutput struct {
	mu sync.Mutex

	running bool
	rows    int // PPI frame width in pixels
	lines   int // PPI frame height in pixels
	frame   []byte
	img     *ebiten.Image

	cfg        UIConfig
	background *ebiten.Image
	buttons    []buttonRoute
	keycaps    map[ebiten.Key]buttonRoute

	onFrame func()
	onKey   func(bank, index int, pressed bool)
	onAccel func(x, y, z int16)

	pressed  map[ebiten.Key]bool
	dragging bool
	dragX0   int
	dragY0   int

	vsyncChan chan struct{}
}

// NewEbitenOutput constructs the adapter from a parsed UI configuration.
func NewEbitenOutput(cfg UIConfig) (*EbitenOutput, error) {
	eo := &EbitenOutput{
		cfg:       cfg,
		pressed:   make(map[ebiten.Key]bool),
		keycaps:   make(map[ebiten.Key]buttonRoute),
		vsyncChan: make(chan struct{}, 1),
	}
	for _, b := range cfg.Buttons {
		eo.buttons = append(eo.buttons, buttonRoute{b.X, b.Y, b.W, b.H, b.Bank, b.Index})
	}
	for name, route := range cfg.Keycaps {
		if key, ok := keyByName[name]; ok {
			eo.keycaps[key] = buttonRoute{bank: route.Bank, index: route.Index}
		}
	}
	if cfg.Background != "" {
		img, err := loadBackgroundImage(cfg.Background)
		if err != nil {
			return nil, fmt.Errorf("loading background image: %w", err)
		}
		eo.background = img
	}
	return eo, nil
}

func loadBackgroundImage(path string) (*ebiten.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	src, _, err := image.Decode(f)
	if err != nil {
		return nil, err
	}
	rgba := image.NewRGBA(src.Bounds())
	draw.Draw(rgba, rgba.Bounds(), src, image.Point{}, draw.Src)
	return ebiten.NewImageFromImage(rgba), nil
}

// Initialize implements Display: the PPI tells us its frame geometry.
func (eo *EbitenOutput) Initialize(rows, lines int) {
	eo.mu.Lock()
	defer eo.mu.Unlock()
	if eo.rows == rows && eo.lines == lines {
		return
	}
	eo.rows, eo.lines = rows, lines
	eo.frame = make([]byte, rows*lines*4)
	eo.img = nil
}

// UpdateRowBuffer implements Display: source holds RGB565 little-endian
// pixels, converted to RGBA in place in the framebuffer.
func (eo *EbitenOutput) UpdateRowBuffer(x, y int, source []byte) {
	eo.mu.Lock()
	defer eo.mu.Unlock()
	if eo.rows == 0 || y < 0 || y >= eo.lines {
		return
	}
	for i := 0; i+1 < len(source); i += 2 {
		px := x + i/2
		if px < 0 || px >= eo.rows {
			continue
		}
		r, g, b := rgb565ToRGB888(uint16(source[i]) | uint16(source[i+1])<<8)
		off := (y*eo.rows + px) * 4
		eo.frame[off] = r
		eo.frame[off+1] = g
		eo.frame[off+2] = b
		eo.frame[off+3] = 0xFF
	}
}

func rgb565ToRGB888(v uint16) (r, g, b byte) {
	r = byte((v >> 11 & 0x1F) * 255 / 31)
	g = byte((v >> 5 & 0x3F) * 255 / 63)
	b = byte((v & 0x1F) * 255 / 31)
	return
}

// SetOnFrameStartCallback implements Display.
func (eo *EbitenOutput) SetOnFrameStartCallback(fn func()) {
	eo.mu.Lock()
	eo.onFrame = fn
	eo.mu.Unlock()
}

// SetKeyEventCallback implements Keyboard.
func (eo *EbitenOutput) SetKeyEventCallback(fn func(bank, index int, pressed bool)) {
	eo.mu.Lock()
	eo.onKey = fn
	eo.mu.Unlock()
}

// SetAccelerometerCallback wires the synthetic mouse-drag accelerometer.
func (eo *EbitenOutput) SetAccelerometerCallback(fn func(x, y, z int16)) {
	eo.mu.Lock()
	eo.onAccel = fn
	eo.mu.Unlock()
}

// Start launches the ebiten run loop on its own goroutine.
func (eo *EbitenOutput) Start() error {
	eo.mu.Lock()
	if eo.running {
		eo.mu.Unlock()
		return nil
	}
	eo.running = true
	scale := eo.cfg.Scale
	if scale <= 0 {
		scale = 1
	}
	w := eo.cfg.Display.Width
	h := eo.cfg.Display.Height
	eo.mu.Unlock()

	ebiten.SetWindowSize(int(float64(w)*scale), int(float64(h)*scale))
	ebiten.SetWindowTitle("emulated device")
	ebiten.SetWindowResizable(true)
	ebiten.SetRunnableOnUnfocused(true)
	ebiten.SetVsyncEnabled(true)

	go func() {
		if err := ebiten.RunGame(eo); err != nil {
			fmt.Fprintf(os.Stderr, "ebiten run loop exited: %v\n", err)
		}
	}()
	<-eo.vsyncChan
	return nil
}

func (eo *EbitenOutput) Stop() error {
	eo.mu.Lock()
	eo.running = false
	eo.mu.Unlock()
	return nil
}

func (eo *EbitenOutput) Update() error {
	eo.mu.Lock()
	running := eo.running
	onFrame := eo.onFrame
	eo.mu.Unlock()
	if !running {
		return ebiten.Termination
	}
	if onFrame != nil {
		onFrame()
	}
	eo.pollKeyboard()
	eo.pollAccelerometer()
	return nil
}

func (eo *EbitenOutput) pollKeyboard() {
	eo.mu.Lock()
	onKey := eo.onKey
	eo.mu.Unlock()
	if onKey == nil {
		return
	}
	for key, route := range eo.keycaps {
		down := ebiten.IsKeyPressed(key)
		was := eo.pressed[key]
		if down != was {
			eo.pressed[key] = down
			onKey(route.bank, route.index, down)
		}
	}
}

func (eo *EbitenOutput) pollAccelerometer() {
	eo.mu.Lock()
	onAccel := eo.onAccel
	eo.mu.Unlock()
	if onAccel == nil {
		return
	}
	mx, my := ebiten.CursorPosition()
	down := ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft)
	if down && !eo.dragging {
		eo.dragging = true
		eo.dragX0, eo.dragY0 = mx, my
	} else if !down {
		eo.dragging = false
	}
	if !eo.dragging {
		onAccel(0, 0, clampAccel(256)) // resting, +1g on Z
		return
	}
	dx := clampAccel(int32(mx-eo.dragX0) * 4)
	dy := clampAccel(int32(my-eo.dragY0) * 4)
	onAccel(dx, dy, clampAccel(256))
}

func clampAccel(v int32) int16 {
	const limit = 4096
	if v > limit {
		v = limit
	}
	if v < -limit {
		v = -limit
	}
	return int16(v)
}

func (eo *EbitenOutput) Draw(screen *ebiten.Image) {
	eo.mu.Lock()
	if eo.background != nil {
		screen.DrawImage(eo.background, nil)
	}
	if eo.rows > 0 {
		if eo.img == nil {
			eo.img = ebiten.NewImage(eo.rows, eo.lines)
		}
		eo.img.WritePixels(eo.frame)
		op := &ebiten.DrawImageOptions{}
		scale := eo.cfg.Scale
		if scale <= 0 {
			scale = 1
		}
		sx := float64(eo.cfg.Display.Width) / float64(eo.rows) * scale
		sy := float64(eo.cfg.Display.Height) / float64(eo.lines) * scale
		op.GeoM.Scale(sx, sy)
		op.GeoM.Translate(float64(eo.cfg.Display.Left)*scale, float64(eo.cfg.Display.Top)*scale)
		screen.DrawImage(eo.img, op)
	}
	eo.mu.Unlock()

	select {
	case eo.vsyncChan <- struct{}{}:
	default:
	}
}

func (eo *EbitenOutput) Layout(outsideWidth, outsideHeight int) (int, int) {
	return outsideWidth, outsideHeight
}

// HostIO is the host display+keyboard+lifecycle surface main.go drives;
// satisfied by both this backend and the headless one so the run loop
// carries no build tag of its own.
type HostIO interface {
	Display
	Keyboard
	Start() error
	Stop() error
}

// NewHostIO constructs the ebiten-backed adapter for cfg.
func NewHostIO(cfg UIConfig) (HostIO, error) {
	return NewEbitenOutput(cfg)
}
