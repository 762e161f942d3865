//go:build headless

package main

import "sync/atomic"

// HeadlessDisplay satisfies Display without opening any window; it is the
// display of builds made with the headless tag.
type HeadlessDisplay struct {
	rows, lines int
	frameCount  uint64
	onFrame     func()
}

func NewHeadlessDisplay() *HeadlessDisplay {
	return &HeadlessDisplay{}
}

func (h *HeadlessDisplay) Initialize(rows, lines int) {
	h.rows, h.lines = rows, lines
}

func (h *HeadlessDisplay) UpdateRowBuffer(x, y int, data []byte) {
	atomic.AddUint64(&h.frameCount, 1)
}

func (h *HeadlessDisplay) SetOnFrameStartCallback(fn func()) {
	h.onFrame = fn
}

func (h *HeadlessDisplay) FrameCount() uint64 {
	return atomic.LoadUint64(&h.frameCount)
}

// HeadlessKeyboard satisfies Keyboard with no input source at all.
type HeadlessKeyboard struct {
	onKey func(bank, index int, pressed bool)
}

func NewHeadlessKeyboard() *HeadlessKeyboard {
	return &HeadlessKeyboard{}
}

func (h *HeadlessKeyboard) SetKeyEventCallback(fn func(bank, index int, pressed bool)) {
	h.onKey = fn
}

// HostIO is the host display+keyboard+lifecycle surface main.go drives;
// satisfied by both this backend and the ebiten one so the run loop
// carries no build tag of its own.
type HostIO interface {
	Display
	Keyboard
	Start() error
	Stop() error
}

type headlessIO struct {
	*HeadlessDisplay
	*HeadlessKeyboard
}

func (h *headlessIO) Start() error { return nil }
func (h *headlessIO) Stop() error  { return nil }

// NewHostIO constructs the headless adapter; cfg is accepted for
// interface parity with the ebiten backend but otherwise unused since
// there is no window or background art to size.
func NewHostIO(cfg UIConfig) (HostIO, error) {
	return &headlessIO{
		HeadlessDisplay:  NewHeadlessDisplay(),
		HeadlessKeyboard: NewHeadlessKeyboard(),
	}, nil
}
