// display.go - host-facing Display and Keyboard surfaces

/*
display.go narrows the original multi-capability video interface set
(palette/texture/sprite/scanline/compositor layers, none of which this
machine has) down to the two surfaces the SoC side actually drives:
PPI pushes pixel rows into a Display, and a host keyboard adapter pushes
key events into the GPIO/TWI-wired peripherals through a Keyboard. Both
backends (ebiten and headless) implement these against the same SoC
wiring so a build can run with or without a window.
*/

package main

// Display is the host surface the PPI forwards pixel rows to.
type Display interface {
	// Initialize is called once the PPI is enabled with a known frame
	// geometry; a backend may resize its window or framebuffer here.
	Initialize(rows, lines int)

	// UpdateRowBuffer delivers one row of RGB565 pixel bytes at (x, y)
	// within the current frame, exactly as the DMA engine scattered it.
	UpdateRowBuffer(x, y int, data []byte)

	// SetOnFrameStartCallback registers a callback the backend invokes
	// once per displayed frame, letting the host shell drive any
	// frame-synchronous work (e.g. polling the keyboard adapter).
	SetOnFrameStartCallback(func())
}

// Keyboard is the host surface that reports key transitions to the SoC.
type Keyboard interface {
	// SetKeyEventCallback registers the handler invoked on every key
	// transition; bank/index address a button or keycap as configured
	// in the UI configuration, pressed is the new state.
	SetKeyEventCallback(func(bank, index int, pressed bool))
}
