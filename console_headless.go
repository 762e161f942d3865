// console_headless.go - raw-stdin quit key for headless runs

/*
The ebiten backend gets a window to close; the headless backend has
none, so it needs its own way to stop the run cleanly from a terminal.
ConsoleQuit puts stdin in raw mode and watches for 'q', the same way a
raw-mode stdin reader elsewhere in this codebase drains keystrokes, but
routes the single key it cares about straight to a callback instead of
an MMIO device.
*/

//go:build headless

package main

import (
	"os"
	"sync"
	"syscall"
	"time"

	"golang.org/x/term"
)

// ConsoleQuit reads stdin in raw mode on its own goroutine and invokes
// onQuit once when 'q' or Ctrl-C is seen. Safe to construct even when
// stdin isn't a terminal: Start becomes a no-op in that case.
type ConsoleQuit struct {
	onQuit  func()
	stopCh  chan struct{}
	done    chan struct{}
	stopped sync.Once

	fd          int
	nonblockSet bool
	oldState    *term.State
}

func NewConsoleQuit(onQuit func()) *ConsoleQuit {
	return &ConsoleQuit{
		onQuit: onQuit,
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Start is a no-op (not an error) when stdin isn't an interactive
// terminal, e.g. when input is redirected from a file under CI.
func (c *ConsoleQuit) Start() {
	c.fd = int(os.Stdin.Fd())
	if !term.IsTerminal(c.fd) {
		close(c.done)
		return
	}

	oldState, err := term.MakeRaw(c.fd)
	if err != nil {
		close(c.done)
		return
	}
	c.oldState = oldState

	if err := syscall.SetNonblock(c.fd, true); err != nil {
		_ = term.Restore(c.fd, c.oldState)
		c.oldState = nil
		close(c.done)
		return
	}
	c.nonblockSet = true

	go c.run()
}

func (c *ConsoleQuit) run() {
	defer close(c.done)
	buf := make([]byte, 1)
	for {
		select {
		case <-c.stopCh:
			return
		default:
		}
		n, err := syscall.Read(c.fd, buf)
		if n > 0 {
			if b := buf[0]; b == 'q' || b == 0x03 {
				c.onQuit()
				return
			}
		}
		if err == syscall.EAGAIN || err == syscall.EWOULDBLOCK || n == 0 {
			time.Sleep(5 * time.Millisecond)
			continue
		}
		if err != nil {
			return
		}
	}
}

// Stop restores stdin and waits for the reader goroutine to exit.
func (c *ConsoleQuit) Stop() {
	c.stopped.Do(func() { close(c.stopCh) })
	<-c.done
	if c.nonblockSet {
		_ = syscall.SetNonblock(c.fd, false)
		c.nonblockSet = false
	}
	if c.oldState != nil {
		_ = term.Restore(c.fd, c.oldState)
		c.oldState = nil
	}
}
