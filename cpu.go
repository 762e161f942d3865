// cpu.go - CPU thread driving the device list and event queue

/*
The instruction decoder itself is an external collaborator (the vendor's
own Blackfin-class simulator core) and is out of scope here: CPUThread
accepts it as an injected Step function and otherwise owns exactly what
this repository is responsible for - draining the EventQueue and ticking
every Ticker device once per guest instruction, with a polled stop flag
instead of any per-operation timeout.
*/

package main

import "sync/atomic"

// Step executes one guest instruction; the decoder implementation lives
// outside this repository. A nil Step is valid and simply advances the
// scheduler/tick loop with no instruction side effects, which is enough
// to drive peripheral self-tests and the firmware's MMIO-only probes.
type Step func() error

// CPUThread is the sole guest-memory mutator: it steps the decoder,
// drains the EventQueue, and ticks every registered device once per
// instruction, in that order, matching the ordering guarantee that a
// tick always observes the full effect of the instruction that preceded
// it.
type CPUThread struct {
	step      Step
	scheduler *EventQueue
	tickers   []Ticker
	cec       *CEC
	stop      atomic.Bool
}

// NewCPUThread wires a thread around the given decoder step function
// (may be nil), scheduler, and the full device tick list.
func NewCPUThread(step Step, scheduler *EventQueue, tickers []Ticker, cec *CEC) *CPUThread {
	return &CPUThread{step: step, scheduler: scheduler, tickers: tickers, cec: cec}
}

// currentIVG reports the highest-priority pending CEC vector, or -1 if
// none is pending; devices use this to decide whether a deferred
// interrupt raise should be coalesced with the vector the decoder is
// about to service.
func (c *CPUThread) currentIVG() int {
	for ivg := 7; ivg <= 15; ivg++ {
		if c.cec.Pending(ivg) {
			return ivg
		}
	}
	return -1
}

// Run steps the decoder in a loop until Stop is called or the decoder
// returns an error.
func (c *CPUThread) Run() error {
	for !c.stop.Load() {
		if c.step != nil {
			if err := c.step(); err != nil {
				return err
			}
		}
		c.scheduler.Process()
		ivg := c.currentIVG()
		for _, t := range c.tickers {
			t.Tick(ivg)
		}
	}
	return nil
}

// Stop requests the run loop exit before its next instruction.
func (c *CPUThread) Stop() { c.stop.Store(true) }
