// potentiometer.go - a single-register digital potentiometer, an I2C slave

/*
potentiometer.go is the simplest RegisterMap consumer in the repository:
one 8-bit wiper-position register, read and written exactly like any
other byte in the base class's auto-incrementing pointer scheme. It
exists mainly to exercise i2c_registermap.go's next() default with a
device that has nothing else going on. No host adapter drives it: UI
keys route only to the GPIO expander's pins.
*/

package main

// Potentiometer is a single-byte wiper-position I2C slave.
type Potentiometer struct {
	RegisterMapSlave

	wiper uint8
}

// NewPotentiometer constructs the device at addr with register 0 as its
// only addressable byte.
func NewPotentiometer(addr uint32) *Potentiometer {
	p := &Potentiometer{RegisterMapSlave: newRegisterMapSlave("Potentiometer", addr)}
	r := p.reg("WIPER", 0x00)
	r.AddField(Field{0, 8, func() uint32 { return uint32(p.wiper) }, func(v uint32) { p.wiper = uint8(v) }})
	return p
}

// SetPosition lets the host UI (e.g. a mouse-drag knob) drive the wiper
// directly; like every other host->guest path this should be invoked
// from an EventQueue closure, not the UI thread directly.
func (p *Potentiometer) SetPosition(value uint8) { p.wiper = value }
