// adxl345.go - ADXL345 accelerometer, an I2C RegisterMap slave

/*
adxl345.go models enough of the ADXL345 3-axis accelerometer to satisfy
boot-time device-id probing and deliver live samples: DEVID, six
16-bit axis registers (DATAX0/1, DATAY0/1, DATAZ0/1), POWER_CTL, and
INT_ENABLE/INT_SOURCE for the data-ready interrupt. Host-delivered
samples arrive via SetSample, queued through the EventQueue exactly like
every other host->guest hand-off in this emulator (see scheduler.go);
the accelerometer never reaches into guest state on the UI thread.
*/

package main

const adxl345DevID = 0xE5

// ADXL345 is the accelerometer I2C slave. It has no GPIO pins of its own
// in this emulator except its single data-ready interrupt line, wired as
// a GPIOPeripheral with PinCount() == 1 so it can be connected into a
// GPIOExpander's input pin like any other peer.
type ADXL345 struct {
	RegisterMapSlave

	x, y, z int16

	powerMeasure bool
	intEnable    uint8
	intSource    uint8

	wires   *WireMap
	dataRdy bool
}

// NewADXL345 constructs the accelerometer at its fixed 7-bit address
// (0x53 on the real part), wired through wires for its data-ready line.
func NewADXL345(addr uint32, wires *WireMap) *ADXL345 {
	a := &ADXL345{RegisterMapSlave: newRegisterMapSlave("ADXL345", addr), wires: wires}
	a.declareRegisters()
	return a
}

const (
	adxlRegDEVID      = 0x00
	adxlRegPOWER_CTL  = 0x2D
	adxlRegINT_ENABLE = 0x2E
	adxlRegINT_SOURCE = 0x30
	adxlRegDATAX0     = 0x32
	adxlRegDATAX1     = 0x33
	adxlRegDATAY0     = 0x34
	adxlRegDATAY1     = 0x35
	adxlRegDATAZ0     = 0x36
	adxlRegDATAZ1     = 0x37
)

func (a *ADXL345) declareRegisters() {
	r := a.reg("DEVID", adxlRegDEVID)
	r.AddField(Field{0, 8, constRead(adxl345DevID), noWrite})

	r = a.reg("POWER_CTL", adxlRegPOWER_CTL)
	pmR, pmW := boolField(&a.powerMeasure)
	r.AddField(Field{3, 1, pmR, pmW})

	r = a.reg("INT_ENABLE", adxlRegINT_ENABLE)
	r.AddField(Field{0, 8, func() uint32 { return uint32(a.intEnable) }, func(v uint32) { a.intEnable = uint8(v) }})

	r = a.reg("INT_SOURCE", adxlRegINT_SOURCE)
	r.AddField(Field{0, 8, func() uint32 {
		v := a.intSource
		a.intSource = 0
		a.setDataReady(false)
		return uint32(v)
	}, noWrite})

	a.declareAxisBytes(adxlRegDATAX0, adxlRegDATAX1, &a.x)
	a.declareAxisBytes(adxlRegDATAY0, adxlRegDATAY1, &a.y)
	a.declareAxisBytes(adxlRegDATAZ0, adxlRegDATAZ1, &a.z)
}

func (a *ADXL345) declareAxisBytes(lo, hi uint32, axis *int16) {
	r := a.reg("DATA_LO", lo)
	r.AddField(Field{0, 8, func() uint32 { return uint32(uint16(*axis)) & 0xFF }, noWrite})
	r = a.reg("DATA_HI", hi)
	r.AddField(Field{0, 8, func() uint32 { return (uint32(uint16(*axis)) >> 8) & 0xFF }, noWrite})
}

// SetSample records a new (x, y, z) reading and, if the data-ready
// interrupt is enabled, latches INT_SOURCE and raises the wired
// interrupt line. Called only from an EventQueue closure posted by the
// host accelerometer adapter, never directly from the UI thread.
func (a *ADXL345) SetSample(x, y, z int16) {
	a.x, a.y, a.z = x, y, z
	const dataReadyBit = 1 << 7
	if a.intEnable&dataReadyBit != 0 {
		a.intSource |= dataReadyBit
		a.setDataReady(true)
	}
}

func (a *ADXL345) setDataReady(v bool) {
	if v == a.dataRdy {
		return
	}
	a.dataRdy = v
	a.wires.Forward(a, 0)
}

// --- GPIOPeripheral: a single output pin carrying the data-ready IRQ ---

func (a *ADXL345) PinCount() int           { return 1 }
func (a *ADXL345) Direction(pin int) bool  { return true }
func (a *ADXL345) GetOutput(pin int) int   { return boolToInt(a.dataRdy) }
func (a *ADXL345) SetInput(pin, level int) {}
