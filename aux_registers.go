// aux_registers.go - GPTimer, EBIU and JTAG-id register facades

/*
These three devices exist only so early-boot firmware sanity checks
pass: GPTimer is a counter with a period and enable bit (its Tick is
not in the SoC's ticker list, so in a running SoC the counter changes
only when firmware writes TIMER_COUNTER),
EBIU exposes the handful of memory-bank-control words firmware reads
back after programming them, and JTAG-id is a single read-only word
carrying the part's simulated DSPID.
*/

package main

// GPTimer is a minimal free-running/periodic counter.
type GPTimer struct {
	RegisterDevice

	enabled bool
	period  uint32
	counter uint32
}

func NewGPTimer(base uint32) *GPTimer {
	t := &GPTimer{RegisterDevice: newRegisterDevice("GPTimer", base, 0x10)}
	t.declareRegisters()
	return t
}

func (t *GPTimer) declareRegisters() {
	r := t.reg("TIMER_CONFIG", 0x00)
	enR, enW := boolField(&t.enabled)
	r.AddField(Field{0, 1, enR, enW})

	r = t.reg("TIMER_PERIOD", 0x04)
	r.AddField(Field{0, 32, func() uint32 { return t.period }, func(v uint32) { t.period = v }})

	r = t.reg("TIMER_COUNTER", 0x08)
	r.AddField(Field{0, 32, func() uint32 { return t.counter }, func(v uint32) { t.counter = v }})
}

// Tick advances the counter by one step when enabled, wrapping at period.
func (t *GPTimer) Tick() {
	if !t.enabled {
		return
	}
	t.counter++
	if t.period > 0 && t.counter >= t.period {
		t.counter = 0
	}
}

// EBIU exposes the external bus interface unit's bank-control registers;
// values round-trip as firmware programs them, with no timing modeled.
type EBIU struct {
	RegisterDevice
}

func NewEBIU(base uint32) *EBIU {
	e := &EBIU{RegisterDevice: newRegisterDevice("EBIU", base, 0x20)}
	e.declareRegisters()
	return e
}

func (e *EBIU) declareRegisters() {
	names := []string{"EBIU_AMGCTL", "EBIU_AMBCTL0", "EBIU_AMBCTL1", "EBIU_SDRRC", "EBIU_SDGCTL", "EBIU_SDBCTL", "EBIU_SDSTAT", "EBIU_MBSCTL"}
	for i, name := range names {
		offset := uint32(i * 4)
		stored := new(uint32)
		r := e.reg(name, offset)
		r.AddField(Field{0, 32, func() uint32 { return *stored }, func(v uint32) { *stored = v }})
	}
}

// JTAGID is the single read-only DSPID word the boot ROM reads to
// confirm it's running on the expected silicon.
type JTAGID struct {
	RegisterDevice
}

const jtagDSPID = 0x02

func NewJTAGID(base uint32) *JTAGID {
	j := &JTAGID{RegisterDevice: newRegisterDevice("JTAG-ID", base, 0x04)}
	r := j.reg("JTAG_DEVID", 0x00)
	r.AddField(Field{0, 32, constRead(jtagDSPID), noWrite})
	return j
}
