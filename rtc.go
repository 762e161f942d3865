// rtc.go - real-time clock register device

/*
rtc.go implements the Blackfin-style RTC: a packed 32-bit (days, hours,
minutes, seconds) counter, a stopwatch down-counter, and a handful of
alarm/prescaler interrupt sources. Wall-clock advance is modeled as a
self-requeuing EventQueue closure rather than a blocking sleep, the same
pattern nand_chip.go's busy timer uses - one second of guest time is
rtcSecondDelay (10^9) scheduler delay units, one per nominal 1ns
quantum; the RTC never reads the host's real wall-clock time.
*/

package main

const rtcSecondDelay = 1_000_000_000

const (
	rtcIntStopwatch = 1 << iota
	rtcIntMinute
	rtcIntHour
	rtcIntDayAlarm
	rtcIntAlarm
	rtcIntWriteComplete
)

// RTC is the real-time clock peripheral.
type RTC struct {
	RegisterDevice

	seconds, minutes, hours, days uint32

	pren bool // prescaler (second-tick) enable

	writePending  bool
	writeComplete bool

	stopwatch        uint32
	stopwatchRunning bool

	alarmMinute, alarmHour uint32
	alarmDay               uint32

	ictl  uint16
	istat uint16

	scheduler *EventQueue
	armed     bool
}

// NewRTC constructs the RTC at base, driven by scheduler.
func NewRTC(base uint32, scheduler *EventQueue) *RTC {
	r := &RTC{RegisterDevice: newRegisterDevice("RTC", base, 0x20), scheduler: scheduler}
	r.declareRegisters()
	return r
}

func (r *RTC) pack() uint32 {
	return (r.days&0x7FFF)<<17 | (r.hours&0x1F)<<12 | (r.minutes&0x3F)<<6 | (r.seconds & 0x3F)
}

func (r *RTC) unpack(v uint32) {
	r.seconds = v & 0x3F
	r.minutes = (v >> 6) & 0x3F
	r.hours = (v >> 12) & 0x1F
	r.days = (v >> 17) & 0x7FFF
}

func (r *RTC) declareRegisters() {
	reg := r.reg("RTC_STAT", 0x00)
	reg.AddField(Field{0, 32, r.pack, func(v uint32) {
		r.unpack(v)
		r.writePending = true
		r.writeComplete = false
		r.scheduler.Queue(func() {
			r.writeComplete = true
			r.latch(rtcIntWriteComplete)
		}, 2)
	}})

	reg = r.reg("RTC_ICTL", 0x04)
	reg.AddField(Field{0, 16, func() uint32 { return uint32(r.ictl) }, func(v uint32) { r.ictl = uint16(v) }})

	reg = r.reg("RTC_ISTAT", 0x08)
	reg.AddField(Field{0, 16, func() uint32 { return uint32(r.istat) }, func(v uint32) {
		r.istat &^= uint16(v)
		r.updateInterrupt()
	}})

	reg = r.reg("RTC_SWCNT", 0x0C)
	reg.AddField(Field{0, 32, func() uint32 { return r.stopwatch }, func(v uint32) {
		r.stopwatch = v
		r.stopwatchRunning = v != 0
	}})

	reg = r.reg("RTC_ALARM", 0x10)
	reg.AddField(Field{0, 5, func() uint32 { return r.alarmHour }, func(v uint32) { r.alarmHour = v }})
	reg.AddField(Field{5, 6, func() uint32 { return r.alarmMinute }, func(v uint32) { r.alarmMinute = v }})

	reg = r.reg("RTC_PREN", 0x14)
	prR, prW := boolField(&r.pren)
	reg.AddField(Field{0, 1, prR, func(v uint32) {
		prW(v)
		r.armTicking()
	}})
}

func (r *RTC) armTicking() {
	if !r.pren || r.armed {
		return
	}
	r.armed = true
	r.scheduler.Queue(r.secondTick, rtcSecondDelay)
}

// secondTick advances the clock by one second, carries into
// minutes/hours/days, evaluates alarms and the stopwatch, then
// re-arms itself for the next second as long as the prescaler stays
// enabled. Interrupt forwarding is gated on (ictl & istat) != 0 so a
// latched status bit only raises the line while its matching mask bit
// is set.
func (r *RTC) secondTick() {
	r.armed = false
	r.seconds++
	r.latch(0)
	if r.seconds >= 60 {
		r.seconds = 0
		r.minutes++
		r.latch(rtcIntMinute)
		if r.minutes == r.alarmMinute {
			r.latch(rtcIntAlarm)
		}
		if r.minutes >= 60 {
			r.minutes = 0
			r.hours++
			r.latch(rtcIntHour)
			if r.hours == r.alarmHour && r.minutes == r.alarmMinute {
				r.latch(rtcIntAlarm)
			}
			if r.hours >= 24 {
				r.hours = 0
				r.days++
				if r.days == r.alarmDay {
					r.latch(rtcIntDayAlarm)
				}
			}
		}
	}
	if r.stopwatchRunning {
		if r.stopwatch > 0 {
			r.stopwatch--
		}
		if r.stopwatch == 0 {
			r.stopwatchRunning = false
			r.latch(rtcIntStopwatch)
		}
	}
	r.armTicking()
}

func (r *RTC) latch(bits uint16) {
	r.istat |= bits
	r.updateInterrupt()
}

func (r *RTC) updateInterrupt() {
	if (r.ictl & r.istat) != 0 {
		r.TriggerInterrupt0(1)
	} else {
		r.TriggerInterrupt0(0)
	}
}
