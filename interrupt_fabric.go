// interrupt_fabric.go - SIC + CEC interrupt routing

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

/*
interrupt_fabric.go implements the two-stage interrupt path every
peripheral interrupt line travels: SIC aggregates 64 peripheral pins into
priority groups via its IAR mapping registers, and CEC holds the
per-priority pending vector the decoder polls. Forwarding is
edge-observable: only the bits that actually flip between one call to
SetLine and the next generate a CEC event, and the event reflects the
final ISR∧IMASK state rather than any intermediate value, so a burst of
SetLine calls inside one CPU step always converges to the same CEC state
regardless of call order.
*/

package main

// CEC is the core-event controller: it just remembers, per IVG priority
// (7 through 15), whether any SIC line mapped to it is currently
// asserted. The instruction decoder is expected to poll Pending(ivg).
type CEC struct {
	pending [16]bool // indices 7..15 used
}

// Raise marks ivg as pending.
func (c *CEC) Raise(ivg int) {
	if ivg >= 0 && ivg < len(c.pending) {
		c.pending[ivg] = true
	}
}

// Lower clears ivg's pending state.
func (c *CEC) Lower(ivg int) {
	if ivg >= 0 && ivg < len(c.pending) {
		c.pending[ivg] = false
	}
}

// Pending reports whether ivg currently has an asserted line.
func (c *CEC) Pending(ivg int) bool {
	if ivg < 0 || ivg >= len(c.pending) {
		return false
	}
	return c.pending[ivg]
}

const (
	sicNumLines = 64
	sicNumIAR   = 8 // 8 x 32-bit IAR words, 4 bits (one nibble) per line
)

// SIC is the system interrupt controller: 64 peripheral lines, each
// individually maskable and each mapped via an 8x32-bit IAR register
// bank (4 bits per line) to one of IVG 7-15. ISR/IMASK/IWR are each two
// 32-bit words (lines 0-31, 32-63).
type SIC struct {
	isr   [2]uint32
	imask [2]uint32
	iwr   [2]uint32
	iar   [sicNumIAR]uint32

	cec *CEC
}

// NewSIC returns a SIC wired to the given CEC. All lines start masked
// out (IMASK=0), matching silicon reset state.
func NewSIC(cec *CEC) *SIC {
	return &SIC{cec: cec}
}

func (s *SIC) wordIndex(pin int) (int, uint32) {
	return pin / 32, uint32(1) << uint(pin%32)
}

// ivgFor returns the IVG (7..15) that pin is currently mapped to via the
// IAR nibble table.
func (s *SIC) ivgFor(pin int) int {
	word := s.iar[pin/8]
	nibble := (word >> uint((pin%8)*4)) & 0xF
	return 7 + int(nibble)
}

// SetLine updates ISR bit `pin` and forwards the edge to CEC if the
// masked line state actually changed. Forwarding a level of 1 means
// "this pin is now contributing to its IVG group"; level 0 means it no
// longer is. Because CEC.Raise/Lower are idempotent boolean sets, the
// observable CEC state after any sequence of SetLine calls depends only
// on the final ISR∧IMASK value for each pin, never on call order.
func (s *SIC) SetLine(pin int, level int) {
	if pin < 0 || pin >= sicNumLines {
		return
	}
	idx, bit := s.wordIndex(pin)
	before := s.isr[idx]&s.imask[idx]&bit != 0

	if level != 0 {
		s.isr[idx] |= bit
	} else {
		s.isr[idx] &^= bit
	}
	after := s.isr[idx]&s.imask[idx]&bit != 0

	if before == after {
		return
	}
	ivg := s.ivgFor(pin)
	if after {
		s.cec.Raise(ivg)
	} else {
		// Only lower the group if no other masked-pending line still maps
		// to the same IVG - the group line stays asserted so long as any
		// contributing pin remains pending.
		if !s.anyPendingForIVG(ivg) {
			s.cec.Lower(ivg)
		}
	}
}

func (s *SIC) anyPendingForIVG(ivg int) bool {
	for pin := 0; pin < sicNumLines; pin++ {
		if s.ivgFor(pin) != ivg {
			continue
		}
		idx, bit := s.wordIndex(pin)
		if s.isr[idx]&s.imask[idx]&bit != 0 {
			return true
		}
	}
	return false
}

// ReadISR/WriteIMASK/etc. give the MMIO facade (wired in soc.go's SIC
// register block) access to the raw 32-bit words.
func (s *SIC) ReadISR(word int) uint32   { return s.isr[word] }
func (s *SIC) ReadIMASK(word int) uint32 { return s.imask[word] }
func (s *SIC) ReadIWR(word int) uint32   { return s.iwr[word] }
func (s *SIC) ReadIAR(reg int) uint32    { return s.iar[reg] }

// WriteIMASK installs a new mask word and re-evaluates every line's
// forwarding state, since masking or unmasking a pending line changes
// ISR∧IMASK without a SetLine call.
func (s *SIC) WriteIMASK(word int, value uint32) {
	s.imask[word] = value
	s.recomputeAll()
}

func (s *SIC) WriteIWR(word int, value uint32) { s.iwr[word] = value }

// WriteIAR installs a new IAR word and re-evaluates forwarding, since
// remapping a pending line's IVG group changes which CEC bucket it
// contributes to.
func (s *SIC) WriteIAR(reg int, value uint32) {
	s.iar[reg] = value
	s.recomputeAll()
}

// recomputeAll rebuilds CEC state from scratch against the current
// ISR/IMASK/IAR snapshot. Used after a mask or routing change where
// per-bit edge detection does not apply.
func (s *SIC) recomputeAll() {
	var live [16]bool
	for pin := 0; pin < sicNumLines; pin++ {
		idx, bit := s.wordIndex(pin)
		if s.isr[idx]&s.imask[idx]&bit != 0 {
			live[s.ivgFor(pin)] = true
		}
	}
	for ivg := 7; ivg <= 15; ivg++ {
		if live[ivg] {
			s.cec.Raise(ivg)
		} else {
			s.cec.Lower(ivg)
		}
	}
}

// SICRegisters is the MMIO facade around a SIC: 2x32 ISR/IMASK/IWR words
// and 8x32 IAR words laid out the way the vendor's memory map groups
// them, each peripheral's TriggerInterrupt0/TriggerInterrupt feeding
// SetLine through a small adapter installed per line in soc.go.
type SICRegisters struct {
	deviceBase
	sic *SIC
}

// NewSICRegisters wires an MMIO block around sic at base.
func NewSICRegisters(base uint32, sic *SIC) *SICRegisters {
	return &SICRegisters{deviceBase: newDeviceBase("SIC", base, 0x70), sic: sic}
}

const (
	sicOffISR0   = 0x00
	sicOffISR1   = 0x04
	sicOffIMASK0 = 0x08
	sicOffIMASK1 = 0x0C
	sicOffIWR0   = 0x10
	sicOffIWR1   = 0x14
	sicOffIAR0   = 0x18
)

func (s *SICRegisters) Read32(offset uint32) uint32 {
	switch offset {
	case sicOffISR0:
		return s.sic.ReadISR(0)
	case sicOffISR1:
		return s.sic.ReadISR(1)
	case sicOffIMASK0:
		return s.sic.ReadIMASK(0)
	case sicOffIMASK1:
		return s.sic.ReadIMASK(1)
	case sicOffIWR0:
		return s.sic.ReadIWR(0)
	case sicOffIWR1:
		return s.sic.ReadIWR(1)
	default:
		if offset >= sicOffIAR0 && offset < sicOffIAR0+uint32(sicNumIAR)*4 {
			return s.sic.ReadIAR(int((offset - sicOffIAR0) / 4))
		}
		return 0
	}
}

func (s *SICRegisters) Write32(offset uint32, value uint32) {
	switch offset {
	case sicOffIMASK0:
		s.sic.WriteIMASK(0, value)
	case sicOffIMASK1:
		s.sic.WriteIMASK(1, value)
	case sicOffIWR0:
		s.sic.WriteIWR(0, value)
	case sicOffIWR1:
		s.sic.WriteIWR(1, value)
	default:
		if offset >= sicOffIAR0 && offset < sicOffIAR0+uint32(sicNumIAR)*4 {
			s.sic.WriteIAR(int((offset-sicOffIAR0)/4), value)
		}
	}
}

func (s *SICRegisters) Read(offset uint32, buf []byte) {
	var tmp [4]byte
	putLE32(tmp[:], s.Read32(offset&^3))
	copy(buf, tmp[offset&3:])
}

func (s *SICRegisters) Write(offset uint32, buf []byte) {
	aligned := offset &^ 3
	var tmp [4]byte
	putLE32(tmp[:], s.Read32(aligned))
	copy(tmp[offset&3:], buf)
	s.Write32(aligned, le32(tmp[:]))
}
