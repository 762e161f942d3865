// gpio_expander.go - MCP230xx I2C GPIO expander

/*
gpio_expander.go implements a two-bank (16-pin) MCP230xx-class I2C GPIO
expander: it is simultaneously an I2CPeripheral (via the embedded
RegisterMapSlave from i2c_registermap.go) and a GPIOPeripheral, so it can
sit on both the TWI bus and the WireMap at once - the TWI master can poll
its registers while its two interrupt outputs are wired to a real
GPIOBank pin like any other peer. IOCON.BANK toggling redeclares the
whole register map at its alternate byte layout, matching the real part's
behavior of changing its own address decode on the fly.
*/

package main

const (
	mcpGPIOCount      = 16
	mcpInterruptPins  = 2
	mcpTotalPins      = mcpGPIOCount + mcpInterruptPins
	mcpPinINTA        = mcpGPIOCount
	mcpPinINTB        = mcpGPIOCount + 1
)

type mcpBank struct {
	iodir   uint8 // 1 = input
	ipol    uint8
	gpinten uint8
	defval  uint8
	intcon  uint8
	gppu    uint8
	intf    uint8
	intcap  uint8
	gpio    uint8 // raw pin level
	olat    uint8
}

// GPIOExpander is an MCP230xx-class expander: RegisterMapSlave for the
// I2C side, GPIOPeripheral for the wiring side.
type GPIOExpander struct {
	RegisterMapSlave

	banks [2]mcpBank
	iocon uint8 // BANK/MIRROR/SEQOP/DISSLW/HAEN/ODR/INTPOL, shared by both copies

	clearOnINTCAP bool // selectable INT-acknowledge policy

	wires *WireMap
	intA  bool
	intB  bool
}

// NewGPIOExpander constructs the expander at I2C address addr
// (conventionally 0x20 + hardware address pins), wired through wires.
func NewGPIOExpander(addr uint32, wires *WireMap) *GPIOExpander {
	e := &GPIOExpander{RegisterMapSlave: newRegisterMapSlave("MCP230xx", addr), wires: wires}
	e.declareRegisters()
	return e
}

func (e *GPIOExpander) bankMode() bool { return e.iocon&0x80 != 0 }
func (e *GPIOExpander) mirror() bool   { return e.iocon&0x40 != 0 }

// declareRegisters (re)builds the register map at the byte offsets
// matching the current IOCON.BANK setting.
func (e *GPIOExpander) declareRegisters() {
	e.resetRegisters()
	if e.bankMode() {
		e.declareBankRegisters(0, 0x00)
		e.declareBankRegisters(1, 0x10)
	} else {
		e.declareInterleavedRegisters()
	}
}

// declareBankRegisters lays out one bank's 11 registers contiguously
// (BANK=1 layout): IODIR,IPOL,GPINTEN,DEFVAL,INTCON,IOCON,GPPU,INTF,
// INTCAP,GPIO,OLAT.
func (e *GPIOExpander) declareBankRegisters(bank int, base uint32) {
	e.bindRegisterTyped(base+0x0, bank, regIODIR)
	e.bindRegisterTyped(base+0x1, bank, regIPOL)
	e.bindRegisterTyped(base+0x2, bank, regGPINTEN)
	e.bindRegisterTyped(base+0x3, bank, regDEFVAL)
	e.bindRegisterTyped(base+0x4, bank, regINTCON)
	e.bindIOCON(base + 0x5)
	e.bindRegisterTyped(base+0x6, bank, regGPPU)
	e.bindRegisterTyped(base+0x7, bank, regINTF)
	e.bindRegisterTyped(base+0x8, bank, regINTCAP)
	e.bindGPIO(base+0x9, bank)
	e.bindOLAT(base+0xA, bank)
}

// declareInterleavedRegisters lays out BANK=0: each register type has
// consecutive A/B addresses (IODIRA, IODIRB, IPOLA, IPOLB, ...).
func (e *GPIOExpander) declareInterleavedRegisters() {
	addr := uint32(0)
	for _, t := range []int{regIODIR, regIPOL, regGPINTEN, regDEFVAL, regINTCON} {
		e.bindRegisterTyped(addr, 0, t)
		addr++
		e.bindRegisterTyped(addr, 1, t)
		addr++
	}
	e.bindIOCON(addr)
	addr++
	e.bindIOCON(addr)
	addr++
	e.bindRegisterTyped(addr, 0, regGPPU)
	addr++
	e.bindRegisterTyped(addr, 1, regGPPU)
	addr++
	e.bindRegisterTyped(addr, 0, regINTF)
	addr++
	e.bindRegisterTyped(addr, 1, regINTF)
	addr++
	e.bindRegisterTyped(addr, 0, regINTCAP)
	addr++
	e.bindRegisterTyped(addr, 1, regINTCAP)
	addr++
	e.bindGPIO(addr, 0)
	addr++
	e.bindGPIO(addr, 1)
	addr++
	e.bindOLAT(addr, 0)
	addr++
	e.bindOLAT(addr, 1)
}

const (
	regIODIR = iota
	regIPOL
	regGPINTEN
	regDEFVAL
	regINTCON
	regGPPU
	regINTF
	regINTCAP
)

// bindRegisterTyped declares a byte register backed by one of mcpBank's
// fields, selected by regtype.
func (e *GPIOExpander) bindRegisterTyped(addr uint32, bank int, regtype int) {
	b := &e.banks[bank]
	var p *uint8
	switch regtype {
	case regIODIR:
		p = &b.iodir
	case regIPOL:
		p = &b.ipol
	case regGPINTEN:
		p = &b.gpinten
	case regDEFVAL:
		p = &b.defval
	case regINTCON:
		p = &b.intcon
	case regGPPU:
		p = &b.gppu
	case regINTF:
		p = &b.intf
	case regINTCAP:
		p = &b.intcap
	}
	r := e.reg("MCP_REG", addr)
	if regtype == regINTF || regtype == regINTCAP {
		// read-only status registers from the bus master's perspective
		r.AddField(Field{0, 8, func() uint32 {
			v := uint32(*p)
			if regtype == regINTCAP && e.clearOnINTCAP {
				e.clearBankInterrupt(bank)
			}
			return v
		}, noWrite})
		return
	}
	r.AddField(Field{0, 8, func() uint32 { return uint32(*p) }, func(v uint32) { *p = uint8(v) }})
}

func (e *GPIOExpander) bindIOCON(addr uint32) {
	r := e.reg("IOCON", addr)
	r.AddField(Field{0, 8, func() uint32 { return uint32(e.iocon) }, func(v uint32) {
		changed := uint8(v)&0x80 != e.iocon&0x80
		e.iocon = uint8(v)
		if changed {
			e.declareRegisters()
		}
	}})
}

func (e *GPIOExpander) bindGPIO(addr uint32, bank int) {
	b := &e.banks[bank]
	r := e.reg("GPIO", addr)
	r.AddField(Field{0, 8, func() uint32 {
		v := uint32(b.gpio ^ b.ipol)
		if !e.clearOnINTCAP {
			e.clearBankInterrupt(bank)
		}
		return v
	}, func(v uint32) {
		// writing GPIO only affects pins configured as outputs
		e.setBankOutput(bank, (b.olat&b.iodir)|(uint8(v)&^b.iodir))
	}})
}

func (e *GPIOExpander) bindOLAT(addr uint32, bank int) {
	b := &e.banks[bank]
	r := e.reg("OLAT", addr)
	r.AddField(Field{0, 8, func() uint32 { return uint32(b.olat) }, func(v uint32) {
		e.setBankOutput(bank, uint8(v))
	}})
}

// setBankOutput updates OLAT/GPIO for this bank's output-configured
// pins and forwards every flipped output pin to its wired peers.
func (e *GPIOExpander) setBankOutput(bank int, newOlat uint8) {
	b := &e.banks[bank]
	oldOut := b.gpio &^ b.iodir
	b.olat = newOlat
	b.gpio = (b.gpio & b.iodir) | (newOlat &^ b.iodir)
	newOut := b.gpio &^ b.iodir
	flipped := oldOut ^ newOut
	for bit := 0; bit < 8; bit++ {
		if flipped&(1<<uint(bit)) != 0 {
			e.wires.Forward(e, bank*8+bit)
		}
	}
}

func (e *GPIOExpander) clearBankInterrupt(bank int) {
	b := &e.banks[bank]
	b.intf = 0
	e.updateInterruptOutputs()
}

// updateInterruptOutputs recomputes INTA/INTB (OR'd together across
// both banks if IOCON.MIRROR is set) and forwards any flipped output to
// wired peers (pins mcpPinINTA / mcpPinINTB).
func (e *GPIOExpander) updateInterruptOutputs() {
	bankAsserted := [2]bool{e.banks[0].intf != 0, e.banks[1].intf != 0}
	newA, newB := bankAsserted[0], bankAsserted[1]
	if e.mirror() {
		newA = bankAsserted[0] || bankAsserted[1]
		newB = newA
	}
	if newA != e.intA {
		e.intA = newA
		e.wires.Forward(e, mcpPinINTA)
	}
	if newB != e.intB {
		e.intB = newB
		e.wires.Forward(e, mcpPinINTB)
	}
}

// --- GPIOPeripheral ---

func (e *GPIOExpander) PinCount() int { return mcpTotalPins }

func (e *GPIOExpander) Direction(pin int) bool {
	if pin >= mcpGPIOCount {
		return true // interrupt outputs are always outputs
	}
	bank, bit := pin/8, uint(pin%8)
	return e.banks[bank].iodir&(1<<bit) == 0
}

func (e *GPIOExpander) GetOutput(pin int) int {
	switch {
	case pin == mcpPinINTA:
		return boolToInt(e.intA)
	case pin == mcpPinINTB:
		return boolToInt(e.intB)
	case pin < mcpGPIOCount:
		bank, bit := pin/8, uint(pin%8)
		b := &e.banks[bank]
		out := (b.olat >> bit) & 1
		pol := (b.ipol >> bit) & 1
		return int(out ^ pol)
	default:
		return 0
	}
}

// SetInput implements GPIOPeripheral for a peer driving one of this
// expander's GPIO pins (e.g. a button wired directly, or another
// expander). Interrupt-output pins are never driven as inputs.
func (e *GPIOExpander) SetInput(pin int, level int) {
	if pin >= mcpGPIOCount {
		return
	}
	bank, bit := pin/8, uint(pin%8)
	b := &e.banks[bank]
	if b.iodir&(1<<bit) == 0 {
		return // configured as output
	}
	old := (b.gpio >> bit) & 1
	newLevel := uint8(level & 1)
	if newLevel == 1 {
		b.gpio |= 1 << bit
	} else {
		b.gpio &^= 1 << bit
	}

	if b.gpinten&(1<<bit) == 0 {
		return
	}
	fire := false
	if b.intcon&(1<<bit) != 0 {
		fire = newLevel != (b.defval>>bit)&1
	} else {
		fire = old != newLevel
	}
	if fire {
		b.intf |= 1 << bit
		b.intcap = b.gpio
		e.updateInterruptOutputs()
	}
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
