// gpio.go - GPIOController, GPIOPeripheral capability, and the SoC wire map

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
gpio.go models one 16-pin GPIO bank plus the peer-wiring fabric that lets
any GPIOPeripheral (a bank, an expander, or a tiny logic-gate adapter)
drive another's input pins. Peers never hold each other directly - every
wire is an entry in a WireMap owned by the SoC, referenced by peripherals
only as an opaque id, so a cyclic wiring graph (A's IRQ output feeding
back into a pin that also drives A) never creates a Go reference cycle.
*/

package main

const gpioPinCount = 16

// GPIOPeripheral is the capability every wire endpoint implements,
// whether it is a real 16-pin bank, an I2C GPIO expander, or a small
// logic-gate adapter synthesized purely to OR two interrupt outputs
// together.
type GPIOPeripheral interface {
	PinCount() int
	Direction(pin int) bool // true = output
	GetOutput(pin int) int
	SetInput(pin int, level int)
}

// WireID is an opaque handle into the SoC-owned WireMap.
type WireID int

type wireEnd struct {
	peripheral GPIOPeripheral
	pin        int
}

type wire struct {
	a, b wireEnd
}

// WireMap owns every GPIO peer connection in the system. Peripherals
// never reference each other directly; they hold WireIDs and the map
// resolves them at forwarding time. This is what keeps cyclic wiring
// (common with interrupt-feedback loops) from becoming a Go ownership
// cycle.
type WireMap struct {
	wires []wire
	byEnd map[GPIOPeripheral]map[int][]WireID
}

// NewWireMap returns an empty wire map.
func NewWireMap() *WireMap {
	return &WireMap{byEnd: make(map[GPIOPeripheral]map[int][]WireID)}
}

// Connect creates a symmetric wire between (a, pinA) and (b, pinB).
func (w *WireMap) Connect(a GPIOPeripheral, pinA int, b GPIOPeripheral, pinB int) WireID {
	id := WireID(len(w.wires))
	w.wires = append(w.wires, wire{a: wireEnd{a, pinA}, b: wireEnd{b, pinB}})
	w.index(a, pinA, id)
	w.index(b, pinB, id)
	return id
}

func (w *WireMap) index(p GPIOPeripheral, pin int, id WireID) {
	if w.byEnd[p] == nil {
		w.byEnd[p] = make(map[int][]WireID)
	}
	w.byEnd[p][pin] = append(w.byEnd[p][pin], id)
}

// Forward propagates the current output level of (p, pin) to every peer
// wired to it.
func (w *WireMap) Forward(p GPIOPeripheral, pin int) {
	for _, id := range w.byEnd[p][pin] {
		wr := w.wires[id]
		var peer wireEnd
		switch {
		case wr.a.peripheral == p && wr.a.pin == pin:
			peer = wr.b
		case wr.b.peripheral == p && wr.b.pin == pin:
			peer = wr.a
		default:
			continue
		}
		peer.peripheral.SetInput(peer.pin, p.GetOutput(pin))
	}
}

// GPIOBank is one 16-pin controller bank; the type is bank-letter
// agnostic and the SoC assigns names (A, B, ...) at construction.
type GPIOBank struct {
	deviceBase

	dir     uint16 // 1 = output
	polar   uint16 // 1 = active-low
	edge    uint16 // 1 = edge-triggered, 0 = level-triggered
	both    uint16 // 1 = trigger on both edges
	inen    uint16 // input-enable
	data    uint16 // current pin level (both driven-output and sampled-input)
	pending uint16 // latched interrupt bits
	maskA   uint16
	maskB   uint16

	wires *WireMap
	irqA  func(level int)
	irqB  func(level int)
}

// NewGPIOBank constructs a bank at the given MMIO base; size is fixed at
// the canonical per-bank register block.
func NewGPIOBank(name string, base uint32, wires *WireMap) *GPIOBank {
	return &GPIOBank{deviceBase: newDeviceBase(name, base, 0x40), wires: wires}
}

// BindIRQ wires the bank's two masked interrupt outputs (A and B) to SIC
// lines via the given forwarding callbacks.
func (g *GPIOBank) BindIRQ(irqA, irqB func(level int)) {
	g.irqA = irqA
	g.irqB = irqB
}

func (g *GPIOBank) activeLevel(pin int) int {
	// the level that counts as "asserted" for this pin, honoring polarity
	if g.polar&(1<<uint(pin)) != 0 {
		return 0
	}
	return 1
}

// setData writes the whole 16-bit data register, diffing old vs new and
// forwarding every flipped output pin to its wired peers.
func (g *GPIOBank) setData(newData uint16) {
	old := g.data
	g.data = newData
	flipped := old ^ newData
	for pin := 0; pin < gpioPinCount; pin++ {
		if flipped&(1<<uint(pin)) != 0 && g.dir&(1<<uint(pin)) != 0 {
			g.wires.Forward(g, pin)
		}
	}
}

// PinCount implements GPIOPeripheral.
func (g *GPIOBank) PinCount() int { return gpioPinCount }

// Direction implements GPIOPeripheral.
func (g *GPIOBank) Direction(pin int) bool { return g.dir&(1<<uint(pin)) != 0 }

// GetOutput implements GPIOPeripheral: output level is data XOR polarity.
func (g *GPIOBank) GetOutput(pin int) int {
	bit := (g.data >> uint(pin)) & 1
	pol := (g.polar >> uint(pin)) & 1
	return int(bit ^ pol)
}

// SetInput implements GPIOPeripheral. A no-op on output-configured or
// input-disabled pins. Level-triggered pins set the pending bit exactly
// to the active level; edge-triggered pins latch on a qualifying
// transition (both edges if BOTH is set, otherwise rising for
// active-high polarity, falling for active-low).
func (g *GPIOBank) SetInput(pin int, level int) {
	bit := uint16(1) << uint(pin)
	if g.dir&bit != 0 || g.inen&bit == 0 {
		return
	}
	oldLevel := (g.data >> uint(pin)) & 1
	newLevel := uint16(level & 1)
	if newLevel == 1 {
		g.data |= bit
	} else {
		g.data &^= bit
	}

	if g.edge&bit == 0 {
		// level-triggered
		if int(newLevel) == g.activeLevel(pin) {
			g.pending |= bit
		} else {
			g.pending &^= bit
		}
	} else {
		rising := oldLevel == 0 && newLevel == 1
		falling := oldLevel == 1 && newLevel == 0
		qualifies := false
		if g.both&bit != 0 {
			qualifies = rising || falling
		} else if g.polar&bit == 0 {
			qualifies = rising
		} else {
			qualifies = falling
		}
		if qualifies {
			g.pending |= bit
		}
	}
	g.updateInterrupts()
}

func (g *GPIOBank) updateInterrupts() {
	if g.irqA != nil {
		if g.pending&g.maskA != 0 {
			g.irqA(1)
		} else {
			g.irqA(0)
		}
	}
	if g.irqB != nil {
		if g.pending&g.maskB != 0 {
			g.irqB(1)
		} else {
			g.irqB(0)
		}
	}
}

// Canonical per-bank MMIO register offsets.
const (
	gpioOffData   = 0x00
	gpioOffClear  = 0x04
	gpioOffSet    = 0x08
	gpioOffToggle = 0x0C
	gpioOffDir    = 0x10
	gpioOffInen   = 0x14
	gpioOffPolar  = 0x18
	gpioOffEdge   = 0x1C
	gpioOffBoth   = 0x20
	gpioOffMaskA  = 0x24
	gpioOffMaskB  = 0x28
	gpioOffMaskAC = 0x2C
	gpioOffMaskAS = 0x30
	gpioOffMaskBC = 0x34
	gpioOffMaskBS = 0x38
)

// Read32 services the bank's MMIO surface directly (a GPIOBank is a
// RegisterDevice in spirit but its fields feed so much shared logic -
// setData's peer forwarding, the pending-bitmap interrupt recompute -
// that a hand-written dispatch is clearer than a generic field table).
func (g *GPIOBank) Read32(offset uint32) uint32 {
	switch offset {
	case gpioOffData:
		return uint32(g.data)
	case gpioOffDir:
		return uint32(g.dir)
	case gpioOffInen:
		return uint32(g.inen)
	case gpioOffPolar:
		return uint32(g.polar)
	case gpioOffEdge:
		return uint32(g.edge)
	case gpioOffBoth:
		return uint32(g.both)
	case gpioOffMaskA:
		return uint32(g.maskA)
	case gpioOffMaskB:
		return uint32(g.maskB)
	default:
		return 0
	}
}

// Write32 services the bank's MMIO surface. CLEAR/SET/TOGGLE act on the
// data register (and, for CLEAR, also on the edge-pending bitmap, per
// the W1C clear-and-acknowledge semantics of a real Blackfin GPIO
// bank). DIR/POLAR writes re-walk every pin's wiring afterward since
// changing direction or polarity can change what an already-driven
// output pin is currently presenting to its peers.
func (g *GPIOBank) Write32(offset uint32, value uint32) {
	v := uint16(value)
	switch offset {
	case gpioOffData:
		g.setData(v)
	case gpioOffClear:
		g.setData(g.data &^ v)
		g.pending &^= v
		g.updateInterrupts()
	case gpioOffSet:
		g.setData(g.data | v)
	case gpioOffToggle:
		g.setData(g.data ^ v)
	case gpioOffDir:
		g.dir = v
		g.forwardAllOutputs()
	case gpioOffInen:
		g.inen = v
	case gpioOffPolar:
		g.polar = v
		g.forwardAllOutputs()
	case gpioOffEdge:
		g.edge = v
	case gpioOffBoth:
		g.both = v
	case gpioOffMaskA:
		g.maskA = v
		g.updateInterrupts()
	case gpioOffMaskB:
		g.maskB = v
		g.updateInterrupts()
	case gpioOffMaskAC:
		g.maskA &^= v
		g.updateInterrupts()
	case gpioOffMaskAS:
		g.maskA |= v
		g.updateInterrupts()
	case gpioOffMaskBC:
		g.maskB &^= v
		g.updateInterrupts()
	case gpioOffMaskBS:
		g.maskB |= v
		g.updateInterrupts()
	}
}

func (g *GPIOBank) forwardAllOutputs() {
	for pin := 0; pin < gpioPinCount; pin++ {
		if g.dir&(1<<uint(pin)) != 0 {
			g.wires.Forward(g, pin)
		}
	}
}

func (g *GPIOBank) Read(offset uint32, buf []byte) {
	var tmp [4]byte
	putLE32(tmp[:], g.Read32(offset&^3))
	copy(buf, tmp[offset&3:])
}

func (g *GPIOBank) Write(offset uint32, buf []byte) {
	aligned := offset &^ 3
	var tmp [4]byte
	putLE32(tmp[:], g.Read32(aligned))
	copy(tmp[offset&3:], buf)
	g.Write32(aligned, le32(tmp[:]))
}
