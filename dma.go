// dma.go - DMAEngine: 16-channel linear and 2-D transfer engine

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
dma.go implements the 16-channel DMA engine. Each channel is its own
RegisterDevice occupying a 0x40-byte slot within the engine's shared
0x400-byte aperture; a write to CONFIG re-arms the channel by loading its
descriptor (inline register block, or from guest memory for the two
linked-list models) and every engine tick moves one burst per running
channel between guest memory and whatever DMABus is attached for its
peripheral mapping. Memory-to-memory transfers are not implemented -
channelIsMemory is recognized but processTransfer refuses to run it,
matching the documented constraint.
*/

package main

// DMABus is implemented by any peripheral that can be a DMA source or
// sink: PPI (video out), SPORT (audio), NFC (NAND controller).
type DMABus interface {
	DMARead(x, y int, dest []byte) int
	DMAWrite(x, y int, source []byte) int
}

// DMAPeripheralType is the PERIPHERAL_MAP.PMAP selector identifying
// which attached DMABus a channel talks to.
type DMAPeripheralType uint16

const (
	DMAPeripheralPPI       DMAPeripheralType = 0x0
	DMAPeripheralHOSTDP    DMAPeripheralType = 0x1
	DMAPeripheralNFC       DMAPeripheralType = 0x2
	DMAPeripheralSPORT0Rx  DMAPeripheralType = 0x3
	DMAPeripheralSPORT0Tx  DMAPeripheralType = 0x4
	DMAPeripheralSPORT1Rx  DMAPeripheralType = 0x5
	DMAPeripheralSPORT1Tx  DMAPeripheralType = 0x6
)

type dmaNextOperation uint32

const (
	dmaStop                   dmaNextOperation = 0x0
	dmaAutobuffer              dmaNextOperation = 0x1
	dmaDescriptorArray          dmaNextOperation = 0x4
	dmaDescriptorListSmallModel dmaNextOperation = 0x6
	dmaDescriptorListLargeModel dmaNextOperation = 0x7
)

// DMAEngine owns all 16 channels and the table of attached peripheral
// buses; it is bound onto the BusFabric as a single 0x400-byte
// RegisterDevice-like MMIO block.
type DMAEngine struct {
	deviceBase
	channels [16]*DMAChannel
	buses    map[DMAPeripheralType]DMABus
	bus      *BusFabric
}

// NewDMAEngine constructs 16 channels at baseAddr+i*0x40.
func NewDMAEngine(baseAddr uint32, bus *BusFabric) *DMAEngine {
	e := &DMAEngine{
		deviceBase: newDeviceBase("DMA", baseAddr, 0x400),
		buses:      make(map[DMAPeripheralType]DMABus),
		bus:        bus,
	}
	for i := range e.channels {
		e.channels[i] = newDMAChannel(baseAddr+uint32(i)*0x40, e, DMAPeripheralType(i))
	}
	return e
}

// AttachDMABus registers the DMABus implementation backing a peripheral
// mapping (e.g. DMAPeripheralPPI -> the PPI device).
func (e *DMAEngine) AttachDMABus(t DMAPeripheralType, bus DMABus) {
	e.buses[t] = bus
}

func (e *DMAEngine) busFor(t DMAPeripheralType) DMABus { return e.buses[t] }

// BindInterrupt wires channel ch's interrupt line (q is 0 for DMA_DONE
// pulse or 1 for the data-interrupt-enable completion) to a handler.
func (e *DMAEngine) BindInterrupt(ch, line int, handler InterruptHandler) {
	if ch >= 0 && ch < len(e.channels) {
		e.channels[ch].BindInterrupt(line, handler)
	}
}

func (e *DMAEngine) Read32(offset uint32) uint32 {
	idx := offset / 0x40
	if int(idx) < len(e.channels) {
		return e.channels[idx].Read32(offset % 0x40)
	}
	return 0
}

func (e *DMAEngine) Write32(offset uint32, value uint32) {
	idx := offset / 0x40
	if int(idx) < len(e.channels) {
		e.channels[idx].Write32(offset%0x40, value)
	}
}

func (e *DMAEngine) Read(offset uint32, buf []byte) {
	var tmp [4]byte
	putLE32(tmp[:], e.Read32(offset&^3))
	copy(buf, tmp[offset&3:])
}

func (e *DMAEngine) Write(offset uint32, buf []byte) {
	aligned := offset &^ 3
	var tmp [4]byte
	putLE32(tmp[:], e.Read32(aligned))
	copy(tmp[offset&3:], buf)
	e.Write32(aligned, le32(tmp[:]))
}

// Tick implements Ticker: every running channel gets one burst per CPU
// step, matching DMA::ProcessWithInterrupt's unconditional per-channel
// sweep.
func (e *DMAEngine) Tick(currentIVG int) {
	for _, ch := range e.channels {
		ch.processTransfer()
	}
}

// DMAChannel is one 16th of the engine's MMIO aperture and the unit of
// transfer state.
type DMAChannel struct {
	RegisterDevice

	engine           *DMAEngine
	enabled          bool
	memoryWrite      bool // true = peripheral->memory (WNR)
	wordSize         uint8
	mode2D           bool
	synchronized     bool
	interruptEachRow bool
	dataIRQEnabled   bool
	descriptorSize   uint8
	next             dmaNextOperation

	completed bool
	errorFlag bool
	running   bool

	channelIsMemory bool
	peripheralType  DMAPeripheralType

	nextDescPtr uint32
	startAddr   uint32
	xCount      uint16
	xModify     int16
	yCount      uint16
	yModify     int16
	currDescPtr uint32
	currAddr    uint32
	peripheralMap uint16
	currXCount  uint16
	currYCount  uint16
}

func newDMAChannel(base uint32, engine *DMAEngine, defaultType DMAPeripheralType) *DMAChannel {
	c := &DMAChannel{RegisterDevice: newRegisterDevice("DMAChannel", base, 0x40), engine: engine, peripheralType: defaultType}
	c.declareRegisters()
	return c
}

func (c *DMAChannel) declareRegisters() {
	r := c.reg("NEXT_DESC_PTR", 0x00)
	r.AddField(Field{0, 32, func() uint32 { return c.nextDescPtr }, func(v uint32) { c.nextDescPtr = v }})

	r = c.reg("START_ADDR", 0x04)
	r.AddField(Field{0, 32, func() uint32 { return c.startAddr }, func(v uint32) { c.startAddr = v }})

	r = c.reg("CONFIG", 0x08)
	enR, enW := boolField(&c.enabled)
	r.AddField(Field{0, 1, enR, enW})
	wnrR, wnrW := boolField(&c.memoryWrite)
	r.AddField(Field{1, 1, wnrR, wnrW})
	r.AddField(Field{2, 2, func() uint32 { return uint32(c.wordSize) }, func(v uint32) { c.wordSize = uint8(v) }})
	d2R, d2W := boolField(&c.mode2D)
	r.AddField(Field{4, 1, d2R, d2W})
	syncR, syncW := boolField(&c.synchronized)
	r.AddField(Field{5, 1, syncR, syncW})
	rowR, rowW := boolField(&c.interruptEachRow)
	r.AddField(Field{6, 1, rowR, rowW})
	dieR, dieW := boolField(&c.dataIRQEnabled)
	r.AddField(Field{7, 1, dieR, dieW})
	r.AddField(Field{8, 4, func() uint32 { return uint32(c.descriptorSize) }, func(v uint32) { c.descriptorSize = uint8(v) }})
	r.AddField(Field{12, 3, func() uint32 { return uint32(c.next) }, func(v uint32) { c.next = dmaNextOperation(v) }})
	r.WriteCallback = func(uint32) {
		c.running = c.enabled
		c.processDescriptor()
	}

	r = c.reg("X_COUNT", 0x10)
	r.AddField(Field{0, 16, func() uint32 { return uint32(c.xCount) }, func(v uint32) { c.xCount = uint16(v) }})

	r = c.reg("X_MODIFY", 0x14)
	r.AddField(Field{0, 16, func() uint32 { return uint32(uint16(c.xModify)) }, func(v uint32) { c.xModify = int16(uint16(v)) }})

	r = c.reg("Y_COUNT", 0x18)
	r.AddField(Field{0, 16, func() uint32 { return uint32(c.yCount) }, func(v uint32) { c.yCount = uint16(v) }})

	r = c.reg("Y_MODIFY", 0x1C)
	r.AddField(Field{0, 16, func() uint32 { return uint32(uint16(c.yModify)) }, func(v uint32) { c.yModify = int16(uint16(v)) }})

	r = c.reg("CURR_DESC_PTR", 0x20)
	r.AddField(Field{0, 32, func() uint32 { return c.currDescPtr }, func(v uint32) { c.currDescPtr = v }})

	r = c.reg("CURR_ADDR", 0x24)
	r.AddField(Field{0, 32, func() uint32 { return c.currAddr }, func(v uint32) { c.currAddr = v }})

	r = c.reg("IRQ_STATUS", 0x28)
	r.AddField(Field{0, 1, func() uint32 {
		if c.completed {
			return 1
		}
		return 0
	}, func(v uint32) {
		if v != 0 {
			c.completed = false
			c.TriggerInterrupt(0, 1)
		}
	}})
	errR, _ := boolField(&c.errorFlag)
	r.AddField(Field{1, 1, errR, w1cField(&c.errorFlag)})
	runR, _ := boolField(&c.running)
	r.AddField(Field{3, 1, runR, noWrite})

	r = c.reg("PERIPHERAL_MAP", 0x2C)
	memR, _ := boolField(&c.channelIsMemory)
	r.AddField(Field{6, 1, memR, noWrite})
	r.AddField(Field{12, 4, func() uint32 { return uint32(c.peripheralType) }, func(v uint32) { c.peripheralType = DMAPeripheralType(v) }})

	r = c.reg("CURR_X_COUNT", 0x30)
	r.AddField(Field{0, 16, func() uint32 { return uint32(c.currXCount) }, func(v uint32) { c.currXCount = uint16(v) }})

	r = c.reg("CURR_Y_COUNT", 0x38)
	r.AddField(Field{0, 16, func() uint32 { return uint32(c.currYCount) }, func(v uint32) { c.currYCount = uint16(v) }})
}

// processDescriptor arms the channel from its current register state:
// for the two linked-list models it first pulls the next descriptor's
// flow words from guest memory (small model keeps next_desc_ptr inline
// with the register block; large model reads it wholesale), then resets
// the current address/counters from the freshly-loaded start values.
func (c *DMAChannel) processDescriptor() {
	if !c.enabled {
		return
	}
	elementBytes := uint32(1) << c.wordSize
	if c.startAddr&(elementBytes-1) != 0 {
		c.errorFlag = true
		return
	}

	if c.descriptorSize > 0 {
		descBytes := int(c.descriptorSize) * 2
		flows := make([]byte, 4+descBytes)
		switch c.next {
		case dmaDescriptorArray:
			c.engine.bus.Read(c.currDescPtr, flows[4:4+descBytes])
		case dmaDescriptorListSmallModel:
			putLE32(flows[0:4], c.Read32(0x00))
			c.engine.bus.Read(c.nextDescPtr, flows[2:2+descBytes])
		case dmaDescriptorListLargeModel:
			c.engine.bus.Read(c.nextDescPtr, flows[0:descBytes])
		}
		c.Write(0x00, flows[:descBytes])
	}

	c.currDescPtr = c.nextDescPtr
	c.currAddr = c.startAddr
	if c.xCount != 0 {
		c.currXCount = c.xCount
	} else {
		c.currXCount = 0xFFFF
	}
	if c.yCount != 0 {
		c.currYCount = c.yCount
	} else {
		c.currYCount = 0xFFFF
	}
}

// processTransfer moves one burst for this channel: up to a full row
// (currXCount elements) between guest memory and the attached DMABus.
// The whole burst runs under the fabric's reentrant lock so a CPU-thread
// memory access can never observe a half-written row.
func (c *DMAChannel) processTransfer() {
	if !c.enabled || !c.running || c.channelIsMemory {
		return
	}
	bus := c.engine.busFor(c.peripheralType)
	if bus == nil {
		return
	}

	elementBytes := uint32(1) << c.wordSize
	totalBytes := uint32(c.currXCount) * elementBytes
	const bufCap = 4096
	if totalBytes > bufCap {
		totalBytes = bufCap
	}
	buffer := make([]byte, totalBytes)

	c.engine.bus.Lock()
	x := int(c.xCount - c.currXCount)
	y := int(c.yCount - c.currYCount)
	if c.memoryWrite {
		n := bus.DMARead(x, y, buffer)
		totalBytes = uint32(n)
		if int16(elementBytes) == c.xModify {
			c.engine.bus.Write(c.currAddr, buffer[:totalBytes])
		} else {
			for i := uint32(0); i < totalBytes; i += elementBytes {
				off := c.currAddr + (i/elementBytes)*uint32(int32(c.xModify))
				c.engine.bus.Write(off, buffer[i:i+elementBytes])
			}
		}
	} else {
		if int16(elementBytes) == c.xModify {
			c.engine.bus.Read(c.currAddr, buffer)
		} else {
			for i := uint32(0); i < totalBytes; i += elementBytes {
				off := c.currAddr + (i/elementBytes)*uint32(int32(c.xModify))
				c.engine.bus.Read(off, buffer[i:i+elementBytes])
			}
		}
		totalBytes = uint32(bus.DMAWrite(x, y, buffer))
	}
	c.engine.bus.Unlock()

	count := totalBytes / elementBytes
	c.currAddr += count * uint32(int32(c.xModify))
	c.currXCount -= uint16(count)

	if c.currXCount == 0 {
		if c.mode2D && c.currYCount > 1 {
			c.currYCount--
			c.currXCount = c.xCount
			c.currAddr = c.currAddr - uint32(int32(c.xModify)) + uint32(int32(c.yModify))
			if c.dataIRQEnabled && c.interruptEachRow {
				c.TriggerInterrupt(1, 1)
			}
			return
		}
		c.completed = true
		if c.next == dmaStop {
			c.running = false
		} else {
			c.processDescriptor()
		}
		if c.dataIRQEnabled {
			c.TriggerInterrupt(1, 1)
		}
	}
}
