// nand_controller.go - NFC: the NAND flash controller MMIO facade

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
nand_controller.go is the register-level front door to the NAND chip: a
command/address/data port trio firmware drives directly (NFC_CMD,
NFC_ADDR, NFC_DATA_WR/RD) plus a DMABus side the DMA engine drives for
bulk page transfers. Writing NFC_DATA_RD is the one inverted MMIO
pattern worth calling out explicitly: the write is what triggers the
chip read, and the value the write produced is what a subsequent
register read returns. ECC accumulates as a rolling 32-bit XOR-rotate
across the transfer, split into two 11-bit sub-fields at the 256-byte
and 512-byte boundaries - this is a checksum scheme invented for this
class of controller, not a real Hamming/BCH code, so CalculateECC is
ported byte for byte rather than reimplemented.
*/

package main

const (
	nfcIRQNotBusy  = 0
	nfcIRQWBEmpty  = 1
)

// NFC is the NAND flash controller: a RegisterDevice MMIO facade plus a
// DMABus for the engine's bulk page transfers.
type NFC struct {
	RegisterDevice

	flash NandFlash

	pageSizeIs512 bool

	irqStatus uint32
	irqMask   uint32

	ecc      [4]uint32
	eccValue uint32
	transferCount uint32

	readData      uint32
	readDataReady bool

	pageReadPending  bool
	pageWritePending bool
	pageWriteDone    bool

	notBusy      bool
	wbEmpty      bool
}

// NewNFC builds the controller at base, bound to flash.
func NewNFC(base uint32, flash NandFlash) *NFC {
	n := &NFC{RegisterDevice: newRegisterDevice("NFC", base, 0x50), flash: flash, notBusy: true, wbEmpty: true}
	n.declareRegisters()
	return n
}

func (n *NFC) pageSizeBytes() int {
	if n.pageSizeIs512 {
		return 512
	}
	return 256
}

func (n *NFC) declareRegisters() {
	r := n.reg("NFC_CTL", 0x00)
	psR, psW := boolField(&n.pageSizeIs512)
	r.AddField(Field{9, 1, psR, psW})

	r = n.reg("NFC_STAT", 0x04)
	nbR, _ := boolField(&n.notBusy)
	r.AddField(Field{0, 1, nbR, noWrite})
	weR, _ := boolField(&n.wbEmpty)
	r.AddField(Field{4, 1, weR, noWrite})

	r = n.reg("NFC_IRQSTAT", 0x08)
	r.AddField(Field{0, 1, func() uint32 {
		if n.irqStatus&(1<<0) != 0 {
			return 1
		}
		return 0
	}, w1cBit(&n.irqStatus, 0)})
	r.AddField(Field{2, 1, bitGetter(&n.irqStatus, 2), w1cBit(&n.irqStatus, 2)})
	r.AddField(Field{3, 1, bitGetter(&n.irqStatus, 3), w1cBit(&n.irqStatus, 3)})
	r.AddField(Field{4, 1, func() uint32 {
		n.readDataReady = n.flash.IsDataReady()
		return bitGetter(&n.irqStatus, 4)()
	}, func(v uint32) {
		n.readDataReady = n.flash.IsDataReady()
	}})
	r.AddField(Field{5, 1, bitGetter(&n.irqStatus, 5), w1cBit(&n.irqStatus, 5)})
	r.WriteCallback = func(uint32) { n.updateInterrupts() }

	r = n.reg("NFC_IRQMASK", 0x0C)
	r.AddField(Field{0, 5, func() uint32 { return n.irqMask }, func(v uint32) { n.irqMask = v & 0x1F }})
	r.WriteCallback = func(uint32) { n.updateInterrupts() }

	for i := 0; i < 4; i++ {
		idx := i
		r = n.reg(eccRegName(idx), uint32(0x10+idx*4))
		r.AddField(Field{0, 16, func() uint32 { return n.ecc[idx] }, func(v uint32) { n.ecc[idx] = v }})
	}

	r = n.reg("NFC_COUNT", 0x20)
	r.AddField(Field{0, 32, func() uint32 { return n.transferCount }, func(v uint32) { n.transferCount = v }})

	r = n.reg("NFC_RST", 0x24)
	r.AddField(Field{0, 1, constRead(0), func(v uint32) {
		if v&1 != 0 {
			n.resetECC()
		}
	}})

	r = n.reg("NFC_PGCTL", 0x28)
	r.AddField(Field{0, 1, constRead(0), func(v uint32) {
		if v&1 != 0 {
			n.flash.StartPageRead()
			n.pageReadPending = true
		}
	}})
	r.AddField(Field{1, 1, constRead(0), func(v uint32) {
		if v&1 != 0 {
			n.flash.StartPageWrite()
			n.pageWritePending = true
			n.pageWriteDone = false
		}
	}})

	r = n.reg("NFC_READ", 0x2C)
	r.AddField(Field{0, 8, func() uint32 { return n.readData }, noWrite})

	r = n.reg("NFC_ADDR", 0x40)
	r.AddField(Field{0, 8, constRead(0), func(v uint32) { n.flash.SendAddress(byte(v)) }})

	r = n.reg("NFC_CMD", 0x44)
	r.AddField(Field{0, 8, constRead(0), noWrite})
	r.WriteCallback = func(v uint32) { n.flash.SendCommand(byte(v)) }

	r = n.reg("NFC_DATA_WR", 0x48)
	r.AddField(Field{0, 8, constRead(0), func(v uint32) { n.flash.WriteData(byte(v)) }})

	r = n.reg("NFC_DATA_RD", 0x4C)
	r.AddField(Field{0, 8, constRead(0), noWrite})
	r.WriteCallback = func(uint32) {
		n.readData = uint32(n.flash.ReadData())
		n.readDataReady = true
		n.updateInterrupts()
	}
}

func eccRegName(i int) string {
	return [4]string{"NFC_ECC0", "NFC_ECC1", "NFC_ECC2", "NFC_ECC3"}[i]
}

func bitGetter(word *uint32, bit int) func() uint32 {
	return func() uint32 {
		if *word&(1<<uint(bit)) != 0 {
			return 1
		}
		return 0
	}
}

func w1cBit(word *uint32, bit int) func(uint32) {
	return func(v uint32) {
		if v != 0 {
			*word &^= 1 << uint(bit)
		}
	}
}

func (n *NFC) resetECC() {
	n.ecc = [4]uint32{}
	n.eccValue = 0
	n.transferCount = 0
}

// Tick implements Ticker: every step re-samples chip busy/data-ready
// state and re-derives the forwarded interrupt line.
func (n *NFC) Tick(currentIVG int) {
	n.setNotBusy(!n.flash.IsBusy())
	n.readDataReady = n.flash.IsDataReady()
	n.updateInterrupts()
}

func (n *NFC) setNotBusy(value bool) {
	if value && !n.notBusy {
		n.irqStatus |= 1 << 0
	}
	n.notBusy = value
}

func (n *NFC) setWriteBufferEmpty(value bool) {
	if value && !n.wbEmpty {
		n.irqStatus |= 1 << 3
	}
	n.wbEmpty = value
}

// updateInterrupts forwards irqStatus & ~irqMask to a single line -
// NFC_IRQMASK is active-low, a zero bit means that source is enabled.
func (n *NFC) updateInterrupts() {
	level := 0
	if n.irqStatus&^n.irqMask != 0 {
		level = 1
	}
	n.TriggerInterrupt0(level)
}

// DMARead implements DMABus for the memoryWrite (peripheral->memory)
// direction: the DMA engine is reading page data out of the NAND chip.
func (n *NFC) DMARead(x, y int, dest []byte) int {
	count := n.flash.PageRead(dest)
	n.calculateECC(dest[:count])
	n.transferCount += uint32(count)
	if int(n.transferCount) >= n.pageSizeBytes() {
		n.pageReadPending = false
	}
	return count
}

// DMAWrite implements DMABus for the memory->peripheral direction: the
// DMA engine is pushing page data into the NAND chip's program buffer.
func (n *NFC) DMAWrite(x, y int, source []byte) int {
	count := n.flash.PageWrite(source)
	n.calculateECC(source[:count])
	n.transferCount += uint32(count)
	if int(n.transferCount) >= n.pageSizeBytes() {
		n.pageWritePending = false
		n.pageWriteDone = true
		n.setWriteBufferEmpty(true)
		n.updateInterrupts()
	}
	return count
}

// calculateECC folds data into the rolling XOR-rotate accumulator,
// latching the two 11-bit sub-field pairs at the 256 and 512-byte
// transfer boundaries.
func (n *NFC) calculateECC(data []byte) {
	if len(data) == 0 {
		return
	}
	start := n.transferCount
	if start < 256 {
		limit := uint32(256) - start
		if limit > uint32(len(data)) {
			limit = uint32(len(data))
		}
		for i := uint32(0); i < limit; i++ {
			n.eccValue = rotl1(n.eccValue ^ uint32(data[i]))
		}
		if start+limit >= 256 {
			n.ecc[0] = n.eccValue & 0x7FF
			n.ecc[1] = (n.eccValue >> 11) & 0x7FF
			n.eccValue = 0
		}
		data = data[limit:]
		start += limit
	}
	if len(data) == 0 {
		return
	}
	if start+uint32(len(data)) >= 512 {
		for _, b := range data {
			n.eccValue = rotl1(n.eccValue ^ uint32(b))
		}
		n.ecc[2] = n.eccValue & 0x7FF
		n.ecc[3] = (n.eccValue >> 11) & 0x7FF
	} else {
		for _, b := range data {
			n.eccValue = rotl1(n.eccValue ^ uint32(b))
		}
	}
}

func rotl1(v uint32) uint32 {
	return (v << 1) | (v >> 31)
}
