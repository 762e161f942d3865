// twi.go - TWI (I2C master) with pluggable slave directory

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
twi.go implements the TWI master: two-byte transmit/receive FIFOs, a
directory of attached slaves keyed by 7-bit address, and a per-tick
transfer step that moves as many bytes as the FIFO and the programmed
DCNT budget allow. A missing slave address is an address-nack; a slave
returning false from Read/Write is a buffer error. Either ends the
transfer and drops MEN, same as a real bus timeout would.
*/

package main

const (
	twiFIFOSize = 2
	twiIVG      = 10
)

// I2CPeripheral is any attachable slave: a register-mapped device, or a
// trivial fixed-byte stub used in tests.
type I2CPeripheral interface {
	Address() uint32
	Read(buf []byte) bool
	Write(buf []byte) bool
	Stop()
}

// TWI is the I2C master controller.
type TWI struct {
	RegisterDevice

	clkLow, clkHigh uint8
	enabled         bool
	sccbMode        bool

	slaveCtl, slaveStat, slaveAddr uint16

	masterDCNT        uint8
	masterAddr        uint8
	masterRepeatStart bool
	masterStop        bool
	masterFast        bool
	masterRead        bool
	masterEnable      bool

	masterTransferInProgress bool
	masterLostArbitration    bool
	masterAddressNack        bool
	masterDataNack           bool
	masterBufferReadError    bool
	masterBufferWriteError   bool
	masterTransferComplete   bool
	masterTransferError      bool

	intMask           uint16
	slaveIntStat      uint8
	transmitFIFOSvc   bool
	receiveFIFOSvc    bool

	xmtFlush, rcvFlush     bool
	xmtIntLen, rcvIntLen   bool

	xmtFifo []byte
	rcvFifo []byte

	clients map[uint32]I2CPeripheral
}

// NewTWI constructs the master at baseAddr with an empty slave table.
func NewTWI(baseAddr uint32) *TWI {
	t := &TWI{RegisterDevice: newRegisterDevice("TWI", baseAddr, 0x90), clients: make(map[uint32]I2CPeripheral)}
	t.declareRegisters()
	return t
}

// AttachPeripheral registers a slave at its own reported address.
func (t *TWI) AttachPeripheral(p I2CPeripheral) {
	t.clients[p.Address()] = p
}

func (t *TWI) declareRegisters() {
	r := t.reg("CLKDIV", 0x00)
	r.AddField(Field{0, 8, func() uint32 { return uint32(t.clkLow) }, func(v uint32) { t.clkLow = uint8(v) }})
	r.AddField(Field{8, 8, func() uint32 { return uint32(t.clkHigh) }, func(v uint32) { t.clkHigh = uint8(v) }})

	r = t.reg("CONTROL", 0x04)
	r.AddField(Field{0, 7, func() uint32 { return 0 }, noWrite})
	enR, enW := boolField(&t.enabled)
	r.AddField(Field{7, 1, enR, enW})
	sccbR, sccbW := boolField(&t.sccbMode)
	r.AddField(Field{9, 1, sccbR, sccbW})

	r = t.reg("SLAVE_CTL", 0x08)
	r.AddField(Field{0, 16, func() uint32 { return uint32(t.slaveCtl) }, func(v uint32) { t.slaveCtl = uint16(v) }})

	r = t.reg("SLAVE_STAT", 0x0C)
	r.AddField(Field{0, 16, func() uint32 { return uint32(t.slaveStat) }, func(v uint32) { t.slaveStat = uint16(v) }})

	r = t.reg("SLAVE_ADDR", 0x10)
	r.AddField(Field{0, 16, func() uint32 { return uint32(t.slaveAddr) }, func(v uint32) { t.slaveAddr = uint16(v) }})

	r = t.reg("MASTER_CTL", 0x14)
	r.AddField(Field{6, 8, func() uint32 { return uint32(t.masterDCNT) }, func(v uint32) { t.masterDCNT = uint8(v) }})
	rsR, rsW := boolField(&t.masterRepeatStart)
	r.AddField(Field{5, 1, rsR, rsW})
	stR, stW := boolField(&t.masterStop)
	r.AddField(Field{4, 1, stR, stW})
	fastR, fastW := boolField(&t.masterFast)
	r.AddField(Field{3, 1, fastR, fastW})
	mdR, mdW := boolField(&t.masterRead)
	r.AddField(Field{2, 1, mdR, mdW})
	meR, meW := boolField(&t.masterEnable)
	r.AddField(Field{0, 1, meR, meW})
	r.WriteCallback = func(uint32) {
		if t.masterStop {
			if c, ok := t.clients[uint32(t.masterAddr)]; ok {
				c.Stop()
			}
		}
	}

	r = t.reg("MASTER_STAT", 0x18)
	mpR, _ := boolField(&t.masterTransferInProgress)
	r.AddField(Field{0, 1, mpR, noWrite})
	laR, _ := boolField(&t.masterLostArbitration)
	r.AddField(Field{1, 1, laR, w1cField(&t.masterLostArbitration)})
	anR, _ := boolField(&t.masterAddressNack)
	r.AddField(Field{2, 1, anR, w1cField(&t.masterAddressNack)})
	dnR, _ := boolField(&t.masterDataNack)
	r.AddField(Field{3, 1, dnR, w1cField(&t.masterDataNack)})
	brR, _ := boolField(&t.masterBufferReadError)
	r.AddField(Field{4, 1, brR, w1cField(&t.masterBufferReadError)})
	bwR, _ := boolField(&t.masterBufferWriteError)
	r.AddField(Field{5, 1, bwR, w1cField(&t.masterBufferWriteError)})

	r = t.reg("MASTER_ADDR", 0x1C)
	r.AddField(Field{0, 7, func() uint32 { return uint32(t.masterAddr) }, func(v uint32) { t.masterAddr = uint8(v) }})

	r = t.reg("INT_STAT", 0x20)
	r.AddField(Field{0, 4, func() uint32 { return uint32(t.slaveIntStat) }, func(v uint32) { t.slaveIntStat &^= uint8(v) }})
	mcR, _ := boolField(&t.masterTransferComplete)
	r.AddField(Field{4, 1, mcR, w1cField(&t.masterTransferComplete)})
	meR2, _ := boolField(&t.masterTransferError)
	r.AddField(Field{5, 1, meR2, w1cField(&t.masterTransferError)})
	xsR, _ := boolField(&t.transmitFIFOSvc)
	r.AddField(Field{6, 1, xsR, w1cField(&t.transmitFIFOSvc)})
	rsR2, _ := boolField(&t.receiveFIFOSvc)
	r.AddField(Field{7, 1, rsR2, w1cField(&t.receiveFIFOSvc)})
	r.WriteCallback = func(uint32) { t.updateInterrupts() }

	r = t.reg("INT_MASK", 0x24)
	r.AddField(Field{0, 16, func() uint32 { return uint32(t.intMask) }, func(v uint32) { t.intMask = uint16(v) }})
	r.WriteCallback = func(uint32) { t.updateInterrupts() }

	r = t.reg("FIFO_CTL", 0x28)
	xfR, _ := boolField(&t.xmtFlush)
	r.AddField(Field{0, 1, xfR, noWrite})
	rfR, _ := boolField(&t.rcvFlush)
	r.AddField(Field{1, 1, rfR, noWrite})
	xiR, xiW := boolField(&t.xmtIntLen)
	r.AddField(Field{2, 1, xiR, xiW})
	riR, riW := boolField(&t.rcvIntLen)
	r.AddField(Field{3, 1, riR, riW})

	r = t.reg("FIFO_STAT", 0x2C)
	r.AddField(Field{0, 2, func() uint32 { return fifoStatCode(len(t.xmtFifo)) }, noWrite})
	r.AddField(Field{2, 2, func() uint32 { return fifoStatCode(len(t.rcvFifo)) }, noWrite})

	r = t.reg("XMT_DATA8", 0x80)
	r.AddField(Field{0, 8, func() uint32 { return 0 }, func(v uint32) {
		if len(t.xmtFifo) < twiFIFOSize {
			t.xmtFifo = append(t.xmtFifo, byte(v))
		}
	}})

	r = t.reg("XMT_DATA16", 0x84)
	r.AddField(Field{0, 16, func() uint32 { return 0 }, func(v uint32) {
		if len(t.xmtFifo) < twiFIFOSize {
			t.xmtFifo = append(t.xmtFifo, byte(v))
		}
		if len(t.xmtFifo) < twiFIFOSize {
			t.xmtFifo = append(t.xmtFifo, byte(v>>8))
		}
	}})

	r = t.reg("RCV_DATA8", 0x88)
	r.AddField(Field{0, 8, func() uint32 {
		if len(t.rcvFifo) == 0 {
			return 0
		}
		v := t.rcvFifo[0]
		t.rcvFifo = t.rcvFifo[1:]
		return uint32(v)
	}, noWrite})

	r = t.reg("RCV_DATA16", 0x8C)
	r.AddField(Field{0, 16, func() uint32 {
		var v uint32
		if len(t.rcvFifo) > 0 {
			v = uint32(t.rcvFifo[0])
			t.rcvFifo = t.rcvFifo[1:]
		}
		if len(t.rcvFifo) > 0 {
			v |= uint32(t.rcvFifo[0]) << 8
			t.rcvFifo = t.rcvFifo[1:]
		}
		return v
	}, noWrite})
}

func fifoStatCode(n int) uint32 {
	switch {
	case n == 0:
		return 0x0
	case n == 1:
		return 0x1
	default:
		return 0x3
	}
}

// Tick implements Ticker: the master services one transfer step per CPU
// instruction, outside of interrupt servicing: the step is skipped on any
// tick where the CPU reports the TWI's own vector (currentIVG == twiIVG).
func (t *TWI) Tick(currentIVG int) {
	if currentIVG == twiIVG {
		return
	}
	t.processMasterTransfer()
}

func (t *TWI) processMasterTransfer() {
	if !t.enabled || !t.masterEnable {
		return
	}
	t.masterTransferInProgress = true

	if t.masterRead {
		budget := twiFIFOSize - len(t.rcvFifo)
		if budget > int(t.masterDCNT) {
			budget = int(t.masterDCNT)
		}
		if budget <= 0 {
			t.masterTransferInProgress = false
			return
		}
		client, ok := t.clients[uint32(t.masterAddr)]
		if !ok {
			t.masterAddressNack = true
			t.masterTransferError = true
			t.masterEnable = false
		} else {
			buf := make([]byte, budget)
			if !client.Read(buf) {
				t.masterBufferReadError = true
				t.masterTransferError = true
			} else {
				t.masterDCNT -= uint8(budget)
				t.rcvFifo = append(t.rcvFifo, buf...)
				if t.masterDCNT == 0 {
					t.masterTransferComplete = true
				}
				if len(t.rcvFifo) > 0 && !t.rcvIntLen {
					t.receiveFIFOSvc = true
				}
				if len(t.rcvFifo) >= twiFIFOSize && t.rcvIntLen {
					t.receiveFIFOSvc = true
				}
			}
		}
	} else {
		budget := len(t.xmtFifo)
		if budget > int(t.masterDCNT) {
			budget = int(t.masterDCNT)
		}
		if budget <= 0 {
			t.masterTransferInProgress = false
			return
		}
		client, ok := t.clients[uint32(t.masterAddr)]
		if !ok {
			t.masterAddressNack = true
			t.masterTransferError = true
		} else {
			data := append([]byte(nil), t.xmtFifo[:budget]...)
			t.xmtFifo = t.xmtFifo[budget:]
			if !client.Write(data) {
				t.masterBufferWriteError = true
				t.masterTransferError = true
				t.masterEnable = false
			} else {
				t.masterDCNT -= uint8(budget)
				if t.masterDCNT == 0 {
					t.masterTransferComplete = true
				}
				if len(t.xmtFifo) < twiFIFOSize && !t.xmtIntLen {
					t.transmitFIFOSvc = true
				}
				if len(t.xmtFifo) == 0 && t.xmtIntLen {
					t.transmitFIFOSvc = true
				}
			}
		}
	}

	if (t.masterTransferComplete && !t.masterRepeatStart) || t.masterTransferError {
		t.masterEnable = false
		if c, ok := t.clients[uint32(t.masterAddr)]; ok {
			c.Stop()
		}
	}
	t.masterTransferInProgress = false
	t.updateInterrupts()
}

func (t *TWI) updateInterrupts() {
	intStat := t.Read32(0x20) & 0xFFFF
	if intStat&uint32(t.intMask) != 0 {
		t.TriggerInterrupt0(1)
	} else {
		t.TriggerInterrupt0(0)
	}
}
