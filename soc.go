// soc.go - top-level SoC construction and device wiring

/*
soc.go is the one place that knows the full physical address map and
peer-wiring graph: every other file in this package describes one
device in isolation. Addresses below are this emulator's own memory
map (the vendor's real map is far larger and mostly irrelevant once the
decoder itself is out of scope); only the peripherals this repository
models get a window.
*/

package main

import "fmt"

const (
	ramBase  = 0x00000000
	ramSize  = 4 * 1024 * 1024

	gpioABase = 0x20000000
	gpioBBase = 0x20000040

	sicBase = 0x20010000
	dmaBase = 0x20020000
	twiBase = 0x20030000
	nfcBase = 0x20040000

	rtcBase     = 0x20050000
	otpBase     = 0x20050020
	ppiBase     = 0x20050040
	sportBase   = 0x20050060
	gptimerBase = 0x20050080
	ebiuBase    = 0x20050090
	jtagBase    = 0x200500B0
)

// I2C slave addresses on the TWI bus.
const (
	i2cAddrGPIOExpander = 0x20
	i2cAddrAccel        = 0x53
	i2cAddrPotentiometer = 0x2F
)

// SoC owns the bus, every peripheral, the interrupt fabric, and the
// event queue; it is the unit main.go's run constructs once per run.
type SoC struct {
	Bus       *BusFabric
	Scheduler *EventQueue
	CEC       *CEC
	SIC       *SIC

	RAM   *MemoryDevice
	GPIOA *GPIOBank
	GPIOB *GPIOBank
	Wires *WireMap

	DMA *DMAEngine
	TWI *TWI
	NFC *NFC
	NAND *MT29F4G08

	RTC     *RTC
	OTP     *OTP
	PPI     *PPI
	SPORT   *SPORT
	GPTimer *GPTimer
	EBIU    *EBIU
	JTAG    *JTAGID

	Expander      *GPIOExpander
	Accelerometer *ADXL345
	Potentiometer *Potentiometer

	tickers []Ticker
}

// NewSoC constructs and wires the entire machine; nandPath is opened (or
// created and erased to 0xFF, matching a blank part) as the NAND chip's
// backing file.
func NewSoC(nandPath string) (*SoC, error) {
	s := &SoC{
		Bus:       NewBusFabric(),
		Scheduler: NewEventQueue(),
		CEC:       &CEC{},
		Wires:     NewWireMap(),
	}
	s.SIC = NewSIC(s.CEC)

	s.RAM = NewMemoryDevice("RAM", ramBase, ramSize)
	s.Bus.Bind(s.RAM, s.RAM)

	sicRegs := NewSICRegisters(sicBase, s.SIC)
	s.Bus.Bind(sicRegs, sicRegs)

	s.GPIOA = NewGPIOBank("GPIOA", gpioABase, s.Wires)
	s.GPIOB = NewGPIOBank("GPIOB", gpioBBase, s.Wires)
	s.Bus.Bind(s.GPIOA, s.GPIOA)
	s.Bus.Bind(s.GPIOB, s.GPIOB)

	s.DMA = NewDMAEngine(dmaBase, s.Bus)
	s.Bus.Bind(s.DMA, s.DMA)

	s.TWI = NewTWI(twiBase)
	s.Bus.Bind(s.TWI, s.TWI)

	nand, err := NewMT29F4G08(nandPath, s.Scheduler)
	if err != nil {
		return nil, fmt.Errorf("opening NAND backing file: %w", err)
	}
	s.NAND = nand
	s.NFC = NewNFC(nfcBase, s.NAND)
	s.Bus.Bind(s.NFC, s.NFC)
	s.DMA.AttachDMABus(DMAPeripheralNFC, s.NFC)

	s.RTC = NewRTC(rtcBase, s.Scheduler)
	s.Bus.Bind(s.RTC, s.RTC)

	s.OTP = NewOTP(otpBase)
	s.Bus.Bind(s.OTP, s.OTP)

	s.PPI = NewPPI(ppiBase)
	s.Bus.Bind(s.PPI, s.PPI)
	s.DMA.AttachDMABus(DMAPeripheralPPI, s.PPI)

	s.SPORT = NewSPORT(sportBase)
	s.Bus.Bind(s.SPORT, s.SPORT)
	s.DMA.AttachDMABus(DMAPeripheralSPORT0Tx, s.SPORT)

	s.GPTimer = NewGPTimer(gptimerBase)
	s.Bus.Bind(s.GPTimer, s.GPTimer)

	s.EBIU = NewEBIU(ebiuBase)
	s.Bus.Bind(s.EBIU, s.EBIU)

	s.JTAG = NewJTAGID(jtagBase)
	s.Bus.Bind(s.JTAG, s.JTAG)

	s.Expander = NewGPIOExpander(i2cAddrGPIOExpander, s.Wires)
	s.TWI.AttachPeripheral(s.Expander)

	s.Accelerometer = NewADXL345(i2cAddrAccel, s.Wires)
	s.TWI.AttachPeripheral(s.Accelerometer)

	s.Potentiometer = NewPotentiometer(i2cAddrPotentiometer)
	s.TWI.AttachPeripheral(s.Potentiometer)

	s.wireInterrupts()
	s.wireGPIOPeers()

	s.tickers = []Ticker{s.DMA, s.TWI, s.NFC}

	return s, nil
}

// wireInterrupts binds every peripheral's interrupt line(s) into a SIC
// pin via SetLine, per the vendor's fixed IVG assignment table.
func (s *SoC) wireInterrupts() {
	const (
		pinGPIOA = 0
		pinGPIOB = 1
		pinTWI   = 10
		pinNFC   = 12
		pinRTC   = 13
		pinDMA0  = 20
	)
	s.GPIOA.BindIRQ(
		func(level int) { s.SIC.SetLine(pinGPIOA, level) },
		func(level int) { s.SIC.SetLine(pinGPIOA, level) },
	)
	s.GPIOB.BindIRQ(
		func(level int) { s.SIC.SetLine(pinGPIOB, level) },
		func(level int) { s.SIC.SetLine(pinGPIOB, level) },
	)
	s.TWI.BindInterrupt(0, func(level int) { s.SIC.SetLine(pinTWI, level) })
	s.NFC.BindInterrupt(0, func(level int) { s.SIC.SetLine(pinNFC, level) })
	s.RTC.BindInterrupt(0, func(level int) { s.SIC.SetLine(pinRTC, level) })
	for ch := 0; ch < 16; ch++ {
		line := pinDMA0 + ch
		s.DMA.BindInterrupt(ch, 0, func(level int) { s.SIC.SetLine(line, level) })
	}
}

// wireGPIOPeers connects the I2C GPIO expander's two interrupt outputs
// and the accelerometer's single interrupt pin onto spare GPIOA input
// pins, so their assertions reach the interrupt fabric the same way a
// directly-wired GPIO source would.
func (s *SoC) wireGPIOPeers() {
	const (
		gpioAExpanderIntA = 4
		gpioAExpanderIntB = 5
		gpioAAccelInt     = 6
	)
	s.Wires.Connect(s.Expander, mcpPinINTA, s.GPIOA, gpioAExpanderIntA)
	s.Wires.Connect(s.Expander, mcpPinINTB, s.GPIOA, gpioAExpanderIntB)
	s.Wires.Connect(s.Accelerometer, 0, s.GPIOA, gpioAAccelInt)
}

// Tickers returns the device list the CPU thread steps once per
// instruction, in the fixed order the concurrency model requires: the
// set itself is stable for the SoC's lifetime.
func (s *SoC) Tickers() []Ticker { return s.tickers }
