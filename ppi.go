// ppi.go - PPI: a pure DMA sink feeding the host Display

/*
ppi.go is the video-out side of the parallel peripheral interface: it has
almost no register surface of its own because its entire job is to be a
DMABus target the DMA engine's 2-D channel writes rows into. On enable
it tells the attached Display its frame geometry;
every DMAWrite call after that is one more row of RGB565 pixel bytes
forwarded straight through to Display.UpdateRowBuffer.
*/

package main

// PPI is the parallel peripheral interface video-out sink.
type PPI struct {
	RegisterDevice

	enabled     bool
	rows, lines uint16

	display Display
}

// NewPPI constructs the PPI at base; display may be nil until the host
// adapter attaches one (AttachDisplay), letting SoC construction proceed
// before the window exists.
func NewPPI(base uint32) *PPI {
	p := &PPI{RegisterDevice: newRegisterDevice("PPI", base, 0x20)}
	p.declareRegisters()
	return p
}

// AttachDisplay wires the host-facing Display surface.
func (p *PPI) AttachDisplay(d Display) { p.display = d }

func (p *PPI) declareRegisters() {
	r := p.reg("PPI_CTL", 0x00)
	enR, enW := boolField(&p.enabled)
	r.AddField(Field{0, 1, enR, enW})
	r.WriteCallback = func(uint32) {
		if p.enabled && p.display != nil {
			p.display.Initialize(int(p.rows), int(p.lines))
		}
	}

	r = p.reg("PPI_ROWS", 0x04)
	r.AddField(Field{0, 16, func() uint32 { return uint32(p.rows) }, func(v uint32) { p.rows = uint16(v) }})

	r = p.reg("PPI_LINES", 0x08)
	r.AddField(Field{0, 16, func() uint32 { return uint32(p.lines) }, func(v uint32) { p.lines = uint16(v) }})
}

// DMARead implements DMABus; the PPI is a sink only, never a DMA source.
func (p *PPI) DMARead(x, y int, dest []byte) int { return 0 }

// DMAWrite implements DMABus: memory->peripheral rows arrive here, one
// call per row per the DMA channel's 2-D scatter loop.
func (p *PPI) DMAWrite(x, y int, source []byte) int {
	if !p.enabled || p.display == nil {
		return len(source)
	}
	p.display.UpdateRowBuffer(x, y, source)
	return len(source)
}
