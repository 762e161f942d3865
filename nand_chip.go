// nand_chip.go - MT29F4G08 NAND flash: ONFI command state machine + file backing

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
nand_chip.go models one MT29F4G08: 2048-byte pages, 64-byte OOB, 64 pages
per block, 4096 blocks. The ONFI command set this simulates is narrow -
reset, read (1/2 + random-read variants), page program (1/2 + random
write), block erase (1/2), read status - but wide enough to drive real
boot firmware. A page program can only clear bits (AND against the
program buffer); the backing file is flat with all page data first,
followed by all OOB areas. Busy is a scheduled event, never a
blocking sleep - setBusy always clears itself via the shared EventQueue
100ns of guest time later.
*/

package main

import (
	"fmt"
	"io"
	"os"
)

const (
	nandPageSize       = 2048
	nandOOBSize        = 64
	nandPageTotalSize  = nandPageSize + nandOOBSize
	nandPagesPerBlock  = 64
	nandTotalBlocks    = 4096
	nandTotalPages     = nandTotalBlocks * nandPagesPerBlock
	nandOOBAreaOffset  = int64(nandTotalPages) * nandPageSize
	nandErasedValue    = 0xFF
)

const (
	nandCmdRead1        = 0x00
	nandCmdRead2        = 0x30
	nandCmdRandomRead1  = 0x05
	nandCmdRandomRead2  = 0xE0
	nandCmdReadStatus   = 0x70
	nandCmdPageProgram1 = 0x80
	nandCmdPageProgram2 = 0x10
	nandCmdRandomWrite  = 0x85
	nandCmdBlockErase1  = 0x60
	nandCmdBlockErase2  = 0xD0
	nandCmdReset        = 0xFF
)

const (
	nandStatusWriteEnabled = 0x80
	nandStatusReady        = 0x40
)

// NandFlash is the command-level capability the NFC controller drives.
type NandFlash interface {
	SendCommand(command byte)
	SendAddress(address byte)
	ReadData() byte
	WriteData(data byte)
	StartPageRead()
	StartPageWrite()
	PageRead(dest []byte) int
	PageWrite(source []byte) int
	IsDataReady() bool
	IsBusy() bool
}

// MT29F4G08 is the file-backed NAND chip.
type MT29F4G08 struct {
	file *os.File

	pageBuffer    [nandPageTotalSize]byte
	programBuffer [nandPageTotalSize]byte

	currentCommand byte
	statusRegister byte

	addressCycle int
	addressBytes [5]byte

	dataOffset int

	busy      bool
	scheduler *EventQueue
}

// NewMT29F4G08 opens (or creates and erase-fills) the backing file at
// storagePath and returns a ready chip.
func NewMT29F4G08(storagePath string, scheduler *EventQueue) (*MT29F4G08, error) {
	chip := &MT29F4G08{
		statusRegister: nandStatusReady | nandStatusWriteEnabled,
		scheduler:      scheduler,
	}
	for i := range chip.pageBuffer {
		chip.pageBuffer[i] = nandErasedValue
		chip.programBuffer[i] = nandErasedValue
	}

	f, err := os.OpenFile(storagePath, os.O_RDWR, 0o644)
	if os.IsNotExist(err) {
		f, err = createErasedNANDFile(storagePath)
	}
	if err != nil {
		return nil, fmt.Errorf("nand: opening storage file %s: %w", storagePath, err)
	}
	chip.file = f
	return chip, nil
}

func createErasedNANDFile(path string) (*os.File, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	eraseBuf := make([]byte, nandPageTotalSize)
	for i := range eraseBuf {
		eraseBuf[i] = nandErasedValue
	}
	for page := 0; page < nandTotalPages; page++ {
		if _, err := f.Write(eraseBuf); err != nil {
			f.Close()
			return nil, err
		}
	}
	f.Close()
	return os.OpenFile(path, os.O_RDWR, 0o644)
}

// Close releases the backing file handle.
func (c *MT29F4G08) Close() error {
	if c.file == nil {
		return nil
	}
	return c.file.Close()
}

func (c *MT29F4G08) setBusy() {
	c.busy = true
	c.scheduler.Queue(func() { c.busy = false }, 100)
}

// SendCommand dispatches an ONFI command and resets the address cycle
// counter, matching the original's unconditional reset on every command
// byte.
func (c *MT29F4G08) SendCommand(command byte) {
	c.addressCycle = 0
	c.handleCommand(command)
}

func (c *MT29F4G08) handleCommand(command byte) {
	switch command {
	case nandCmdReset:
		c.currentCommand = nandCmdRead1
		c.addressCycle = 0
		c.dataOffset = 0
		c.setBusy()
	case nandCmdRead1:
		c.addressCycle = 0
	case nandCmdRead2:
		if c.currentCommand == nandCmdRead1 {
			c.executeRead()
		}
	case nandCmdRandomRead1:
		c.addressCycle = 0
	case nandCmdRandomRead2:
		if c.currentCommand == nandCmdRandomRead1 {
			c.dataOffset = c.columnAddress()
		}
	case nandCmdBlockErase1:
		c.addressCycle = 2
	case nandCmdBlockErase2:
		if c.currentCommand == nandCmdBlockErase1 {
			c.executeErase()
		}
	case nandCmdReadStatus:
		// status served from ReadData while currentCommand == ReadStatus
	case nandCmdPageProgram1:
		c.addressCycle = 0
		c.dataOffset = 0
		for i := range c.programBuffer {
			c.programBuffer[i] = nandErasedValue
		}
	case nandCmdRandomWrite:
		c.addressCycle = 0
		c.dataOffset = 0
	case nandCmdPageProgram2:
		if c.currentCommand == nandCmdPageProgram1 || c.currentCommand == nandCmdRandomWrite {
			c.executeProgram()
		}
	default:
		logWarn("nand: unknown command 0x%02X", command)
	}
	c.currentCommand = command
}

// SendAddress feeds one address cycle (5 total: 2 column + 3 row).
func (c *MT29F4G08) SendAddress(address byte) {
	if c.addressCycle < len(c.addressBytes) {
		c.addressBytes[c.addressCycle] = address
		c.addressCycle++
	}
	if c.currentCommand == nandCmdRandomWrite && c.addressCycle == 2 {
		c.dataOffset = c.columnAddress()
	} else if c.currentCommand == nandCmdPageProgram1 && c.addressCycle == len(c.addressBytes) {
		c.dataOffset = c.columnAddress()
	}
}

func (c *MT29F4G08) StartPageRead()  {}
func (c *MT29F4G08) StartPageWrite() {}

// ReadData returns the status byte while a status read is pending,
// otherwise streams the current page buffer from dataOffset.
func (c *MT29F4G08) ReadData() byte {
	if c.currentCommand == nandCmdReadStatus {
		return c.statusRegister
	}
	if c.dataOffset < nandPageTotalSize {
		b := c.pageBuffer[c.dataOffset]
		c.dataOffset++
		return b
	}
	return nandErasedValue
}

// WriteData ANDs one byte into the program buffer at dataOffset - NAND
// programming can only clear bits, never set them.
func (c *MT29F4G08) WriteData(data byte) {
	if c.dataOffset < nandPageTotalSize {
		c.programBuffer[c.dataOffset] &= data
		c.dataOffset++
	}
}

// PageWrite ANDs up to len(data) bytes into the program buffer starting
// at dataOffset, used by the NFC's DMA burst path.
func (c *MT29F4G08) PageWrite(data []byte) int {
	n := len(data)
	if room := nandPageTotalSize - c.dataOffset; n > room {
		n = room
	}
	for i := 0; i < n; i++ {
		c.programBuffer[c.dataOffset+i] &= data[i]
	}
	c.dataOffset += n
	return n
}

// PageRead copies up to len(dest) bytes from the page buffer starting at
// dataOffset, used by the NFC's DMA burst path.
func (c *MT29F4G08) PageRead(dest []byte) int {
	n := len(dest)
	if room := nandPageTotalSize - c.dataOffset; n > room {
		n = room
	}
	copy(dest, c.pageBuffer[c.dataOffset:c.dataOffset+n])
	c.dataOffset += n
	return n
}

// IsDataReady mirrors the original: true while streaming a loaded page,
// or while a status read is outstanding.
func (c *MT29F4G08) IsDataReady() bool {
	if c.currentCommand == nandCmdRead2 {
		return c.dataOffset < nandPageTotalSize
	}
	return c.currentCommand == nandCmdReadStatus
}

// IsBusy reports the scheduled busy-timer state.
func (c *MT29F4G08) IsBusy() bool { return c.busy }

func (c *MT29F4G08) columnAddress() int {
	return int(c.addressBytes[0]) | (int(c.addressBytes[1]&0x0F) << 8)
}

func (c *MT29F4G08) currentPage() int {
	return int(c.addressBytes[2]) | (int(c.addressBytes[3]) << 8) | (int(c.addressBytes[4]&0x03) << 16)
}

func (c *MT29F4G08) blockAddress() int {
	return c.currentPage() / nandPagesPerBlock
}

// loadPage reads page data + OOB from the backing file into pageBuffer.
// Any I/O failure degrades to an all-erased page and is logged, not
// propagated - per the error-handling design, host I/O failures never
// reach the guest as anything but erased-looking flash.
func (c *MT29F4G08) loadPage(pageNumber int) {
	if pageNumber >= nandTotalPages || c.file == nil {
		c.fillErased()
		return
	}
	pageOffset := int64(pageNumber) * nandPageSize
	if _, err := c.file.ReadAt(c.pageBuffer[:nandPageSize], pageOffset); err != nil && err != io.EOF {
		logWarn("nand: read page %d data: %v", pageNumber, err)
		c.fillErased()
		return
	}
	oobOffset := nandOOBAreaOffset + int64(pageNumber)*nandOOBSize
	if _, err := c.file.ReadAt(c.pageBuffer[nandPageSize:], oobOffset); err != nil && err != io.EOF {
		logWarn("nand: read page %d oob: %v", pageNumber, err)
		c.fillErased()
	}
}

func (c *MT29F4G08) fillErased() {
	for i := range c.pageBuffer {
		c.pageBuffer[i] = nandErasedValue
	}
}

// savePage applies the AND-semantics program over the currently stored
// page and writes the result back.
func (c *MT29F4G08) savePage(pageNumber int) {
	if pageNumber >= nandTotalPages || c.file == nil {
		return
	}
	c.loadPage(pageNumber)
	for i := range c.pageBuffer {
		c.pageBuffer[i] &= c.programBuffer[i]
	}
	pageOffset := int64(pageNumber) * nandPageSize
	if _, err := c.file.WriteAt(c.pageBuffer[:nandPageSize], pageOffset); err != nil {
		logWarn("nand: write page %d data: %v", pageNumber, err)
		return
	}
	oobOffset := nandOOBAreaOffset + int64(pageNumber)*nandOOBSize
	if _, err := c.file.WriteAt(c.pageBuffer[nandPageSize:], oobOffset); err != nil {
		logWarn("nand: write page %d oob: %v", pageNumber, err)
	}
}

func (c *MT29F4G08) executeRead() {
	c.setBusy()
	page := c.currentPage()
	column := c.columnAddress()
	c.loadPage(page)
	c.dataOffset = column
}

func (c *MT29F4G08) executeProgram() {
	c.setBusy()
	c.savePage(c.currentPage())
}

func (c *MT29F4G08) executeErase() {
	c.setBusy()
	block := c.blockAddress()
	if block >= nandTotalBlocks || c.file == nil {
		return
	}
	erasedPage := make([]byte, nandPageSize)
	erasedOOB := make([]byte, nandOOBSize)
	for i := range erasedPage {
		erasedPage[i] = nandErasedValue
	}
	for i := range erasedOOB {
		erasedOOB[i] = nandErasedValue
	}
	startPage := block * nandPagesPerBlock
	for i := 0; i < nandPagesPerBlock; i++ {
		page := startPage + i
		pageOffset := int64(page) * nandPageSize
		if _, err := c.file.WriteAt(erasedPage, pageOffset); err != nil {
			logWarn("nand: erase page %d data: %v", page, err)
			continue
		}
		oobOffset := nandOOBAreaOffset + int64(page)*nandOOBSize
		if _, err := c.file.WriteAt(erasedOOB, oobOffset); err != nil {
			logWarn("nand: erase page %d oob: %v", page, err)
		}
	}
}
