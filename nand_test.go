package main

import (
	"path/filepath"
	"testing"
)

func newTestNAND(t *testing.T) *MT29F4G08 {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nand.bin")
	chip, err := NewMT29F4G08(path, NewEventQueue())
	if err != nil {
		t.Fatalf("NewMT29F4G08: %v", err)
	}
	t.Cleanup(func() { chip.Close() })
	return chip
}

func sendAddress5(c *MT29F4G08, col0, col1, row0, row1, row2 byte) {
	c.SendAddress(col0)
	c.SendAddress(col1)
	c.SendAddress(row0)
	c.SendAddress(row1)
	c.SendAddress(row2)
}

// Reset then read page 0 of a freshly erased part yields 2112 bytes of
// 0xFF (2048 data + 64 OOB).
func TestNANDResetAndReadPage0(t *testing.T) {
	c := newTestNAND(t)

	c.SendCommand(nandCmdReset)
	sendAddress5(c, 0, 0, 0, 0, 0)
	c.SendCommand(nandCmdRead1)
	sendAddress5(c, 0, 0, 0, 0, 0)
	c.SendCommand(nandCmdRead2)

	for i := 0; i < nandPageTotalSize; i++ {
		if b := c.ReadData(); b != nandErasedValue {
			t.Fatalf("byte %d: got %#x, want 0xFF", i, b)
		}
	}
}

// Erase block 0, program page 0's first 16 bytes, and verify the stored
// page reflects AND-semantics programming plus untouched 0xFF tail.
func TestNANDProgramAndVerify(t *testing.T) {
	c := newTestNAND(t)

	c.SendCommand(nandCmdBlockErase1)
	c.SendAddress(0x00)
	c.SendAddress(0x00)
	c.SendCommand(nandCmdBlockErase2)

	c.SendCommand(nandCmdPageProgram1)
	sendAddress5(c, 0, 0, 0, 0, 0)
	pattern := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}
	for _, b := range pattern {
		c.WriteData(b)
	}
	c.SendCommand(nandCmdPageProgram2)

	c.SendCommand(nandCmdRead1)
	sendAddress5(c, 0, 0, 0, 0, 0)
	c.SendCommand(nandCmdRead2)

	for i, want := range pattern {
		if got := c.ReadData(); got != want {
			t.Fatalf("byte %d: got %#x, want %#x", i, got, want)
		}
	}
	for i := len(pattern); i < nandPageTotalSize; i++ {
		if got := c.ReadData(); got != nandErasedValue {
			t.Fatalf("byte %d: got %#x, want 0xFF", i, got)
		}
	}
}

// Repeated programs without an intervening erase AND their patterns
// together; programming can only clear bits.
func TestNANDProgramMonotonicityWithoutErase(t *testing.T) {
	c := newTestNAND(t)

	c.SendCommand(nandCmdBlockErase1)
	c.SendAddress(0x00)
	c.SendAddress(0x00)
	c.SendCommand(nandCmdBlockErase2)

	program := func(b byte) {
		c.SendCommand(nandCmdPageProgram1)
		sendAddress5(c, 0, 0, 0, 0, 0)
		c.WriteData(b)
		c.SendCommand(nandCmdPageProgram2)
	}
	program(0b1111_0000)
	program(0b1100_1100)

	c.SendCommand(nandCmdRead1)
	sendAddress5(c, 0, 0, 0, 0, 0)
	c.SendCommand(nandCmdRead2)

	want := byte(0b1111_0000 & 0b1100_1100)
	if got := c.ReadData(); got != want {
		t.Fatalf("AND-accumulated byte: got %#08b, want %#08b", got, want)
	}
}

func TestNANDEraseReturnsBlockToAllOnes(t *testing.T) {
	c := newTestNAND(t)

	c.SendCommand(nandCmdPageProgram1)
	sendAddress5(c, 0, 0, 0, 0, 0)
	c.WriteData(0x00)
	c.SendCommand(nandCmdPageProgram2)

	c.SendCommand(nandCmdBlockErase1)
	c.SendAddress(0x00)
	c.SendAddress(0x00)
	c.SendCommand(nandCmdBlockErase2)

	c.SendCommand(nandCmdRead1)
	sendAddress5(c, 0, 0, 0, 0, 0)
	c.SendCommand(nandCmdRead2)
	if got := c.ReadData(); got != nandErasedValue {
		t.Fatalf("byte 0 after erase: got %#x, want 0xFF", got)
	}
}
