package main

import "testing"

// A TWI master selecting register 0 on an attached ADXL345 then issuing
// a one-byte read must return the part's fixed DEVID value.
func TestTWIReadsADXL345DeviceID(t *testing.T) {
	wires := NewWireMap()
	adxl := NewADXL345(0x53, wires)

	twi := NewTWI(0x50000)
	twi.AttachPeripheral(adxl)
	twi.Write32(0x04, 1<<7) // CONTROL: enable TWI

	// Phase 1: write the register-select byte (DEVID offset 0).
	twi.Write32(0x80, 0x00)          // XMT_DATA8
	twi.Write32(0x1C, 0x53)          // MASTER_ADDR
	twi.Write32(0x14, (1<<6)|(1<<0)) // MASTER_CTL: DCNT=1, write direction, enable
	twi.Tick(0)

	if twi.masterTransferError {
		t.Fatalf("register-select write reported a transfer error")
	}

	// Phase 2: issue the read.
	twi.Write32(0x14, (1<<6)|(1<<2)|(1<<0)) // MASTER_CTL: DCNT=1, read direction, enable
	twi.Tick(0)

	if twi.masterTransferError {
		t.Fatalf("read phase reported a transfer error")
	}

	got := twi.Read32(0x88) // RCV_DATA8
	if got != adxl345DevID {
		t.Fatalf("RCV_DATA8: got %#x, want %#x", got, adxl345DevID)
	}
}

func TestTWIMissingSlaveAddressNacks(t *testing.T) {
	twi := NewTWI(0x50000)
	twi.Write32(0x04, 1<<7) // CONTROL: enable

	twi.Write32(0x80, 0xAB)          // XMT_DATA8
	twi.Write32(0x1C, 0x42)          // MASTER_ADDR: no client attached here
	twi.Write32(0x14, (1<<6)|(1<<0)) // MASTER_CTL: DCNT=1, write, enable
	twi.Tick(0)

	if !twi.masterAddressNack {
		t.Fatal("expected masterAddressNack for an unattached address")
	}
	if twi.masterEnable {
		t.Fatal("masterEnable should clear after an address nack")
	}
}
