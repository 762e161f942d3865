// i2c_registermap.go - RegisterMap base class for I2C slave peripherals

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
i2c_registermap.go provides the auto-incrementing register-pointer slave
base every RegisterMap peripheral in this repository (ADXL345, MCP230xx,
Potentiometer) embeds. The first byte of a write transaction selects the
starting register; every following byte writes the next register
according to next(addr), which defaults to addr+1; an embedding
peripheral can replace it, and every one here keeps the default. After a write, the read
pointer is realigned to the write pointer, matching the real part's
behavior of treating write-then-read as a single addressed transaction.
A bus stop resets only the write pointer.
*/

package main

// registerMapNext is the pointer-advance policy a RegisterMap subclass
// may override; the default advances to addr+1.
type registerMapNext func(addr uint32) uint32

// RegisterMapSlave is the embeddable I2C slave base. Concrete
// peripherals embed it, declare their own Register table via the
// embedded RegisterDevice, and set Next if they need non-default
// pointer advance.
type RegisterMapSlave struct {
	RegisterDevice
	address uint32
	writePtr *uint32
	readPtr  *uint32
	Next     registerMapNext
}

func newRegisterMapSlave(name string, address uint32) RegisterMapSlave {
	s := RegisterMapSlave{RegisterDevice: newRegisterDevice(name, 0, 0), address: address}
	s.Next = func(addr uint32) uint32 { return addr + 1 }
	return s
}

// Address implements I2CPeripheral.
func (s *RegisterMapSlave) Address() uint32 { return s.address }

// Read implements I2CPeripheral: each requested byte comes from the
// register at the current read pointer, advancing via Next after every
// byte (so a multi-byte read streams consecutive registers).
func (s *RegisterMapSlave) Read(buf []byte) bool {
	if s.readPtr == nil {
		return false
	}
	addr := *s.readPtr
	for i := range buf {
		if _, ok := s.registers[addr]; !ok {
			return false
		}
		buf[i] = byte(s.registers[addr].Read32())
		addr = s.Next(addr)
	}
	s.readPtr = &addr
	return true
}

// Write implements I2CPeripheral. The first byte of a fresh transaction
// (writePtr == nil) selects the register; an unknown register address
// is a buffer error. Subsequent bytes write through Write32 and advance
// via Next. After the transaction, readPtr tracks writePtr.
func (s *RegisterMapSlave) Write(buf []byte) bool {
	if len(buf) == 0 {
		return false
	}
	i := 0
	addr := uint32(0)
	if s.writePtr == nil {
		addr = uint32(buf[0])
		if _, ok := s.registers[addr]; !ok {
			return false
		}
		i = 1
	} else {
		addr = *s.writePtr
	}
	for ; i < len(buf); i++ {
		if _, ok := s.registers[addr]; !ok {
			return false
		}
		s.registers[addr].Write32(uint32(buf[i]))
		addr = s.Next(addr)
	}
	s.writePtr = &addr
	s.readPtr = &addr
	return true
}

// Stop implements I2CPeripheral: only the write pointer resets, so a
// subsequent read-only transaction can still continue from wherever the
// last write or read left the read pointer.
func (s *RegisterMapSlave) Stop() {
	s.writePtr = nil
}
