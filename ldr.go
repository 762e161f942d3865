// ldr.go - firmware LDR container loader

/*
ldr.go parses the vendor's block-oriented firmware container: a stream
of 16-byte little-endian headers, each optionally followed by a payload.
A truncated header or payload is a configuration error (the file is
unusable); a bad header checksum is not checked here since nothing in
this emulator's boot path depends on it, matching the original tool's
own checksum use being purely for ldrdump's display.
*/

package main

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

const (
	ldrBlockHeaderLen = 16

	bflagDMACodeMask = 0x0000000F
	bflagSafe        = 0x00000010
	bflagAux         = 0x00000020
	bflagFill        = 0x00000100
	bflagQuickboot   = 0x00000200
	bflagCallback    = 0x00000400
	bflagInit        = 0x00000800
	bflagIgnore      = 0x00001000
	bflagIndirect    = 0x00002000
	bflagFirst       = 0x00004000
	bflagFinal       = 0x00008000
)

// ldrBlockHeader is one parsed 16-byte LDR block header.
type ldrBlockHeader struct {
	blockCode      uint32
	targetAddress  uint32
	byteCount      uint32
	argument       uint32
}

func (h ldrBlockHeader) isIgnore() bool { return h.blockCode&bflagIgnore != 0 }
func (h ldrBlockHeader) isAux() bool    { return h.blockCode&bflagAux != 0 }
func (h ldrBlockHeader) isFill() bool   { return h.blockCode&bflagFill != 0 }
func (h ldrBlockHeader) isFinal() bool  { return h.blockCode&bflagFinal != 0 }

// LoadLDR reads path and writes every loadable block's payload into bus
// at its target address.
func LoadLDR(bus *BusFabric, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening firmware image: %w", err)
	}
	defer f.Close()

	for {
		header, err := readLDRBlockHeader(f)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading firmware block header: %w", err)
		}

		if header.isFill() {
			if !header.isIgnore() && !header.isAux() {
				fillLDRBlock(bus, header)
			}
		} else if header.byteCount > 0 {
			payload := make([]byte, header.byteCount)
			if _, err := io.ReadFull(f, payload); err != nil {
				return fmt.Errorf("reading firmware block payload: %w", err)
			}
			if !header.isIgnore() && !header.isAux() {
				writeLDRBlock(bus, header.targetAddress, payload)
			}
		}

		if header.isFinal() {
			return nil
		}
	}
}

func readLDRBlockHeader(r io.Reader) (ldrBlockHeader, error) {
	var raw [ldrBlockHeaderLen]byte
	if _, err := io.ReadFull(r, raw[:]); err != nil {
		if err == io.ErrUnexpectedEOF {
			return ldrBlockHeader{}, fmt.Errorf("truncated firmware block header")
		}
		return ldrBlockHeader{}, err
	}
	return ldrBlockHeader{
		blockCode:     binary.LittleEndian.Uint32(raw[0:4]),
		targetAddress: binary.LittleEndian.Uint32(raw[4:8]),
		byteCount:     binary.LittleEndian.Uint32(raw[8:12]),
		argument:      binary.LittleEndian.Uint32(raw[12:16]),
	}, nil
}

func fillLDRBlock(bus *BusFabric, header ldrBlockHeader) {
	var word [4]byte
	binary.LittleEndian.PutUint32(word[:], header.argument)
	addr := header.targetAddress
	for i := uint32(0); i < header.byteCount; i++ {
		bus.Write(addr+i, word[i%4:i%4+1])
	}
}

func writeLDRBlock(bus *BusFabric, addr uint32, payload []byte) {
	bus.Write(addr, payload)
}
