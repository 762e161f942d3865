// ldrdump.go - dump the DXE/block structure of a vendor .ldr firmware image
//
// Usage: go run tools/ldrdump.go firmware.ldr
//
// Standalone like font2rgba.go: it does not import the root package
// (which is itself package main) so it re-implements the small header
// parse it needs rather than sharing ldr.go's.

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

type ldrBlock struct {
	offset        int64
	blockCode     uint32
	targetAddress uint32
	byteCount     uint32
	argument      uint32
}

func (b ldrBlock) isIgnore() bool { return b.blockCode&bflagIgnore != 0 }
func (b ldrBlock) isFill() bool   { return b.blockCode&bflagFill != 0 }
func (b ldrBlock) isFinal() bool  { return b.blockCode&bflagFinal != 0 }

type ldrDXE struct {
	blocks []ldrBlock
}

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <ldr_file>\n", os.Args[0])
		os.Exit(1)
	}
	filename := os.Args[1]

	f, err := os.Open(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to load LDR file: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	dxes, err := parseLDR(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to load LDR file: %v\n", err)
		os.Exit(1)
	}

	displayLDRInfo(dxes, filename)
}

func parseLDR(f *os.File) ([]ldrDXE, error) {
	var dxes []ldrDXE
	first := true
	for {
		offset, err := f.Seek(0, io.SeekCurrent)
		if err != nil {
			return nil, err
		}

		var raw [ldrBlockHeaderLen]byte
		if _, err := io.ReadFull(f, raw[:]); err != nil {
			if err == io.EOF {
				return dxes, nil
			}
			if err == io.ErrUnexpectedEOF {
				return nil, fmt.Errorf("truncated block header at 0x%08X", offset)
			}
			return nil, err
		}

		block := ldrBlock{
			offset:        offset,
			blockCode:     binary.LittleEndian.Uint32(raw[0:4]),
			targetAddress: binary.LittleEndian.Uint32(raw[4:8]),
			byteCount:     binary.LittleEndian.Uint32(raw[8:12]),
			argument:      binary.LittleEndian.Uint32(raw[12:16]),
		}

		if first || block.isIgnore() {
			dxes = append(dxes, ldrDXE{})
			first = false
		}
		dxes[len(dxes)-1].blocks = append(dxes[len(dxes)-1].blocks, block)

		if !block.isFill() && block.byteCount > 0 {
			if _, err := f.Seek(int64(block.byteCount), io.SeekCurrent); err != nil {
				return nil, err
			}
		}

		if block.isFinal() {
			return dxes, nil
		}
	}
}

func dmaCodeString(code uint32) string {
	names := []string{
		"dma-reserved", "8bit-dma-from-8bit", "8bit-dma-from-16bit", "8bit-dma-from-32bit",
		"8bit-dma-from-64bit", "8bit-dma-from-128bit", "16bit-dma-from-16bit", "16bit-dma-from-32bit",
		"16bit-dma-from-64bit", "16bit-dma-from-128bit", "32bit-dma-from-32bit", "32bit-dma-from-64bit",
		"32bit-dma-from-128bit", "64bit-dma-from-64bit", "64bit-dma-from-128bit", "128bit-dma-from-128bit",
	}
	if int(code) < len(names) {
		return names[code]
	}
	return "unknown"
}

func flagsString(blockCode uint32) string {
	s := ""
	add := func(flag uint32, name string) {
		if blockCode&flag != 0 {
			s += name + " "
		}
	}
	add(bflagSafe, "safe")
	add(bflagAux, "aux")
	add(bflagFill, "fill")
	add(bflagQuickboot, "quickboot")
	add(bflagCallback, "callback")
	add(bflagInit, "init")
	add(bflagIgnore, "ignore")
	add(bflagIndirect, "indirect")
	add(bflagFirst, "first")
	add(bflagFinal, "final")
	return s
}

func displayLDRInfo(dxes []ldrDXE, filename string) {
	fmt.Printf("LDR File: %s\n", filename)
	fmt.Printf("Number of DXEs: %d\n\n", len(dxes))

	for d, dxe := range dxes {
		if len(dxe.blocks) == 0 {
			continue
		}
		fmt.Printf("DXE %d at 0x%08X:\n", d+1, dxe.blocks[0].offset)
		for b, block := range dxe.blocks {
			region := "SDRAM"
			if block.targetAddress > 0xFF000000 {
				region = "L1"
			}
			fmt.Printf("  Block %2d at 0x%08X\n", b+1, block.offset)
			fmt.Printf("    Target Address: 0x%08X ( %s )\n", block.targetAddress, region)
			fmt.Printf("    Block Code: 0x%08X\n", block.blockCode)
			fmt.Printf("    Byte Count: 0x%08X ( %d bytes )\n", block.byteCount, block.byteCount)
			dmaCode := block.blockCode & bflagDMACodeMask
			fmt.Printf("    Argument: 0x%08X ( %s %s)\n", block.argument, dmaCodeString(dmaCode), flagsString(block.blockCode))
		}
		fmt.Println()
	}
}
