// bus.go - BusFabric for the SoC memory and MMIO address space

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
bus.go - BusFabric for the SoC memory and MMIO address space

This module plays the same role the original engine's SystemBus played -
the single address space every device and the CPU read and write through
- but the dispatch model is different. Where SystemBus kept one flat byte
slice and layered page-masked I/O callbacks on top of it, BusFabric has no
backing memory of its own: every address belongs to exactly one bound
Device (RAM included, modeled as a plain MemoryDevice), looked up through
a sorted interval table. This matches the target SoC, where main memory
is just another region on the bus rather than the bus itself.

A reentrant lock (BusFabric.Lock/Unlock) exists purely to make a DMA
burst atomic with respect to any other bus traffic that occurs while the
transfer is in flight; it is only ever acquired from the single CPU
thread that runs both guest instructions and device ticks, so recursion
is handled by a simple depth counter rather than a goroutine-aware
implementation - see the comment on reentrantLock below.
*/

package main

import (
	"fmt"
	"sort"
	"sync"
)

// reentrantLock is a depth-counted lock safe only when every Lock/Unlock
// pair originates from a single logical owner (here, the CPU thread).
// It deliberately does not track goroutine identity: the concurrency
// model confines all guest-state mutation - including DMA bursts
// triggered synchronously from device Tick() - to that one thread, so a
// plain depth counter reproduces recursive-mutex semantics without the
// overhead or fragility of runtime goroutine introspection.
type reentrantLock struct {
	mu    sync.Mutex
	depth int
}

func (l *reentrantLock) Lock() {
	if l.depth == 0 {
		l.mu.Lock()
	}
	l.depth++
}

func (l *reentrantLock) Unlock() {
	l.depth--
	if l.depth == 0 {
		l.mu.Unlock()
	}
}

// boundDevice pairs a device with the address range it claims on the bus.
type boundDevice struct {
	start uint32
	end   uint32 // inclusive
	dev   MemoryAccessor
	name  string
}

// BusFabric is the SoC's single address space. Devices are bound once,
// at wiring time, in ascending address order; lookups binary-search the
// sorted table. An access that straddles a device boundary is split
// into per-device sub-accesses rather than rejected, matching real bus
// behavior for byte/short accesses that happen to cross a peripheral's
// window edge.
type BusFabric struct {
	devices []boundDevice
	lock    reentrantLock

	readHooks  map[uint32]func() uint32
	writeHooks map[uint32]func(uint32)
}

// NewBusFabric returns an empty fabric ready for device binding.
func NewBusFabric() *BusFabric {
	return &BusFabric{
		readHooks:  make(map[uint32]func() uint32),
		writeHooks: make(map[uint32]func(uint32)),
	}
}

// HookRead installs an override consulted before device dispatch for
// 32-bit aligned reads at addr. Used sparingly (a handful of boot-time
// ABI-visible addresses the decoder probes directly); most peripherals
// never need one.
func (b *BusFabric) HookRead(addr uint32, fn func() uint32) { b.readHooks[addr] = fn }

// HookWrite installs an override consulted before device dispatch for
// 32-bit aligned writes at addr.
func (b *BusFabric) HookWrite(addr uint32, fn func(uint32)) { b.writeHooks[addr] = fn }

// Bind registers a device across [start, start+size). It panics on an
// overlapping range: overlapping bindings are a wiring bug, not a
// runtime condition to recover from, and all binding happens once at
// startup before any guest code runs.
func (b *BusFabric) Bind(dev Addressable, accessor MemoryAccessor) {
	start := dev.Base()
	end := start + dev.Size() - 1
	for _, existing := range b.devices {
		if start <= existing.end && end >= existing.start {
			panic(fmt.Sprintf("bus: %s [%#x-%#x] overlaps %s [%#x-%#x]",
				dev.Name(), start, end, existing.name, existing.start, existing.end))
		}
	}
	b.devices = append(b.devices, boundDevice{start: start, end: end, dev: accessor, name: dev.Name()})
	sort.Slice(b.devices, func(i, j int) bool { return b.devices[i].start < b.devices[j].start })
}

// Lock acquires the fabric-wide critical section used to make DMA
// bursts atomic with respect to other bus traffic.
func (b *BusFabric) Lock() { b.lock.Lock() }

// Unlock releases a Lock acquired above.
func (b *BusFabric) Unlock() { b.lock.Unlock() }

// find returns the bound device owning addr, or nil if the address is
// unmapped.
func (b *BusFabric) find(addr uint32) *boundDevice {
	i := sort.Search(len(b.devices), func(i int) bool { return b.devices[i].end >= addr })
	if i < len(b.devices) && b.devices[i].start <= addr {
		return &b.devices[i]
	}
	return nil
}

// Read32 reads a 32-bit little-endian word. A read that straddles two
// devices is serviced byte-by-byte through Read; the common case (a
// whole word owned by one device) goes through the device's own Read32.
func (b *BusFabric) Read32(addr uint32) uint32 {
	if fn, ok := b.readHooks[addr]; ok {
		return fn()
	}
	if d := b.find(addr); d != nil && addr+3 <= d.end {
		return d.dev.Read32(addr - d.start)
	}
	var buf [4]byte
	b.Read(addr, buf[:])
	return le32(buf[:])
}

// Write32 writes a 32-bit little-endian word, splitting across device
// boundaries the same way Read32 does.
func (b *BusFabric) Write32(addr uint32, value uint32) {
	if fn, ok := b.writeHooks[addr]; ok {
		fn(value)
		return
	}
	if d := b.find(addr); d != nil && addr+3 <= d.end {
		d.dev.Write32(addr-d.start, value)
		return
	}
	var buf [4]byte
	putLE32(buf[:], value)
	b.Write(addr, buf[:])
}

// Read services an arbitrary-length byte-oriented access, splitting it
// across as many bound devices as it spans. Unmapped bytes read as
// zero rather than faulting - guest firmware probing reserved regions
// should not crash the emulator.
func (b *BusFabric) Read(addr uint32, buf []byte) {
	pos := 0
	for pos < len(buf) {
		a := addr + uint32(pos)
		d := b.find(a)
		if d == nil {
			buf[pos] = 0
			pos++
			continue
		}
		span := int(d.end-a) + 1
		if span > len(buf)-pos {
			span = len(buf) - pos
		}
		d.dev.Read(a-d.start, buf[pos:pos+span])
		pos += span
	}
}

// Write services an arbitrary-length byte-oriented access, splitting it
// across bound devices the same way Read does. Writes that land on
// unmapped addresses are silently dropped.
func (b *BusFabric) Write(addr uint32, buf []byte) {
	pos := 0
	for pos < len(buf) {
		a := addr + uint32(pos)
		d := b.find(a)
		if d == nil {
			pos++
			continue
		}
		span := int(d.end-a) + 1
		if span > len(buf)-pos {
			span = len(buf) - pos
		}
		d.dev.Write(a-d.start, buf[pos:pos+span])
		pos += span
	}
}

// Map returns a direct slice window into addr's backing store when the
// owning device publishes one (MemoryDevice does; MMIO peripherals do
// not), letting a caller that only needs a fast bulk memcpy bypass
// per-word dispatch. Dispatch through Read/Write remains authoritative -
// Map is purely an optimization a caller may ignore.
func (b *BusFabric) Map(addr uint32, length uint32) ([]byte, bool) {
	d := b.find(addr)
	if d == nil || addr+length-1 > d.end {
		return nil, false
	}
	pd, ok := d.dev.(interface{ directMap(offset, length uint32) []byte })
	if !ok {
		return nil, false
	}
	return pd.directMap(addr-d.start, length), true
}

// MemoryDevice is a plain RAM/ROM-like region: a flat byte slice exposed
// through the same MemoryAccessor surface every MMIO peripheral uses, so
// main memory is bound onto the BusFabric exactly like any other device.
type MemoryDevice struct {
	deviceBase
	store []byte
}

// NewMemoryDevice allocates a zero-filled region of the given size.
func NewMemoryDevice(name string, base, size uint32) *MemoryDevice {
	return &MemoryDevice{deviceBase: newDeviceBase(name, base, size), store: make([]byte, size)}
}

func (m *MemoryDevice) Read(offset uint32, buf []byte)  { copy(buf, m.store[offset:]) }
func (m *MemoryDevice) Write(offset uint32, buf []byte) { copy(m.store[offset:], buf) }

func (m *MemoryDevice) Read32(offset uint32) uint32 {
	return le32(m.store[offset : offset+4])
}

func (m *MemoryDevice) Write32(offset uint32, value uint32) {
	putLE32(m.store[offset:offset+4], value)
}

// directMap publishes a direct window into the backing store, used by
// BusFabric.Map for the page-table-shadow fast path.
func (m *MemoryDevice) directMap(offset, length uint32) []byte {
	return m.store[offset : offset+length]
}

// Reset zeroes the backing store, matching SystemBus.Reset's semantics
// for the portion of the address space that is plain memory.
func (m *MemoryDevice) Reset() {
	for i := range m.store {
		m.store[i] = 0
	}
}
