//go:build !headless

// audio_backend_oto.go - oto v3 audio output implementation

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

package main

import (
	"encoding/binary"
	"sync"
	"sync/atomic"

	"github.com/ebitengine/oto/v3"
)

// SampleSource is satisfied by SPORT: the host audio adapter never
// touches SPORT's register map directly, only this pull interface.
type SampleSource interface {
	PullSamples(out []int16) int
}

// OtoPlayer drains SPORT's stereo PCM16 ring into an oto player; the
// context/player setup and Read-as-callback shape follows oto's
// standard usage, only the sample source and format differ from a
// single-voice synth.
type OtoPlayer struct {
	ctx     *oto.Context
	player  *oto.Player
	source  atomic.Pointer[SampleSource]
	sample  []int16
	started bool
	mutex   sync.Mutex
}

func NewOtoPlayer(sampleRate int) (*OtoPlayer, error) {
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   4,
	}

	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, err
	}
	<-ready

	return &OtoPlayer{ctx: ctx}, nil
}

// SetupPlayer wires the SPORT channel this player drains.
func (p *OtoPlayer) SetupPlayer(source SampleSource) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.source.Store(&source)
	p.player = p.ctx.NewPlayer(p)
	p.sample = make([]int16, 4096)
}

// Read implements io.Reader for oto.Player: underfilled frames are left
// as silence rather than blocking, matching SPORT's own underflow
// policy.
func (p *OtoPlayer) Read(buf []byte) (int, error) {
	srcPtr := p.source.Load()
	if srcPtr == nil {
		for i := range buf {
			buf[i] = 0
		}
		return len(buf), nil
	}
	src := *srcPtr

	numSamples := len(buf) / 2
	if len(p.sample) < numSamples {
		p.sample = make([]int16, numSamples)
	}
	samples := p.sample[:numSamples]
	for i := range samples {
		samples[i] = 0
	}
	src.PullSamples(samples)

	for i, s := range samples {
		binary.LittleEndian.PutUint16(buf[i*2:i*2+2], uint16(s))
	}
	return len(buf), nil
}

func (p *OtoPlayer) Start() {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if !p.started && p.player != nil {
		p.player.Play()
		p.started = true
	}
}

func (p *OtoPlayer) Stop() {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if p.started && p.player != nil {
		p.player.Close()
		p.started = false
	}
}

func (p *OtoPlayer) Close() {
	p.Stop()
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if p.player != nil {
		p.player.Close()
		p.player = nil
	}
}

func (p *OtoPlayer) IsStarted() bool {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.started
}
