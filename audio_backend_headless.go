//go:build headless

package main

// SampleSource is satisfied by SPORT; the !headless audio backend
// declares the same interface for its own build.
type SampleSource interface {
	PullSamples(out []int16) int
}

// OtoPlayer stub used in headless builds where no audio device exists.
type OtoPlayer struct {
	started bool
	source  SampleSource
}

func NewOtoPlayer(sampleRate int) (*OtoPlayer, error) {
	return &OtoPlayer{}, nil
}

func (p *OtoPlayer) SetupPlayer(source SampleSource) {
	p.source = source
}

func (p *OtoPlayer) Read(buf []byte) (int, error) {
	return len(buf), nil
}

func (p *OtoPlayer) Start() {
	p.started = true
}

func (p *OtoPlayer) Stop() {
	p.started = false
}

func (p *OtoPlayer) Close() {
	p.started = false
}

func (p *OtoPlayer) IsStarted() bool {
	return p.started
}
