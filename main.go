// main.go - host shell: CLI entry point, SoC construction, run loop

/*
main.go is the one file that wires the whole machine together for a
real run: parse arguments, open the NAND backing file, build the SoC,
load firmware into it, attach the host display/keyboard/audio adapters,
and drive the CPU thread until the process receives SIGINT or SIGTERM
(or, in headless builds, the console quit key). The decoder itself is external and out of scope, so
CPUThread is started with a nil Step - this binary alone is enough to
exercise every peripheral's MMIO surface and drive the NAND/DMA/GPIO/TWI
self-tests the vendor firmware performs at boot, even with no decoder
plugged in.
*/

package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

const (
	defaultPPIWidth = 320
	defaultPPILines = 240
	audioSampleRate = 48000
)

func main() {
	configPath := flag.String("config", "", "path to UI configuration JSON")
	logLevel := flag.String("log-level", "warn", "minimum log level: debug, warn, error")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [-config path.json] <firmware.ldr> <nand-backing-file>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	switch *logLevel {
	case "debug":
		SetLogLevel(LogLevelDebug)
	case "error":
		SetLogLevel(LogLevelError)
	default:
		SetLogLevel(LogLevelWarn)
	}

	args := flag.Args()
	if len(args) != 2 {
		flag.Usage()
		os.Exit(1)
	}
	firmwarePath, nandPath := args[0], args[1]

	if err := run(firmwarePath, nandPath, *configPath); err != nil {
		logError("%v", err)
		os.Exit(1)
	}
}

func run(firmwarePath, nandPath, configPath string) error {
	soc, err := NewSoC(nandPath)
	if err != nil {
		return fmt.Errorf("constructing SoC: %w", err)
	}
	defer soc.NAND.Close()

	if err := LoadLDR(soc.Bus, firmwarePath); err != nil {
		return fmt.Errorf("loading firmware: %w", err)
	}

	cfg, err := LoadUIConfig(configPath, defaultPPIWidth, defaultPPILines)
	if err != nil {
		return fmt.Errorf("loading UI configuration: %w", err)
	}

	host, err := NewHostIO(cfg)
	if err != nil {
		return fmt.Errorf("opening display: %w", err)
	}
	soc.PPI.AttachDisplay(host)

	host.SetKeyEventCallback(func(bank, index int, pressed bool) {
		pin := bank*8 + index
		level := 0
		if pressed {
			level = 1
		}
		soc.Scheduler.QueueNow(func() { soc.Expander.SetInput(pin, level) })
	})

	if accel, ok := host.(interface {
		SetAccelerometerCallback(func(x, y, z int16))
	}); ok {
		accel.SetAccelerometerCallback(func(x, y, z int16) {
			soc.Scheduler.QueueNow(func() { soc.Accelerometer.SetSample(x, y, z) })
		})
	}

	audio, err := NewOtoPlayer(audioSampleRate)
	if err != nil {
		return fmt.Errorf("opening audio device: %w", err)
	}
	audio.SetupPlayer(soc.SPORT)
	audio.Start()
	defer audio.Close()

	if err := host.Start(); err != nil {
		return fmt.Errorf("starting display: %w", err)
	}
	defer host.Stop()

	cpu := NewCPUThread(nil, soc.Scheduler, soc.Tickers(), soc.CEC)

	console := NewConsoleQuit(cpu.Stop)
	console.Start()
	defer console.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cpu.Stop()
	}()

	return cpu.Run()
}
