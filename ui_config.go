// ui_config.go - JSON UI configuration for the host display adapter

package main

import (
	"encoding/json"
	"os"
)

// UIConfig describes the host window's background art, scale, PPI
// display placement, and the button/keycap layout the keyboard adapter
// routes through to the GPIO expander.
type UIConfig struct {
	Background string  `json:"background"`
	Scale      float64 `json:"scale"`
	Display    struct {
		Left, Top, Width, Height int
	} `json:"display"`
	Buttons []struct {
		X, Y, W, H   int
		Bank, Index  int
	} `json:"buttons"`
	Keycaps map[string]struct {
		Bank, Index int
	} `json:"keycaps"`
}

// defaultUIConfig is substituted when no config file is supplied or the
// named file does not exist: scale 1, no background, display rect
// covering the whole PPI output at ppiWidth x ppiHeight.
func defaultUIConfig(ppiWidth, ppiHeight int) UIConfig {
	cfg := UIConfig{Scale: 1}
	cfg.Display.Width = ppiWidth
	cfg.Display.Height = ppiHeight
	return cfg
}

// LoadUIConfig reads and parses path; a missing file is not an error and
// yields defaultUIConfig, matching the loader's documented fallback.
func LoadUIConfig(path string, ppiWidth, ppiHeight int) (UIConfig, error) {
	if path == "" {
		return defaultUIConfig(ppiWidth, ppiHeight), nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return defaultUIConfig(ppiWidth, ppiHeight), nil
	}
	if err != nil {
		return UIConfig{}, err
	}
	cfg := defaultUIConfig(ppiWidth, ppiHeight)
	if err := json.Unmarshal(data, &cfg); err != nil {
		return UIConfig{}, err
	}
	return cfg, nil
}
