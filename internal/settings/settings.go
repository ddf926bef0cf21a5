// Package settings is the read-only tuning store consumed by the decode
// loops. Values may change at any time, so consumers re-fetch per decode
// instead of caching.
package settings

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
)

const defaultGyroScale = 1.0

// Handler gives concurrent read access to per-serial tuning values.
type Handler struct {
	mu           sync.RWMutex
	path         string
	defaultScale float64
	scales       map[string]float64
}

// New returns a Handler with built-in defaults and no backing file.
func New() *Handler {
	return &Handler{
		defaultScale: defaultGyroScale,
		scales:       make(map[string]float64),
	}
}

// Load reads a KEY=VALUE settings file. Recognized keys:
//
//	scale.default=<float>
//	scale.<serial>=<float>
//
// Blank lines and #-comments are skipped.
func Load(path string) (*Handler, error) {
	h := New()
	h.path = path
	if err := h.Reload(); err != nil {
		return nil, err
	}
	return h, nil
}

// Reload re-reads the backing file, replacing all values.
func (h *Handler) Reload() error {
	if h.path == "" {
		return nil
	}
	file, err := os.Open(h.path)
	if err != nil {
		return fmt.Errorf("open settings: %w", err)
	}
	defer file.Close()

	defaultScale := defaultGyroScale
	scales := make(map[string]float64)

	scanner := bufio.NewScanner(file)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("settings line %d: invalid entry %q", lineNum, line)
		}
		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		switch {
		case key == "scale.default":
			v, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return fmt.Errorf("settings line %d: invalid scale %q: %w", lineNum, value, err)
			}
			defaultScale = v
		case strings.HasPrefix(key, "scale."):
			v, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return fmt.Errorf("settings line %d: invalid scale %q: %w", lineNum, value, err)
			}
			scales[strings.TrimPrefix(key, "scale.")] = v
		default:
			return fmt.Errorf("settings line %d: unknown key %q", lineNum, key)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read settings: %w", err)
	}

	h.mu.Lock()
	h.defaultScale = defaultScale
	h.scales = scales
	h.mu.Unlock()
	return nil
}

// GyroScale returns the angular-rate scale factor for a serial number.
func (h *Handler) GyroScale(serial string) float64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if v, ok := h.scales[serial]; ok {
		return v
	}
	return h.defaultScale
}

// SetGyroScale overrides the scale for one serial number at runtime.
func (h *Handler) SetGyroScale(serial string, scale float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.scales[serial] = scale
}
