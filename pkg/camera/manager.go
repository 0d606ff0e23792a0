package camera

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

// Manager holds the current camera configuration and handles updates.
type Manager struct {
	config Config
	mu     sync.RWMutex

	// Callback when config changes (for applying to the capture loop)
	OnConfigChange func(cfg Config) error
}

// NewManager creates a camera manager starting from cfg.
func NewManager(cfg Config) *Manager {
	return &Manager{config: cfg}
}

// GetConfig returns the current camera configuration.
func (m *Manager) GetConfig() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// SetConfig updates the camera configuration.
func (m *Manager) SetConfig(cfg Config) error {
	if errs := cfg.Validate(); len(errs) > 0 {
		return fmt.Errorf("validation failed: %s", strings.Join(errs, "; "))
	}

	m.mu.Lock()
	m.config = cfg
	callback := m.OnConfigChange
	m.mu.Unlock()

	if callback != nil {
		if err := callback(cfg); err != nil {
			return fmt.Errorf("failed to apply config: %w", err)
		}
	}
	return nil
}

// UpdateConfig updates specific fields of the configuration.
// Accepts a map of field names to values, as decoded from JSON.
// A "preset" key is applied first so other keys can override it.
func (m *Manager) UpdateConfig(params map[string]any) error {
	cfg := m.GetConfig()

	if name, ok := params["preset"].(string); ok {
		preset := GetPreset(name)
		if preset == nil {
			return fmt.Errorf("unknown preset: %s", name)
		}
		// Keep the device the user picked.
		device := cfg.Device
		cfg = *preset
		cfg.Device = device
	}

	for key, value := range params {
		switch key {
		case "preset":
		case "device":
			if v, ok := toInt(value); ok {
				cfg.Device = v
			}
		case "width":
			if v, ok := toInt(value); ok {
				cfg.Width = v
			}
		case "height":
			if v, ok := toInt(value); ok {
				cfg.Height = v
			}
		case "framerate":
			if v, ok := toInt(value); ok {
				cfg.Framerate = v
			}
		case "quality":
			if v, ok := toInt(value); ok {
				cfg.Quality = v
			}
		case "mirror":
			if v, ok := value.(bool); ok {
				cfg.Mirror = v
			}
		default:
			return fmt.Errorf("unknown camera setting: %s", key)
		}
	}

	return m.SetConfig(cfg)
}

func toInt(v any) (int, bool) {
	switch val := v.(type) {
	case int:
		return val, true
	case int64:
		return int(val), true
	case float64:
		return int(val), true
	case json.Number:
		i, err := val.Int64()
		if err == nil {
			return int(i), true
		}
	}
	return 0, false
}
