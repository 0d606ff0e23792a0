package camera

// Preset names for common configurations
const (
	PresetDefault = "default"
	PresetLow     = "low"
	PresetHD      = "hd"
	PresetSmooth  = "smooth"
)

// Presets returns all available preset configurations.
func Presets() map[string]Config {
	return map[string]Config{
		PresetDefault: DefaultConfig(),
		PresetLow:     LowPowerConfig(),
		PresetHD:      HDConfig(),
		PresetSmooth:  SmoothConfig(),
	}
}

// PresetNames returns the list of available preset names.
func PresetNames() []string {
	return []string{PresetDefault, PresetLow, PresetHD, PresetSmooth}
}

// GetPreset returns a preset config by name, or nil if not found.
func GetPreset(name string) *Config {
	if cfg, ok := Presets()[name]; ok {
		return &cfg
	}
	return nil
}

// LowPowerConfig trades responsiveness for CPU on laptops running on battery.
func LowPowerConfig() Config {
	cfg := DefaultConfig()
	cfg.Width = 320
	cfg.Height = 240
	cfg.Framerate = 10
	cfg.Quality = 70
	return cfg
}

// HDConfig captures 720p for users sitting far from the camera.
func HDConfig() Config {
	cfg := DefaultConfig()
	cfg.Width = 1280
	cfg.Height = 720
	return cfg
}

// SmoothConfig submits at 30fps for faster gesture response.
func SmoothConfig() Config {
	cfg := DefaultConfig()
	cfg.Framerate = 30
	return cfg
}
