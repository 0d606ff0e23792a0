package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "FACENAV_"

// LoadDotEnv loads a .env file into the process environment without
// overriding variables that are already set. A missing file is not an error.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// applyEnv overlays FACENAV_* variables.
func applyEnv(c *Config) error {
	envString("LOG_LEVEL", &c.LogLevel)
	envString("POINTER", &c.Pointer)
	envString("SOURCE", &c.Source)
	envString("LOCK_PATH", &c.LockPath)
	envString("SIDECAR_URL", &c.Landmarker.URL)
	envString("WEB_ADDR", &c.Web.Addr)
	envString("JOURNAL_PATH", &c.Journal.Path)

	if err := envBool("TRAY", &c.Tray); err != nil {
		return err
	}
	if err := envBool("WEB", &c.Web.Enabled); err != nil {
		return err
	}
	if err := envBool("JOURNAL", &c.Journal.Enabled); err != nil {
		return err
	}
	if err := envInt("CAMERA", &c.Camera.Device); err != nil {
		return err
	}
	return envFloat("SENSITIVITY", &c.Motion.Sensitivity)
}

func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(EnvPrefix + key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

func envString(key string, dst *string) {
	if v, ok := lookup(key); ok {
		*dst = v
	}
}

func envBool(key string, dst *bool) error {
	v, ok := lookup(key)
	if !ok {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return &ConfigError{Field: EnvPrefix + key, Message: fmt.Sprintf("%s%s: %q is not a boolean", EnvPrefix, key, v)}
	}
	*dst = b
	return nil
}

func envInt(key string, dst *int) error {
	v, ok := lookup(key)
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return &ConfigError{Field: EnvPrefix + key, Message: fmt.Sprintf("%s%s: %q is not an integer", EnvPrefix, key, v)}
	}
	*dst = n
	return nil
}

func envFloat(key string, dst *float64) error {
	v, ok := lookup(key)
	if !ok {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return &ConfigError{Field: EnvPrefix + key, Message: fmt.Sprintf("%s%s: %q is not a number", EnvPrefix, key, v)}
	}
	*dst = f
	return nil
}
