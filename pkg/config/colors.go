package config

import (
	"errors"
	"fmt"
	"strconv"

	"gopkg.in/ini.v1"
)

// ColorConfig holds output colors as "r,g,b" strings, one per kind of log line.
type ColorConfig struct {
	Step      string
	Pass      string
	Fail      string
	Warn      string
	Error     string
	Info      string
	Timestamp string
}

type colorField struct {
	name string // key without the color_ prefix
	dst  *string
}

func (c *ColorConfig) fields() []colorField {
	return []colorField{
		{"step", &c.Step},
		{"pass", &c.Pass},
		{"fail", &c.Fail},
		{"warn", &c.Warn},
		{"error", &c.Error},
		{"info", &c.Info},
		{"timestamp", &c.Timestamp},
	}
}

// parseColors reads the color_* keys of one config source. values are "#rrggbb",
// stored as "r,g,b". empty keys are left unset.
func parseColors(section *ini.Section) (ColorConfig, error) {
	var colors ColorConfig
	for _, f := range colors.fields() {
		var hex string
		getString(section, "color_"+f.name, &hex)
		if hex == "" {
			continue
		}
		r, g, b, err := parseHexColor(hex)
		if err != nil {
			return ColorConfig{}, fmt.Errorf("invalid color_%s: %w", f.name, err)
		}
		*f.dst = fmt.Sprintf("%d,%d,%d", r, g, b)
	}
	return colors, nil
}

// parseHexColor splits "#rrggbb" into its components.
func parseHexColor(hex string) (r, g, b int, err error) {
	switch {
	case hex == "" || hex[0] != '#':
		return 0, 0, 0, errors.New("hex color must start with #")
	case len(hex) != 7:
		return 0, 0, 0, errors.New("hex color must be 7 characters (e.g., #ff0000)")
	}
	v, err := strconv.ParseUint(hex[1:], 16, 24)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid hex color %q: %w", hex, err)
	}
	return int(v >> 16), int((v >> 8) & 0xff), int(v & 0xff), nil
}

// mergeFrom copies the colors set in src over dst.
func (c *ColorConfig) mergeFrom(src *ColorConfig) {
	from := src.fields()
	for i, f := range c.fields() {
		if v := *from[i].dst; v != "" {
			*f.dst = v
		}
	}
}
