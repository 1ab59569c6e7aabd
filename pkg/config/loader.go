package config

import (
	"embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/ini.v1"
)

// layer is what one config source sets.
type layer struct {
	values Values
	colors ColorConfig
}

// loader reads the chain embedded defaults → global → local. later sources win,
// keys a source leaves out keep the earlier value.
type loader struct {
	embedFS embed.FS
}

func (l loader) load(localPath, globalPath string) (layer, error) {
	data, err := l.embedFS.ReadFile("defaults/config")
	if err != nil {
		return layer{}, fmt.Errorf("read embedded defaults: %w", err)
	}
	res, err := parseLayer(data)
	if err != nil {
		return layer{}, fmt.Errorf("parse embedded defaults: %w", err)
	}

	for _, src := range []struct{ name, path string }{{"global", globalPath}, {"local", localPath}} {
		lr, err := readLayer(src.path)
		if err != nil {
			return layer{}, fmt.Errorf("parse %s config: %w", src.name, err)
		}
		res.values.mergeFrom(&lr.values)
		res.colors.mergeFrom(&lr.colors)
	}
	return res, nil
}

// readLayer parses the config file at path. a missing file, or one holding only
// comments, sets nothing.
func readLayer(path string) (layer, error) {
	if path == "" {
		return layer{}, nil
	}
	data, err := os.ReadFile(path) //nolint:gosec // path is constructed internally
	if err != nil {
		if os.IsNotExist(err) {
			return layer{}, nil
		}
		return layer{}, fmt.Errorf("read config %s: %w", path, err)
	}
	if strings.TrimSpace(stripComments(string(data))) == "" {
		return layer{}, nil
	}
	return parseLayer(data)
}

// parseLayer parses INI data without sections. # starts a comment only at the
// beginning of a line, so hex colors stay intact.
func parseLayer(data []byte) (layer, error) {
	f, err := ini.LoadSources(ini.LoadOptions{IgnoreInlineComment: true}, data)
	if err != nil {
		return layer{}, fmt.Errorf("parse config: %w", err)
	}
	section := f.Section("")

	values, err := parseValues(section)
	if err != nil {
		return layer{}, err
	}
	colors, err := parseColors(section)
	if err != nil {
		return layer{}, err
	}
	return layer{values: values, colors: colors}, nil
}

// stripComments drops lines starting with #, accepting LF and CRLF line endings.
func stripComments(content string) string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	lines := make([]string, 0, strings.Count(content, "\n")+1)
	for line := range strings.SplitSeq(content, "\n") {
		if !strings.HasPrefix(strings.TrimSpace(line), "#") {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}
