package config

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
)

// defaultsInstaller writes the embedded defaults into a config directory.
type defaultsInstaller struct {
	embedFS embed.FS
}

// newDefaultsInstaller creates a new defaultsInstaller with the given embedded filesystem.
func newDefaultsInstaller(embedFS embed.FS) *defaultsInstaller {
	return &defaultsInstaller{embedFS: embedFS}
}

// Install creates configDir with the default config and the given scenario.
// existing files are never overwritten. returns the paths written.
func Install(configDir string, scenario []byte) ([]string, error) {
	return newDefaultsInstaller(defaultsFS).Install(configDir, scenario)
}

// Install creates the config directory and installs default files that don't exist yet.
func (d *defaultsInstaller) Install(configDir string, scenario []byte) ([]string, error) {
	// create config directory (0700 - user only)
	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return nil, fmt.Errorf("create config dir: %w", err)
	}

	data, err := d.embedFS.ReadFile("defaults/config")
	if err != nil {
		return nil, fmt.Errorf("read embedded config: %w", err)
	}

	var written []string
	for _, f := range []struct {
		name string
		data []byte
	}{
		{name: configFile, data: data},
		{name: scenarioFile, data: scenario},
	} {
		if len(f.data) == 0 {
			continue
		}
		path := filepath.Join(configDir, f.name)
		ok, err := writeIfMissing(path, f.data)
		if err != nil {
			return written, err
		}
		if ok {
			written = append(written, path)
		}
	}
	return written, nil
}

// writeIfMissing writes data to path unless the file already exists.
func writeIfMissing(path string, data []byte) (bool, error) {
	_, statErr := os.Stat(path)
	if statErr == nil {
		return false, nil
	}
	if !os.IsNotExist(statErr) {
		return false, fmt.Errorf("check %s: %w", path, statErr)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return false, fmt.Errorf("write %s: %w", path, err)
	}
	return true, nil
}
