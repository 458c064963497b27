package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Template is the file written by WriteDefault. It decodes to Default().
const Template = `# go-htn configuration

[log]
level = "info"        # debug|info|warn|error
format = "text"       # text|json
buffer-size = 1000

[run]
behaviour = "creature"
ticks = 40
interval = "50ms"
seed = 1

[telemetry]
enabled = false
agent = "creature-1"
`

// WriteDefault writes Template to path, creating its directory. Unless
// overwrite is set, an existing file is left untouched and reported with
// os.ErrExist.
func WriteDefault(path string, overwrite bool) error {
	return writeFile(path, []byte(Template), overwrite)
}

// WriteFile encodes c as TOML and writes it to path, replacing any existing
// file. Comments in the existing file are not preserved.
func (c *Config) WriteFile(path string) error {
	data, err := c.Marshal()
	if err != nil {
		return err
	}
	return writeFile(path, data, true)
}

// ErrLocked is returned when another process is writing the same file.
var ErrLocked = errors.New("config: file is locked by another process")

// writeFile holds path+".lock" while checking and replacing path.
func writeFile(path string, data []byte, overwrite bool) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	lock, err := acquireLock(path + ".lock")
	if err != nil {
		return err
	}
	defer func() { _ = releaseLock(lock) }()

	fi, err := os.Lstat(path)
	switch {
	case err == nil && fi.Mode()&os.ModeSymlink != 0:
		return fmt.Errorf("symlink not allowed in config path: %s", path)
	case err == nil && !overwrite:
		return fmt.Errorf("config file %s: %w", path, os.ErrExist)
	}
	return atomicWriteFile(path, data, 0644)
}

// atomicWriteFile writes to a temporary file in the same directory and
// renames it over path.
func atomicWriteFile(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		return fmt.Errorf("setting permissions: %w", err)
	}
	return os.Rename(tmpName, path)
}
