package wireguard

import (
	"fmt"
	"os"
	"path/filepath"
)

// Persist validates blob and atomically replaces path with it (mode 0600).
// Nothing is written when validation fails.
func Persist(path, blob string) error {
	trimmed, err := Validate(blob)
	if err != nil {
		return err
	}
	if path == "" {
		return fmt.Errorf("vpn config path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return atomicWriteFile(path, []byte(trimmed), 0o600)
}

// atomicWriteFile writes through a temp file in the target directory so readers
// never observe a partial file.
func atomicWriteFile(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	base := filepath.Base(path)

	tmp, err := os.CreateTemp(dir, base+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()

	if err := tmp.Chmod(perm); err != nil {
		_ = tmp.Close()
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}
