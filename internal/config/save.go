package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const profileHeader = "# Scoring profile, rewritten by jobsearcher. The previous version is kept\n# next to this file with a .bak suffix.\n"

// SaveProfileAtomic validates p and replaces path with it. The new content
// is written to a temp file in the same directory and renamed over path, so
// readers never see a half-written profile; the old file becomes path.bak.
func SaveProfileAtomic(path string, p Profile) error {
	if _, _, err := ValidateProfile(p); err != nil {
		return err
	}

	var buf bytes.Buffer
	buf.WriteString(profileHeader)
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&p); err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.Bytes()); err != nil {
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
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}

	if err := backup(path); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// backup moves path to path.bak, replacing an older backup.
func backup(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	bak := path + ".bak"
	if err := os.Remove(bak); err != nil && !os.IsNotExist(err) {
		return err
	}
	return os.Rename(path, bak)
}
