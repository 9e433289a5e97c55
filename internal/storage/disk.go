package storage

import (
	"fmt"

	"github.com/peterbourgon/diskv/v3"
)

const (
	// cacheSizeMaxBytes max memory cache
	cacheSizeMaxBytes = 1024 * 64
)

// Disk stores each key as a file in a single directory.
type Disk struct {
	dv *diskv.Diskv
}

// NewDisk creates a store rooted at dir. The directory is created on first write.
func NewDisk(dir string) *Disk {
	dv := diskv.New(diskv.Options{
		BasePath:     dir,
		CacheSizeMax: cacheSizeMaxBytes,
		FilePerm:     0o600,
		PathPerm:     0o700,
	})
	return &Disk{dv: dv}
}

func (d *Disk) Get(key string) (string, bool, error) {
	if err := ValidateKey(key); err != nil {
		return "", false, err
	}
	if !d.dv.Has(key) {
		return "", false, nil
	}

	b, err := d.dv.Read(key)
	if err != nil {
		return "", false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return string(b), true, nil
}

func (d *Disk) Set(key, value string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	if err := d.dv.Write(key, []byte(value)); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

func (d *Disk) Remove(key string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	if !d.dv.Has(key) {
		return nil
	}
	if err := d.dv.Erase(key); err != nil {
		return fmt.Errorf("failed to erase %s: %w", key, err)
	}
	return nil
}

// Keys lists stored keys starting with prefix.
func (d *Disk) Keys(prefix string) []string {
	var keys []string
	for key := range d.dv.KeysPrefix(prefix, nil) {
		keys = append(keys, key)
	}
	return keys
}
