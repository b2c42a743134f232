// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package loglist

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"

	"github.com/H0llyW00dzZ/tls-ct-verifier/src/internal/datasource"
	"github.com/H0llyW00dzZ/tls-ct-verifier/src/internal/helper/gc"
)

// DefaultMaxAge is how long a cached list is served before it is refetched.
const DefaultMaxAge = 24 * time.Hour

const metaFile = "log_list.meta"

type diskMeta struct {
	WrittenAt time.Time `json:"written_at"`
}

// DiskCache stores the raw list and its signature in a directory, next to
// a small metadata file recording when they were written.
type DiskCache struct {
	Dir string
	// MaxAge defaults to [DefaultMaxAge].
	MaxAge time.Duration

	now func() time.Time
}

// NewDiskCache returns a cache rooted at dir.
func NewDiskCache(dir string, maxAge time.Duration) *DiskCache {
	return &DiskCache{Dir: dir, MaxAge: maxAge, now: time.Now}
}

// IsExpired reports whether content written at lastWrite is too old at now.
func (d *DiskCache) IsExpired(lastWrite, now time.Time) bool {
	maxAge := d.MaxAge
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	return now.Sub(lastWrite) >= maxAge
}

func (d *DiskCache) clock() time.Time {
	if d.now != nil {
		return d.now()
	}
	return time.Now()
}

// Get returns the cached list. Missing or expired content yields
// datasource.ErrNoValue.
func (d *DiskCache) Get(context.Context) (RawResult, error) {
	metaBytes, err := d.read(metaFile, 4096)
	if err != nil {
		return RawResult{}, err
	}
	var meta diskMeta
	if err := json.Unmarshal(metaBytes, &meta); err != nil {
		return RawResult{}, fmt.Errorf("loglist: corrupt cache metadata: %w", err)
	}
	if d.IsExpired(meta.WrittenAt, d.clock()) {
		return RawResult{}, datasource.ErrNoValue
	}

	var raw RawResult
	if raw.JSON, err = d.read(JSONFile, MaxJSONSize); err != nil {
		return RawResult{}, err
	}
	if raw.Signature, err = d.read(SigFile, MaxSigSize); err != nil {
		return RawResult{}, err
	}
	return raw, nil
}

func (d *DiskCache) read(name string, limit int64) ([]byte, error) {
	f, err := os.Open(filepath.Join(d.Dir, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, datasource.ErrNoValue
		}
		return nil, err
	}
	defer f.Close()
	return gc.ReadAll(f, limit)
}

// Set writes the list, then the signature, then the metadata. Each file is
// replaced atomically, and the metadata goes last so that a crash leaves
// either the old timestamp or a complete new set.
func (d *DiskCache) Set(_ context.Context, raw RawResult) error {
	if err := os.MkdirAll(d.Dir, 0o755); err != nil {
		return fmt.Errorf("loglist: creating cache directory: %w", err)
	}

	meta, err := json.Marshal(diskMeta{WrittenAt: d.clock().UTC()})
	if err != nil {
		return err
	}

	for _, f := range []struct {
		name string
		data []byte
	}{
		{JSONFile, raw.JSON},
		{SigFile, raw.Signature},
		{metaFile, meta},
	} {
		if err := writeFileAtomic(filepath.Join(d.Dir, f.name), f.data); err != nil {
			return fmt.Errorf("loglist: writing %s: %w", f.name, err)
		}
	}
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
