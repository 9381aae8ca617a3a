package loader

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"
)

// tableReader reads each (file, sheet) pair at most once per dataset load.
// Several coefficient tables may live in one workbook, and concurrent
// requests for the same sheet share a single read.
type tableReader struct {
	group singleflight.Group
	cache sync.Map
	reads int64
	mu    sync.Mutex
}

func newTableReader() *tableReader {
	return &tableReader{}
}

func (r *tableReader) Read(ctx context.Context, path, sheet string) (*table, error) {
	if ctx == nil {
		return nil, fmt.Errorf("Read: nil context")
	}
	if path == "" {
		return nil, fmt.Errorf("Read: empty path")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := flightKey(path, sheet)
	if v, ok := r.cache.Load(key); ok {
		return v.(*table), nil
	}

	v, err, _ := r.group.Do(key, func() (interface{}, error) {
		if v, ok := r.cache.Load(key); ok {
			return v, nil
		}
		t, err := readTable(path, sheet)
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		r.reads++
		r.mu.Unlock()
		r.cache.Store(key, t)
		return t, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*table), nil
}

// Reads reports how many distinct tables were parsed.
func (r *tableReader) Reads() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reads
}

func flightKey(path, sheet string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return filepath.Clean(path) + "#" + strings.TrimSpace(sheet)
}
