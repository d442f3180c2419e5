// Package compression provides the value codecs the persistent state store
// applies to entries before they reach the database.
package compression

import (
	"fmt"
	"sort"
	"sync"
)

// Compressor defines the interface for compression algorithms.
type Compressor interface {
	// Name returns the name of the compression algorithm.
	Name() string

	// Compress returns a self-describing encoding of data.
	Compress(data []byte) ([]byte, error)

	// Decompress reverses Compress.
	Decompress(data []byte) ([]byte, error)
}

// Factory is a function that creates a new compressor instance.
type Factory func() Compressor

var (
	mu          sync.RWMutex
	compressors = make(map[string]Factory)
)

// Register registers a compressor factory with the given name.
func Register(name string, factory Factory) {
	mu.Lock()
	defer mu.Unlock()
	compressors[name] = factory
}

// Get returns a new compressor instance for the given name.
func Get(name string) (Compressor, error) {
	mu.RLock()
	factory, ok := compressors[name]
	mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown compressor: %s", name)
	}
	return factory(), nil
}

// Available returns the sorted names of registered compressors.
func Available() []string {
	mu.RLock()
	defer mu.RUnlock()

	names := make([]string, 0, len(compressors))
	for name := range compressors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func init() {
	Register("none", func() Compressor { return &NoCompressor{} })
	Register("lz4", func() Compressor { return &LZ4Compressor{} })
}
