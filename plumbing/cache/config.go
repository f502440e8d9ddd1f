// Package cache implements the bounded byte-window cache over pack
// files, and a separately-bounded delta-base object cache, described
// in the window cache design.
package cache

import (
	"fmt"

	"dario.cat/mergo"
)

const (
	defaultPackedGitLimit       = 10 * 1024 * 1024
	defaultPackedGitWindowSize  = 8 * 1024
	defaultDeltaBaseCacheLimit  = 10 * 1024 * 1024
	minPackedGitWindowSize      = 4096
)

// Config is the window cache's single process-wide configuration.
// Reconfigure merges a partial Config over the running one: a zero
// field in the partial value means "leave unchanged".
type Config struct {
	// PackedGitLimit is the maximum number of resident bytes across all
	// live windows. Must be >= PackedGitWindowSize.
	PackedGitLimit int64

	// PackedGitWindowSize is the number of bytes per window. Must be a
	// power of two >= 4096.
	PackedGitWindowSize int64

	// PackedGitMMAP selects memory-mapped reads over the pack's backing
	// file rather than pread into a heap buffer. A nil value means
	// "unset" for Reconfigure's merge purposes and is treated as false;
	// it is a pointer rather than a plain bool so that an explicit
	// patch.PackedGitMMAP = false can be told apart from a patch that
	// doesn't mention the field at all.
	PackedGitMMAP *bool

	// DeltaBaseCacheLimit is a byte limit for the delta-base cache,
	// independent of PackedGitLimit. It is only validated here: Cache
	// does not build or resize a DeltaBaseCache from it, and a
	// DeltaBaseCache takes its limit from NewDeltaBaseCache.
	DeltaBaseCacheLimit int64
}

// DefaultConfig returns the baseline configuration a new Cache starts
// from.
func DefaultConfig() Config {
	off := false
	return Config{
		PackedGitLimit:      defaultPackedGitLimit,
		PackedGitWindowSize: defaultPackedGitWindowSize,
		PackedGitMMAP:       &off,
		DeltaBaseCacheLimit: defaultDeltaBaseCacheLimit,
	}
}

// mmapEnabled reports whether PackedGitMMAP is set and true, treating
// an unset pointer the same as an explicit false.
func (c Config) mmapEnabled() bool {
	return c.PackedGitMMAP != nil && *c.PackedGitMMAP
}

// validate rejects unrecognized configurations at reconfigure time,
// unrecognized values must be rejected at reconfigure time,
// not later."
func (c Config) validate() error {
	if c.PackedGitWindowSize < minPackedGitWindowSize {
		return fmt.Errorf("cache: packedGitWindowSize %d below minimum %d", c.PackedGitWindowSize, minPackedGitWindowSize)
	}
	if c.PackedGitWindowSize&(c.PackedGitWindowSize-1) != 0 {
		return fmt.Errorf("cache: packedGitWindowSize %d is not a power of two", c.PackedGitWindowSize)
	}
	if c.PackedGitLimit < c.PackedGitWindowSize {
		return fmt.Errorf("cache: packedGitLimit %d below packedGitWindowSize %d", c.PackedGitLimit, c.PackedGitWindowSize)
	}
	if c.DeltaBaseCacheLimit < 0 {
		return fmt.Errorf("cache: negative deltaBaseCacheLimit %d", c.DeltaBaseCacheLimit)
	}
	return nil
}

// merge overlays patch's non-zero fields onto base and validates the
// result.
func merge(base Config, patch Config) (Config, error) {
	merged := base
	if err := mergo.Merge(&merged, patch, mergo.WithOverride); err != nil {
		return Config{}, fmt.Errorf("cache: merging config: %w", err)
	}
	if err := merged.validate(); err != nil {
		return Config{}, err
	}
	return merged, nil
}
