package pagedlist

import (
	"fmt"

	"github.com/friendsofgo/errors"
)

// Config holds the validated tuning parameters for a PagedList.
// Build one through NewConfigBuilder; a Config is immutable once built and
// may be shared by reference across lists.
type Config struct {
	// PageSize is the number of items fetched by each prepend/append load.
	PageSize int

	// PrefetchDistance is how far ahead of an accessed position the list
	// keeps loaded items. Accessing within PrefetchDistance of the loaded
	// window's edge triggers a load for that edge.
	PrefetchDistance int

	// InitialLoadSizeHint is the requested size of the first load performed
	// at construction. Strategies may round it (positional coerces it to a
	// multiple of PageSize).
	InitialLoadSizeHint int
}

// ConfigBuilder assembles a Config, applying defaults and validating on
// Build. PageSize is required; PrefetchDistance defaults to PageSize and
// InitialLoadSizeHint defaults to 3×PageSize.
//
// Example:
//
//	cfg, err := pagedlist.NewConfigBuilder().
//	    PageSize(20).
//	    PrefetchDistance(40).
//	    Build()
type ConfigBuilder struct {
	pageSize            int
	prefetchDistance    *int
	initialLoadSizeHint *int
}

// NewConfigBuilder creates an empty ConfigBuilder.
func NewConfigBuilder() *ConfigBuilder {
	return &ConfigBuilder{}
}

// PageSize sets the number of items loaded per page. Required, must be >= 1.
func (b *ConfigBuilder) PageSize(size int) *ConfigBuilder {
	b.pageSize = size
	return b
}

// PrefetchDistance sets how close to the loaded window's edge an access must
// be before a load for that edge is dispatched. Must be >= 0.
// Defaults to PageSize.
func (b *ConfigBuilder) PrefetchDistance(distance int) *ConfigBuilder {
	b.prefetchDistance = &distance
	return b
}

// InitialLoadSizeHint sets the requested size of the construction-time load.
// Must be >= 1. Defaults to 3×PageSize.
func (b *ConfigBuilder) InitialLoadSizeHint(size int) *ConfigBuilder {
	b.initialLoadSizeHint = &size
	return b
}

// Build validates the builder and returns the immutable Config.
// It fails fast with a *ConfigError when PageSize is missing or not
// positive, PrefetchDistance is negative, or InitialLoadSizeHint is not
// positive.
func (b *ConfigBuilder) Build() (*Config, error) {
	if b.pageSize < 1 {
		return nil, &ConfigError{Field: "PageSize", Value: b.pageSize, Reason: "must be >= 1"}
	}

	prefetch := b.pageSize
	if b.prefetchDistance != nil {
		if *b.prefetchDistance < 0 {
			return nil, &ConfigError{Field: "PrefetchDistance", Value: *b.prefetchDistance, Reason: "must be >= 0"}
		}
		prefetch = *b.prefetchDistance
	}

	initial := b.pageSize * 3
	if b.initialLoadSizeHint != nil {
		if *b.initialLoadSizeHint < 1 {
			return nil, &ConfigError{Field: "InitialLoadSizeHint", Value: *b.initialLoadSizeHint, Reason: "must be >= 1"}
		}
		initial = *b.initialLoadSizeHint
	}

	return &Config{
		PageSize:            b.pageSize,
		PrefetchDistance:    prefetch,
		InitialLoadSizeHint: initial,
	}, nil
}

// MustBuild is Build for static configuration known to be valid; it panics
// on validation failure.
func (b *ConfigBuilder) MustBuild() *Config {
	cfg, err := b.Build()
	if err != nil {
		panic(errors.Wrap(err, "pagedlist: invalid static config"))
	}
	return cfg
}

// ConfigError is returned by ConfigBuilder.Build when a tuning parameter is
// missing or out of range.
type ConfigError struct {
	Field  string
	Value  int
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("pagedlist: invalid config: %s = %d, %s", e.Field, e.Value, e.Reason)
}
