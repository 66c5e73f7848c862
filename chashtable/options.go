package chashtable

import (
	"chashtable/config"
	"chashtable/core"
)

// optionsFromConfig translates a config.Config into core.Options, the
// wiring `config.Load()` exists for.
func optionsFromConfig(c *config.Config) *core.Options {
	if c == nil {
		c = config.Default()
	}
	return &core.Options{
		InitialGroups: c.InitialGroups,
		MaxLoadFactor: c.MaxLoadFactor,
		StripeCount:   c.StripeCount,
	}
}

// NewMapFromConfig constructs a Map sized and paced by c (nil uses
// config.Default()).
func NewMapFromConfig[K comparable, V any](c *config.Config) *Map[K, V] {
	return NewMap[K, V](optionsFromConfig(c))
}

// NewSetFromConfig constructs a Set sized and paced by c (nil uses
// config.Default()).
func NewSetFromConfig[K comparable](c *config.Config) *Set[K] {
	return NewSet[K](optionsFromConfig(c))
}
