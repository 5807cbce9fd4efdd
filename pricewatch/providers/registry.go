package providers

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownProvider is returned for a name with no registered adapter.
var ErrUnknownProvider = errors.New("unknown provider")

// Constructor builds an adapter registered under name.
type Constructor func(name string, cfg Config) (Provider, error)

// registry is closed: adding a provider means adding a line here.
var registry = map[string]Constructor{
	SampleName:     NewSampleScraper,
	StorefrontKind: NewStorefront,
}

// New resolves the adapter for a source. The "adapter" option selects the
// adapter kind; it defaults to the source name, so a source named "sample"
// gets the sample scraper while "card-shop" with {"adapter":"storefront"}
// gets a storefront scraper.
func New(name string, cfg Config) (Provider, error) {
	kind := cfg.Option("adapter", name)
	ctor, ok := registry[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, kind)
	}
	return ctor(name, cfg)
}

// Kinds lists the registered adapter kinds.
func Kinds() []string {
	kinds := make([]string, 0, len(registry))
	for k := range registry {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}
