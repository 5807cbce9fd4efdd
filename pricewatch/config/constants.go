package config

import "time"

// Application-wide constants organized by domain

// Database and Performance Constants
const (
	// Timeouts
	DefaultQueryTimeout = 30 * time.Second
	ProviderCallTimeout = 20 * time.Second
	UpstreamAPITimeout  = 30 * time.Second
	NetworkDialTimeout  = 5 * time.Second

	// Cache settings
	CatalogCacheExpiration = 15 * time.Minute
	CatalogCacheSize       = 512
)

// Ingestion and Pricing Constants
const (
	// A repeated quote for the same card, source and condition inside this
	// window is not written again.
	FreshnessWindow = 1 * time.Hour

	// Cards with no price record newer than this are eligible for refresh.
	StalenessThreshold = 6 * time.Hour

	StaleBatchSize       = 10
	StaleInterCardDelay  = 3 * time.Second
	MaxPriceMatches      = 5
	MaxConcurrentSources = 8
	MaxConcurrentPrices  = 16

	DefaultSourceRateLimitMs = 3000
	SampleSourceRateLimitMs  = 1000

	PlaceholderSetName   = "Unknown Set"
	PlaceholderSetNumber = "000"
)

// API and Listing Constants
const (
	CatalogPageSize     = 20
	CatalogOrderBy      = "-set.releaseDate"
	CardDetailRecords   = 50
	SearchResultRecords = 10
	HistoryDefaultDays  = 30
	HistoryMaxRecords   = 200
	LocalSearchLimit    = 25
	MaxRequestSize      = 64 * 1024
	RequestReadTimeout  = 30 * time.Second
)

// Provider names reported by the external price APIs.
const (
	SourceTCGPlayer  = "TCGPlayer"
	SourceCardMarket = "CardMarket"
	SourceEBay       = "eBay"
)

// DefaultSourceURLs gives a best-effort base URL for sources created on the fly.
var DefaultSourceURLs = map[string]string{
	SourceTCGPlayer:  "https://www.tcgplayer.com",
	SourceEBay:       "https://www.ebay.com",
	SourceCardMarket: "https://www.cardmarket.com",
}

// DefaultUserAgent is sent by scrapers unless the source config overrides it.
const DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36"
