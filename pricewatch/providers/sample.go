package providers

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"
)

const (
	SampleName    = "sample"
	sampleBaseURL = "https://example.com"
)

// SampleScraper is an offline provider that returns two fixed matches and a
// random JPY quote. It exists for demos and local development.
type SampleScraper struct {
	name    string
	baseURL string

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewSampleScraper(name string, cfg Config) (Provider, error) {
	return newSampleScraper(name, cfg, rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0))), nil
}

func newSampleScraper(name string, cfg Config, rnd *rand.Rand) *SampleScraper {
	if name == "" {
		name = SampleName
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = sampleBaseURL
	}
	return &SampleScraper{name: name, baseURL: baseURL, rnd: rnd}
}

func (s *SampleScraper) Name() string { return s.name }

func (s *SampleScraper) SearchCard(_ context.Context, query string) ([]CandidateMatch, error) {
	normalized := NormalizeCardName(query)

	return []CandidateMatch{
		{
			ID:        "sample-1",
			Name:      normalized,
			SetName:   "Sample Set",
			SetNumber: "001",
			ImageURL:  s.baseURL + "/card1.jpg",
			Rarity:    "Rare",
		},
		{
			ID:        "sample-2",
			Name:      normalized + " Alt",
			SetName:   "Sample Set",
			SetNumber: "002",
			ImageURL:  s.baseURL + "/card2.jpg",
			Rarity:    "Ultra Rare",
		},
	}, nil
}

func (s *SampleScraper) GetPrice(ctx context.Context, candidateID string) (*Quote, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	price := float64(s.rnd.IntN(10000) + 1000)
	inStock := s.rnd.Float64() > 0.3
	s.mu.Unlock()

	return &Quote{
		Price:      price,
		Currency:   "JPY",
		Condition:  "mint",
		InStock:    inStock,
		ProductURL: fmt.Sprintf("%s/card/%s", s.baseURL, candidateID),
		ScrapedAt:  time.Now(),
	}, nil
}
