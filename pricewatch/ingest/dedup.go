package ingest

import (
	"context"
	"time"

	"github.com/tcgwatch/pricewatch/pricewatch/config"
	"github.com/tcgwatch/pricewatch/pricewatch/database/repositories"
)

// DedupGate suppresses a price write when the same card, source and
// condition was already recorded inside the freshness window. Conditions
// are compared exactly, so "holofoil" and "normal" never suppress each
// other.
type DedupGate struct {
	records repositories.PriceRecordRepository
	window  time.Duration
	now     func() time.Time
}

func NewDedupGate(records repositories.PriceRecordRepository, window time.Duration) *DedupGate {
	if window <= 0 {
		window = config.FreshnessWindow
	}
	return &DedupGate{records: records, window: window, now: time.Now}
}

// Fresh reports whether a recent enough record exists.
func (g *DedupGate) Fresh(ctx context.Context, cardID, sourceID int64, condition string) (bool, error) {
	return g.records.ExistsSince(ctx, cardID, sourceID, condition, g.now().Add(-g.window))
}
