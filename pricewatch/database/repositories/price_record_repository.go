package repositories

import (
	"context"
	"time"

	"github.com/uptrace/bun"

	"github.com/tcgwatch/pricewatch/pricewatch/database/models"
)

// HistoryFilter narrows a price history query. Zero values mean no filter.
type HistoryFilter struct {
	Since      time.Time
	SourceName string
	Currency   string
	Limit      int
}

type PriceRecordRepository interface {
	Create(ctx context.Context, record *models.PriceRecord) error
	ExistsSince(ctx context.Context, cardID, sourceID int64, condition string, since time.Time) (bool, error)
	GetLatestForCard(ctx context.Context, cardID int64, limit int) ([]*models.PriceRecord, error)
	GetHistory(ctx context.Context, cardID int64, filter HistoryFilter) ([]*models.PriceRecord, error)
}

type priceRecordRepository struct {
	*BaseRepository
}

func NewPriceRecordRepository(db *bun.DB) PriceRecordRepository {
	return &priceRecordRepository{BaseRepository: NewBaseRepository(db)}
}

func (r *priceRecordRepository) Create(ctx context.Context, record *models.PriceRecord) error {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	if record.ScrapedAt.IsZero() {
		record.ScrapedAt = time.Now()
	}

	_, err := r.db.NewInsert().
		Model(record).
		Returning("id").
		Exec(ctx)

	return r.HandleError("insert", "price_record", err)
}

// ExistsSince reports whether a record for the exact (card, source,
// condition) triple was observed at or after since.
func (r *priceRecordRepository) ExistsSince(ctx context.Context, cardID, sourceID int64, condition string, since time.Time) (bool, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	exists, err := r.db.NewSelect().
		Model((*models.PriceRecord)(nil)).
		Where("card_id = ?", cardID).
		Where("source_id = ?", sourceID).
		Where("condition = ?", condition).
		Where("scraped_at >= ?", since).
		Exists(ctx)
	if err != nil {
		return false, r.HandleError("exists_since", "price_record", err)
	}
	return exists, nil
}

func (r *priceRecordRepository) GetLatestForCard(ctx context.Context, cardID int64, limit int) ([]*models.PriceRecord, error) {
	return r.GetHistory(ctx, cardID, HistoryFilter{Limit: limit})
}

func (r *priceRecordRepository) GetHistory(ctx context.Context, cardID int64, filter HistoryFilter) ([]*models.PriceRecord, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	var records []*models.PriceRecord
	q := r.db.NewSelect().
		Model(&records).
		Relation("Source").
		Where("pr.card_id = ?", cardID)

	if !filter.Since.IsZero() {
		q = q.Where("pr.scraped_at >= ?", filter.Since)
	}
	if filter.SourceName != "" {
		q = q.Where("source.name = ?", filter.SourceName)
	}
	if filter.Currency != "" {
		q = q.Where("pr.currency = ?", filter.Currency)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}

	if err := q.Order("pr.scraped_at DESC").Scan(ctx); err != nil {
		return nil, r.HandleError("get_history", "price_record", err)
	}
	return records, nil
}
