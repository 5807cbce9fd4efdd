package repositories

import (
	"context"
	"strings"
	"time"

	"github.com/uptrace/bun"

	"github.com/tcgwatch/pricewatch/pricewatch/database/models"
)

type CardRepository interface {
	Create(ctx context.Context, card *models.Card) error
	GetByID(ctx context.Context, id int64) (*models.Card, error)
	GetBySetKey(ctx context.Context, setName, setNumber string) (*models.Card, error)
	FindByName(ctx context.Context, query string, limit int) ([]*models.Card, error)
	List(ctx context.Context, limit int) ([]*models.Card, error)
	Touch(ctx context.Context, id int64, at time.Time) error
	GetStale(ctx context.Context, cutoff time.Time, limit int) ([]*models.Card, error)
}

type cardRepository struct {
	*BaseRepository
}

func NewCardRepository(db *bun.DB) CardRepository {
	return &cardRepository{BaseRepository: NewBaseRepository(db)}
}

func (r *cardRepository) Create(ctx context.Context, card *models.Card) error {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	now := time.Now()
	card.CreatedAt = now
	card.UpdatedAt = now

	_, err := r.db.NewInsert().
		Model(card).
		Returning("id").
		Exec(ctx)

	return r.HandleInsertError("card", "set_key", card.SetName+"/"+card.SetNumber, err)
}

func (r *cardRepository) GetByID(ctx context.Context, id int64) (*models.Card, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	card := new(models.Card)
	err := r.db.NewSelect().
		Model(card).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		return nil, r.HandleErrorWithID("get", "card", id, err)
	}
	return card, nil
}

func (r *cardRepository) GetBySetKey(ctx context.Context, setName, setNumber string) (*models.Card, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	card := new(models.Card)
	err := r.db.NewSelect().
		Model(card).
		Where("set_name = ?", setName).
		Where("set_number = ?", setNumber).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, r.HandleErrorWithID("get", "card", setName+"/"+setNumber, err)
	}
	return card, nil
}

// FindByName returns cards whose name or Japanese name contains query,
// most recently updated first.
func (r *cardRepository) FindByName(ctx context.Context, query string, limit int) ([]*models.Card, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	pattern := "%" + escapeLike(strings.TrimSpace(query)) + "%"

	var cards []*models.Card
	err := r.db.NewSelect().
		Model(&cards).
		WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				Where("c.name ILIKE ?", pattern).
				WhereOr("c.japanese_name ILIKE ?", pattern)
		}).
		Order("c.updated_at DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, r.HandleError("find_by_name", "card", err)
	}
	return cards, nil
}

func (r *cardRepository) List(ctx context.Context, limit int) ([]*models.Card, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	var cards []*models.Card
	err := r.db.NewSelect().
		Model(&cards).
		Order("c.updated_at DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, r.HandleError("list", "card", err)
	}
	return cards, nil
}

func (r *cardRepository) Touch(ctx context.Context, id int64, at time.Time) error {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	res, err := r.db.NewUpdate().
		Model((*models.Card)(nil)).
		Set("updated_at = ?", at).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return r.HandleErrorWithID("touch", "card", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return &NotFoundError{Entity: "card", ID: id}
	}
	return nil
}

// GetStale returns up to limit cards without any price record observed at
// or after cutoff, least recently updated first. Cards with no records at
// all qualify as well.
func (r *cardRepository) GetStale(ctx context.Context, cutoff time.Time, limit int) ([]*models.Card, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	fresh := r.db.NewSelect().
		TableExpr("price_records AS pr").
		ColumnExpr("1").
		Where("pr.card_id = c.id").
		Where("pr.scraped_at >= ?", cutoff)

	var cards []*models.Card
	err := r.db.NewSelect().
		Model(&cards).
		Where("NOT EXISTS (?)", fresh).
		Order("c.updated_at ASC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, r.HandleError("get_stale", "card", err)
	}
	return cards, nil
}

func escapeLike(s string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(s)
}

