package repositories

import (
	"context"
	"time"

	"github.com/uptrace/bun"

	"github.com/tcgwatch/pricewatch/pricewatch/database/models"
)

type SourceRepository interface {
	Create(ctx context.Context, source *models.Source) error
	GetByName(ctx context.Context, name string) (*models.Source, error)
	GetActive(ctx context.Context) ([]*models.Source, error)
	GetAll(ctx context.Context) ([]*models.Source, error)
	SetActive(ctx context.Context, name string, active bool) error
}

type sourceRepository struct {
	*BaseRepository
}

func NewSourceRepository(db *bun.DB) SourceRepository {
	return &sourceRepository{BaseRepository: NewBaseRepository(db)}
}

// Create inserts source. A concurrent insert of the same name surfaces as a
// ConflictError so the caller can re-read the winner.
func (r *sourceRepository) Create(ctx context.Context, source *models.Source) error {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	now := time.Now()
	source.CreatedAt = now
	source.UpdatedAt = now

	_, err := r.db.NewInsert().
		Model(source).
		Returning("id").
		Exec(ctx)

	return r.HandleInsertError("source", "name", source.Name, err)
}

func (r *sourceRepository) GetByName(ctx context.Context, name string) (*models.Source, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	source := new(models.Source)
	err := r.db.NewSelect().
		Model(source).
		Where("name = ?", name).
		Scan(ctx)
	if err != nil {
		return nil, r.HandleErrorWithID("get", "source", name, err)
	}
	return source, nil
}

func (r *sourceRepository) GetActive(ctx context.Context) ([]*models.Source, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	var sources []*models.Source
	err := r.db.NewSelect().
		Model(&sources).
		Where("is_active = ?", true).
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, r.HandleError("get_active", "source", err)
	}
	return sources, nil
}

func (r *sourceRepository) GetAll(ctx context.Context) ([]*models.Source, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	var sources []*models.Source
	err := r.db.NewSelect().
		Model(&sources).
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, r.HandleError("get_all", "source", err)
	}
	return sources, nil
}

func (r *sourceRepository) SetActive(ctx context.Context, name string, active bool) error {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	res, err := r.db.NewUpdate().
		Model((*models.Source)(nil)).
		Set("is_active = ?", active).
		Set("updated_at = ?", time.Now()).
		Where("name = ?", name).
		Exec(ctx)
	if err != nil {
		return r.HandleErrorWithID("set_active", "source", name, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return &NotFoundError{Entity: "source", ID: name}
	}
	return nil
}
