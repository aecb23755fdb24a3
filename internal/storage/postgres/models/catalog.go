package models

import (
	"context"
	"errors"

	"yamdb/proj/internal/domain/filters"
	"yamdb/proj/internal/domain/models"
	"yamdb/proj/internal/storage"
	"yamdb/proj/internal/storage/postgres"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CategoryModel struct {
	DB *pgxpool.Pool
}

func (m *CategoryModel) List(ctx context.Context, search string, f filters.Filters) ([]models.Category, int, error) {
	rows, _ := m.DB.Query(ctx, `
	SELECT count(*) OVER(), id, name, slug FROM categories
	WHERE (name ILIKE '%' || $1 || '%' OR $1 = '')
	ORDER BY slug ASC
	LIMIT $2 OFFSET $3`, escapeLike(search), f.Limit(), f.Offset())
	type row struct {
		Count int
		models.Category
	}
	outputRows, err := pgx.CollectRows(rows, pgx.RowToStructByName[row])
	if err != nil {
		return nil, 0, err
	}
	if len(outputRows) == 0 {
		return []models.Category{}, 0, nil
	}
	categories := make([]models.Category, 0, len(outputRows))
	for _, row := range outputRows {
		categories = append(categories, row.Category)
	}
	return categories, outputRows[0].Count, nil
}

func (m *CategoryModel) GetBySlug(ctx context.Context, slug string) (*models.Category, error) {
	rows, err := m.DB.Query(ctx, "SELECT id, name, slug FROM categories WHERE slug = $1", slug)
	if err != nil {
		return nil, err
	}
	category, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[models.Category])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	return &category, nil
}

func (m *CategoryModel) Insert(ctx context.Context, name, slug string) (*models.Category, error) {
	rows, _ := m.DB.Query(
		ctx,
		"INSERT INTO categories (name, slug) VALUES ($1, $2) RETURNING id, name, slug",
		name,
		slug,
	)
	category, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[models.Category])
	if err != nil {
		var pgxErr *pgconn.PgError
		if errors.As(err, &pgxErr) && pgxErr.Code == postgres.ErrConflictCode {
			return nil, storage.ErrConflict
		}
		return nil, err
	}
	return &category, nil
}

// Delete nulls out the category reference on titles via the FK's ON DELETE
// SET NULL, it never cascades to the titles themselves.
func (m *CategoryModel) Delete(ctx context.Context, slug string) error {
	status, err := m.DB.Exec(ctx, "DELETE FROM categories WHERE slug = $1", slug)
	if err != nil {
		return err
	}
	if status.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

type GenreModel struct {
	DB *pgxpool.Pool
}

func (m *GenreModel) List(ctx context.Context, search string, f filters.Filters) ([]models.Genre, int, error) {
	rows, _ := m.DB.Query(ctx, `
	SELECT count(*) OVER(), id, name, slug FROM genres
	WHERE (name ILIKE '%' || $1 || '%' OR $1 = '')
	ORDER BY slug ASC
	LIMIT $2 OFFSET $3`, escapeLike(search), f.Limit(), f.Offset())
	type row struct {
		Count int
		models.Genre
	}
	outputRows, err := pgx.CollectRows(rows, pgx.RowToStructByName[row])
	if err != nil {
		return nil, 0, err
	}
	if len(outputRows) == 0 {
		return []models.Genre{}, 0, nil
	}
	genres := make([]models.Genre, 0, len(outputRows))
	for _, row := range outputRows {
		genres = append(genres, row.Genre)
	}
	return genres, outputRows[0].Count, nil
}

func (m *GenreModel) GetBySlug(ctx context.Context, slug string) (*models.Genre, error) {
	rows, err := m.DB.Query(ctx, "SELECT id, name, slug FROM genres WHERE slug = $1", slug)
	if err != nil {
		return nil, err
	}
	genre, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[models.Genre])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	return &genre, nil
}

func (m *GenreModel) Insert(ctx context.Context, name, slug string) (*models.Genre, error) {
	rows, _ := m.DB.Query(
		ctx,
		"INSERT INTO genres (name, slug) VALUES ($1, $2) RETURNING id, name, slug",
		name,
		slug,
	)
	genre, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[models.Genre])
	if err != nil {
		var pgxErr *pgconn.PgError
		if errors.As(err, &pgxErr) && pgxErr.Code == postgres.ErrConflictCode {
			return nil, storage.ErrConflict
		}
		return nil, err
	}
	return &genre, nil
}

func (m *GenreModel) Delete(ctx context.Context, slug string) error {
	status, err := m.DB.Exec(ctx, "DELETE FROM genres WHERE slug = $1", slug)
	if err != nil {
		return err
	}
	if status.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}
