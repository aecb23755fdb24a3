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

type ReviewModel struct {
	DB *pgxpool.Pool
}

const reviewSelect = `
	SELECT r.id, r.title_id, t.name AS title, r.author_id, u.username AS author,
		r.text, r.score, r.pub_date
	FROM reviews r
	JOIN titles t ON t.id = r.title_id
	JOIN users u ON u.id = r.author_id`

func (m *ReviewModel) List(ctx context.Context, titleID int64, f filters.Filters) ([]models.Review, int, error) {
	rows, _ := m.DB.Query(ctx, `
	SELECT count(*) OVER(), r.id, r.title_id, t.name AS title, r.author_id,
		u.username AS author, r.text, r.score, r.pub_date
	FROM reviews r
	JOIN titles t ON t.id = r.title_id
	JOIN users u ON u.id = r.author_id
	WHERE r.title_id = $1
	ORDER BY r.pub_date DESC, r.id DESC
	LIMIT $2 OFFSET $3`, titleID, f.Limit(), f.Offset())
	type row struct {
		Count int
		models.Review
	}
	outputRows, err := pgx.CollectRows(rows, pgx.RowToStructByName[row])
	if err != nil {
		return nil, 0, err
	}
	if len(outputRows) == 0 {
		return []models.Review{}, 0, nil
	}
	reviews := make([]models.Review, 0, len(outputRows))
	for _, row := range outputRows {
		reviews = append(reviews, row.Review)
	}
	return reviews, outputRows[0].Count, nil
}

func (m *ReviewModel) Get(ctx context.Context, titleID, reviewID int64) (*models.Review, error) {
	rows, err := m.DB.Query(ctx, reviewSelect+" WHERE r.title_id = $1 AND r.id = $2", titleID, reviewID)
	if err != nil {
		return nil, err
	}
	review, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[models.Review])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	return &review, nil
}

func (m *ReviewModel) GetByAuthor(ctx context.Context, titleID, authorID int64) (*models.Review, error) {
	rows, err := m.DB.Query(ctx, reviewSelect+" WHERE r.title_id = $1 AND r.author_id = $2", titleID, authorID)
	if err != nil {
		return nil, err
	}
	review, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[models.Review])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	return &review, nil
}

// Insert relies on the unique (author_id, title_id) index to close the race
// between the service-level duplicate check and the write.
func (m *ReviewModel) Insert(ctx context.Context, titleID, authorID int64, text string, score int32) (*models.Review, error) {
	var id int64
	err := m.DB.QueryRow(
		ctx,
		"INSERT INTO reviews (title_id, author_id, text, score) VALUES ($1, $2, $3, $4) RETURNING id",
		titleID,
		authorID,
		text,
		score,
	).Scan(&id)
	if err != nil {
		var pgxErr *pgconn.PgError
		if errors.As(err, &pgxErr) {
			switch pgxErr.Code {
			case postgres.ErrConflictCode:
				return nil, storage.ErrConflict
			case postgres.ErrFKViolationCode:
				return nil, storage.ErrReferenceNotFound
			}
		}
		return nil, err
	}
	return m.Get(ctx, titleID, id)
}

func (m *ReviewModel) Update(ctx context.Context, review *models.Review) (*models.Review, error) {
	status, err := m.DB.Exec(
		ctx,
		"UPDATE reviews SET text = $1, score = $2, pub_date = now() WHERE id = $3",
		review.Text,
		review.Score,
		review.ID,
	)
	if err != nil {
		return nil, err
	}
	if status.RowsAffected() == 0 {
		return nil, storage.ErrNotFound
	}
	return m.Get(ctx, review.TitleID, review.ID)
}

// Delete cascades to the review's comments through the FK.
func (m *ReviewModel) Delete(ctx context.Context, id int64) error {
	status, err := m.DB.Exec(ctx, "DELETE FROM reviews WHERE id = $1", id)
	if err != nil {
		return err
	}
	if status.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}
