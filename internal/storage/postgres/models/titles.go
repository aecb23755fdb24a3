package models

import (
	"context"
	"errors"
	"fmt"

	"yamdb/proj/internal/domain/filters"
	"yamdb/proj/internal/domain/models"
	"yamdb/proj/internal/storage"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TitleModel struct {
	DB *pgxpool.Pool
}

// titleRow flattens a title with its aggregated rating and (possibly null)
// category columns. Genres are attached with a second query.
type titleRow struct {
	Count        int
	ID           int64
	Name         string
	Year         int32
	Description  string
	Rating       *float64
	CategoryID   *int64
	CategoryName *string
	CategorySlug *string
}

func (r *titleRow) toTitle() models.Title {
	title := models.Title{
		ID:          r.ID,
		Name:        r.Name,
		Year:        r.Year,
		Description: r.Description,
		Rating:      r.Rating,
		Genres:      []models.Genre{},
	}
	if r.CategoryID != nil {
		title.Category = &models.Category{ID: *r.CategoryID, Name: *r.CategoryName, Slug: *r.CategorySlug}
	}
	return title
}

const titleSelect = `
	SELECT count(*) OVER(), t.id, t.name, t.year, t.description,
		AVG(r.score)::float8 AS rating,
		c.id AS category_id, c.name AS category_name, c.slug AS category_slug
	FROM titles t
	LEFT JOIN categories c ON c.id = t.category_id
	LEFT JOIN reviews r ON r.title_id = t.id`

func (m *TitleModel) List(ctx context.Context, tf storage.TitleFilters, f filters.Filters) ([]models.Title, int, error) {
	query := fmt.Sprintf(`%s
	WHERE (t.name ILIKE '%%' || $1 || '%%' OR $1 = '')
	AND ($2 = 0 OR t.year = $2)
	AND ($3 = '' OR c.slug = $3)
	AND ($4 = '' OR EXISTS (
		SELECT 1 FROM title_genres tg JOIN genres g ON g.id = tg.genre_id
		WHERE tg.title_id = t.id AND g.slug = $4
	))
	GROUP BY t.id, c.id
	ORDER BY %s %s, t.id ASC
	LIMIT $5 OFFSET $6`, titleSelect, "t."+f.SortColumn(), f.SortDirection())
	args := []any{escapeLike(tf.Name), tf.Year, tf.Category, tf.Genre, f.Limit(), f.Offset()}
	rows, _ := m.DB.Query(ctx, query, args...)
	outputRows, err := pgx.CollectRows(rows, pgx.RowToStructByName[titleRow])
	if err != nil {
		return nil, 0, err
	}
	if len(outputRows) == 0 {
		return []models.Title{}, 0, nil
	}
	titles := make([]models.Title, 0, len(outputRows))
	for _, row := range outputRows {
		titles = append(titles, row.toTitle())
	}
	if err := m.attachGenres(ctx, titles); err != nil {
		return nil, 0, err
	}
	return titles, outputRows[0].Count, nil
}

func (m *TitleModel) Get(ctx context.Context, id int64) (*models.Title, error) {
	rows, err := m.DB.Query(ctx, titleSelect+" WHERE t.id = $1 GROUP BY t.id, c.id", id)
	if err != nil {
		return nil, err
	}
	row, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[titleRow])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	title := row.toTitle()
	titles := []models.Title{title}
	if err := m.attachGenres(ctx, titles); err != nil {
		return nil, err
	}
	return &titles[0], nil
}

func (m *TitleModel) attachGenres(ctx context.Context, titles []models.Title) error {
	ids := make([]int64, 0, len(titles))
	byID := make(map[int64]*models.Title, len(titles))
	for i := range titles {
		ids = append(ids, titles[i].ID)
		byID[titles[i].ID] = &titles[i]
	}
	rows, _ := m.DB.Query(ctx, `
	SELECT tg.title_id, g.id, g.name, g.slug
	FROM title_genres tg JOIN genres g ON g.id = tg.genre_id
	WHERE tg.title_id = ANY($1)
	ORDER BY g.slug ASC`, ids)
	type genreRow struct {
		TitleID int64
		ID      int64
		Name    string
		Slug    string
	}
	genreRows, err := pgx.CollectRows(rows, pgx.RowToStructByName[genreRow])
	if err != nil {
		return err
	}
	for _, gr := range genreRows {
		title := byID[gr.TitleID]
		title.Genres = append(title.Genres, models.Genre{ID: gr.ID, Name: gr.Name, Slug: gr.Slug})
	}
	return nil
}

func (m *TitleModel) Insert(ctx context.Context, params storage.CreateTitleParams) (*models.Title, error) {
	tx, err := m.DB.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)
	var id int64
	err = tx.QueryRow(
		ctx,
		"INSERT INTO titles (name, year, description, category_id) VALUES ($1, $2, $3, $4) RETURNING id",
		params.Name,
		params.Year,
		params.Description,
		params.CategoryID,
	).Scan(&id)
	if err != nil {
		return nil, err
	}
	if len(params.GenreIDs) > 0 {
		_, err = tx.Exec(
			ctx,
			"INSERT INTO title_genres (title_id, genre_id) SELECT $1, unnest($2::bigint[])",
			id,
			params.GenreIDs,
		)
		if err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return m.Get(ctx, id)
}

func (m *TitleModel) Update(ctx context.Context, params storage.UpdateTitleParams) (*models.Title, error) {
	tx, err := m.DB.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)
	status, err := tx.Exec(
		ctx,
		"UPDATE titles SET name = $1, year = $2, description = $3, category_id = $4 WHERE id = $5",
		params.Name,
		params.Year,
		params.Description,
		params.CategoryID,
		params.ID,
	)
	if err != nil {
		return nil, err
	}
	if status.RowsAffected() == 0 {
		return nil, storage.ErrNotFound
	}
	if params.GenreIDs != nil {
		if _, err := tx.Exec(ctx, "DELETE FROM title_genres WHERE title_id = $1", params.ID); err != nil {
			return nil, err
		}
		if len(params.GenreIDs) > 0 {
			_, err = tx.Exec(
				ctx,
				"INSERT INTO title_genres (title_id, genre_id) SELECT $1, unnest($2::bigint[])",
				params.ID,
				params.GenreIDs,
			)
			if err != nil {
				return nil, err
			}
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return m.Get(ctx, params.ID)
}

// Delete cascades to the title's reviews and their comments through the FKs.
func (m *TitleModel) Delete(ctx context.Context, id int64) error {
	status, err := m.DB.Exec(ctx, "DELETE FROM titles WHERE id = $1", id)
	if err != nil {
		return err
	}
	if status.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (m *TitleModel) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := m.DB.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM titles WHERE id = $1)", id).Scan(&exists)
	return exists, err
}
