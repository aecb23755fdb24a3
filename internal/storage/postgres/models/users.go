package models

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"yamdb/proj/internal/domain/filters"
	"yamdb/proj/internal/domain/models"
	"yamdb/proj/internal/storage"
	"yamdb/proj/internal/storage/postgres"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserModel struct {
	DB *pgxpool.Pool
}

const userColumns = "id, username, email, first_name, last_name, bio, role, is_superuser, created_at, updated_at"

func (m *UserModel) Get(ctx context.Context, params storage.GetUserParams) (*models.User, error) {
	var conditions []string
	var args []any
	if params.ID != 0 {
		args = append(args, params.ID)
		conditions = append(conditions, fmt.Sprintf("id = $%d", len(args)))
	}
	if params.Username != "" {
		args = append(args, params.Username)
		conditions = append(conditions, fmt.Sprintf("username = $%d", len(args)))
	}
	if params.Email != "" {
		args = append(args, params.Email)
		conditions = append(conditions, fmt.Sprintf("email = $%d", len(args)))
	}
	if len(conditions) == 0 {
		return nil, errors.New("get user: no lookup params provided")
	}
	query := fmt.Sprintf(
		"SELECT %s FROM users WHERE %s", userColumns, strings.Join(conditions, " AND "),
	)
	rows, err := m.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	user, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[models.User])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (m *UserModel) Insert(ctx context.Context, user *models.User) (*models.User, error) {
	rows, _ := m.DB.Query(
		ctx,
		`INSERT INTO users (username, email, first_name, last_name, bio, role)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING `+userColumns,
		user.Username,
		user.Email,
		user.FirstName,
		user.LastName,
		user.Bio,
		user.Role,
	)
	created, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[models.User])
	if err != nil {
		var pgxErr *pgconn.PgError
		if errors.As(err, &pgxErr) && pgxErr.Code == postgres.ErrConflictCode {
			return nil, storage.ErrConflict
		}
		return nil, err
	}
	return &created, nil
}

func (m *UserModel) List(ctx context.Context, search string, f filters.Filters) ([]models.User, int, error) {
	query := fmt.Sprintf(`
	SELECT count(*) OVER(), %s FROM users
	WHERE (username ILIKE '%%' || $1 || '%%' OR $1 = '')
	ORDER BY username ASC, id ASC
	LIMIT $2 OFFSET $3`, userColumns)
	rows, _ := m.DB.Query(ctx, query, escapeLike(search), f.Limit(), f.Offset())
	type row struct {
		Count int
		models.User
	}
	outputRows, err := pgx.CollectRows(rows, pgx.RowToStructByName[row])
	if err != nil {
		return nil, 0, err
	}
	if len(outputRows) == 0 {
		return []models.User{}, 0, nil
	}
	users := make([]models.User, 0, len(outputRows))
	for _, row := range outputRows {
		users = append(users, row.User)
	}
	return users, outputRows[0].Count, nil
}

func (m *UserModel) Update(ctx context.Context, user *models.User) (*models.User, error) {
	rows, _ := m.DB.Query(
		ctx,
		`UPDATE users SET username = $1, email = $2, first_name = $3, last_name = $4,
		bio = $5, role = $6, updated_at = now()
		WHERE id = $7 RETURNING `+userColumns,
		user.Username,
		user.Email,
		user.FirstName,
		user.LastName,
		user.Bio,
		user.Role,
		user.ID,
	)
	updated, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[models.User])
	if err != nil {
		var pgxErr *pgconn.PgError
		switch {
		case errors.As(err, &pgxErr) && pgxErr.Code == postgres.ErrConflictCode:
			return nil, storage.ErrConflict
		case errors.Is(err, pgx.ErrNoRows):
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	return &updated, nil
}

func (m *UserModel) Delete(ctx context.Context, username string) error {
	status, err := m.DB.Exec(ctx, "DELETE FROM users WHERE username = $1", username)
	if err != nil {
		return err
	}
	if status.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}
