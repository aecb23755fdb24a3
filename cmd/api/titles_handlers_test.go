package main

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"yamdb/proj/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (a *testApp) seedCatalog(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	_, err := a.categories.Insert(ctx, "Movies", "movies")
	require.NoError(t, err)
	_, err = a.categories.Insert(ctx, "Books", "books")
	require.NoError(t, err)
	_, err = a.genres.Insert(ctx, "Drama", "drama")
	require.NoError(t, err)
	_, err = a.genres.Insert(ctx, "Comedy", "comedy")
	require.NoError(t, err)
}

func TestCreateTitle(t *testing.T) {
	t.Run("admin creates a title with relations", func(t *testing.T) {
		app := newTestApplication(t)
		app.seedCatalog(t)
		admin := app.seedUser(t, "boss", models.RoleAdmin)
		rec, parsed := app.do(t, http.MethodPost, "/api/v1/titles/", app.tokenFor(t, admin), map[string]any{
			"name":     "Interstellar",
			"year":     2014,
			"category": "movies",
			"genre":    []string{"drama"},
		})
		require.Equal(t, http.StatusCreated, rec.Code)
		title, ok := dataField(t, parsed, "title").(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "Interstellar", title["name"])
		assert.Equal(t, "not provided", title["description"])
		assert.Nil(t, title["rating"])
		category, ok := title["category"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "movies", category["slug"])
	})
	t.Run("authorization matrix", func(t *testing.T) {
		app := newTestApplication(t)
		app.seedCatalog(t)
		plain := app.seedUser(t, "plain", models.RoleUser)
		moderator := app.seedUser(t, "mod", models.RoleModerator)
		body := map[string]any{"name": "Interstellar", "year": 2014}

		rec, _ := app.do(t, http.MethodPost, "/api/v1/titles/", "", body)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)

		rec, _ = app.do(t, http.MethodPost, "/api/v1/titles/", app.tokenFor(t, plain), body)
		assert.Equal(t, http.StatusForbidden, rec.Code)

		rec, _ = app.do(t, http.MethodPost, "/api/v1/titles/", app.tokenFor(t, moderator), body)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
	t.Run("future year is rejected", func(t *testing.T) {
		app := newTestApplication(t)
		admin := app.seedUser(t, "boss", models.RoleAdmin)
		rec, parsed := app.do(t, http.MethodPost, "/api/v1/titles/", app.tokenFor(t, admin), map[string]any{
			"name": "From the future",
			"year": time.Now().Year() + 1,
		})
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		errs, ok := dataField(t, parsed, "errors").(map[string]any)
		require.True(t, ok)
		assert.Contains(t, errs, "year")
	})
	t.Run("ancient year is accepted", func(t *testing.T) {
		app := newTestApplication(t)
		admin := app.seedUser(t, "boss", models.RoleAdmin)
		rec, _ := app.do(t, http.MethodPost, "/api/v1/titles/", app.tokenFor(t, admin), map[string]any{
			"name": "The Odyssey",
			"year": -800,
		})
		assert.Equal(t, http.StatusCreated, rec.Code)
	})
	t.Run("unknown category slug is a field error", func(t *testing.T) {
		app := newTestApplication(t)
		app.seedCatalog(t)
		admin := app.seedUser(t, "boss", models.RoleAdmin)
		rec, parsed := app.do(t, http.MethodPost, "/api/v1/titles/", app.tokenFor(t, admin), map[string]any{
			"name":     "Interstellar",
			"year":     2014,
			"category": "games",
		})
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		errs, ok := dataField(t, parsed, "errors").(map[string]any)
		require.True(t, ok)
		assert.Contains(t, errs, "category")
	})
	t.Run("unknown genre slug is a field error", func(t *testing.T) {
		app := newTestApplication(t)
		app.seedCatalog(t)
		admin := app.seedUser(t, "boss", models.RoleAdmin)
		rec, parsed := app.do(t, http.MethodPost, "/api/v1/titles/", app.tokenFor(t, admin), map[string]any{
			"name":  "Interstellar",
			"year":  2014,
			"genre": []string{"drama", "horror"},
		})
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		errs, ok := dataField(t, parsed, "errors").(map[string]any)
		require.True(t, ok)
		assert.Contains(t, errs, "genre")
	})
}

func TestListTitles(t *testing.T) {
	app := newTestApplication(t)
	app.seedCatalog(t)
	admin := app.seedUser(t, "boss", models.RoleAdmin)
	token := app.tokenFor(t, admin)
	for _, body := range []map[string]any{
		{"name": "Interstellar", "year": 2014, "category": "movies", "genre": []string{"drama"}},
		{"name": "The Hobbit", "year": 1937, "category": "books", "genre": []string{"drama"}},
		{"name": "Airplane!", "year": 1980, "category": "movies", "genre": []string{"comedy"}},
	} {
		rec, _ := app.do(t, http.MethodPost, "/api/v1/titles/", token, body)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	cases := []struct {
		name  string
		query string
		want  int
	}{
		{"no filter", "", 3},
		{"by category", "?category=movies", 2},
		{"by genre", "?genre=drama", 2},
		{"by year", "?year=1937", 1},
		{"by name", "?name=Airplane!", 1},
		{"combined", "?category=movies&genre=comedy", 1},
		{"no match", "?category=books&genre=comedy", 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, parsed := app.do(t, http.MethodGet, "/api/v1/titles/"+tc.query, "", nil)
			require.Equal(t, http.StatusOK, rec.Code)
			titles, _ := dataField(t, parsed, "titles").([]any)
			assert.Len(t, titles, tc.want)
		})
	}
	t.Run("pagination metadata", func(t *testing.T) {
		rec, parsed := app.do(t, http.MethodGet, "/api/v1/titles/?page=1&page_size=2", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		titles, _ := dataField(t, parsed, "titles").([]any)
		assert.Len(t, titles, 2)
		metadata, ok := dataField(t, parsed, "metadata").(map[string]any)
		require.True(t, ok)
		assert.Equal(t, float64(3), metadata["total_records"])
		assert.Equal(t, float64(2), metadata["last_page"])
	})
}

func TestGetTitle(t *testing.T) {
	app := newTestApplication(t)
	app.seedCatalog(t)
	admin := app.seedUser(t, "boss", models.RoleAdmin)
	rec, parsed := app.do(t, http.MethodPost, "/api/v1/titles/", app.tokenFor(t, admin), map[string]any{
		"name": "Interstellar", "year": 2014, "category": "movies",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	created, _ := dataField(t, parsed, "title").(map[string]any)
	id := int64(created["id"].(float64))

	rec, parsed = app.do(t, http.MethodGet, fmt.Sprintf("/api/v1/titles/%d/", id), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	title, ok := dataField(t, parsed, "title").(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Interstellar", title["name"])

	rec, _ = app.do(t, http.MethodGet, "/api/v1/titles/99999/", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = app.do(t, http.MethodGet, "/api/v1/titles/abc/", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTitleRating(t *testing.T) {
	app := newTestApplication(t)
	titleID := app.seedTitle(t, "Interstellar")
	path := fmt.Sprintf("/api/v1/titles/%d/", titleID)

	getRating := func(t *testing.T) any {
		t.Helper()
		rec, parsed := app.do(t, http.MethodGet, path, "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		title, ok := dataField(t, parsed, "title").(map[string]any)
		require.True(t, ok)
		return title["rating"]
	}

	assert.Nil(t, getRating(t))

	first := app.seedUser(t, "first", models.RoleUser)
	rec, _ := app.do(t, http.MethodPost, fmt.Sprintf("/api/v1/titles/%d/reviews/", titleID), app.tokenFor(t, first), map[string]any{
		"text": "good", "score": 6,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, float64(6), getRating(t))

	second := app.seedUser(t, "second", models.RoleUser)
	rec, _ = app.do(t, http.MethodPost, fmt.Sprintf("/api/v1/titles/%d/reviews/", titleID), app.tokenFor(t, second), map[string]any{
		"text": "great", "score": 9,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 7.5, getRating(t))

	t.Run("listing carries the rating", func(t *testing.T) {
		rec, parsed := app.do(t, http.MethodGet, "/api/v1/titles/", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		titles, _ := dataField(t, parsed, "titles").([]any)
		require.Len(t, titles, 1)
		title, ok := titles[0].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, 7.5, title["rating"])
	})
}

func TestUpdateTitle(t *testing.T) {
	setup := func(t *testing.T) (*testApp, string, int64) {
		app := newTestApplication(t)
		app.seedCatalog(t)
		admin := app.seedUser(t, "boss", models.RoleAdmin)
		token := app.tokenFor(t, admin)
		rec, parsed := app.do(t, http.MethodPost, "/api/v1/titles/", token, map[string]any{
			"name": "Interstellar", "year": 2014, "category": "movies", "genre": []string{"drama"},
		})
		require.Equal(t, http.StatusCreated, rec.Code)
		created, _ := dataField(t, parsed, "title").(map[string]any)
		return app, token, int64(created["id"].(float64))
	}
	t.Run("partial update keeps omitted fields", func(t *testing.T) {
		app, token, id := setup(t)
		rec, parsed := app.do(t, http.MethodPatch, fmt.Sprintf("/api/v1/titles/%d/", id), token, map[string]any{
			"description": "a space odyssey",
		})
		require.Equal(t, http.StatusOK, rec.Code)
		title, _ := dataField(t, parsed, "title").(map[string]any)
		assert.Equal(t, "a space odyssey", title["description"])
		assert.Equal(t, "Interstellar", title["name"])
		genres, _ := title["genre"].([]any)
		assert.Len(t, genres, 1)
	})
	t.Run("empty genre list clears the set", func(t *testing.T) {
		app, token, id := setup(t)
		rec, parsed := app.do(t, http.MethodPatch, fmt.Sprintf("/api/v1/titles/%d/", id), token, map[string]any{
			"genre": []string{},
		})
		require.Equal(t, http.StatusOK, rec.Code)
		title, _ := dataField(t, parsed, "title").(map[string]any)
		genres, _ := title["genre"].([]any)
		assert.Empty(t, genres)
	})
	t.Run("requires admin", func(t *testing.T) {
		app, _, id := setup(t)
		plain := app.seedUser(t, "plain", models.RoleUser)
		rec, _ := app.do(t, http.MethodPatch, fmt.Sprintf("/api/v1/titles/%d/", id), app.tokenFor(t, plain), map[string]any{
			"name": "renamed",
		})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestDeleteTitle(t *testing.T) {
	app := newTestApplication(t)
	app.seedCatalog(t)
	admin := app.seedUser(t, "boss", models.RoleAdmin)
	token := app.tokenFor(t, admin)
	rec, parsed := app.do(t, http.MethodPost, "/api/v1/titles/", token, map[string]any{
		"name": "Interstellar", "year": 2014,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	created, _ := dataField(t, parsed, "title").(map[string]any)
	id := int64(created["id"].(float64))

	rec, _ = app.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/titles/%d/", id), token, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec, _ = app.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/titles/%d/", id), token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
