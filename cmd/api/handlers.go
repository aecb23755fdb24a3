package main

import (
	"net/http"

	"yamdb/proj/internal/domain/filters"
	"yamdb/proj/internal/lib/validator"

	"github.com/go-chi/render"
)

func (app *Application) healthcheck(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, struct {
		Status  string `json:"status"`
		Debug   bool   `json:"debug"`
		Version string `json:"version"`
	}{
		Status:  "available",
		Debug:   app.cfg.Debug,
		Version: version,
	})
}

// listQuery is the shared pagination/search query shape for list endpoints.
type listQuery struct {
	Page     int    `schema:"page" json:"page" validate:"omitempty,gte=1"`
	PageSize int    `schema:"page_size" json:"page_size" validate:"omitempty,gte=1,lte=100"`
	Search   string `schema:"search" json:"search" validate:"omitempty,max=256"`
}

func (q listQuery) filters() filters.Filters {
	return filters.New(q.Page, q.PageSize, "id", []string{"id"})
}

func (app *Application) calculateMetadata(totalRecords int, f filters.Filters) filters.Metadata {
	return filters.CalculateMetadata(totalRecords, f.Page, f.PageSize)
}

// parseListQuery decodes and validates pagination parameters, writing the
// error response itself when they are unusable.
func (app *Application) parseListQuery(w http.ResponseWriter, r *http.Request) (listQuery, bool) {
	var query listQuery
	if err := app.decodeQuery(r, &query); err != nil {
		app.Http.BadRequest(w, r, "invalid query parameters")
		return query, false
	}
	if validationErrs := validator.ValidateStruct(app.validator, query); validationErrs != nil {
		app.Http.UnprocessableEntity(w, r, validationErrs)
		return query, false
	}
	return query, true
}
