package main

import (
	"errors"
	"net/http"

	"yamdb/proj/internal/lib/validator"
	"yamdb/proj/internal/services/titles"
	"yamdb/proj/internal/storage"
)

type titleListQuery struct {
	listQuery
	Category string `schema:"category" json:"category" validate:"omitempty,max=50"`
	Genre    string `schema:"genre" json:"genre" validate:"omitempty,max=50"`
	Name     string `schema:"name" json:"name" validate:"omitempty,max=256"`
	Year     int32  `schema:"year" json:"year" validate:"omitempty,titleyear"`
}

func (app *Application) listTitles(w http.ResponseWriter, r *http.Request) {
	var query titleListQuery
	if err := app.decodeQuery(r, &query); err != nil {
		app.Http.BadRequest(w, r, "invalid query parameters")
		return
	}
	if validationErrs := validator.ValidateStruct(app.validator, query); validationErrs != nil {
		app.Http.UnprocessableEntity(w, r, validationErrs)
		return
	}
	f := query.filters()
	titlesList, totalRecords, err := app.services.Titles.List(r.Context(), storage.TitleFilters{
		Category: query.Category,
		Genre:    query.Genre,
		Name:     query.Name,
		Year:     query.Year,
	}, f)
	if err != nil {
		app.Http.ServerError(w, r, err, "")
		return
	}
	metadata := app.calculateMetadata(totalRecords, f)
	app.Http.Ok(w, r, envelop{"titles": titlesList, "metadata": metadata}, "")
}

type createTitleInput struct {
	Name        string   `json:"name" validate:"required,max=256"`
	Year        int32    `json:"year" validate:"required,titleyear"`
	Description string   `json:"description"`
	Genre       []string `json:"genre" validate:"omitempty,dive,max=50"`
	Category    *string  `json:"category" validate:"omitempty,max=50"`
}

func (app *Application) createTitle(w http.ResponseWriter, r *http.Request) {
	var input createTitleInput
	if err := app.readJSON(w, r, &input); err != nil {
		app.Http.BadRequest(w, r, err.Error())
		return
	}
	if validationErrs := validator.ValidateStruct(app.validator, input); validationErrs != nil {
		app.Http.UnprocessableEntity(w, r, validationErrs)
		return
	}
	title, err := app.services.Titles.Create(r.Context(), titles.CreateParams{
		Name:        input.Name,
		Year:        input.Year,
		Description: input.Description,
		Category:    input.Category,
		Genres:      input.Genre,
	})
	if err != nil {
		if app.writeTitleRelationErr(w, r, err) {
			return
		}
		app.Http.ServerError(w, r, err, "")
		return
	}
	app.Http.Created(w, r, envelop{"title": title}, "")
}

func (app *Application) getTitle(w http.ResponseWriter, r *http.Request) {
	id, ok := app.extractIDParam(w, r, "title_id")
	if !ok {
		return
	}
	title, err := app.services.Titles.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, titles.ErrTitleNotFound) {
			app.Http.NotFound(w, r, err.Error())
			return
		}
		app.Http.ServerError(w, r, err, "")
		return
	}
	app.Http.Ok(w, r, envelop{"title": title}, "")
}

type updateTitleInput struct {
	Name        *string  `json:"name" validate:"omitempty,max=256"`
	Year        *int32   `json:"year" validate:"omitempty,titleyear"`
	Description *string  `json:"description"`
	Genre       []string `json:"genre" validate:"omitempty,dive,max=50"`
	Category    *string  `json:"category" validate:"omitempty,max=50"`
}

func (app *Application) updateTitle(w http.ResponseWriter, r *http.Request) {
	id, ok := app.extractIDParam(w, r, "title_id")
	if !ok {
		return
	}
	var input updateTitleInput
	if err := app.readJSON(w, r, &input); err != nil {
		app.Http.BadRequest(w, r, err.Error())
		return
	}
	if validationErrs := validator.ValidateStruct(app.validator, input); validationErrs != nil {
		app.Http.UnprocessableEntity(w, r, validationErrs)
		return
	}
	title, err := app.services.Titles.Update(r.Context(), id, titles.UpdateParams{
		Name:        input.Name,
		Year:        input.Year,
		Description: input.Description,
		Category:    input.Category,
		Genres:      input.Genre,
	})
	if err != nil {
		if errors.Is(err, titles.ErrTitleNotFound) {
			app.Http.NotFound(w, r, err.Error())
			return
		}
		if app.writeTitleRelationErr(w, r, err) {
			return
		}
		app.Http.ServerError(w, r, err, "")
		return
	}
	app.Http.Ok(w, r, envelop{"title": title}, "")
}

func (app *Application) deleteTitle(w http.ResponseWriter, r *http.Request) {
	id, ok := app.extractIDParam(w, r, "title_id")
	if !ok {
		return
	}
	if err := app.services.Titles.Delete(r.Context(), id); err != nil {
		if errors.Is(err, titles.ErrTitleNotFound) {
			app.Http.NotFound(w, r, err.Error())
			return
		}
		app.Http.ServerError(w, r, err, "")
		return
	}
	app.Http.NoContent(w, r, "")
}

// writeTitleRelationErr reports unknown category or genre slugs as field
// errors. Returns true when it handled the error.
func (app *Application) writeTitleRelationErr(w http.ResponseWriter, r *http.Request, err error) bool {
	switch {
	case errors.Is(err, titles.ErrCategoryNotFound):
		app.Http.UnprocessableEntity(w, r, map[string]string{"category": err.Error()})
	case errors.Is(err, titles.ErrGenreNotFound):
		app.Http.UnprocessableEntity(w, r, map[string]string{"genre": err.Error()})
	default:
		return false
	}
	return true
}
