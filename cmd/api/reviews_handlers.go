package main

import (
	"errors"
	"net/http"

	"yamdb/proj/internal/domain/permissions"
	"yamdb/proj/internal/lib/validator"
	"yamdb/proj/internal/services/reviews"
)

func (app *Application) listReviews(w http.ResponseWriter, r *http.Request) {
	titleID, ok := app.extractIDParam(w, r, "title_id")
	if !ok {
		return
	}
	query, ok := app.parseListQuery(w, r)
	if !ok {
		return
	}
	f := query.filters()
	reviewsList, totalRecords, err := app.services.Reviews.List(r.Context(), titleID, f)
	if err != nil {
		if errors.Is(err, reviews.ErrTitleNotFound) {
			app.Http.NotFound(w, r, err.Error())
			return
		}
		app.Http.ServerError(w, r, err, "")
		return
	}
	metadata := app.calculateMetadata(totalRecords, f)
	app.Http.Ok(w, r, envelop{"reviews": reviewsList, "metadata": metadata}, "")
}

type createReviewInput struct {
	Text  string `json:"text" validate:"required"`
	Score int32  `json:"score" validate:"required,gte=1,lte=10" errorMsg:"Score must be between 1 and 10"`
}

func (app *Application) createReview(w http.ResponseWriter, r *http.Request) {
	titleID, ok := app.extractIDParam(w, r, "title_id")
	if !ok {
		return
	}
	var input createReviewInput
	if err := app.readJSON(w, r, &input); err != nil {
		app.Http.BadRequest(w, r, err.Error())
		return
	}
	if validationErrs := validator.ValidateStruct(app.validator, input); validationErrs != nil {
		app.Http.UnprocessableEntity(w, r, validationErrs)
		return
	}
	user := app.contextUser(r)
	review, err := app.services.Reviews.Create(r.Context(), titleID, user.ID, input.Text, input.Score)
	if err != nil {
		switch {
		case errors.Is(err, reviews.ErrTitleNotFound):
			app.Http.NotFound(w, r, err.Error())
		case errors.Is(err, reviews.ErrDuplicateReview):
			app.Http.Conflict(w, r, err.Error())
		default:
			app.Http.ServerError(w, r, err, "")
		}
		return
	}
	app.Http.Created(w, r, envelop{"review": review}, "")
}

func (app *Application) getReview(w http.ResponseWriter, r *http.Request) {
	titleID, ok := app.extractIDParam(w, r, "title_id")
	if !ok {
		return
	}
	reviewID, ok := app.extractIDParam(w, r, "review_id")
	if !ok {
		return
	}
	review, err := app.services.Reviews.Get(r.Context(), titleID, reviewID)
	if err != nil {
		if app.writeReviewLookupErr(w, r, err) {
			return
		}
		app.Http.ServerError(w, r, err, "")
		return
	}
	app.Http.Ok(w, r, envelop{"review": review}, "")
}

type updateReviewInput struct {
	Text  *string `json:"text" validate:"omitempty,min=1"`
	Score *int32  `json:"score" validate:"omitempty,gte=1,lte=10" errorMsg:"Score must be between 1 and 10"`
}

func (app *Application) updateReview(w http.ResponseWriter, r *http.Request) {
	titleID, ok := app.extractIDParam(w, r, "title_id")
	if !ok {
		return
	}
	reviewID, ok := app.extractIDParam(w, r, "review_id")
	if !ok {
		return
	}
	var input updateReviewInput
	if err := app.readJSON(w, r, &input); err != nil {
		app.Http.BadRequest(w, r, err.Error())
		return
	}
	if validationErrs := validator.ValidateStruct(app.validator, input); validationErrs != nil {
		app.Http.UnprocessableEntity(w, r, validationErrs)
		return
	}
	review, err := app.services.Reviews.Get(r.Context(), titleID, reviewID)
	if err != nil {
		if app.writeReviewLookupErr(w, r, err) {
			return
		}
		app.Http.ServerError(w, r, err, "")
		return
	}
	if !permissions.CanEditAuthored(app.contextUser(r), review.AuthorID) {
		app.Http.Forbidden(w, r, "You don't have permission to edit this review")
		return
	}
	updated, err := app.services.Reviews.Update(r.Context(), titleID, reviewID, reviews.UpdateReviewParams{
		Text:  input.Text,
		Score: input.Score,
	})
	if err != nil {
		if app.writeReviewLookupErr(w, r, err) {
			return
		}
		app.Http.ServerError(w, r, err, "")
		return
	}
	app.Http.Ok(w, r, envelop{"review": updated}, "")
}

func (app *Application) deleteReview(w http.ResponseWriter, r *http.Request) {
	titleID, ok := app.extractIDParam(w, r, "title_id")
	if !ok {
		return
	}
	reviewID, ok := app.extractIDParam(w, r, "review_id")
	if !ok {
		return
	}
	review, err := app.services.Reviews.Get(r.Context(), titleID, reviewID)
	if err != nil {
		if app.writeReviewLookupErr(w, r, err) {
			return
		}
		app.Http.ServerError(w, r, err, "")
		return
	}
	if !permissions.CanEditAuthored(app.contextUser(r), review.AuthorID) {
		app.Http.Forbidden(w, r, "You don't have permission to delete this review")
		return
	}
	if err := app.services.Reviews.Delete(r.Context(), titleID, reviewID); err != nil {
		if app.writeReviewLookupErr(w, r, err) {
			return
		}
		app.Http.ServerError(w, r, err, "")
		return
	}
	app.Http.NoContent(w, r, "")
}

// writeReviewLookupErr maps missing title/review/comment in the resource
// chain to a 404. Returns true when it handled the error.
func (app *Application) writeReviewLookupErr(w http.ResponseWriter, r *http.Request, err error) bool {
	switch {
	case errors.Is(err, reviews.ErrTitleNotFound),
		errors.Is(err, reviews.ErrReviewNotFound),
		errors.Is(err, reviews.ErrCommentNotFound):
		app.Http.NotFound(w, r, err.Error())
		return true
	}
	return false
}
