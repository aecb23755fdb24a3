package main

import (
	"net/http"

	"yamdb/proj/internal/domain/permissions"
	"yamdb/proj/internal/lib/validator"
)

// commentIDs extracts the title/review (and optionally comment) path params.
func (app *Application) commentIDs(w http.ResponseWriter, r *http.Request, withComment bool) (titleID, reviewID, commentID int64, ok bool) {
	titleID, ok = app.extractIDParam(w, r, "title_id")
	if !ok {
		return
	}
	reviewID, ok = app.extractIDParam(w, r, "review_id")
	if !ok {
		return
	}
	if withComment {
		commentID, ok = app.extractIDParam(w, r, "comment_id")
	}
	return
}

func (app *Application) listComments(w http.ResponseWriter, r *http.Request) {
	titleID, reviewID, _, ok := app.commentIDs(w, r, false)
	if !ok {
		return
	}
	query, ok := app.parseListQuery(w, r)
	if !ok {
		return
	}
	f := query.filters()
	comments, totalRecords, err := app.services.Reviews.ListComments(r.Context(), titleID, reviewID, f)
	if err != nil {
		if app.writeReviewLookupErr(w, r, err) {
			return
		}
		app.Http.ServerError(w, r, err, "")
		return
	}
	metadata := app.calculateMetadata(totalRecords, f)
	app.Http.Ok(w, r, envelop{"comments": comments, "metadata": metadata}, "")
}

type commentInput struct {
	Text string `json:"text" validate:"required"`
}

func (app *Application) createComment(w http.ResponseWriter, r *http.Request) {
	titleID, reviewID, _, ok := app.commentIDs(w, r, false)
	if !ok {
		return
	}
	var input commentInput
	if err := app.readJSON(w, r, &input); err != nil {
		app.Http.BadRequest(w, r, err.Error())
		return
	}
	if validationErrs := validator.ValidateStruct(app.validator, input); validationErrs != nil {
		app.Http.UnprocessableEntity(w, r, validationErrs)
		return
	}
	user := app.contextUser(r)
	comment, err := app.services.Reviews.CreateComment(r.Context(), titleID, reviewID, user.ID, input.Text)
	if err != nil {
		if app.writeReviewLookupErr(w, r, err) {
			return
		}
		app.Http.ServerError(w, r, err, "")
		return
	}
	app.Http.Created(w, r, envelop{"comment": comment}, "")
}

func (app *Application) getComment(w http.ResponseWriter, r *http.Request) {
	titleID, reviewID, commentID, ok := app.commentIDs(w, r, true)
	if !ok {
		return
	}
	comment, err := app.services.Reviews.GetComment(r.Context(), titleID, reviewID, commentID)
	if err != nil {
		if app.writeReviewLookupErr(w, r, err) {
			return
		}
		app.Http.ServerError(w, r, err, "")
		return
	}
	app.Http.Ok(w, r, envelop{"comment": comment}, "")
}

func (app *Application) updateComment(w http.ResponseWriter, r *http.Request) {
	titleID, reviewID, commentID, ok := app.commentIDs(w, r, true)
	if !ok {
		return
	}
	var input commentInput
	if err := app.readJSON(w, r, &input); err != nil {
		app.Http.BadRequest(w, r, err.Error())
		return
	}
	if validationErrs := validator.ValidateStruct(app.validator, input); validationErrs != nil {
		app.Http.UnprocessableEntity(w, r, validationErrs)
		return
	}
	comment, err := app.services.Reviews.GetComment(r.Context(), titleID, reviewID, commentID)
	if err != nil {
		if app.writeReviewLookupErr(w, r, err) {
			return
		}
		app.Http.ServerError(w, r, err, "")
		return
	}
	if !permissions.CanEditAuthored(app.contextUser(r), comment.AuthorID) {
		app.Http.Forbidden(w, r, "You don't have permission to edit this comment")
		return
	}
	updated, err := app.services.Reviews.UpdateComment(r.Context(), titleID, reviewID, commentID, input.Text)
	if err != nil {
		if app.writeReviewLookupErr(w, r, err) {
			return
		}
		app.Http.ServerError(w, r, err, "")
		return
	}
	app.Http.Ok(w, r, envelop{"comment": updated}, "")
}

func (app *Application) deleteComment(w http.ResponseWriter, r *http.Request) {
	titleID, reviewID, commentID, ok := app.commentIDs(w, r, true)
	if !ok {
		return
	}
	comment, err := app.services.Reviews.GetComment(r.Context(), titleID, reviewID, commentID)
	if err != nil {
		if app.writeReviewLookupErr(w, r, err) {
			return
		}
		app.Http.ServerError(w, r, err, "")
		return
	}
	if !permissions.CanEditAuthored(app.contextUser(r), comment.AuthorID) {
		app.Http.Forbidden(w, r, "You don't have permission to delete this comment")
		return
	}
	if err := app.services.Reviews.DeleteComment(r.Context(), titleID, reviewID, commentID); err != nil {
		if app.writeReviewLookupErr(w, r, err) {
			return
		}
		app.Http.ServerError(w, r, err, "")
		return
	}
	app.Http.NoContent(w, r, "")
}
