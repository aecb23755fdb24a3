package main

import (
	"errors"
	"net/http"

	"yamdb/proj/internal/domain/models"
	"yamdb/proj/internal/domain/permissions"
	"yamdb/proj/internal/lib/validator"
	"yamdb/proj/internal/services/users"

	"github.com/go-chi/chi/v5"
)

func (app *Application) listUsers(w http.ResponseWriter, r *http.Request) {
	query, ok := app.parseListQuery(w, r)
	if !ok {
		return
	}
	f := query.filters()
	usersList, totalRecords, err := app.services.Users.List(r.Context(), query.Search, f)
	if err != nil {
		app.Http.ServerError(w, r, err, "")
		return
	}
	metadata := app.calculateMetadata(totalRecords, f)
	app.Http.Ok(w, r, envelop{"users": usersList, "metadata": metadata}, "")
}

type createUserInput struct {
	Username  string      `json:"username" validate:"required,max=191,username" errorMsg:"Username must contain only letters, digits and @/./+/-/_ and must not be 'me'"`
	Email     string      `json:"email" validate:"required,email,max=254"`
	FirstName string      `json:"first_name" validate:"omitempty,max=150"`
	LastName  string      `json:"last_name" validate:"omitempty,max=150"`
	Bio       string      `json:"bio"`
	Role      models.Role `json:"role" validate:"omitempty,oneof=user moderator admin"`
}

func (app *Application) createUser(w http.ResponseWriter, r *http.Request) {
	var input createUserInput
	if err := app.readJSON(w, r, &input); err != nil {
		app.Http.BadRequest(w, r, err.Error())
		return
	}
	if validationErrs := validator.ValidateStruct(app.validator, input); validationErrs != nil {
		app.Http.UnprocessableEntity(w, r, validationErrs)
		return
	}
	user, err := app.services.Users.Create(r.Context(), &models.User{
		Username:  input.Username,
		Email:     input.Email,
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Bio:       input.Bio,
		Role:      input.Role,
	})
	if err != nil {
		if errors.Is(err, users.ErrUserAlreadyExists) {
			app.Http.Conflict(w, r, err.Error())
			return
		}
		app.Http.ServerError(w, r, err, "")
		return
	}
	app.Http.Created(w, r, envelop{"user": user}, "")
}

func (app *Application) getUser(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	user, err := app.services.Users.Get(r.Context(), username)
	if err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			app.Http.NotFound(w, r, err.Error())
			return
		}
		app.Http.ServerError(w, r, err, "")
		return
	}
	app.Http.Ok(w, r, envelop{"user": user}, "")
}

type updateUserInput struct {
	Email     *string      `json:"email" validate:"omitempty,email,max=254"`
	FirstName *string      `json:"first_name" validate:"omitempty,max=150"`
	LastName  *string      `json:"last_name" validate:"omitempty,max=150"`
	Bio       *string      `json:"bio"`
	Role      *models.Role `json:"role" validate:"omitempty,oneof=user moderator admin"`
}

func (app *Application) updateUser(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	var input updateUserInput
	if err := app.readJSON(w, r, &input); err != nil {
		app.Http.BadRequest(w, r, err.Error())
		return
	}
	if validationErrs := validator.ValidateStruct(app.validator, input); validationErrs != nil {
		app.Http.UnprocessableEntity(w, r, validationErrs)
		return
	}
	user, err := app.services.Users.Update(r.Context(), username, users.UpdateParams{
		Email:     input.Email,
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Bio:       input.Bio,
		Role:      input.Role,
	})
	if err != nil {
		switch {
		case errors.Is(err, users.ErrUserNotFound):
			app.Http.NotFound(w, r, err.Error())
		case errors.Is(err, users.ErrUserAlreadyExists):
			app.Http.Conflict(w, r, err.Error())
		default:
			app.Http.ServerError(w, r, err, "")
		}
		return
	}
	app.Http.Ok(w, r, envelop{"user": user}, "")
}

func (app *Application) deleteUser(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	if err := app.services.Users.Delete(r.Context(), username); err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			app.Http.NotFound(w, r, err.Error())
			return
		}
		app.Http.ServerError(w, r, err, "")
		return
	}
	app.Http.NoContent(w, r, "")
}

func (app *Application) getOwnProfile(w http.ResponseWriter, r *http.Request) {
	app.Http.Ok(w, r, envelop{"user": app.contextUser(r)}, "")
}

// updateOwnProfile lets any authenticated user edit their profile. A role
// change is only honored when the requester already has elevated rights.
func (app *Application) updateOwnProfile(w http.ResponseWriter, r *http.Request) {
	user := app.contextUser(r)
	var input updateUserInput
	if err := app.readJSON(w, r, &input); err != nil {
		app.Http.BadRequest(w, r, err.Error())
		return
	}
	if validationErrs := validator.ValidateStruct(app.validator, input); validationErrs != nil {
		app.Http.UnprocessableEntity(w, r, validationErrs)
		return
	}
	if input.Role != nil {
		sanitized := permissions.SanitizeRoleChange(user, *input.Role)
		input.Role = &sanitized
	}
	updated, err := app.services.Users.Update(r.Context(), user.Username, users.UpdateParams{
		Email:     input.Email,
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Bio:       input.Bio,
		Role:      input.Role,
	})
	if err != nil {
		switch {
		case errors.Is(err, users.ErrUserNotFound):
			app.Http.NotFound(w, r, err.Error())
		case errors.Is(err, users.ErrUserAlreadyExists):
			app.Http.Conflict(w, r, err.Error())
		default:
			app.Http.ServerError(w, r, err, "")
		}
		return
	}
	app.Http.Ok(w, r, envelop{"user": updated}, "")
}
