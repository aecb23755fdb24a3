package main

import (
	"errors"
	"net/http"

	"yamdb/proj/internal/lib/validator"
	"yamdb/proj/internal/services/auth"
)

type signupInput struct {
	Username string `json:"username" validate:"required,max=191,username" errorMsg:"Username must contain only letters, digits and @/./+/-/_ and must not be 'me'"`
	Email    string `json:"email" validate:"required,email,max=254"`
}

// signup requests a confirmation code. The code goes to the email address,
// the response only echoes the validated input.
func (app *Application) signup(w http.ResponseWriter, r *http.Request) {
	var input signupInput
	if err := app.readJSON(w, r, &input); err != nil {
		app.Http.BadRequest(w, r, err.Error())
		return
	}
	if validationErrs := validator.ValidateStruct(app.validator, input); validationErrs != nil {
		app.Http.UnprocessableEntity(w, r, validationErrs)
		return
	}
	user, err := app.services.Auth.Signup(r.Context(), input.Username, input.Email)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrUsernameTaken):
			app.Http.UnprocessableEntity(w, r, map[string]string{"username": err.Error()})
		case errors.Is(err, auth.ErrEmailTaken):
			app.Http.UnprocessableEntity(w, r, map[string]string{"email": err.Error()})
		default:
			app.Http.ServerError(w, r, err, "")
		}
		return
	}
	app.Http.Ok(w, r, envelop{"username": user.Username, "email": user.Email}, "Confirmation code sent")
}

type tokenInput struct {
	Username         string `json:"username" validate:"required"`
	ConfirmationCode string `json:"confirmation_code" validate:"required"`
}

// token exchanges a confirmation code for an access token.
func (app *Application) token(w http.ResponseWriter, r *http.Request) {
	var input tokenInput
	if err := app.readJSON(w, r, &input); err != nil {
		app.Http.BadRequest(w, r, err.Error())
		return
	}
	if validationErrs := validator.ValidateStruct(app.validator, input); validationErrs != nil {
		app.Http.UnprocessableEntity(w, r, validationErrs)
		return
	}
	token, err := app.services.Auth.Token(r.Context(), input.Username, input.ConfirmationCode)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrUserNotFound):
			app.Http.NotFound(w, r, err.Error())
		case errors.Is(err, auth.ErrInvalidConfirmationCode):
			app.Http.UnprocessableEntity(w, r, map[string]string{"confirmation_code": "Invalid confirmation code"})
		default:
			app.Http.ServerError(w, r, err, "")
		}
		return
	}
	app.Http.Ok(w, r, envelop{"token": token}, "")
}
