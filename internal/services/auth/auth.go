package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"yamdb/proj/internal/domain/models"
	"yamdb/proj/internal/storage"
)

type UsersStorage interface {
	Get(ctx context.Context, params storage.GetUserParams) (*models.User, error)
	Insert(ctx context.Context, user *models.User) (*models.User, error)
}

type MailProvider interface {
	Send(recipient string, tmplName string, tmplData any) error
}

type TaskExecutor interface {
	Add(task func())
}

type AuthService struct {
	log          *slog.Logger
	storage      UsersStorage
	Mailer       MailProvider
	taskExecutor TaskExecutor
	secret       string
	tokenTTL     time.Duration
}

func New(
	log *slog.Logger,
	storage UsersStorage,
	mailer MailProvider,
	taskExecutor TaskExecutor,
	secret string,
	tokenTTL time.Duration,
) *AuthService {
	return &AuthService{
		log:          log,
		storage:      storage,
		Mailer:       mailer,
		taskExecutor: taskExecutor,
		secret:       secret,
		tokenTTL:     tokenTTL,
	}
}

// Signup gets or creates the user for the (username, email) pair and queues
// a confirmation-code email. The code itself never appears in the response
// path.
func (a *AuthService) Signup(ctx context.Context, username, email string) (*models.User, error) {
	const op = "auth.AuthService.Signup"
	log := a.log.With("op", op, "username", username)
	user, err := a.storage.Get(ctx, storage.GetUserParams{Username: username, Email: email})
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			log.Error(err.Error())
			return nil, err
		}
		user, err = a.storage.Insert(ctx, &models.User{
			Username: username,
			Email:    email,
			Role:     models.RoleUser,
		})
		if err != nil {
			if errors.Is(err, storage.ErrConflict) {
				// The pair didn't match an existing record, so one of the two
				// fields is taken by somebody else.
				_, usernameErr := a.storage.Get(ctx, storage.GetUserParams{Username: username})
				switch {
				case usernameErr == nil:
					return nil, ErrUsernameTaken
				case errors.Is(usernameErr, storage.ErrNotFound):
					return nil, ErrEmailTaken
				default:
					log.Error(usernameErr.Error())
					return nil, usernameErr
				}
			}
			log.Error(err.Error())
			return nil, err
		}
		log.Info("user created", "user_id", user.ID)
	}
	code := a.ConfirmationCode(user)
	recipient := user.Email
	usernameCopy := user.Username
	a.taskExecutor.Add(func() {
		a.sendConfirmationEmail(recipient, usernameCopy, code)
	})
	return user, nil
}

func (a *AuthService) sendConfirmationEmail(email, username, code string) {
	a.log.Info("sending confirmation code email", "email", email)
	err := a.Mailer.Send(
		email,
		"confirmation_code.html",
		map[string]any{
			"Username":         username,
			"ConfirmationCode": code,
		})
	if err != nil {
		a.log.Error("Error sending confirmation code email", "errMsg", err.Error())
	}
}

// Token exchanges a confirmation code for a signed access token.
func (a *AuthService) Token(ctx context.Context, username, confirmationCode string) (string, error) {
	const op = "auth.AuthService.Token"
	log := a.log.With("op", op, "username", username)
	user, err := a.storage.Get(ctx, storage.GetUserParams{Username: username})
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			log.Info("user not found")
			return "", ErrUserNotFound
		}
		log.Error(err.Error())
		return "", err
	}
	if !a.CheckConfirmationCode(user, confirmationCode) {
		log.Warn("invalid confirmation code")
		return "", ErrInvalidConfirmationCode
	}
	return a.newAccessToken(user)
}

func (a *AuthService) GetUser(ctx context.Context, id int64) (*models.User, error) {
	user, err := a.storage.Get(ctx, storage.GetUserParams{ID: id})
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}
