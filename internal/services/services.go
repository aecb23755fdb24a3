package services

import (
	"log/slog"

	"yamdb/proj/internal/config"
	"yamdb/proj/internal/mails"
	"yamdb/proj/internal/services/auth"
	"yamdb/proj/internal/services/catalog"
	"yamdb/proj/internal/services/reviews"
	"yamdb/proj/internal/services/titles"
	"yamdb/proj/internal/services/users"
	"yamdb/proj/internal/storage/postgres"
	storagemodels "yamdb/proj/internal/storage/postgres/models"
)

type Services struct {
	Auth    *auth.AuthService
	Users   *users.UserService
	Catalog *catalog.CatalogService
	Titles  *titles.TitleService
	Reviews *reviews.ReviewService
}

func New(log *slog.Logger, cfg *config.Config, storage *postgres.Storage, taskExecutor auth.TaskExecutor) *Services {
	m := storagemodels.New(storage)
	mailer := mails.New(
		cfg.SMTPServer.Host,
		cfg.SMTPServer.Port,
		cfg.SMTPServer.Timeout,
		cfg.SMTPServer.Username,
		cfg.SMTPServer.Password,
		cfg.SMTPServer.Sender,
		cfg.SMTPServer.RetriesCount,
	)
	return &Services{
		Auth:    auth.New(log, m.Users, mailer, taskExecutor, cfg.AppSecret, cfg.TokenTTL),
		Users:   users.New(log, m.Users),
		Catalog: catalog.New(log, m.Categories, m.Genres),
		Titles:  titles.New(log, m.Titles, m.Categories, m.Genres),
		Reviews: reviews.New(log, m.Reviews, m.Comments, m.Titles),
	}
}
