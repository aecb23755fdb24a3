package main

import (
	"log/slog"

	"yamdb/proj/internal/api/tasks"
	"yamdb/proj/internal/config"
	libvalidator "yamdb/proj/internal/lib/validator"
	"yamdb/proj/internal/services"
	"yamdb/proj/internal/storage/postgres"

	govalidator "github.com/go-playground/validator/v10"
	"github.com/gorilla/schema"
)

type Application struct {
	cfg          *config.Config
	log          *slog.Logger
	Http         *Http
	services     *services.Services
	validator    *govalidator.Validate
	queryDecoder *schema.Decoder
	bgTasks      *tasks.BackgroundTasks
}

func NewApplication(cfg *config.Config, log *slog.Logger, storage *postgres.Storage) *Application {
	bgTasks := tasks.New(log, cfg.BgTasks.MaxWorkers, cfg.BgTasks.MaxQueueSize)
	return newApplication(cfg, log, services.New(log, cfg, storage, bgTasks), bgTasks)
}

func newApplication(cfg *config.Config, log *slog.Logger, svcs *services.Services, bgTasks *tasks.BackgroundTasks) *Application {
	validator := govalidator.New(govalidator.WithRequiredStructEnabled())
	for tag, fn := range map[string]govalidator.Func{
		"username":  libvalidator.ValidateUsername,
		"titleyear": libvalidator.ValidateTitleYear,
		"slug":      libvalidator.ValidateSlug,
	} {
		if err := validator.RegisterValidation(tag, fn); err != nil {
			panic(err)
		}
	}
	queryDecoder := schema.NewDecoder()
	queryDecoder.IgnoreUnknownKeys(true)
	return &Application{
		cfg:          cfg,
		log:          log,
		validator:    validator,
		queryDecoder: queryDecoder,
		services:     svcs,
		bgTasks:      bgTasks,
		Http: &Http{
			log: log,
			cfg: cfg,
		},
	}
}
