package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func (app *Application) routes() http.Handler {
	router := chi.NewRouter()
	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		app.Http.NotFound(w, r, "Page not found")
	})
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(app.Recoverer)
	router.Use(app.RateLimiter)
	router.Use(app.Authenticate)
	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/healthcheck", app.healthcheck)
		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", app.signup)
			r.Post("/token", app.token)
		})
		r.Route("/users", func(r chi.Router) {
			r.With(app.requireAuthenticatedUser).Get("/me", app.getOwnProfile)
			r.With(app.requireAuthenticatedUser).Patch("/me", app.updateOwnProfile)
			r.Group(func(r chi.Router) {
				r.Use(app.requireAdminUser)
				r.Get("/", app.listUsers)
				r.Post("/", app.createUser)
				r.Get("/{username}", app.getUser)
				r.Patch("/{username}", app.updateUser)
				r.Delete("/{username}", app.deleteUser)
			})
		})
		r.Route("/categories", func(r chi.Router) {
			r.Get("/", app.listCategories)
			r.With(app.requireAdminUser).Post("/", app.createCategory)
			r.With(app.requireAdminUser).Delete("/{slug}", app.deleteCategory)
		})
		r.Route("/genres", func(r chi.Router) {
			r.Get("/", app.listGenres)
			r.With(app.requireAdminUser).Post("/", app.createGenre)
			r.With(app.requireAdminUser).Delete("/{slug}", app.deleteGenre)
		})
		r.Route("/titles", func(r chi.Router) {
			r.Get("/", app.listTitles)
			r.With(app.requireAdminUser).Post("/", app.createTitle)
			r.Route("/{title_id}", func(r chi.Router) {
				r.Get("/", app.getTitle)
				r.With(app.requireAdminUser).Patch("/", app.updateTitle)
				r.With(app.requireAdminUser).Delete("/", app.deleteTitle)
				r.Route("/reviews", func(r chi.Router) {
					r.Get("/", app.listReviews)
					r.With(app.requireAuthenticatedUser).Post("/", app.createReview)
					r.Route("/{review_id}", func(r chi.Router) {
						r.Get("/", app.getReview)
						r.With(app.requireAuthenticatedUser).Patch("/", app.updateReview)
						r.With(app.requireAuthenticatedUser).Delete("/", app.deleteReview)
						r.Route("/comments", func(r chi.Router) {
							r.Get("/", app.listComments)
							r.With(app.requireAuthenticatedUser).Post("/", app.createComment)
							r.Get("/{comment_id}", app.getComment)
							r.With(app.requireAuthenticatedUser).Patch("/{comment_id}", app.updateComment)
							r.With(app.requireAuthenticatedUser).Delete("/{comment_id}", app.deleteComment)
						})
					})
				})
			})
		})
	})
	return router
}
