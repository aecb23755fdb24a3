package titles

import (
	"context"
	"errors"
	"log/slog"

	"yamdb/proj/internal/domain/filters"
	"yamdb/proj/internal/domain/models"
	"yamdb/proj/internal/storage"
)

// DefaultDescription fills the description of titles created without one.
const DefaultDescription = "not provided"

type TitlesStorage interface {
	List(ctx context.Context, tf storage.TitleFilters, f filters.Filters) ([]models.Title, int, error)
	Get(ctx context.Context, id int64) (*models.Title, error)
	Insert(ctx context.Context, params storage.CreateTitleParams) (*models.Title, error)
	Update(ctx context.Context, params storage.UpdateTitleParams) (*models.Title, error)
	Delete(ctx context.Context, id int64) error
}

type CategoriesStorage interface {
	GetBySlug(ctx context.Context, slug string) (*models.Category, error)
}

type GenresStorage interface {
	GetBySlug(ctx context.Context, slug string) (*models.Genre, error)
}

type TitleService struct {
	log        *slog.Logger
	storage    TitlesStorage
	categories CategoriesStorage
	genres     GenresStorage
}

func New(log *slog.Logger, storage TitlesStorage, categories CategoriesStorage, genres GenresStorage) *TitleService {
	return &TitleService{log: log, storage: storage, categories: categories, genres: genres}
}

func (s *TitleService) List(ctx context.Context, tf storage.TitleFilters, f filters.Filters) ([]models.Title, int, error) {
	const op = "titles.TitleService.List"
	titles, total, err := s.storage.List(ctx, tf, f)
	if err != nil {
		s.log.With("op", op).Error(err.Error())
		return nil, 0, err
	}
	return titles, total, nil
}

func (s *TitleService) Get(ctx context.Context, id int64) (*models.Title, error) {
	const op = "titles.TitleService.Get"
	log := s.log.With("op", op, "id", id)
	title, err := s.storage.Get(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			log.Info("title not found")
			return nil, ErrTitleNotFound
		}
		log.Error(err.Error())
		return nil, err
	}
	return title, nil
}

type CreateParams struct {
	Name        string
	Year        int32
	Description string
	Category    *string  // category slug
	Genres      []string // genre slugs
}

// Create resolves category/genre slugs to relations and fails fast with a
// descriptive error when any slug does not exist.
func (s *TitleService) Create(ctx context.Context, params CreateParams) (*models.Title, error) {
	const op = "titles.TitleService.Create"
	log := s.log.With("op", op, "name", params.Name)
	if params.Description == "" {
		params.Description = DefaultDescription
	}
	categoryID, err := s.resolveCategory(ctx, params.Category)
	if err != nil {
		return nil, err
	}
	genreIDs, err := s.resolveGenres(ctx, params.Genres)
	if err != nil {
		return nil, err
	}
	title, err := s.storage.Insert(ctx, storage.CreateTitleParams{
		Name:        params.Name,
		Year:        params.Year,
		Description: params.Description,
		CategoryID:  categoryID,
		GenreIDs:    genreIDs,
	})
	if err != nil {
		log.Error(err.Error())
		return nil, err
	}
	return title, nil
}

type UpdateParams struct {
	Name        *string
	Year        *int32
	Description *string
	Category    *string
	Genres      []string // nil keeps the current set, non-nil replaces it
}

func (s *TitleService) Update(ctx context.Context, id int64, params UpdateParams) (*models.Title, error) {
	const op = "titles.TitleService.Update"
	log := s.log.With("op", op, "id", id)
	title, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if params.Name != nil {
		title.Name = *params.Name
	}
	if params.Year != nil {
		title.Year = *params.Year
	}
	if params.Description != nil {
		title.Description = *params.Description
	}
	var categoryID *int64
	if params.Category != nil {
		categoryID, err = s.resolveCategory(ctx, params.Category)
		if err != nil {
			return nil, err
		}
	} else if title.Category != nil {
		categoryID = &title.Category.ID
	}
	var genreIDs []int64
	if params.Genres != nil {
		genreIDs, err = s.resolveGenres(ctx, params.Genres)
		if err != nil {
			return nil, err
		}
		if genreIDs == nil {
			genreIDs = []int64{}
		}
	}
	updated, err := s.storage.Update(ctx, storage.UpdateTitleParams{
		ID:          id,
		Name:        title.Name,
		Year:        title.Year,
		Description: title.Description,
		CategoryID:  categoryID,
		GenreIDs:    genreIDs,
	})
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrTitleNotFound
		}
		log.Error(err.Error())
		return nil, err
	}
	return updated, nil
}

func (s *TitleService) Delete(ctx context.Context, id int64) error {
	const op = "titles.TitleService.Delete"
	log := s.log.With("op", op, "id", id)
	if err := s.storage.Delete(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			log.Info("title not found")
			return ErrTitleNotFound
		}
		log.Error(err.Error())
		return err
	}
	return nil
}

func (s *TitleService) resolveCategory(ctx context.Context, slug *string) (*int64, error) {
	if slug == nil || *slug == "" {
		return nil, nil
	}
	category, err := s.categories.GetBySlug(ctx, *slug)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	return &category.ID, nil
}

func (s *TitleService) resolveGenres(ctx context.Context, slugs []string) ([]int64, error) {
	if len(slugs) == 0 {
		return nil, nil
	}
	ids := make([]int64, 0, len(slugs))
	for _, slug := range slugs {
		genre, err := s.genres.GetBySlug(ctx, slug)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return nil, ErrGenreNotFound
			}
			return nil, err
		}
		ids = append(ids, genre.ID)
	}
	return ids, nil
}
