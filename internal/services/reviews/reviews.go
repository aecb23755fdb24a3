package reviews

import (
	"context"
	"errors"
	"log/slog"

	"yamdb/proj/internal/domain/filters"
	"yamdb/proj/internal/domain/models"
	"yamdb/proj/internal/storage"
)

type ReviewsStorage interface {
	List(ctx context.Context, titleID int64, f filters.Filters) ([]models.Review, int, error)
	Get(ctx context.Context, titleID, reviewID int64) (*models.Review, error)
	GetByAuthor(ctx context.Context, titleID, authorID int64) (*models.Review, error)
	Insert(ctx context.Context, titleID, authorID int64, text string, score int32) (*models.Review, error)
	Update(ctx context.Context, review *models.Review) (*models.Review, error)
	Delete(ctx context.Context, id int64) error
}

type CommentsStorage interface {
	List(ctx context.Context, reviewID int64, f filters.Filters) ([]models.Comment, int, error)
	Get(ctx context.Context, reviewID, commentID int64) (*models.Comment, error)
	Insert(ctx context.Context, reviewID, authorID int64, text string) (*models.Comment, error)
	Update(ctx context.Context, comment *models.Comment) (*models.Comment, error)
	Delete(ctx context.Context, id int64) error
}

type TitlesStorage interface {
	Exists(ctx context.Context, id int64) (bool, error)
}

type ReviewService struct {
	log      *slog.Logger
	storage  ReviewsStorage
	comments CommentsStorage
	titles   TitlesStorage
}

func New(log *slog.Logger, storage ReviewsStorage, comments CommentsStorage, titles TitlesStorage) *ReviewService {
	return &ReviewService{log: log, storage: storage, comments: comments, titles: titles}
}

// requireTitle resolves the root of the nested route; every operation starts
// here so a missing title is always a not-found, never an empty result.
func (s *ReviewService) requireTitle(ctx context.Context, titleID int64) error {
	exists, err := s.titles.Exists(ctx, titleID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrTitleNotFound
	}
	return nil
}

func (s *ReviewService) List(ctx context.Context, titleID int64, f filters.Filters) ([]models.Review, int, error) {
	const op = "reviews.ReviewService.List"
	if err := s.requireTitle(ctx, titleID); err != nil {
		return nil, 0, err
	}
	reviews, total, err := s.storage.List(ctx, titleID, f)
	if err != nil {
		s.log.With("op", op, "title_id", titleID).Error(err.Error())
		return nil, 0, err
	}
	return reviews, total, nil
}

func (s *ReviewService) Get(ctx context.Context, titleID, reviewID int64) (*models.Review, error) {
	const op = "reviews.ReviewService.Get"
	log := s.log.With("op", op, "title_id", titleID, "review_id", reviewID)
	if err := s.requireTitle(ctx, titleID); err != nil {
		return nil, err
	}
	review, err := s.storage.Get(ctx, titleID, reviewID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			log.Info("review not found")
			return nil, ErrReviewNotFound
		}
		log.Error(err.Error())
		return nil, err
	}
	return review, nil
}

// Create pre-checks the one-review-per-author-per-title rule so the caller
// gets a descriptive conflict, then still maps the unique-index violation in
// case a concurrent insert won the race.
func (s *ReviewService) Create(ctx context.Context, titleID, authorID int64, text string, score int32) (*models.Review, error) {
	const op = "reviews.ReviewService.Create"
	log := s.log.With("op", op, "title_id", titleID, "author_id", authorID)
	if err := s.requireTitle(ctx, titleID); err != nil {
		return nil, err
	}
	if _, err := s.storage.GetByAuthor(ctx, titleID, authorID); err == nil {
		log.Info("duplicate review")
		return nil, ErrDuplicateReview
	} else if !errors.Is(err, storage.ErrNotFound) {
		log.Error(err.Error())
		return nil, err
	}
	review, err := s.storage.Insert(ctx, titleID, authorID, text, score)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrConflict):
			log.Info("duplicate review (lost the race)")
			return nil, ErrDuplicateReview
		case errors.Is(err, storage.ErrReferenceNotFound):
			return nil, ErrTitleNotFound
		}
		log.Error(err.Error())
		return nil, err
	}
	return review, nil
}

type UpdateReviewParams struct {
	Text  *string
	Score *int32
}

func (s *ReviewService) Update(ctx context.Context, titleID, reviewID int64, params UpdateReviewParams) (*models.Review, error) {
	const op = "reviews.ReviewService.Update"
	review, err := s.Get(ctx, titleID, reviewID)
	if err != nil {
		return nil, err
	}
	if params.Text != nil {
		review.Text = *params.Text
	}
	if params.Score != nil {
		review.Score = *params.Score
	}
	updated, err := s.storage.Update(ctx, review)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrReviewNotFound
		}
		s.log.With("op", op).Error(err.Error())
		return nil, err
	}
	return updated, nil
}

func (s *ReviewService) Delete(ctx context.Context, titleID, reviewID int64) error {
	const op = "reviews.ReviewService.Delete"
	review, err := s.Get(ctx, titleID, reviewID)
	if err != nil {
		return err
	}
	if err := s.storage.Delete(ctx, review.ID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrReviewNotFound
		}
		s.log.With("op", op).Error(err.Error())
		return err
	}
	return nil
}

func (s *ReviewService) ListComments(ctx context.Context, titleID, reviewID int64, f filters.Filters) ([]models.Comment, int, error) {
	const op = "reviews.ReviewService.ListComments"
	review, err := s.Get(ctx, titleID, reviewID)
	if err != nil {
		return nil, 0, err
	}
	comments, total, err := s.comments.List(ctx, review.ID, f)
	if err != nil {
		s.log.With("op", op, "review_id", reviewID).Error(err.Error())
		return nil, 0, err
	}
	return comments, total, nil
}

func (s *ReviewService) GetComment(ctx context.Context, titleID, reviewID, commentID int64) (*models.Comment, error) {
	const op = "reviews.ReviewService.GetComment"
	review, err := s.Get(ctx, titleID, reviewID)
	if err != nil {
		return nil, err
	}
	comment, err := s.comments.Get(ctx, review.ID, commentID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrCommentNotFound
		}
		s.log.With("op", op).Error(err.Error())
		return nil, err
	}
	return comment, nil
}

func (s *ReviewService) CreateComment(ctx context.Context, titleID, reviewID, authorID int64, text string) (*models.Comment, error) {
	const op = "reviews.ReviewService.CreateComment"
	review, err := s.Get(ctx, titleID, reviewID)
	if err != nil {
		return nil, err
	}
	comment, err := s.comments.Insert(ctx, review.ID, authorID, text)
	if err != nil {
		s.log.With("op", op).Error(err.Error())
		return nil, err
	}
	return comment, nil
}

func (s *ReviewService) UpdateComment(ctx context.Context, titleID, reviewID, commentID int64, text string) (*models.Comment, error) {
	const op = "reviews.ReviewService.UpdateComment"
	comment, err := s.GetComment(ctx, titleID, reviewID, commentID)
	if err != nil {
		return nil, err
	}
	comment.Text = text
	updated, err := s.comments.Update(ctx, comment)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrCommentNotFound
		}
		s.log.With("op", op).Error(err.Error())
		return nil, err
	}
	return updated, nil
}

func (s *ReviewService) DeleteComment(ctx context.Context, titleID, reviewID, commentID int64) error {
	const op = "reviews.ReviewService.DeleteComment"
	comment, err := s.GetComment(ctx, titleID, reviewID, commentID)
	if err != nil {
		return err
	}
	if err := s.comments.Delete(ctx, comment.ID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrCommentNotFound
		}
		s.log.With("op", op).Error(err.Error())
		return err
	}
	return nil
}
