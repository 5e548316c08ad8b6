package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/language-tutor/internal/logger"
	"github.com/iliyamo/language-tutor/internal/model"
	"github.com/iliyamo/language-tutor/internal/repository"
)

// LessonStore reads raw lesson rows.
type LessonStore interface {
	ListPublished(ctx context.Context, sortBy string) ([]model.Lesson, error)
	GetByID(ctx context.Context, id string) (model.Lesson, error)
}

// Catalog serves lessons through the validity filter: rows missing a title,
// description or known level are never shown, and asking for one by id is
// indistinguishable from asking for an id that does not exist.
type Catalog struct {
	lessons LessonStore
	log     *logger.Logger
}

func NewCatalog(lessons LessonStore, log *logger.Logger) *Catalog {
	return &Catalog{lessons: lessons, log: log.With("component", "catalog")}
}

// LessonSort maps a client sortBy value onto an allowed sort key; unknown
// values fall back to title.
func LessonSort(sortBy string) string {
	switch strings.ToLower(strings.TrimSpace(sortBy)) {
	case "created_at", "created_date":
		return repository.LessonSortCreatedAt
	case "updated_at", "updated_date":
		return repository.LessonSortUpdatedAt
	default:
		return repository.LessonSortTitle
	}
}

// List returns valid, non-sample lessons in ascending order, capped at
// limit when limit > 0.
func (c *Catalog) List(ctx context.Context, sortBy string, limit int) ([]model.Lesson, error) {
	rows, err := c.lessons.ListPublished(ctx, LessonSort(sortBy))
	if err != nil {
		return nil, fmt.Errorf("list lessons: %w", err)
	}
	out := make([]model.Lesson, 0, len(rows))
	for _, l := range rows {
		if issues := l.Issues(); len(issues) > 0 {
			c.log.Warn("skipping invalid lesson", "lesson_id", l.ID, "issues", issues)
			continue
		}
		out = append(out, normalizeLesson(l))
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// Get returns one valid lesson or ErrNotFound.
func (c *Catalog) Get(ctx context.Context, id string) (model.Lesson, error) {
	l, err := c.lessons.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Lesson{}, newError(ErrNotFound, "Lesson not found")
		}
		return model.Lesson{}, fmt.Errorf("get lesson: %w", err)
	}
	if issues := l.Issues(); len(issues) > 0 {
		c.log.Warn("invalid lesson requested", "lesson_id", id, "issues", issues)
		return model.Lesson{}, newError(ErrNotFound, "Lesson not found")
	}
	return normalizeLesson(l), nil
}

func normalizeLesson(l model.Lesson) model.Lesson {
	if l.Topics == nil {
		l.Topics = model.Topics{}
	}
	return l
}
