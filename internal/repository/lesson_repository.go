package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/language-tutor/internal/model"
)

// Lesson sort keys accepted by List.  Anything else sorts by title.
const (
	LessonSortTitle     = "title"
	LessonSortCreatedAt = "created_at"
	LessonSortUpdatedAt = "updated_at"
)

var lessonSortColumns = map[string]string{
	LessonSortTitle:     "title",
	LessonSortCreatedAt: "created_at",
	LessonSortUpdatedAt: "updated_at",
}

// Nullable text columns are coalesced so malformed imports still scan.
const lessonColumns = `id,
	COALESCE(title, '') AS title,
	COALESCE(description, '') AS description,
	COALESCE(level, '') AS level,
	topics,
	COALESCE(duration, '') AS duration,
	COALESCE(content, '') AS content,
	is_sample, created_at, updated_at`

// LessonRepo reads lesson rows.  The API never writes lessons.
type LessonRepo struct{ DB *sqlx.DB }

func NewLessonRepo(db *sqlx.DB) *LessonRepo { return &LessonRepo{DB: db} }

// ListPublished returns every non-sample lesson in ascending sort order.
// Rows are returned unfiltered; validity is decided by the caller.
func (r *LessonRepo) ListPublished(ctx context.Context, sortBy string) ([]model.Lesson, error) {
	col, ok := lessonSortColumns[sortBy]
	if !ok {
		col = lessonSortColumns[LessonSortTitle]
	}
	out := []model.Lesson{}
	err := r.DB.SelectContext(ctx, &out,
		"SELECT "+lessonColumns+" FROM lessons WHERE is_sample = FALSE ORDER BY "+col+" ASC, id ASC")
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetByID fetches one lesson row regardless of validity.
func (r *LessonRepo) GetByID(ctx context.Context, id string) (model.Lesson, error) {
	var l model.Lesson
	err := r.DB.GetContext(ctx, &l, "SELECT "+lessonColumns+" FROM lessons WHERE id=? LIMIT 1", id)
	return l, notFound(err)
}
