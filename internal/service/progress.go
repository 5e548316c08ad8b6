package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/language-tutor/internal/model"
	"github.com/iliyamo/language-tutor/internal/repository"
)

// ProgressStore persists progress rows.
type ProgressStore interface {
	Upsert(ctx context.Context, p *model.UserProgress) (bool, error)
	List(ctx context.Context, email, lessonID string) ([]model.UserProgress, error)
	GetOwned(ctx context.Context, id, email string) (model.UserProgress, error)
	Update(ctx context.Context, p *model.UserProgress) error
}

// ProgressTracker keeps one completion record per (user, lesson).
type ProgressTracker struct {
	store ProgressStore
}

func NewProgressTracker(store ProgressStore) *ProgressTracker {
	return &ProgressTracker{store: store}
}

// Upsert creates or overwrites the caller's record for lessonID.  The bool
// result is true when a new record was created.
func (t *ProgressTracker) Upsert(ctx context.Context, email, lessonID string, completed bool, pct int) (model.UserProgress, bool, error) {
	lessonID = strings.TrimSpace(lessonID)
	var fe FieldErrors
	if lessonID == "" {
		fe = append(fe, FieldError{Field: "lesson_id", Message: "is required"})
	}
	if err := checkPercentage(pct); err != nil {
		fe = append(fe, *err)
	}
	if len(fe) > 0 {
		return model.UserProgress{}, false, fe
	}

	p := model.UserProgress{UserEmail: email, LessonID: lessonID, Completed: completed, ProgressPercentage: pct}
	created, err := t.store.Upsert(ctx, &p)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidReference) {
			return model.UserProgress{}, false, newError(ErrValidation, "Invalid reference")
		}
		return model.UserProgress{}, false, fmt.Errorf("upsert progress: %w", err)
	}
	return p, created, nil
}

// Patch updates the supplied fields of a record owned by email.
func (t *ProgressTracker) Patch(ctx context.Context, id, email string, patch model.ProgressPatch) (model.UserProgress, error) {
	if patch.Empty() {
		return model.UserProgress{}, newError(ErrValidation, "No fields to update")
	}
	if patch.ProgressPercentage != nil {
		if err := checkPercentage(*patch.ProgressPercentage); err != nil {
			return model.UserProgress{}, FieldErrors{*err}
		}
	}
	p, err := t.store.GetOwned(ctx, id, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.UserProgress{}, newError(ErrNotFound, "Progress not found")
		}
		return model.UserProgress{}, fmt.Errorf("load progress: %w", err)
	}
	if patch.Completed != nil {
		p.Completed = *patch.Completed
	}
	if patch.ProgressPercentage != nil {
		p.ProgressPercentage = *patch.ProgressPercentage
	}
	if err := t.store.Update(ctx, &p); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.UserProgress{}, newError(ErrNotFound, "Progress not found")
		}
		return model.UserProgress{}, fmt.Errorf("update progress: %w", err)
	}
	return p, nil
}

// List returns the user's records, optionally for a single lesson.
func (t *ProgressTracker) List(ctx context.Context, email, lessonID string) ([]model.UserProgress, error) {
	out, err := t.store.List(ctx, email, strings.TrimSpace(lessonID))
	if err != nil {
		return nil, fmt.Errorf("list progress: %w", err)
	}
	return out, nil
}

func checkPercentage(pct int) *FieldError {
	if pct < 0 || pct > 100 {
		return &FieldError{Field: "progress_percentage", Message: "must be between 0 and 100"}
	}
	return nil
}
