package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
)

// A duplicated ID with the right total count must be rejected up front, not
// surface as a constraint violation at commit. The check runs before any
// transaction is opened, so no pool is needed.
func TestReorderRejectsDuplicateIDs(t *testing.T) {
	repo := NewQuestionRepository(nil)
	dup := uuid.New()
	ids := []uuid.UUID{dup, uuid.New(), dup}

	err := repo.Reorder(context.Background(), uuid.New(), ids)
	if !errors.Is(err, ErrReorderMismatch) {
		t.Fatalf("err = %v, want ErrReorderMismatch", err)
	}
}
