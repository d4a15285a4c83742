package slots

import (
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/mongo"

	"trimly/apperrors"
)

func TestBlockResultError(t *testing.T) {
	if err := blockResultError(mongo.ErrNoDocuments); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("missing slot: got %v, want not-found", err)
	}

	// A driver failure must not masquerade as a missing slot.
	boom := errors.New("server selection timeout")
	got := blockResultError(boom)
	if !errors.Is(got, boom) {
		t.Errorf("driver failure: got %v, want the driver error", got)
	}
	if errors.Is(got, apperrors.ErrNotFound) {
		t.Error("driver failure reported as not-found")
	}
}
