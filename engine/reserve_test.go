package engine

import (
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/mongo"

	"trimly/apperrors"
)

func TestClaimMissError(t *testing.T) {
	if err := claimMissError(mongo.ErrNoDocuments); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("missing slot: got %v, want not-found", err)
	}
	if err := claimMissError(nil); !errors.Is(err, apperrors.ErrCapacityExceeded) {
		t.Errorf("existing slot with no free unit: got %v, want capacity exceeded", err)
	}

	// A failed lookup must surface as itself, not as "slot full".
	boom := errors.New("socket was unexpectedly closed")
	got := claimMissError(boom)
	if !errors.Is(got, boom) {
		t.Errorf("lookup failure: got %v, want the lookup error", got)
	}
	if errors.Is(got, apperrors.ErrCapacityExceeded) {
		t.Error("lookup failure reported as capacity exceeded")
	}
}
