package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	pfirestore "github.com/orderdesk/api/internal/platform/firestore"
	"github.com/orderdesk/api/internal/repositories"
)

const sequencesCollection = "sequences"

type sequenceDocument struct {
	Value     int64     `firestore:"value"`
	Step      int64     `firestore:"step"`
	UpdatedAt time.Time `firestore:"updatedAt"`
}

// CounterRepository allocates monotonically increasing sequence numbers, one
// document per sequence. Increments run in a transaction so two concurrent
// callers never receive the same value.
type CounterRepository struct {
	provider *pfirestore.Provider
}

// NewCounterRepository constructs a Firestore-backed sequence allocator.
func NewCounterRepository(provider *pfirestore.Provider) (*CounterRepository, error) {
	if provider == nil {
		return nil, errors.New("counter repository requires firestore provider")
	}
	return &CounterRepository{provider: provider}, nil
}

// Next returns the next value of the named sequence, seeding it on first use.
// Non-positive steps are normalised to 1.
func (r *CounterRepository) Next(ctx context.Context, counterID string, step int64) (int64, error) {
	id := strings.TrimSpace(counterID)
	if id == "" {
		return 0, errors.New("counter repository: sequence name is required")
	}
	if step <= 0 {
		step = 1
	}

	client, err := r.provider.Client(ctx)
	if err != nil {
		return 0, err
	}
	ref := client.Collection(sequencesCollection).Doc(id)

	var value int64
	err = r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		switch {
		case status.Code(err) == codes.NotFound:
			value = step
		case err != nil:
			return err
		default:
			var doc sequenceDocument
			if err := snap.DataTo(&doc); err != nil {
				return fmt.Errorf("decode sequence %s: %w", id, err)
			}
			value = doc.Value + step
		}
		return tx.Set(ref, sequenceDocument{
			Value:     value,
			Step:      step,
			UpdatedAt: time.Now().UTC(),
		})
	})
	if err != nil {
		return 0, err
	}
	return value, nil
}

var _ repositories.CounterRepository = (*CounterRepository)(nil)
