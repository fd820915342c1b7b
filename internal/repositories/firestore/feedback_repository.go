package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	domain "github.com/orderdesk/api/internal/domain"
	pfirestore "github.com/orderdesk/api/internal/platform/firestore"
	"github.com/orderdesk/api/internal/repositories"
)

const feedbackCollection = "feedback"

type feedbackDocument struct {
	OrderRef  string    `firestore:"orderRef"`
	Rating    int       `firestore:"rating"`
	Comment   string    `firestore:"comment,omitempty"`
	CreatedAt time.Time `firestore:"createdAt"`
}

// FeedbackRepository persists customer feedback entries within Firestore.
type FeedbackRepository struct {
	base     *pfirestore.BaseRepository[feedbackDocument]
	provider *pfirestore.Provider
}

// NewFeedbackRepository constructs a Firestore-backed feedback repository.
func NewFeedbackRepository(provider *pfirestore.Provider) (*FeedbackRepository, error) {
	if provider == nil {
		return nil, errors.New("feedback repository requires firestore provider")
	}
	return &FeedbackRepository{
		base:     pfirestore.NewBaseRepository[feedbackDocument](provider, feedbackCollection),
		provider: provider,
	}, nil
}

// Insert writes a new feedback entry.
func (r *FeedbackRepository) Insert(ctx context.Context, feedback domain.Feedback) error {
	if r == nil || r.base == nil {
		return errors.New("feedback repository not initialised")
	}
	id := strings.TrimSpace(feedback.ID)
	if id == "" {
		return errors.New("feedback repository: feedback id is required")
	}
	doc := feedbackDocument{
		OrderRef:  strings.TrimSpace(feedback.OrderRef),
		Rating:    feedback.Rating,
		Comment:   feedback.Comment,
		CreatedAt: feedback.CreatedAt.UTC(),
	}
	return r.base.Create(ctx, id, doc)
}

// ListByOrder returns the feedback recorded against an order, newest first.
func (r *FeedbackRepository) ListByOrder(ctx context.Context, orderID string) ([]domain.Feedback, error) {
	if r == nil || r.base == nil {
		return nil, errors.New("feedback repository not initialised")
	}
	id := strings.TrimSpace(orderID)
	if id == "" {
		return nil, errors.New("feedback repository: order id is required")
	}

	docs, err := r.base.Query(ctx, func(query firestore.Query) firestore.Query {
		return query.Where("orderRef", "==", id).OrderBy("createdAt", firestore.Desc)
	})
	if err != nil {
		return nil, err
	}

	entries := make([]domain.Feedback, 0, len(docs))
	for _, doc := range docs {
		entries = append(entries, domain.Feedback{
			ID:        doc.ID,
			OrderRef:  doc.Data.OrderRef,
			Rating:    doc.Data.Rating,
			Comment:   doc.Data.Comment,
			CreatedAt: doc.Data.CreatedAt.UTC(),
		})
	}
	return entries, nil
}

var _ repositories.FeedbackRepository = (*FeedbackRepository)(nil)
