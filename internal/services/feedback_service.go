package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/oklog/ulid/v2"

	domain "github.com/orderdesk/api/internal/domain"
	"github.com/orderdesk/api/internal/repositories"
)

const feedbackIDPrefix = "fbk_"

// FeedbackServiceDeps bundles collaborators required to construct the feedback service.
type FeedbackServiceDeps struct {
	Feedback    repositories.FeedbackRepository
	Orders      repositories.OrderRepository
	Clock       func() time.Time
	IDGenerator func() string
}

type feedbackService struct {
	feedback  repositories.FeedbackRepository
	orders    repositories.OrderRepository
	clock     func() time.Time
	newID     func() string
	sanitizer *bluemonday.Policy
}

// NewFeedbackService wires dependencies into a concrete FeedbackService implementation.
func NewFeedbackService(deps FeedbackServiceDeps) (FeedbackService, error) {
	if deps.Feedback == nil {
		return nil, errors.New("feedback service: feedback repository is required")
	}
	if deps.Orders == nil {
		return nil, errors.New("feedback service: order repository is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string {
			return ulid.Make().String()
		}
	}

	return &feedbackService{
		feedback: deps.Feedback,
		orders:   deps.Orders,
		clock: func() time.Time {
			return clock().UTC()
		},
		newID:     idGen,
		sanitizer: bluemonday.StrictPolicy(),
	}, nil
}

func (s *feedbackService) RecordFeedback(ctx context.Context, cmd RecordFeedbackCommand) (Feedback, error) {
	orderID := strings.TrimSpace(cmd.OrderID)
	if orderID == "" {
		return Feedback{}, invalidField("order_id", "order id is required")
	}

	if verr := validateIntRange("rating", cmd.Rating, domain.FeedbackRatingMin, domain.FeedbackRatingMax); verr != nil {
		return Feedback{}, verr
	}

	comment := strings.TrimSpace(cmd.Comment)
	if verr := validateBoundedString("comment", comment, maxCommentLength); verr != nil {
		return Feedback{}, verr
	}
	comment = s.sanitizer.Sanitize(comment)

	if _, err := s.orders.FindByID(ctx, orderID); err != nil {
		return Feedback{}, s.mapRepositoryError(err)
	}

	entry := Feedback{
		ID:        feedbackIDPrefix + s.newID(),
		OrderRef:  orderID,
		Rating:    cmd.Rating,
		Comment:   comment,
		CreatedAt: s.clock(),
	}

	if err := s.feedback.Insert(ctx, entry); err != nil {
		return Feedback{}, s.mapRepositoryError(err)
	}
	return entry, nil
}

func (s *feedbackService) ListFeedback(ctx context.Context, orderID string) ([]Feedback, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, invalidField("order_id", "order id is required")
	}

	entries, err := s.feedback.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, s.mapRepositoryError(err)
	}
	return entries, nil
}

func (s *feedbackService) mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}

	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) && repoErr.IsNotFound() {
		return ErrOrderNotFound
	}
	return err
}
