package services

import (
	"errors"
	"fmt"
	"time"

	domain "github.com/orderdesk/api/internal/domain"
)

var (
	// ErrInvalidInput signals the caller provided invalid data.
	ErrInvalidInput = errors.New("invalid input")
	// ErrOrderNotFound indicates the target order could not be located.
	ErrOrderNotFound = errors.New("order: not found")
	// ErrItemNotFound indicates a referenced catalog item does not exist or is retired.
	ErrItemNotFound = errors.New("catalog: item not found")
)

// Field length ceilings.
const (
	maxNotesLength         = 1000
	maxCustomizationLength = 500
	maxNameLength          = 200
	maxCommentLength       = 2000
)

const dateLayout = "2006-01-02"

// ValidationError reports the first rule a request violated, attributed to a
// single field so the UI can highlight it. It unwraps to ErrInvalidInput.
type ValidationError struct {
	Field  string
	Reason string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Unwrap lets callers match with errors.Is(err, ErrInvalidInput).
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

func invalidField(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// validateIntRange accepts an integer within the inclusive [min, max] range.
func validateIntRange(field string, value, min, max int) *ValidationError {
	if value < min || value > max {
		return invalidField(field, "must be an integer between %d and %d", min, max)
	}
	return nil
}

// validateEnum accepts a value only when it is exactly one of the allowed set.
func validateEnum[T ~string](field, value string, allowed []T) (T, *ValidationError) {
	for _, candidate := range allowed {
		if value == string(candidate) {
			return candidate, nil
		}
	}
	return "", invalidField(field, "must be one of %s", enumList(allowed))
}

// validateBoundedString rejects only values longer than the ceiling; absence
// is always acceptable and checked by the caller.
func validateBoundedString(field, value string, max int) *ValidationError {
	if len(value) > max {
		return invalidField(field, "must be at most %d characters", max)
	}
	return nil
}

// parseDateField accepts a calendar date in YYYY-MM-DD form and returns it
// normalized to UTC midnight.
func parseDateField(field, value string) (time.Time, *ValidationError) {
	parsed, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, invalidField(field, "must be a valid date in YYYY-MM-DD form")
	}
	return dayStart(parsed), nil
}

// validateNotPast rejects dates strictly before today. Comparison is at day
// granularity, ignoring time of day.
func validateNotPast(field string, date, now time.Time) *ValidationError {
	if date.Before(dayStart(now)) {
		return invalidField(field, "must not be earlier than today")
	}
	return nil
}

// dayStart normalizes a timestamp to midnight UTC of its calendar day.
func dayStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func enumList[T ~string](allowed []T) string {
	out := ""
	for i, v := range allowed {
		if i > 0 {
			out += ", "
		}
		out += string(v)
	}
	return out
}

var (
	allowedChannels = []OrderChannel{
		domain.OrderChannelOnline,
		domain.OrderChannelInstagram,
		domain.OrderChannelWhatsApp,
		domain.OrderChannelPhone,
		domain.OrderChannelWalkIn,
	}
	allowedOrderStatuses = []OrderStatus{
		domain.OrderStatusPending,
		domain.OrderStatusProcessing,
		domain.OrderStatusCompleted,
		domain.OrderStatusCancelled,
	}
	allowedPaymentStatuses = []PaymentStatus{
		domain.PaymentStatusUnpaid,
		domain.PaymentStatusPartiallyPaid,
		domain.PaymentStatusPaid,
		domain.PaymentStatusCashOnDelivery,
		domain.PaymentStatusRefunded,
	}
	allowedConfirmationStatuses = []ConfirmationStatus{
		domain.ConfirmationUnconfirmed,
		domain.ConfirmationConfirmed,
		domain.ConfirmationDeclined,
	}
	allowedDeliveryStatuses = []DeliveryStatus{
		domain.DeliveryNotShipped,
		domain.DeliveryShipped,
		domain.DeliveryInTransit,
		domain.DeliveryDelivered,
		domain.DeliveryReturned,
	}
)
