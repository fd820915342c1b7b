package services

import (
	domain "github.com/orderdesk/api/internal/domain"
)

// paymentInput bundles the proposed payment fields of a request together with
// the order's current payment state and the effective total price. Nil raw
// fields mean "no change".
type paymentInput struct {
	RawStatus   *string
	RawPaid     *int64
	Current     PaymentStatus
	CurrentPaid int64
	Total       int64
}

// checkPayment enforces the payment invariants in a fixed order, short-
// circuiting on the first failure:
//  1. a supplied payment status must belong to the enumeration,
//  2. a supplied paid amount must be non-negative,
//  3. the effective paid amount must not exceed the effective total,
//  4. an effective partially_paid status requires 0 < paid < total strictly.
//
// Rules 3 and 4 always evaluate post-merge effective values, not just the
// fields present in the request, so a narrow update can never leave the order
// inconsistent. It returns the effective status and paid amount to merge.
func checkPayment(in paymentInput) (PaymentStatus, int64, *ValidationError) {
	status := in.Current
	if in.RawStatus != nil {
		parsed, err := validateEnum("payment_status", *in.RawStatus, allowedPaymentStatuses)
		if err != nil {
			return "", 0, err
		}
		status = parsed
	}

	paid := in.CurrentPaid
	if in.RawPaid != nil {
		if *in.RawPaid < 0 {
			return "", 0, invalidField("paid_amount", "must be a non-negative amount")
		}
		paid = *in.RawPaid
	}

	if paid > in.Total {
		return "", 0, invalidField("paid_amount", "cannot exceed the order total")
	}

	if status == domain.PaymentStatusPartiallyPaid {
		if paid <= 0 || paid >= in.Total {
			return "", 0, invalidField("payment_status", "partially_paid requires a paid amount strictly between zero and the order total")
		}
	}

	return status, paid, nil
}
