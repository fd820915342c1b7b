package services

import (
	"context"
	"errors"
	"strings"

	domain "github.com/orderdesk/api/internal/domain"
)

// resolveLineItems resolves each requested line against the catalog, in input
// order, and computes the aggregate total in minor currency units. The first
// failing line aborts the whole resolution; remaining lines are not resolved.
// The caller guarantees the input is non-empty.
func resolveLineItems(ctx context.Context, resolver CatalogResolver, inputs []LineItemInput) ([]domain.OrderLineItem, int64, error) {
	lines := make([]domain.OrderLineItem, 0, len(inputs))
	var total int64

	for _, input := range inputs {
		itemID := strings.TrimSpace(input.ItemID)
		if itemID == "" {
			return nil, 0, invalidField("items", "every line item requires an item id")
		}
		if input.Quantity <= 0 {
			return nil, 0, invalidField("items", "quantity for item %q must be a positive integer", itemID)
		}
		if err := validateBoundedString("items", input.Customization, maxCustomizationLength); err != nil {
			return nil, 0, invalidField("items", "customization for item %q must be at most %d characters", itemID, maxCustomizationLength)
		}

		item, err := resolver.ResolveItem(ctx, itemID)
		if err != nil {
			if errors.Is(err, ErrItemNotFound) {
				return nil, 0, invalidField("items", "unknown item %q", itemID)
			}
			return nil, 0, err
		}

		line := domain.OrderLineItem{
			ItemRef:       item.ID,
			Name:          item.Name,
			UnitPrice:     item.UnitPrice,
			Quantity:      input.Quantity,
			Customization: strings.TrimSpace(input.Customization),
		}
		lines = append(lines, line)
		total += line.LineTotal()
	}

	return lines, total, nil
}
