package session

import (
	"math"

	"pronto-core/internal/models"
	"pronto-core/internal/workflow"
)

// ComputeTotals derives a session's money breakdown from its current
// orders. Cancelled orders contribute nothing. Pure: same orders, same
// tax rate and tip always yield the same totals, however often it runs.
// All amounts are cents; percentage application rounds half up.
func ComputeTotals(orders []*models.Order, taxRate float64, tip int64) models.Totals {
	var subtotal int64
	for _, order := range orders {
		status, ok := workflow.Canonical(order.WorkflowStatus)
		if ok && status == workflow.StatusCancelled {
			continue
		}
		for _, item := range order.Items {
			subtotal += item.LineTotal()
		}
	}

	tax := roundHalfUp(float64(subtotal) * taxRate)
	return models.Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Tip:      tip,
		Total:    subtotal + tax + tip,
	}
}

// TipFromPercentage converts a percentage of the subtotal to cents.
func TipFromPercentage(subtotal int64, percentage float64) int64 {
	return roundHalfUp(float64(subtotal) * percentage / 100)
}

func roundHalfUp(v float64) int64 {
	return int64(math.Floor(v + 0.5))
}
