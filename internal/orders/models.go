package orders

import "time"

// Order statuses form a simple lifecycle; terminal states are shipped and
// cancelled.
const (
	StatusPending   = "pending"
	StatusPaid      = "paid"
	StatusShipped   = "shipped"
	StatusCancelled = "cancelled"
)

// Order carries a human-facing Number minted from the order sequence; the
// number never changes after create, even across edits.
type Order struct {
	ID           string    `json:"id"`
	Number       string    `json:"number"`
	CustomerName string    `json:"customer_name"`
	Status       string    `json:"status"`
	TotalMinor   int64     `json:"total_minor"`
	UpdatedAt    time.Time `json:"-"`
}

type OrderPatch struct {
	CustomerName string `json:"customer_name"`
	TotalMinor   int64  `json:"total_minor"`
}

var orderAuditFields = []string{"customer_name", "status", "total_minor"}

func (o Order) auditState() map[string]any {
	return map[string]any{
		"customer_name": o.CustomerName,
		"status":        o.Status,
		"total_minor":   o.TotalMinor,
	}
}

func validStatus(s string) bool {
	switch s {
	case StatusPending, StatusPaid, StatusShipped, StatusCancelled:
		return true
	}
	return false
}

// allowedTransitions maps each status to the statuses it may move to.
var allowedTransitions = map[string][]string{
	StatusPending: {StatusPaid, StatusCancelled},
	StatusPaid:    {StatusShipped, StatusCancelled},
}

func transitionAllowed(from, to string) bool {
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
