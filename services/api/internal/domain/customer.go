package domain

import "time"

// Customer places orders. Their orders are found by querying the order store.
type Customer struct {
	ID        string
	Name      string
	Email     string
	CreatedAt time.Time
}

// CreditCard belongs to exactly one customer. Only the last four digits are kept.
type CreditCard struct {
	ID         string
	CustomerID string
	Holder     string
	Last4      string
}

// ValidLast4 reports whether s is exactly four ASCII digits.
func ValidLast4(s string) bool {
	if len(s) != 4 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
