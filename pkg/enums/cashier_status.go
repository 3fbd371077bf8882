package enums

import "fmt"

// CashierStatus is the open/closed state of a till session.
type CashierStatus string

const (
	CashierStatusOpen   CashierStatus = "open"
	CashierStatusClosed CashierStatus = "closed"
)

var validCashierStatuses = []CashierStatus{
	CashierStatusOpen,
	CashierStatusClosed,
}

// String implements fmt.Stringer.
func (c CashierStatus) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CashierStatus.
func (c CashierStatus) IsValid() bool {
	for _, candidate := range validCashierStatuses {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCashierStatus converts raw input into a CashierStatus.
func ParseCashierStatus(value string) (CashierStatus, error) {
	for _, candidate := range validCashierStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid cashier status %q", value)
}
