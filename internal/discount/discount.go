// Package discount implements the pricing engine core: discount code types,
// the pure price resolver, and the code validation service.
package discount

import (
	"context"
	"strings"

	"github.com/go-faster/errors"

	"github.com/coursekit/pricing/internal/money"
)

// Kind enumerates the supported discount code strategies.
type Kind string

const (
	// KindPercentage reduces the price by a percentage.
	KindPercentage Kind = "percentage"
	// KindFixed subtracts a fixed monetary amount, clamped at zero.
	KindFixed Kind = "fixed"
)

// Status is a discount code's usability, evaluated server-side at lookup time.
type Status string

const (
	// StatusActive means the code is currently redeemable.
	StatusActive Status = "active"
	// StatusExpired means the code is outside its validity window.
	StatusExpired Status = "expired"
	// StatusExhausted means the code has reached its usage limit.
	StatusExhausted Status = "exhausted"
	// StatusUnknown means the code exists but its state cannot be determined.
	StatusUnknown Status = "unknown"
)

// ErrCodeNotFound is returned when a discount code does not exist.
var ErrCodeNotFound = errors.New("discount code not found")

// Code is a discount code as returned by the repository. Percent is set for
// percentage codes, Amount for fixed codes. InScope reports whether the code
// applies in the lookup context; scope rules are resolved by the repository.
type Code struct {
	Code        string
	Kind        Kind
	Percent     money.Percent
	Amount      money.Money
	Status      Status
	InScope     bool
	Description string
}

// SiteWide is the site-wide promotional discount overlay. When Active is
// false the percentage is ignored.
type SiteWide struct {
	Active  bool
	Percent money.Percent
	Label   string
}

// Repository provides read access to discount codes. FindByCode must compute
// Status against the current time and usage counters on every call and never
// increment redemption counters; RecordRedemption is invoked separately at
// confirmed submission.
type Repository interface {
	FindByCode(ctx context.Context, code string) (*Code, error)
	RecordRedemption(ctx context.Context, code string) error
}

// Normalize canonicalizes raw user input: whitespace-trimmed, uppercase.
func Normalize(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}
