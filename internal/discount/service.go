package discount

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
)

// ResultKind classifies why a validation failed. The zero value means the
// code is valid.
type ResultKind string

const (
	// ResultOK marks a valid code.
	ResultOK ResultKind = ""
	// ResultEmptyInput marks a blank input; the client treats this as a
	// neutral clear state, not an error.
	ResultEmptyInput ResultKind = "empty_input"
	// ResultNotFound marks an unknown or out-of-scope code.
	ResultNotFound ResultKind = "not_found"
	// ResultExpired marks a code outside its validity window.
	ResultExpired ResultKind = "expired"
	// ResultExhausted marks a code that reached its usage limit.
	ResultExhausted ResultKind = "exhausted"
)

// User-facing validation messages.
const (
	msgNotFound  = "This discount code is not valid."
	msgExpired   = "This discount code has expired."
	msgExhausted = "This discount code has reached its usage limit."
)

// ValidationResult is the outcome of validating one discount code input.
type ValidationResult struct {
	Valid   bool
	Message string
	Kind    ResultKind
}

// Service validates discount codes against the repository. It is the sole
// owner of code validity rules; clients only render the result.
type Service struct {
	repo Repository
}

// NewService creates a validation Service backed by the given repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Validate normalizes the raw input and maps the repository lookup to a
// ValidationResult. Business invalidity (unknown, expired, exhausted) is a
// result, never an error; a returned error means the lookup itself failed and
// the caller must treat the code's state as unknown rather than invalid.
// Validate never increments redemption counters.
func (s *Service) Validate(ctx context.Context, rawCode string) (ValidationResult, error) {
	normalized := Normalize(rawCode)
	if normalized == "" {
		return ValidationResult{Kind: ResultEmptyInput}, nil
	}

	code, err := s.repo.FindByCode(ctx, normalized)
	if err != nil {
		if errors.Is(err, ErrCodeNotFound) {
			return ValidationResult{Message: msgNotFound, Kind: ResultNotFound}, nil
		}
		return ValidationResult{}, errors.Wrap(err, "lookup discount code")
	}

	switch code.Status {
	case StatusExpired:
		return ValidationResult{Message: msgExpired, Kind: ResultExpired}, nil
	case StatusExhausted:
		return ValidationResult{Message: msgExhausted, Kind: ResultExhausted}, nil
	case StatusActive:
		if !code.InScope {
			return ValidationResult{Message: msgNotFound, Kind: ResultNotFound}, nil
		}
		return ValidationResult{Valid: true, Message: confirmationMessage(code)}, nil
	default:
		return ValidationResult{Message: msgNotFound, Kind: ResultNotFound}, nil
	}
}

// confirmationMessage formats the success text shown next to the input,
// including the computed savings for the code.
func confirmationMessage(code *Code) string {
	switch code.Kind {
	case KindPercentage:
		return fmt.Sprintf("Discount code applied: %s%% off.", code.Percent)
	case KindFixed:
		return fmt.Sprintf("Discount code applied: %s off.", code.Amount)
	default:
		return "Discount code applied."
	}
}
