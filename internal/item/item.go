// Package item defines the priced catalog entries (courses and events) this
// site displays. Content fields beyond pricing live in the CMS and are not
// modeled here.
package item

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/coursekit/pricing/internal/money"
)

// ErrNotFound is returned when a requested item does not exist.
var ErrNotFound = errors.New("item not found")

// Kind distinguishes the two priced content types.
type Kind string

const (
	// KindCourse is a self-paced or cohort course.
	KindCourse Kind = "course"
	// KindEvent is a dated live event.
	KindEvent Kind = "event"
)

// Item is a priceable catalog entry.
type Item struct {
	ID        string
	Title     string
	Kind      Kind
	BasePrice money.Money
	Category  string
}

// Repository defines read operations for the catalog.
type Repository interface {
	GetByID(ctx context.Context, id string) (*Item, error)
	List(ctx context.Context) ([]Item, error)
}
