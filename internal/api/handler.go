// Package api is the HTTP boundary of the pricing engine: the discount code
// validation endpoint consumed by the site's client-side validator, and the
// price preview endpoint that feeds displayed "was/now" pairs.
package api

import (
	"context"
	"net/http"

	"github.com/go-faster/jx"

	"github.com/coursekit/pricing/internal/discount"
	"github.com/coursekit/pricing/internal/item"
)

// SitewideLookup reads the current site-wide discount configuration.
type SitewideLookup interface {
	Current(ctx context.Context) (*discount.SiteWide, error)
}

// Handler serves the pricing API endpoints.
type Handler struct {
	validator *discount.Service
	codes     discount.Repository
	items     item.Repository
	sitewide  SitewideLookup
	nonces    *NonceVerifier
}

// NewHandler constructs a Handler with the required collaborators.
func NewHandler(
	validator *discount.Service,
	codes discount.Repository,
	items item.Repository,
	sitewide SitewideLookup,
	nonces *NonceVerifier,
) *Handler {
	return &Handler{
		validator: validator,
		codes:     codes,
		items:     items,
		sitewide:  sitewide,
		nonces:    nonces,
	}
}

// Routes registers the API endpoints on the given mux.
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/validate-discount", h.ValidateDiscount)
	mux.HandleFunc("GET /api/nonce", h.IssueNonce)
	mux.HandleFunc("GET /api/price/{itemID}", h.PriceBreakdown)
}

// writeJSON encodes a response body with jx and writes it with the given
// status code.
func writeJSON(w http.ResponseWriter, status int, encode func(e *jx.Encoder)) {
	e := &jx.Encoder{}
	encode(e)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}
