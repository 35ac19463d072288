package api

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/coursekit/pricing/internal/discount"
	"github.com/coursekit/pricing/internal/item"
)

// PriceBreakdown resolves an item's displayed price under the current
// site-wide discount plus an optional confirmed code (query parameter
// "code"). A code that is no longer redeemable at resolution time is simply
// not applied, mirroring the displayed-savings guard: the badge only shows
// for a strictly lower price.
func (h *Handler) PriceBreakdown(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	it, err := h.items.GetByID(ctx, r.PathValue("itemID"))
	if err != nil {
		if errors.Is(err, item.ErrNotFound) {
			writeRequestRejection(w, http.StatusNotFound, "Item not found.")
			return
		}
		zctx.From(ctx).Error("item lookup failed", zap.Error(err))
		writeRequestRejection(w, http.StatusInternalServerError, "Pricing unavailable.")
		return
	}

	sw, err := h.sitewide.Current(ctx)
	if err != nil {
		zctx.From(ctx).Error("site-wide discount lookup failed", zap.Error(err))
		writeRequestRejection(w, http.StatusInternalServerError, "Pricing unavailable.")
		return
	}

	var code *discount.Code
	if raw := r.URL.Query().Get("code"); discount.Normalize(raw) != "" {
		found, err := h.codes.FindByCode(ctx, discount.Normalize(raw))
		switch {
		case errors.Is(err, discount.ErrCodeNotFound):
			// Confirmed earlier, gone now: price without it.
		case err != nil:
			zctx.From(ctx).Error("discount code lookup failed", zap.Error(err))
			writeRequestRejection(w, http.StatusInternalServerError, "Pricing unavailable.")
			return
		case found.Status == discount.StatusActive && found.InScope:
			code = found
		}
	}

	b := discount.Resolve(it.BasePrice, sw, code)

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("itemId")
		e.Str(it.ID)
		e.FieldStart("original")
		e.Str(b.Original.String())
		e.FieldStart("afterSiteWide")
		e.Str(b.AfterSiteWide.String())
		e.FieldStart("afterCode")
		e.Str(b.AfterCode.String())
		e.FieldStart("final")
		e.Str(b.Final.String())
		e.FieldStart("siteWideApplied")
		e.Bool(b.SiteWideApplied)
		e.FieldStart("codeApplied")
		e.Bool(b.CodeApplied)
		e.FieldStart("savingsPercent")
		e.Int(b.SavingsPercent)
		if b.SiteWideApplied && sw.Label != "" {
			e.FieldStart("saleLabel")
			e.Str(sw.Label)
		}
		e.ObjEnd()
	})
}
