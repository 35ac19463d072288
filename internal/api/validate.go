package api

import (
	"net/http"

	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/coursekit/pricing/internal/discount"
)

// ActionValidateDiscount is the form action discriminator the client sends.
const ActionValidateDiscount = "validate_discount_code"

// ValidateDiscount handles the form-encoded validation call issued while a
// visitor types a code. The response distinguishes two layers:
//
//   - request-level rejection (wrong action, bad nonce): success=false and a
//     data.message without a valid flag — the client must not render this as
//     a field error;
//   - business-level completion: success=true and data.{valid,message}.
//
// Validation is read-only; redemption counters are untouched.
func (h *Handler) ValidateDiscount(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeRequestRejection(w, http.StatusBadRequest, "Malformed request.")
		return
	}

	if action := r.PostFormValue("action"); action != ActionValidateDiscount {
		writeRequestRejection(w, http.StatusBadRequest, "Unknown action.")
		return
	}

	if !h.nonces.Verify(ActionValidateDiscount, r.PostFormValue("nonce")) {
		writeRequestRejection(w, http.StatusForbidden, "Security check failed.")
		return
	}

	result, err := h.validator.Validate(r.Context(), r.PostFormValue("discount_code"))
	if err != nil {
		// Storage faults are transport-level: the client degrades to its
		// unknown state and defers to re-validation at submission.
		zctx.From(r.Context()).Error("discount validation failed", zap.Error(err))
		writeRequestRejection(w, http.StatusInternalServerError, "Validation unavailable.")
		return
	}

	writeValidationResult(w, result)
}

// IssueNonce hands out a fresh form nonce for the validation action. Pages
// embed one per render; dynamic clients refresh it here when theirs expires.
func (h *Handler) IssueNonce(w http.ResponseWriter, r *http.Request) {
	nonce := h.nonces.Issue(ActionValidateDiscount)
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("success")
		e.Bool(true)
		e.FieldStart("data")
		e.ObjStart()
		e.FieldStart("nonce")
		e.Str(nonce)
		e.FieldStart("action")
		e.Str(ActionValidateDiscount)
		e.ObjEnd()
		e.ObjEnd()
	})
}

func writeValidationResult(w http.ResponseWriter, result discount.ValidationResult) {
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("success")
		e.Bool(true)
		e.FieldStart("data")
		e.ObjStart()
		e.FieldStart("valid")
		e.Bool(result.Valid)
		e.FieldStart("message")
		e.Str(result.Message)
		if result.Kind != discount.ResultOK {
			e.FieldStart("code")
			e.Str(string(result.Kind))
		}
		e.ObjEnd()
		e.ObjEnd()
	})
}

func writeRequestRejection(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("success")
		e.Bool(false)
		e.FieldStart("data")
		e.ObjStart()
		e.FieldStart("message")
		e.Str(message)
		e.ObjEnd()
		e.ObjEnd()
	})
}
