//go:build integration

package integration

import (
	"net/http"
	"net/url"
	"testing"
)

func validateForm(nonce, code string) url.Values {
	return url.Values{
		"action":        {"validate_discount_code"},
		"nonce":         {nonce},
		"discount_code": {code},
	}
}

func TestValidateDiscount_ValidCode(t *testing.T) {
	resp := doPostForm(t, "/api/validate-discount", validateForm(fetchNonce(t), "SAVE10"))
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	body := decodeJSON[envelope](t, resp)
	if !body.Success {
		t.Fatal("expected success=true")
	}
	if body.Data.Valid == nil || !*body.Data.Valid {
		t.Fatal("expected valid=true")
	}
	if body.Data.Message == "" {
		t.Error("expected a confirmation message")
	}
}

func TestValidateDiscount_CaseInsensitive(t *testing.T) {
	resp := doPostForm(t, "/api/validate-discount", validateForm(fetchNonce(t), "  save10 "))
	defer resp.Body.Close()

	body := decodeJSON[envelope](t, resp)
	if body.Data.Valid == nil || !*body.Data.Valid {
		t.Fatal("expected valid=true for lowercase padded input")
	}
}

func TestValidateDiscount_UnknownCode(t *testing.T) {
	resp := doPostForm(t, "/api/validate-discount", validateForm(fetchNonce(t), "NOSUCHCODE"))
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	body := decodeJSON[envelope](t, resp)
	if !body.Success {
		t.Fatal("expected success=true (business-level invalidity, not a rejection)")
	}
	if body.Data.Valid == nil || *body.Data.Valid {
		t.Fatal("expected valid=false")
	}
	if got, want := body.Data.Message, "This discount code is not valid."; got != want {
		t.Errorf("message: got %q, want %q", got, want)
	}
}

func TestValidateDiscount_EmptyInput(t *testing.T) {
	resp := doPostForm(t, "/api/validate-discount", validateForm(fetchNonce(t), ""))
	defer resp.Body.Close()

	body := decodeJSON[envelope](t, resp)
	if body.Data.Valid == nil || *body.Data.Valid {
		t.Fatal("expected valid=false for empty input")
	}
	if body.Data.Message != "" {
		t.Errorf("expected empty message (neutral clear), got %q", body.Data.Message)
	}
	if body.Data.Code != "empty_input" {
		t.Errorf("expected code empty_input, got %q", body.Data.Code)
	}
}

func TestValidateDiscount_BadNonce(t *testing.T) {
	resp := doPostForm(t, "/api/validate-discount", validateForm("not-a-real-nonce", "SAVE10"))
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}

	body := decodeJSON[envelope](t, resp)
	if body.Success {
		t.Fatal("expected success=false for a request-level rejection")
	}
	if body.Data.Valid != nil {
		t.Error("rejection must not carry a valid flag")
	}
}

func TestValidateDiscount_WrongAction(t *testing.T) {
	form := validateForm(fetchNonce(t), "SAVE10")
	form.Set("action", "something_else")

	resp := doPostForm(t, "/api/validate-discount", form)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}

	body := decodeJSON[envelope](t, resp)
	if body.Success {
		t.Fatal("expected success=false")
	}
}

// Validation must be read-only: hammering the endpoint with a usage-limited
// code must not consume its budget.
func TestValidateDiscount_DoesNotConsumeUses(t *testing.T) {
	for range 5 {
		resp := doPostForm(t, "/api/validate-discount", validateForm(fetchNonce(t), "LAUNCH25"))
		body := decodeJSON[envelope](t, resp)
		resp.Body.Close()

		if body.Data.Valid == nil || !*body.Data.Valid {
			t.Fatal("expected LAUNCH25 to stay valid across repeated validations")
		}
	}
}
