package api

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNonceVerifier(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	newVerifier := func(at time.Time) *NonceVerifier {
		v := NewNonceVerifier([]byte("test-secret"), 10*time.Minute)
		v.now = func() time.Time { return at }
		return v
	}

	t.Run("issued nonce verifies for the same action", func(t *testing.T) {
		v := newVerifier(base)
		token := v.Issue(ActionValidateDiscount)
		assert.True(t, v.Verify(ActionValidateDiscount, token))
	})

	t.Run("nonce is bound to the action", func(t *testing.T) {
		v := newVerifier(base)
		token := v.Issue(ActionValidateDiscount)
		assert.False(t, v.Verify("other_action", token))
	})

	t.Run("nonce from the previous bucket still verifies", func(t *testing.T) {
		issuer := newVerifier(base)
		token := issuer.Issue(ActionValidateDiscount)

		later := newVerifier(base.Add(12 * time.Minute))
		assert.True(t, later.Verify(ActionValidateDiscount, token))
	})

	t.Run("stale nonce is rejected", func(t *testing.T) {
		issuer := newVerifier(base)
		token := issuer.Issue(ActionValidateDiscount)

		later := newVerifier(base.Add(25 * time.Minute))
		assert.False(t, later.Verify(ActionValidateDiscount, token))
	})

	t.Run("malformed tokens are rejected", func(t *testing.T) {
		v := newVerifier(base)
		for _, token := range []string{"", ":", "abc", "123", "xyz:deadbeef", "123:"} {
			assert.False(t, v.Verify(ActionValidateDiscount, token), token)
		}
	})

	t.Run("different secrets do not cross-verify", func(t *testing.T) {
		a := NewNonceVerifier([]byte("secret-a"), 10*time.Minute)
		b := NewNonceVerifier([]byte("secret-b"), 10*time.Minute)
		token := a.Issue(ActionValidateDiscount)
		require.False(t, b.Verify(ActionValidateDiscount, token))
	})
}
