package discount

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockCodeRepo struct {
	code      *Code
	err       error
	lookups   []string
	redeemed  []string
	redeemErr error
}

func (m *mockCodeRepo) FindByCode(_ context.Context, code string) (*Code, error) {
	m.lookups = append(m.lookups, code)
	return m.code, m.err
}

func (m *mockCodeRepo) RecordRedemption(_ context.Context, code string) error {
	m.redeemed = append(m.redeemed, code)
	return m.redeemErr
}

func TestService_Validate(t *testing.T) {
	tests := []struct {
		name        string
		repo        *mockCodeRepo
		input       string
		wantValid   bool
		wantKind    ResultKind
		wantMessage string
	}{
		{
			name:     "empty input is a neutral clear state",
			repo:     &mockCodeRepo{},
			input:    "",
			wantKind: ResultEmptyInput,
		},
		{
			name:     "whitespace-only input is empty after normalization",
			repo:     &mockCodeRepo{},
			input:    "   \t ",
			wantKind: ResultEmptyInput,
		},
		{
			name:        "unknown code",
			repo:        &mockCodeRepo{err: ErrCodeNotFound},
			input:       "unknown123",
			wantKind:    ResultNotFound,
			wantMessage: "This discount code is not valid.",
		},
		{
			name: "expired code",
			repo: &mockCodeRepo{code: &Code{
				Code: "OLDPROMO", Kind: KindPercentage, Status: StatusExpired,
			}},
			input:       "oldpromo",
			wantKind:    ResultExpired,
			wantMessage: "This discount code has expired.",
		},
		{
			name: "exhausted code",
			repo: &mockCodeRepo{code: &Code{
				Code: "LIMITED", Kind: KindPercentage, Status: StatusExhausted,
			}},
			input:       "LIMITED",
			wantKind:    ResultExhausted,
			wantMessage: "This discount code has reached its usage limit.",
		},
		{
			name: "unknown status maps to not found",
			repo: &mockCodeRepo{code: &Code{
				Code: "WEIRD", Kind: KindPercentage, Status: StatusUnknown,
			}},
			input:       "WEIRD",
			wantKind:    ResultNotFound,
			wantMessage: "This discount code is not valid.",
		},
		{
			name: "active but out of scope maps to not found",
			repo: &mockCodeRepo{code: &Code{
				Code: "COURSEONLY", Kind: KindPercentage, Percent: pct(10),
				Status: StatusActive, InScope: false,
			}},
			input:       "COURSEONLY",
			wantKind:    ResultNotFound,
			wantMessage: "This discount code is not valid.",
		},
		{
			name: "active percentage code is valid with savings message",
			repo: &mockCodeRepo{code: &Code{
				Code: "SAVE10", Kind: KindPercentage, Percent: pct(10),
				Status: StatusActive, InScope: true,
			}},
			input:       "save10",
			wantValid:   true,
			wantKind:    ResultOK,
			wantMessage: "Discount code applied: 10% off.",
		},
		{
			name: "active fixed code is valid with amount message",
			repo: &mockCodeRepo{code: &Code{
				Code: "NINEOFF", Kind: KindFixed, Amount: m("9.00"),
				Status: StatusActive, InScope: true,
			}},
			input:       " nineoff ",
			wantValid:   true,
			wantKind:    ResultOK,
			wantMessage: "Discount code applied: 9.00 off.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(tt.repo)

			res, err := svc.Validate(context.Background(), tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.wantValid, res.Valid)
			assert.Equal(t, tt.wantKind, res.Kind)
			assert.Equal(t, tt.wantMessage, res.Message)

			// Validation must never record a redemption.
			assert.Empty(t, tt.repo.redeemed)
		})
	}
}

func TestService_Validate_NormalizesBeforeLookup(t *testing.T) {
	repo := &mockCodeRepo{err: ErrCodeNotFound}
	svc := NewService(repo)

	_, err := svc.Validate(context.Background(), "  save10\t")
	require.NoError(t, err)
	require.Equal(t, []string{"SAVE10"}, repo.lookups)
}

func TestService_Validate_RepositoryFaultIsAnError(t *testing.T) {
	repo := &mockCodeRepo{err: errors.New("connection refused")}
	svc := NewService(repo)

	res, err := svc.Validate(context.Background(), "SAVE10")
	require.Error(t, err)
	// A storage fault is not evidence of an invalid code.
	assert.False(t, res.Valid)
	assert.Empty(t, res.Message)
}

func TestService_Validate_EmptyInputSkipsLookup(t *testing.T) {
	repo := &mockCodeRepo{}
	svc := NewService(repo)

	_, err := svc.Validate(context.Background(), "   ")
	require.NoError(t, err)
	assert.Empty(t, repo.lookups)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "SAVE10", Normalize(" save10 "))
	assert.Equal(t, "AB-12", Normalize("ab-12"))
	assert.Equal(t, "", Normalize(" \t\n"))
}
