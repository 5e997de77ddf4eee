package domain_test

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/greenlogist/internal/domain"
)

func TestNewQuantity_NormalizesUnit(t *testing.T) {
	q, err := domain.NewQuantity(decimal.NewFromInt(100), "  KG ")
	require.NoError(t, err)
	require.Equal(t, "kg", q.Unit)

	other, err := domain.NewQuantity(decimal.RequireFromString("100.00"), "kg")
	require.NoError(t, err)
	require.True(t, q.Equal(other))
}

func TestNewQuantity_Rejects(t *testing.T) {
	_, err := domain.NewQuantity(decimal.NewFromInt(-1), "kg")
	require.ErrorIs(t, err, domain.ErrInvalidValue)

	_, err = domain.NewQuantity(decimal.NewFromInt(1), " ")
	require.ErrorIs(t, err, domain.ErrInvalidValue)
}

func TestQuantityReduce(t *testing.T) {
	q, err := domain.NewQuantity(decimal.NewFromInt(100), "kg")
	require.NoError(t, err)

	next, err := q.Reduce(decimal.NewFromInt(30))
	require.NoError(t, err)
	require.True(t, next.Value.Equal(decimal.NewFromInt(70)))
	require.True(t, q.Value.Equal(decimal.NewFromInt(100)), "reduce must not mutate the receiver")

	_, err = q.Reduce(decimal.NewFromInt(101))
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	_, err = q.Reduce(decimal.Zero)
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	all, err := q.Reduce(decimal.NewFromInt(100))
	require.NoError(t, err)
	require.True(t, all.Value.IsZero())
}

func TestQuantityIncrease(t *testing.T) {
	q, err := domain.NewQuantity(decimal.NewFromInt(1), "kg")
	require.NoError(t, err)

	next, err := q.Increase(decimal.RequireFromString("0.5"))
	require.NoError(t, err)
	require.Equal(t, "1.5 kg", next.String())

	_, err = q.Increase(decimal.NewFromInt(-2))
	require.ErrorIs(t, err, domain.ErrNonPositiveAmount)
}

func TestNewPrice(t *testing.T) {
	p, err := domain.NewPrice(decimal.RequireFromString("2.50"), "usd")
	require.NoError(t, err)
	require.Equal(t, "USD", p.Currency)
	require.True(t, p.Matches(decimal.RequireFromString("2.5"), "Usd"))
	require.False(t, p.Matches(decimal.RequireFromString("2.00"), "USD"))
	require.False(t, p.Matches(decimal.RequireFromString("2.50"), "EUR"))

	_, err = domain.NewPrice(decimal.NewFromInt(-1), "USD")
	require.ErrorIs(t, err, domain.ErrInvalidValue)
	_, err = domain.NewPrice(decimal.NewFromInt(1), "")
	require.ErrorIs(t, err, domain.ErrInvalidValue)
}

func TestNewLocation(t *testing.T) {
	loc, err := domain.NewLocation(" Av. Arequipa 123 ", "Lima", "Peru")
	require.NoError(t, err)
	require.Equal(t, "Av. Arequipa 123", loc.Address)

	cases := [][3]string{
		{"", "Lima", "Peru"},
		{"Av. Arequipa 123", " ", "Peru"},
		{"Av. Arequipa 123", "Lima", ""},
	}
	for _, c := range cases {
		_, err := domain.NewLocation(c[0], c[1], c[2])
		require.ErrorIs(t, err, domain.ErrInvalidValue)
	}
}

func TestNewEmail(t *testing.T) {
	tests := []struct {
		raw     string
		want    domain.Email
		wantErr bool
	}{
		{raw: "Farmer@Example.COM", want: "farmer@example.com"},
		{raw: "  a@b.co ", want: "a@b.co"},
		{raw: "", wantErr: true},
		{raw: "no-at-sign.com", wantErr: true},
		{raw: "two words@example.com", wantErr: true},
		{raw: "user@nodot", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.raw, func(t *testing.T) {
			got, err := domain.NewEmail(tc.raw)
			if tc.wantErr {
				if !errors.Is(err, domain.ErrInvalidValue) {
					t.Fatalf("expected ErrInvalidValue, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("NewEmail(%q) = %q, want %q", tc.raw, got, tc.want)
			}
		})
	}
}

func TestNewPasswordHash(t *testing.T) {
	_, err := domain.NewPasswordHash("   ")
	require.ErrorIs(t, err, domain.ErrInvalidValue)

	h, err := domain.NewPasswordHash("$2a$10$abc")
	require.NoError(t, err)
	require.Equal(t, domain.PasswordHash("$2a$10$abc"), h)
}
