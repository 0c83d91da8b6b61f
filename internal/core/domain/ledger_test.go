package domain_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/propstack/propstack_backend/internal/core/domain"
)

func stringPtr(s string) *string {
	return &s
}

func TestNormalizeLedgerType(t *testing.T) {
	tests := []struct {
		name string
		in   domain.LedgerType
		want domain.LedgerType
	}{
		{
			name: "empty legacy value maps to rental",
			in:   domain.LedgerType(""),
			want: domain.LedgerTypeRental,
		},
		{
			name: "rental stays rental",
			in:   domain.LedgerTypeRental,
			want: domain.LedgerTypeRental,
		},
		{
			name: "sale stays sale",
			in:   domain.LedgerTypeSale,
			want: domain.LedgerTypeSale,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, domain.NormalizeLedgerType(tt.in))
		})
	}
}

func TestTransaction_DedupeKey(t *testing.T) {
	date := time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC)

	tests := []struct {
		name        string
		transaction domain.Transaction
		want        string
	}{
		{
			name: "payment-backed entry keys on the payment reference",
			transaction: domain.Transaction{
				TransactionID: "txn-1",
				Type:          domain.TransactionTypeIncome,
				PaymentID:     stringPtr("pay-1"),
				Amount:        decimal.NewFromInt(800),
				Date:          date,
			},
			want: "payment:pay-1",
		},
		{
			name: "empty payment reference falls back to composite key",
			transaction: domain.Transaction{
				Type:            domain.TransactionTypeExpense,
				PaymentID:       stringPtr(""),
				ReferenceNumber: "INV-42",
				Amount:          decimal.NewFromInt(150),
				Date:            date,
			},
			want: "EXPENSE|INV-42|2026-03-15T10:30:00Z|150",
		},
		{
			name: "manual entry keys on immutable fields",
			transaction: domain.Transaction{
				Type:            domain.TransactionTypeIncome,
				ReferenceNumber: "REF-7",
				Amount:          decimal.NewFromFloat(99.50),
				Date:            date,
			},
			want: "INCOME|REF-7|2026-03-15T10:30:00Z|99.5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.transaction.DedupeKey())
		})
	}
}

func TestPayoutStatus_IsTerminal(t *testing.T) {
	tests := []struct {
		name   string
		status domain.PayoutStatus
		want   bool
	}{
		{name: "pending is not terminal", status: domain.PayoutStatusPending, want: false},
		{name: "completed is terminal", status: domain.PayoutStatusCompleted, want: true},
		{name: "failed is terminal", status: domain.PayoutStatusFailed, want: true},
		{name: "cancelled is terminal", status: domain.PayoutStatusCancelled, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.status.IsTerminal())
		})
	}
}

func TestComputeLedgerTotals(t *testing.T) {
	transactions := []domain.Transaction{
		{Type: domain.TransactionTypeIncome, Status: domain.TransactionStatusCompleted, Amount: decimal.NewFromInt(1000)},
		{Type: domain.TransactionTypeIncome, Status: domain.TransactionStatusCompleted, Amount: decimal.NewFromInt(250)},
		{Type: domain.TransactionTypeIncome, Status: domain.TransactionStatusCancelled, Amount: decimal.NewFromInt(9999)},
		{Type: domain.TransactionTypeExpense, Status: domain.TransactionStatusCompleted, Amount: decimal.NewFromInt(150)},
		{Type: domain.TransactionTypeExpense, Status: domain.TransactionStatusPending, Amount: decimal.NewFromInt(75)},
	}
	payouts := []domain.OwnerPayout{
		{Status: domain.PayoutStatusCompleted, Amount: decimal.NewFromInt(300)},
		{Status: domain.PayoutStatusPending, Amount: decimal.NewFromInt(500)},
		{Status: domain.PayoutStatusFailed, Amount: decimal.NewFromInt(400)},
	}

	totals := domain.ComputeLedgerTotals(transactions, payouts)

	assert.True(t, totals.TotalIncome.Equal(decimal.NewFromInt(1250)), "only completed income counts")
	assert.True(t, totals.TotalExpenses.Equal(decimal.NewFromInt(150)), "only completed expenses count")
	assert.True(t, totals.TotalOwnerPayouts.Equal(decimal.NewFromInt(300)), "only completed payouts count")
	assert.True(t, totals.RunningBalance().Equal(decimal.NewFromInt(800)))
}

func TestComputeLedgerTotals_Empty(t *testing.T) {
	totals := domain.ComputeLedgerTotals(nil, nil)

	assert.True(t, totals.TotalIncome.IsZero())
	assert.True(t, totals.TotalExpenses.IsZero())
	assert.True(t, totals.TotalOwnerPayouts.IsZero())
	assert.True(t, totals.RunningBalance().IsZero())
}

func TestPaymentIdempotencyKey(t *testing.T) {
	assert.Equal(t, "payment:pay-1", domain.PaymentIdempotencyKey("pay-1"))
}
