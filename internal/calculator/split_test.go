package calculator

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/moneysplitter/backend/internal/errs"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestEqual(t *testing.T) {
	tests := []struct {
		name         string
		total        string
		participants []string
		wantErr      bool
		want         map[string]string
	}{
		{
			name:         "two-way split, no residual",
			total:        "50.00",
			participants: []string{"A", "B"},
			want:         map[string]string{"A": "25", "B": "25"},
		},
		{
			name:         "three-way split assigns residual cent to first participant",
			total:        "100.00",
			participants: []string{"A", "B", "C"},
			want:         map[string]string{"A": "33.34", "B": "33.33", "C": "33.33"},
		},
		{
			name:         "negative residual comes off the first participant",
			total:        "101.00",
			participants: []string{"A", "B", "C"},
			want:         map[string]string{"A": "33.66", "B": "33.67", "C": "33.67"},
		},
		{
			name:         "single participant owes everything",
			total:        "19.99",
			participants: []string{"A"},
			want:         map[string]string{"A": "19.99"},
		},
		{
			name:         "zero amount should error",
			total:        "0",
			participants: []string{"A"},
			wantErr:      true,
		},
		{
			name:         "negative amount should error",
			total:        "-5",
			participants: []string{"A"},
			wantErr:      true,
		},
		{
			name:         "no participants should error",
			total:        "10",
			participants: []string{},
			wantErr:      true,
		},
		{
			name:         "duplicate participant should error",
			total:        "10",
			participants: []string{"A", "A"},
			wantErr:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shares, err := Equal(dec(tt.total), tt.participants)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Equal() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if errs.KindOf(err) != errs.KindValidation {
					t.Errorf("error kind = %s, want %s", errs.KindOf(err), errs.KindValidation)
				}
				return
			}
			assertShares(t, shares, tt.want, dec(tt.total))
		})
	}
}

// TestEqualSumsExactly checks that equal splits never leak rounding error,
// across amounts that don't divide cleanly.
func TestEqualSumsExactly(t *testing.T) {
	participants := []string{"A", "B", "C", "D", "E", "F", "G"}
	for _, total := range []string{"0.01", "0.10", "1.00", "10.01", "99.99", "100.00", "1234.56"} {
		for n := 1; n <= len(participants); n++ {
			shares, err := Equal(dec(total), participants[:n])
			if err != nil {
				t.Fatalf("Equal(%s, %d participants) failed: %v", total, n, err)
			}
			sum := decimal.Zero
			for _, s := range shares {
				sum = sum.Add(s)
			}
			if !sum.Equal(dec(total)) {
				t.Errorf("Equal(%s, %d participants) shares sum to %s", total, n, sum)
			}
		}
	}
}

func TestEqualIsDeterministic(t *testing.T) {
	first, err := Equal(dec("100"), []string{"A", "B", "C"})
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 10; i++ {
		again, err := Equal(dec("100"), []string{"A", "B", "C"})
		if err != nil {
			t.Fatal(err)
		}
		for p, want := range first {
			if !again[p].Equal(want) {
				t.Fatalf("run %d: share for %s = %s, want %s", i, p, again[p], want)
			}
		}
	}
}

func TestWeighted(t *testing.T) {
	tests := []struct {
		name         string
		total        string
		participants []string
		weights      map[string]string
		wantErr      bool
		want         map[string]string
	}{
		{
			name:         "2:1 weights",
			total:        "30.00",
			participants: []string{"A", "B"},
			weights:      map[string]string{"A": "2", "B": "1"},
			want:         map[string]string{"A": "20", "B": "10"},
		},
		{
			name:         "uneven weights round with residual on first",
			total:        "100.00",
			participants: []string{"A", "B", "C"},
			weights:      map[string]string{"A": "1", "B": "1", "C": "1"},
			want:         map[string]string{"A": "33.34", "B": "33.33", "C": "33.33"},
		},
		{
			name:         "missing weight should error",
			total:        "10",
			participants: []string{"A", "B"},
			weights:      map[string]string{"A": "1"},
			wantErr:      true,
		},
		{
			name:         "zero weight should error",
			total:        "10",
			participants: []string{"A", "B"},
			weights:      map[string]string{"A": "1", "B": "0"},
			wantErr:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			weights := make(map[string]decimal.Decimal, len(tt.weights))
			for p, w := range tt.weights {
				weights[p] = dec(w)
			}
			shares, err := Weighted(dec(tt.total), tt.participants, weights)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Weighted() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			assertShares(t, shares, tt.want, dec(tt.total))
		})
	}
}

func TestFromAmounts(t *testing.T) {
	tests := []struct {
		name         string
		total        string
		participants []string
		amounts      map[string]string
		wantErr      bool
		wantKind     errs.Kind
	}{
		{
			name:         "exact sum succeeds",
			total:        "50.00",
			participants: []string{"A", "B"},
			amounts:      map[string]string{"A": "30.00", "B": "20.00"},
		},
		{
			name:         "sum within epsilon succeeds",
			total:        "50.00",
			participants: []string{"A", "B"},
			amounts:      map[string]string{"A": "30.00", "B": "20.01"},
		},
		{
			name:         "sum beyond epsilon fails with split mismatch",
			total:        "50.00",
			participants: []string{"A", "B"},
			amounts:      map[string]string{"A": "30.00", "B": "22.00"},
			wantErr:      true,
			wantKind:     errs.KindSplitMismatch,
		},
		{
			name:         "missing participant amount fails",
			total:        "50.00",
			participants: []string{"A", "B"},
			amounts:      map[string]string{"A": "50.00"},
			wantErr:      true,
			wantKind:     errs.KindValidation,
		},
		{
			name:         "negative amount fails",
			total:        "50.00",
			participants: []string{"A", "B"},
			amounts:      map[string]string{"A": "60.00", "B": "-10.00"},
			wantErr:      true,
			wantKind:     errs.KindValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amounts := make(map[string]decimal.Decimal, len(tt.amounts))
			for p, a := range tt.amounts {
				amounts[p] = dec(a)
			}
			_, err := FromAmounts(dec(tt.total), tt.participants, amounts)
			if (err != nil) != tt.wantErr {
				t.Fatalf("FromAmounts() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && errs.KindOf(err) != tt.wantKind {
				t.Errorf("error kind = %s, want %s", errs.KindOf(err), tt.wantKind)
			}
		})
	}
}

// TestFromAmountsDeltaInMessage checks the mismatch error names the exact delta.
func TestFromAmountsDeltaInMessage(t *testing.T) {
	_, err := FromAmounts(dec("50.00"), []string{"A", "B"}, map[string]decimal.Decimal{
		"A": dec("30.00"),
		"B": dec("22.00"),
	})
	if err == nil {
		t.Fatal("expected split mismatch error")
	}
	if got := err.Error(); !containsDelta(got, "2") {
		t.Errorf("error %q does not name the delta", got)
	}
}

func containsDelta(s, delta string) bool {
	for i := 0; i+len(delta) <= len(s); i++ {
		if s[i:i+len(delta)] == delta {
			return true
		}
	}
	return false
}

func assertShares(t *testing.T, got map[string]decimal.Decimal, want map[string]string, total decimal.Decimal) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d shares, want %d", len(got), len(want))
	}
	sum := decimal.Zero
	for p, w := range want {
		if !got[p].Equal(dec(w)) {
			t.Errorf("share for %s = %s, want %s", p, got[p], w)
		}
		sum = sum.Add(got[p])
	}
	if !sum.Equal(total) {
		t.Errorf("shares sum to %s, want %s", sum, total)
	}
}
