package core

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseEntry(t *testing.T) {
	cases := []struct {
		in     string
		amount string
		desc   string
		err    error
	}{
		{"50 biedronka", "50", "biedronka", nil},
		{"12,5 taxi", "12.5", "taxi", nil},
		{"12.5 taxi", "12.5", "taxi", nil},
		{"7", "7", DefaultDescription, nil},
		{"  3.99   chleb i masło  ", "3.99", "chleb i masło", nil},
		{"50biedronka", "50", "biedronka", nil},
		{"+8 kawa", "8", "kawa", nil},
		{"0.125 grosze", "0.125", "grosze", nil},
		{"12. taxi", "12", ". taxi", nil},
		{"1,2,3", "1.2", ",3", nil},
		{"-0", "0", DefaultDescription, nil},
		{"not-a-number", "", "", ErrNoAmount},
		{"taxi 12", "", "", ErrNoAmount},
		{",5", "", "", ErrNoAmount},
		{"", "", "", ErrNoAmount},
		{"+", "", "", ErrNoAmount},
		{"-3 zwrot", "", "", ErrNegativeAmount},
	}
	for _, tc := range cases {
		got, err := ParseEntry(tc.in)
		if tc.err != nil {
			if !errors.Is(err, tc.err) {
				t.Fatalf("%q expected %v, got %v", tc.in, tc.err, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%q unexpected error: %v", tc.in, err)
		}
		if !got.Amount.Equal(decimal.RequireFromString(tc.amount)) {
			t.Fatalf("%q expected amount %s, got %s", tc.in, tc.amount, got.Amount)
		}
		if got.Description != tc.desc {
			t.Fatalf("%q expected description %q, got %q", tc.in, tc.desc, got.Description)
		}
	}
}
