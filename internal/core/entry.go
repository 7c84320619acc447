// Package core provides the expense domain types and input parsing.
//
// This file contains the small grammar used to read "<amount> [description]"
// messages typed by users after choosing a category.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Entry is the parsed form of an amount message.
type Entry struct {
	Amount      decimal.Decimal
	Description string
}

// ParseEntry reads an amount followed by an optional description.
//
// Grammar, applied after trimming surrounding whitespace:
//
//	entry = [sign] digits [sep digits] rest
//	sign  = "+" | "-"
//	sep   = "." | ","
//
// The separator is consumed only when a digit follows it. Whatever remains is
// trimmed and becomes the description; an empty one is replaced with
// DefaultDescription. The amount keeps every fractional digit typed.
//
// Examples:
//
//	ParseEntry("50 biedronka") -> 50, "biedronka"
//	ParseEntry("12,5 taxi")    -> 12.5, "taxi"
//	ParseEntry("7")            -> 7, "Bez opisu"
//	ParseEntry("taxi 12")      -> ErrNoAmount
//	ParseEntry("-3 zwrot")     -> ErrNegativeAmount
func ParseEntry(text string) (Entry, error) {
	s := strings.TrimSpace(text)
	i := 0
	negative := false
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		negative = s[i] == '-'
		i++
	}

	intStart := i
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	if i == intStart {
		return Entry{}, ErrNoAmount
	}
	number := s[intStart:i]

	if i+1 < len(s) && (s[i] == '.' || s[i] == ',') && isDigit(s[i+1]) {
		fracStart := i + 1
		i = fracStart
		for i < len(s) && isDigit(s[i]) {
			i++
		}
		number += "." + s[fracStart:i]
	}

	amount, err := decimal.NewFromString(number)
	if err != nil {
		return Entry{}, ErrNoAmount
	}
	if negative && !amount.IsZero() {
		return Entry{}, ErrNegativeAmount
	}

	desc := strings.TrimSpace(s[i:])
	if desc == "" {
		desc = DefaultDescription
	}
	return Entry{Amount: amount, Description: desc}, nil
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
