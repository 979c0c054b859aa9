// Package core provides the loan-servicing domain model.
//
// This file contains the interest arithmetic and the display helpers for
// Brazilian real amounts and phone numbers.
package core

import (
	"math"
	"strconv"
	"strings"
	"unicode"
)

// TotalWithInterest returns principal plus simple interest at rate percent.
// The installment count plays no part in it.
//
// Example:
//   TotalWithInterest(1000, 30) -> 1300
func TotalWithInterest(principal, rate float64) float64 {
	return principal + principal*rate/100
}

// FormatBRL formats an amount as "R$ 1.234,56".
func FormatBRL(v float64) string {
	cents := int64(math.Round(v * 100))
	neg := cents < 0
	if neg {
		cents = -cents
	}
	reais := strconv.FormatInt(cents/100, 10)
	rem := cents % 100

	var b strings.Builder
	for i, r := range reais {
		if i > 0 && (len(reais)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	s := "R$ " + b.String() + "," + strconv.FormatInt(rem/10, 10) + strconv.FormatInt(rem%10, 10)
	if neg {
		return "-" + s
	}
	return s
}

// NormalizePhone keeps digits only and adds the 55 country prefix when it is
// missing. Empty input stays empty.
func NormalizePhone(s string) string {
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)
	if digits == "" {
		return ""
	}
	if !strings.HasPrefix(digits, "55") {
		return "55" + digits
	}
	return digits
}
