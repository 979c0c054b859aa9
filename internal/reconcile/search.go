package reconcile

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"painel/internal/core"
)

// Fold lowercases s and strips combining marks, so "João" folds to "joao".
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

// Search matches q against name, email, tax id and phone. An empty query
// returns every client.
func Search(clients []core.Client, q string) []core.Client {
	needle := Fold(strings.TrimSpace(q))
	out := make([]core.Client, 0, len(clients))
	for _, c := range clients {
		if needle == "" || matches(c, needle) {
			out = append(out, c)
		}
	}
	return out
}

func matches(c core.Client, needle string) bool {
	for _, field := range []string{c.Name, c.Email, c.CPF, c.Phone} {
		if strings.Contains(Fold(field), needle) {
			return true
		}
	}
	return false
}
