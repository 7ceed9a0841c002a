// Package policy parses the continue-on-error option into the set of failure
// categories a push run tolerates.
package policy

import (
	"fmt"
	"sort"
	"strings"
)

// Category is a feed-reported failure an operator can opt to treat as non-fatal.
type Category string

const (
	// Duplicate covers a feed conflict: the package version already exists.
	Duplicate Category = "duplicate"
	// Invalid covers a server-side rejection of the uploaded package.
	Invalid Category = "invalid"
)

// Delimiter separates several categories inside one option value.
const Delimiter = ";"

var vocabulary = map[string]Category{
	string(Duplicate): Duplicate,
	string(Invalid):   Invalid,
}

// InvalidOptionError reports a continue-on-error token outside the vocabulary.
type InvalidOptionError struct {
	Token string
}

func (e *InvalidOptionError) Error() string {
	return fmt.Sprintf("Invalid option %s (parameter 'ContinueOnError')", e.Token)
}

// ToleratedErrors is the immutable set of tolerated categories.
// The zero value tolerates nothing.
type ToleratedErrors struct {
	set map[Category]struct{}
}

// Of builds a set directly from known categories.
func Of(categories ...Category) ToleratedErrors {
	t := ToleratedErrors{set: make(map[Category]struct{}, len(categories))}
	for _, c := range categories {
		t.set[c] = struct{}{}
	}
	return t
}

// Has reports whether c is tolerated.
func (t ToleratedErrors) Has(c Category) bool {
	_, ok := t.set[c]
	return ok
}

// Len returns the number of distinct tolerated categories.
func (t ToleratedErrors) Len() int {
	return len(t.set)
}

// Categories returns the tolerated categories in a stable order.
func (t ToleratedErrors) Categories() []Category {
	out := make([]Category, 0, len(t.set))
	for c := range t.set {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (t ToleratedErrors) String() string {
	parts := make([]string, 0, len(t.set))
	for _, c := range t.Categories() {
		parts = append(parts, string(c))
	}
	return strings.Join(parts, Delimiter)
}

// Parse matches every token against the vocabulary, case-insensitively and
// with commas removed. A comma is not a delimiter, so "duplicate,invalid"
// collapses to one unknown token. The first unknown token in input order
// fails the whole parse.
func Parse(tokens []string) (ToleratedErrors, error) {
	set := make(map[Category]struct{}, len(tokens))
	for _, token := range tokens {
		normalized := strings.ToLower(strings.ReplaceAll(token, ",", ""))
		c, ok := vocabulary[normalized]
		if !ok {
			return ToleratedErrors{}, &InvalidOptionError{Token: token}
		}
		set[c] = struct{}{}
	}
	return ToleratedErrors{set: set}, nil
}

// SplitTokens flattens repeated option values, splitting each on the
// delimiter. Blank pieces are dropped.
func SplitTokens(values []string) []string {
	var tokens []string
	for _, v := range values {
		for _, piece := range strings.Split(v, Delimiter) {
			if piece = strings.TrimSpace(piece); piece != "" {
				tokens = append(tokens, piece)
			}
		}
	}
	return tokens
}
