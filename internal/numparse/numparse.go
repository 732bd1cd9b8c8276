// Package numparse extracts numeric tokens from noisy text (quiz pages,
// audio transcripts) and sums them with exact decimal arithmetic.
package numparse

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// tokenRE matches, in priority order: group-separated numbers (optionally
// parenthesized, with fraction and exponent), plain decimals, plain integers.
// Alternative order matters: the first alternative that matches at a position
// wins, so "1,234.50" is consumed whole instead of as "1" and "234.50".
var tokenRE = regexp.MustCompile(
	`\([-+]?\d{1,3}(?:,\d{3})*(?:\.\d+)?(?:[eE][-+]?\d+)?\)` +
		`|[-+]?\d{1,3}(?:,\d{3})*(?:\.\d+)?(?:[eE][-+]?\d+)?` +
		`|[-+]?\d+\.\d+` +
		`|[-+]?\d+`,
)

// sanitizeRE strips everything that cannot appear in a decimal literal. Used
// as a second parsing attempt before a token is dropped.
var sanitizeRE = regexp.MustCompile(`[^0-9eE+\-.]`)

// Token is one matched numeric substring and its parsed value.
type Token struct {
	Raw   string          `json:"raw"`
	Value decimal.Decimal `json:"value"`
}

// Result carries the scanned transcript, the tokens in match order and their
// exact sum.
type Result struct {
	Transcript string
	Tokens     []Token
	Total      decimal.Decimal
}

// Extract scans text left to right and returns every parseable numeric token
// together with the exact decimal sum. Parenthesized amounts follow the
// accounting convention and are treated as negative. Tokens that fail to
// parse even after sanitization are dropped silently. Extract is pure: same
// input, same output, no side effects.
func Extract(text string) Result {
	res := Result{Transcript: text, Total: decimal.Zero}
	if text == "" {
		return res
	}

	for _, match := range tokenRE.FindAllString(text, -1) {
		raw := match
		cleaned := strings.TrimSpace(strings.ReplaceAll(match, ",", ""))
		if strings.HasPrefix(cleaned, "(") && strings.HasSuffix(cleaned, ")") {
			cleaned = "-" + strings.Trim(cleaned, "()")
			raw = strings.Trim(match, "()")
		}

		value, err := decimal.NewFromString(cleaned)
		if err != nil {
			fallback := sanitizeRE.ReplaceAllString(cleaned, "")
			value, err = decimal.NewFromString(fallback)
			if err != nil {
				continue
			}
		}

		res.Tokens = append(res.Tokens, Token{Raw: raw, Value: value})
		res.Total = res.Total.Add(value)
	}
	return res
}

// RenderTotal formats a total the way answers are submitted: as an integer
// when the fractional part is exactly zero, otherwise as the closest float.
func RenderTotal(total decimal.Decimal) string {
	if total.IsInteger() {
		return total.Truncate(0).String()
	}
	f, _ := total.Float64()
	return strconv.FormatFloat(f, 'f', -1, 64)
}
