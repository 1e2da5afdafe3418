package services

import (
	"net/url"
	"path"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	slugInvalid    = regexp.MustCompile(`[^\w\s-]`)
	slugSeparators = regexp.MustCompile(`[-\s]+`)
)

// Slugify lowercases s, folds accents to ASCII, drops everything else that is
// not a word character, and joins words with hyphens.
func Slugify(s string) string {
	folded, _, err := transform.String(transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn))), s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	for _, r := range folded {
		if r <= unicode.MaxASCII {
			b.WriteRune(r)
		}
	}

	out := slugInvalid.ReplaceAllString(strings.ToLower(b.String()), "")
	out = slugSeparators.ReplaceAllString(out, "-")
	return strings.Trim(out, "-_")
}

// ImageExtension returns the lowercased file extension of rawURL's path.
func ImageExtension(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(strings.TrimPrefix(path.Ext(u.Path), "."))
}

// AllowedExtension reports whether rawURL ends in one of allowed.
func AllowedExtension(rawURL string, allowed []string) bool {
	ext := ImageExtension(rawURL)
	if ext == "" {
		return false
	}
	for _, a := range allowed {
		if strings.EqualFold(a, ext) {
			return true
		}
	}
	return false
}
