package slug

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// letters that do not decompose into base + combining mark under NFD.
var special = strings.NewReplacer(
	"đ", "d", "Đ", "d",
	"ı", "i", "ł", "l", "Ł", "l",
	"ø", "o", "Ø", "o", "ß", "ss",
)

// Generate creates a URL-friendly slug from a place or room name:
//
//	"Hồ Chí Minh"    -> "ho-chi-minh"
//	"Đà Nẵng"        -> "da-nang"
//	"Kadın  Giyim!"  -> "kadin-giyim"
func Generate(name string) string {
	s := special.Replace(strings.TrimSpace(name))

	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if out, _, err := transform.String(t, s); err == nil {
		s = out
	}

	s = nonAlnum.ReplaceAllString(strings.ToLower(s), "-")
	return strings.Trim(s, "-")
}
