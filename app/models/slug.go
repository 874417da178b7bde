package models

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// fallbackSlug is used when a title has no characters that survive slugging.
const fallbackSlug = "post"

// MaxSlugLength matches the width of the posts.slug column.
const MaxSlugLength = 255

// letters that have no canonical decomposition into an ASCII base letter
var slugLetters = strings.NewReplacer(
	"ı", "i",
	"ß", "ss",
	"æ", "ae",
	"ø", "o",
	"đ", "d",
	"ð", "d",
	"ł", "l",
	"œ", "oe",
	"þ", "th",
)

// Slugify turns a title into a lowercase ASCII, hyphen separated token.
func Slugify(title string) string {
	s := slugLetters.Replace(strings.ToLower(title))

	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(t, s); err == nil {
		s = folded
	}

	var b strings.Builder
	pendingHyphen := false
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}

	if b.Len() == 0 {
		return fallbackSlug
	}
	return truncateSlug(b.String(), MaxSlugLength)
}

// truncateSlug cuts an ASCII slug to at most n bytes without leaving a
// trailing hyphen.
func truncateSlug(slug string, n int) string {
	if len(slug) <= n {
		return slug
	}
	return strings.TrimRight(slug[:n], "-")
}

// UniqueSlug slugifies the title and appends -1, -2, ... until taken reports
// the candidate as free. The base is shortened so the suffixed slug still
// fits in MaxSlugLength.
func UniqueSlug(title string, taken func(slug string) (bool, error)) (string, error) {
	base := Slugify(title)
	slug := base
	for i := 1; ; i++ {
		exists, err := taken(slug)
		if err != nil {
			return "", err
		}
		if !exists {
			return slug, nil
		}
		suffix := fmt.Sprintf("-%d", i)
		slug = truncateSlug(base, MaxSlugLength-len(suffix)) + suffix
	}
}
