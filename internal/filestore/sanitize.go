package filestore

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// asciiFold decomposes characters (NFKD) and drops the combining marks, so
// "café" becomes "cafe". Whatever is still non-ASCII is removed afterwards.
var asciiFold = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))

// SanitizeFilename reduces a client-supplied name to a safe, flat file name:
// path separators become spaces, whitespace runs become "_", only ASCII
// letters, digits, "_", "." and "-" survive, and leading/trailing "." and "_"
// are trimmed. The result may be empty.
func SanitizeFilename(name string) string {
	folded, _, err := transform.String(asciiFold, name)
	if err != nil {
		folded = name
	}

	folded = strings.NewReplacer("/", " ", `\`, " ").Replace(folded)
	folded = strings.Join(strings.Fields(folded), "_")

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '_', r == '.', r == '-':
			b.WriteRune(r)
		}
	}

	return strings.Trim(b.String(), "._")
}

// storedName sanitizes filename and makes sure the allow-listed extension
// survives. Names that sanitize to nothing (or lose their extension, as an
// all-non-ASCII stem does) fall back to "file.<ext>".
func storedName(filename string) string {
	ext, _ := extension(filename)
	name := SanitizeFilename(filename)

	if name == "" || !strings.HasSuffix(strings.ToLower(name), "."+ext) {
		return "file." + ext
	}
	return name
}
