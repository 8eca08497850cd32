package upload

import (
	"path"
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const octetStream = "application/octet-stream"

// allowedMIMEs is the fixed content-type allow-list: ebook formats plus the
// generic archive types comic archives actually sniff as. Not configurable.
var allowedMIMEs = map[string]struct{}{
	"application/epub+zip":           {},
	"application/x-mobipocket-ebook": {},
	"application/pdf":                {},
	"application/vnd.comicbook+zip":  {},
	"application/vnd.comicbook-rar":  {},
	"text/html":                      {},
	"text/plain":                     {},
	"application/zip":                {},
	"application/x-rar-compressed":   {},
	"application/vnd.rar":            {},
}

// allowedExtensions is the separate fixed extension allow-list.
var allowedExtensions = map[string]struct{}{
	".epub": {},
	".mobi": {},
	".pdf":  {},
	".cbz":  {},
	".cbr":  {},
	".html": {},
	".txt":  {},
}

var asciiFold = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// SanitizeFilename strips any path components and characters that are unsafe
// in filesystem names or HTTP headers. An empty result becomes "upload".
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(name)

	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r < 0x20 || r == 0x7f:
		case strings.ContainsRune(`<>:"/\|?*`, r):
		default:
			b.WriteRune(r)
		}
	}
	cleaned := strings.Trim(b.String(), " .")
	if cleaned == "" {
		return "upload"
	}
	return cleaned
}

// Transliterate folds non-ASCII characters to their closest ASCII form
// (decompose, drop combining marks) and discards what cannot be folded. The
// final extension survives because extension characters are already ASCII.
func Transliterate(name string) string {
	folded, _, err := transform.String(asciiFold, name)
	if err != nil {
		folded = name
	}
	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if r < 0x80 {
			b.WriteRune(r)
		}
	}
	out := b.String()
	if strings.Trim(out, " .") == "" {
		return "upload" + strings.ToLower(filepath.Ext(name))
	}
	return out
}

// NormalizeContentType lowercases a declared content type, strips parameters
// and maps the legacy "application/epub" declaration to the canonical type.
func NormalizeContentType(declared string) string {
	declared = strings.ToLower(strings.TrimSpace(declared))
	if i := strings.IndexByte(declared, ';'); i >= 0 {
		declared = strings.TrimSpace(declared[:i])
	}
	if declared == "application/epub" {
		return "application/epub+zip"
	}
	return declared
}

// AllowedType reports whether a normalized content type is in the allow-list.
func AllowedType(contentType string) bool {
	_, ok := allowedMIMEs[contentType]
	return ok
}

// AllowedExtension reports whether the filename's extension (case-insensitive)
// is in the extension allow-list.
func AllowedExtension(name string) bool {
	_, ok := allowedExtensions[strings.ToLower(filepath.Ext(name))]
	return ok
}

// retargetExtension swaps a display name's extension for the converter output
// format. Idempotent: an already-canonical name is returned unchanged.
func retargetExtension(name, ext string) string {
	if strings.HasSuffix(strings.ToLower(name), ext) {
		return name
	}
	return strings.TrimSuffix(name, filepath.Ext(name)) + ext
}
