package device

import "strings"

// Class is the coarse device classification derived from the identity string
// a reader presents (its User-Agent). It drives conversion and delivery
// behavior: Kindle browsers need attachment downloads and MOBI output, Kobo
// readers prefer kepub-flavored EPUBs served inline.
type Class string

const (
	ClassKindle  Class = "kindle"
	ClassKobo    Class = "kobo"
	ClassGeneric Class = "generic"
)

// Classify derives the device class from an identity string.
func Classify(identity string) Class {
	lowered := strings.ToLower(identity)
	switch {
	case strings.Contains(lowered, "kindle"):
		return ClassKindle
	case strings.Contains(lowered, "kobo"):
		return ClassKobo
	default:
		return ClassGeneric
	}
}

// WantsAttachment reports whether downloads for this class need a
// Content-Disposition attachment hint instead of inline streaming.
func (c Class) WantsAttachment() bool {
	return c == ClassKindle
}
