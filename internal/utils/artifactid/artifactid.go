package artifactid

import (
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	entropyOnce sync.Once
	entropy     *ulid.MonotonicEntropy
)

func newEntropy() *ulid.MonotonicEntropy {
	entropyOnce.Do(func() {
		source := rand.NewSource(time.Now().UnixNano())
		entropy = ulid.Monotonic(rand.New(source), 0)
	})
	return entropy
}

// New returns an opaque lowercase ULID suitable for naming stored artifacts.
// The name carries no relation to the uploaded display name.
func New() string {
	id := ulid.MustNew(ulid.Timestamp(time.Now()), newEntropy())
	return strings.ToLower(id.String())
}

// IsValid reports whether the string is a well-formed artifact ULID.
func IsValid(value string) bool {
	_, err := ulid.Parse(strings.ToUpper(strings.TrimSpace(value)))
	return err == nil
}
