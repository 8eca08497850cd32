package session

import "time"

// Conversion names the external converter that produced a stored artifact.
type Conversion string

const (
	ConversionNone      Conversion = "none"
	ConversionKindlegen Conversion = "kindlegen"
	ConversionKepubify  Conversion = "kepubify"
)

// FileRecord describes one stored artifact owned by a session. The display
// name is what the device sees; the storage name is opaque and unrelated.
type FileRecord struct {
	Name        string     `json:"name"`
	StorageName string     `json:"-"`
	ContentType string     `json:"-"`
	Conversion  Conversion `json:"-"`
	UploadedAt  time.Time  `json:"-"`
}

// Session pairs one device with an uploader for as long as either expiry
// timer allows. All fields are guarded by the owning registry's mutex.
type Session struct {
	Key            string
	DeviceIdentity string
	CreatedAt      time.Time
	LastActive     time.Time

	files   []FileRecord
	urls    []string
	urlSeen map[string]struct{}

	idleTimer *time.Timer
	hardTimer *time.Timer
}

// Snapshot is a read-only copy of session state handed out to handlers.
type Snapshot struct {
	Key            string
	DeviceIdentity string
	CreatedAt      time.Time
	Files          []FileRecord
	URLs           []string
}
