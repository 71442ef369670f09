package history

import "time"

// Kind tags which analysis produced a history entry.
type Kind string

const (
	KindRepository Kind = "repo"
	KindProfile    Kind = "profile"
)

func (k Kind) Valid() bool {
	return k == KindRepository || k == KindProfile
}

// Label is the human form used by list renderers.
func (k Kind) Label() string {
	switch k {
	case KindRepository:
		return "Repository"
	case KindProfile:
		return "Profile"
	default:
		return string(k)
	}
}

// Entry is one past analysis. Key is the repository URL or the username and
// is unique across the persisted list. Metadata is stored as-is.
type Entry struct {
	Kind       Kind           `json:"kind"`
	Key        string         `json:"key"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	RecordedAt int64          `json:"recordedAt"`
}

// Time converts RecordedAt (milliseconds since epoch) to a time.Time.
func (e Entry) Time() time.Time {
	return time.UnixMilli(e.RecordedAt)
}
