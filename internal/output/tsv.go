package output

import (
	"fmt"
	"strings"
	"time"

	"repolens/internal/data/history"
	"repolens/internal/shared/util"
)

// HistoryTSVGenerator lists history entries most recent first, one per line.
type HistoryTSVGenerator struct {
	entries  []history.Entry
	location *time.Location
}

func NewHistoryTSVGenerator(entries []history.Entry) *HistoryTSVGenerator {
	return &HistoryTSVGenerator{entries: entries, location: time.Local}
}

// SetLocation changes the zone timestamps are printed in.
func (h *HistoryTSVGenerator) SetLocation(loc *time.Location) {
	if loc != nil {
		h.location = loc
	}
}

func (h *HistoryTSVGenerator) Generate() (string, error) {
	var buf strings.Builder

	buf.WriteString("Kind\tKey\tRecorded\tDetails\n")
	for _, entry := range h.entries {
		buf.WriteString(fmt.Sprintf("%s\t%s\t%s\t%s\n",
			entry.Kind.Label(),
			entry.Key,
			entry.Time().In(h.location).Format(time.RFC3339),
			FormatMetadata(entry.Metadata),
		))
	}

	return buf.String(), nil
}

// FormatMetadata renders metadata as space separated key=value pairs in key order.
func FormatMetadata(meta map[string]any) string {
	if len(meta) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(meta))
	for _, key := range util.SortedStringKeys(meta) {
		parts = append(parts, fmt.Sprintf("%s=%v", key, meta[key]))
	}
	return strings.Join(parts, " ")
}
