package dataset

import (
	"time"

	"github.com/dgallion1/teascroll/internal/source"
)

// Status is the outcome of one source in a pipeline run.
type Status string

const (
	StatusLoaded    Status = "loaded"
	StatusAbsent    Status = "absent"
	StatusMalformed Status = "malformed"
)

// SourceReport describes one source after a pipeline run.
type SourceReport struct {
	Source   source.ID `json:"source"`
	Path     string    `json:"path,omitempty"`
	Status   Status    `json:"status"`
	Records  int       `json:"records"`
	Error    string    `json:"error,omitempty"`
	Problems []string  `json:"problems,omitempty"`
}

// Report summarizes a pipeline run.
type Report struct {
	Sources  []SourceReport `json:"sources"`
	LoadedAt time.Time      `json:"loadedAt"`
	Cached   bool           `json:"cached"`
}

// Malformed lists catalog sources that failed to decode. Reading-room
// problems are per-file and never count.
func (r Report) Malformed() []SourceReport {
	var out []SourceReport
	for _, s := range r.Sources {
		if s.Status == StatusMalformed && s.Source != source.Readings {
			out = append(out, s)
		}
	}
	return out
}

// Lookup returns the entry for id.
func (r Report) Lookup(id source.ID) (SourceReport, bool) {
	for _, s := range r.Sources {
		if s.Source == id {
			return s, true
		}
	}
	return SourceReport{}, false
}
