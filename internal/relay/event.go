// Package relay turns upstream completion lines into the newline-delimited
// JSON messages written to the browser.
package relay

// Kind classifies a parsed upstream line.
type Kind int

const (
	// Malformed lines are dropped: keep-alives, comments, bad JSON.
	Malformed Kind = iota
	Delta
	Done
	// Failed carries an error the upstream reported inside the stream.
	Failed
)

func (k Kind) String() string {
	switch k {
	case Delta:
		return "delta"
	case Done:
		return "done"
	case Failed:
		return "failed"
	default:
		return "malformed"
	}
}

// Event is one logical item from the upstream stream.
type Event struct {
	Kind    Kind
	Content string // Delta text or Failed message
	Raw     string // original line, kept for Malformed
}
