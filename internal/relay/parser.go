package relay

import (
	"encoding/json"
	"strings"
)

const (
	dataPrefix   = "data:"
	doneSentinel = "[DONE]"
)

type chunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`

	// OpenAI style.
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
	// Spark style: non-zero code with a message.
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// ParseLine decodes one upstream line. A line may yield a Delta followed by
// Done. Lines without the data prefix, undecodable payloads and payloads
// without choices yield a single Malformed event.
func ParseLine(line string) []Event {
	trimmed := strings.TrimRight(line, "\r\n")
	if !strings.HasPrefix(trimmed, dataPrefix) {
		return []Event{{Kind: Malformed, Raw: line}}
	}
	payload := strings.TrimSpace(strings.TrimPrefix(trimmed, dataPrefix))
	if payload == doneSentinel {
		return []Event{{Kind: Done}}
	}

	var c chunk
	if err := json.Unmarshal([]byte(payload), &c); err != nil {
		return []Event{{Kind: Malformed, Raw: line}}
	}
	if c.Error != nil {
		msg := c.Error.Message
		if msg == "" {
			msg = "upstream reported an error"
		}
		return []Event{{Kind: Failed, Content: msg}}
	}
	if c.Code != 0 {
		msg := c.Message
		if msg == "" {
			msg = "upstream reported an error"
		}
		return []Event{{Kind: Failed, Content: msg}}
	}
	if len(c.Choices) == 0 {
		return []Event{{Kind: Malformed, Raw: line}}
	}

	first := c.Choices[0]
	var events []Event
	if first.Delta.Content != "" {
		events = append(events, Event{Kind: Delta, Content: first.Delta.Content})
	}
	if first.FinishReason != nil && *first.FinishReason != "" {
		events = append(events, Event{Kind: Done})
	}
	return events
}
