package domain

import "iter"

// Intent is the input to the orchestrator. Exactly one source is expected:
// Action (pre-parsed) wins over Stream, which wins over Text.
type Intent struct {
	Text   string
	Stream iter.Seq[string]
	Action *Action
}

// TextIntent wraps free text or a raw JSON payload.
func TextIntent(text string) Intent {
	return Intent{Text: text}
}

// StreamIntent wraps a fragment stream, e.g. model output.
func StreamIntent(seq iter.Seq[string]) Intent {
	return Intent{Stream: seq}
}

// ActionIntent wraps an already parsed action.
func ActionIntent(a Action) Intent {
	return Intent{Action: &a}
}

// Source returns a human readable description of the intent for the task record.
func (i Intent) Source() string {
	switch {
	case i.Action != nil:
		return i.Action.Name
	case i.Stream != nil:
		return ""
	default:
		return i.Text
	}
}
