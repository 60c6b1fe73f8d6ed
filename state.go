package pdfannot

import "fmt"

// State is the lifecycle state of an Editor.
type State int

const (
	// StateEmpty means no document is loaded.
	StateEmpty State = iota
	// StateLoading means a document is being parsed.
	StateLoading
	// StateReady means a document is loaded and accepts input.
	StateReady
	// StateAwaitingTextInput means a text rectangle was drawn and the
	// editor waits for SubmitText or CancelText.
	StateAwaitingTextInput
)

var stateNames = [...]string{
	StateEmpty:             "empty",
	StateLoading:           "loading",
	StateReady:             "ready",
	StateAwaitingTextInput: "awaiting-text-input",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
