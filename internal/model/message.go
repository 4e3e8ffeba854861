package model

// DefaultBox is the message box read by a run.
const DefaultBox = "inbox"

// RawMessage is a text message as handed out by the message store.
// It is owned by the store and never mutated here.
type RawMessage struct {
	ID      string
	Address string
	Body    string
}
