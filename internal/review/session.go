package review

import (
	"errors"

	"github.com/Veraticus/smsledger/internal/model"
)

// Session errors.
var (
	ErrSessionActive = errors.New("an annotation session is already open")
	ErrNoSession     = errors.New("no annotation session is open")
	ErrSubmitting    = errors.New("annotation is being submitted")
)

// Session tracks the one candidate open for annotation and its tag text.
type Session struct {
	active *model.Candidate
	tag    string
}

// NewSession creates a session with nothing open.
func NewSession() *Session {
	return &Session{}
}

// Open starts annotating c. Only one candidate may be open at a time.
func (s *Session) Open(c model.Candidate) error {
	if s.active != nil {
		return ErrSessionActive
	}

	c.Status = model.StatusAnnotating
	c.Tag = ""
	s.active = &c
	s.tag = ""
	return nil
}

// UpdateTag replaces the tag being composed.
func (s *Session) UpdateTag(text string) error {
	if s.active == nil {
		return ErrNoSession
	}
	if s.active.Status == model.StatusSubmitting {
		return ErrSubmitting
	}
	s.tag = text
	return nil
}

// BeginSubmit moves the open candidate to SUBMITTING and returns it along
// with the tag to send.
func (s *Session) BeginSubmit() (model.Candidate, string, error) {
	if s.active == nil {
		return model.Candidate{}, "", ErrNoSession
	}
	if s.active.Status == model.StatusSubmitting {
		return model.Candidate{}, "", ErrSubmitting
	}

	s.active.Status = model.StatusSubmitting
	s.active.Tag = s.tag
	return *s.active, s.tag, nil
}

// Close clears the session. Safe to call when nothing is open.
func (s *Session) Close() {
	s.active = nil
	s.tag = ""
}

// Active returns the open candidate, if any.
func (s *Session) Active() (model.Candidate, bool) {
	if s.active == nil {
		return model.Candidate{}, false
	}
	c := *s.active
	c.Tag = s.tag
	return c, true
}

// Tag returns the tag being composed.
func (s *Session) Tag() string {
	return s.tag
}

// IsOpen reports whether a candidate is open.
func (s *Session) IsOpen() bool {
	return s.active != nil
}
