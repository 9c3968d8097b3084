// Package pager implements the paginated job view: a session holding a
// snapshot of jobs and a cursor, the events that move it, and its rendering.
package pager

import (
	"errors"
	"time"

	"job-bot-go/internal/models"
)

var (
	ErrSessionExpired  = errors.New("pager: session expired")
	ErrSessionNotFound = errors.New("pager: session not found")
	ErrUnknownEvent    = errors.New("pager: unknown event")
)

// EventKind identifies a user interaction with a paginated view.
type EventKind int

const (
	EventPrevious EventKind = iota + 1
	EventNext
	EventToggleDescription
	EventSave
	EventApply
	EventTimeout
)

// Event is one interaction, stamped with the time it happened.
type Event struct {
	Kind EventKind
	At   time.Time
}

// Session is the state behind one rendered message. Jobs is never modified
// after creation.
type Session struct {
	ID         string
	Jobs       []models.Job
	Cursor     int
	Expanded   bool
	OwnerID    string
	ChannelID  string
	MessageID  string
	LastActive time.Time
	Expired    bool
}

// Current returns the job under the cursor.
func (s Session) Current() (models.Job, bool) {
	if s.Cursor < 0 || s.Cursor >= len(s.Jobs) {
		return models.Job{}, false
	}
	return s.Jobs[s.Cursor], true
}

// EffectKind tells the caller what side effect a transition requests.
type EffectKind int

const (
	EffectNone EffectKind = iota
	EffectSave
	EffectApply
)

// Effect is a side effect requested by Transition. Job is nil when the
// session has no job under the cursor.
type Effect struct {
	Kind EffectKind
	Job  *models.Job
}

// Transition applies e to s and returns the new session with the effect the
// caller must carry out. It does no I/O. Every event on an expired session
// fails with ErrSessionExpired.
func Transition(s Session, e Event) (Session, Effect, error) {
	if s.Expired {
		return s, Effect{}, ErrSessionExpired
	}

	switch e.Kind {
	case EventTimeout:
		s.Expired = true
		return s, Effect{}, nil
	case EventPrevious:
		if s.Cursor > 0 {
			s.Cursor--
		} else {
			s.Cursor = max(len(s.Jobs)-1, 0)
		}
	case EventNext:
		if s.Cursor < len(s.Jobs)-1 {
			s.Cursor++
		} else {
			s.Cursor = 0
		}
	case EventToggleDescription:
		s.Expanded = !s.Expanded
	case EventSave, EventApply:
		effect := Effect{Kind: EffectSave}
		if e.Kind == EventApply {
			effect.Kind = EffectApply
		}
		if job, ok := s.Current(); ok {
			effect.Job = &job
		}
		s.LastActive = e.At
		return s, effect, nil
	default:
		return s, Effect{}, ErrUnknownEvent
	}

	s.LastActive = e.At
	return s, Effect{}, nil
}
