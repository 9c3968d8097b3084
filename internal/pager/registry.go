package pager

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"job-bot-go/internal/models"
)

// Action is the button part of a custom id.
type Action string

const (
	ActionPrevious Action = "prev"
	ActionNext     Action = "next"
	ActionToggle   Action = "toggle"
	ActionSave     Action = "save"
	ActionApply    Action = "apply"
)

const customIDPrefix = "jobs"

var actionEvents = map[Action]EventKind{
	ActionPrevious: EventPrevious,
	ActionNext:     EventNext,
	ActionToggle:   EventToggleDescription,
	ActionSave:     EventSave,
	ActionApply:    EventApply,
}

// EventKind returns the event a button press of a maps to.
func (a Action) EventKind() (EventKind, bool) {
	kind, ok := actionEvents[a]
	return kind, ok
}

// CustomID encodes a session id and action as "jobs:<id>:<action>".
func CustomID(sessionID string, action Action) string {
	return customIDPrefix + ":" + sessionID + ":" + string(action)
}

// ParseCustomID reverses CustomID.
func ParseCustomID(customID string) (string, Action, bool) {
	parts := strings.Split(customID, ":")
	if len(parts) != 3 || parts[0] != customIDPrefix || parts[1] == "" {
		return "", "", false
	}
	action := Action(parts[2])
	if _, ok := actionEvents[action]; !ok {
		return "", "", false
	}
	return parts[1], action, true
}

// Registry holds the live sessions. A session idle for longer than the
// timeout is expired lazily on its next event or by Sweep.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	timeout  time.Duration
	now      func() time.Time
}

func NewRegistry(timeout time.Duration) *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		timeout:  timeout,
		now:      time.Now,
	}
}

// Create registers a new session over jobs owned by ownerID.
func (r *Registry) Create(jobs []models.Job, ownerID string) Session {
	snapshot := make([]models.Job, len(jobs))
	copy(snapshot, jobs)

	s := &Session{
		ID:         uuid.NewString(),
		Jobs:       snapshot,
		OwnerID:    ownerID,
		LastActive: r.now(),
	}

	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()
	return *s
}

// Attach records where the session's message was posted so the sweeper can
// disable its buttons later.
func (r *Registry) Attach(id, channelID, messageID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[id]; ok {
		s.ChannelID = channelID
		s.MessageID = messageID
	}
}

// Get returns a copy of the session.
func (r *Registry) Get(id string) (Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return Session{}, false
	}
	return *s, true
}

// Dispatch applies an event of the given kind to the session and stores the
// result.
func (r *Registry) Dispatch(id string, kind EventKind) (Session, Effect, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return Session{}, Effect{}, ErrSessionNotFound
	}

	now := r.now()
	if r.idle(*s, now) {
		expired, _, _ := Transition(*s, Event{Kind: EventTimeout, At: now})
		delete(r.sessions, id)
		return expired, Effect{}, ErrSessionExpired
	}

	next, effect, err := Transition(*s, Event{Kind: kind, At: now})
	if err != nil {
		return *s, Effect{}, err
	}
	*s = next
	return next, effect, nil
}

// Sweep expires and removes every session idle at now and returns them in
// their expired state.
func (r *Registry) Sweep(now time.Time) []Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	var expired []Session
	for id, s := range r.sessions {
		if !r.idle(*s, now) {
			continue
		}
		next, _, err := Transition(*s, Event{Kind: EventTimeout, At: now})
		if err == nil {
			expired = append(expired, next)
		}
		delete(r.sessions, id)
	}
	return expired
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (r *Registry) idle(s Session, now time.Time) bool {
	return now.Sub(s.LastActive) >= r.timeout
}
