// Package bot maps chat commands and button presses to searches, stored
// data and paginated job views.
package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/rs/zerolog"

	"job-bot-go/internal/jsearch"
	"job-bot-go/internal/pager"
	"job-bot-go/internal/recent"
	"job-bot-go/internal/storage"
)

// Options holds the dependencies of a Dispatcher.
type Options struct {
	Searcher  jsearch.Searcher
	Store     storage.Store
	Recent    recent.Buffer
	Registry  *pager.Registry
	Prefix    string
	PerSearch int
	// Latency reports the gateway heartbeat latency for the health command.
	Latency func() time.Duration
	Logger  zerolog.Logger
}

// Dispatcher runs commands independently of the chat platform.
type Dispatcher struct {
	searcher   jsearch.Searcher
	store      storage.Store
	recent     recent.Buffer
	registry   *pager.Registry
	controller *pager.Controller
	prefix     string
	perSearch  int
	latency    func() time.Duration
	logger     zerolog.Logger
	handlers   map[string]handlerFunc
}

type handlerFunc func(ctx context.Context, cmd Command, out Responder) error

func NewDispatcher(opts Options) *Dispatcher {
	d := &Dispatcher{
		searcher:   opts.Searcher,
		store:      opts.Store,
		recent:     opts.Recent,
		registry:   opts.Registry,
		controller: pager.NewController(opts.Store),
		prefix:     opts.Prefix,
		perSearch:  opts.PerSearch,
		latency:    opts.Latency,
		logger:     opts.Logger.With().Str("component", "dispatcher").Logger(),
	}
	if d.latency == nil {
		d.latency = func() time.Duration { return 0 }
	}

	d.handlers = map[string]handlerFunc{
		"jobs":    d.handleJobs,
		"jobsloc": d.handleJobsLocation,
		"recent":  d.handleRecent,
		"saved":   d.handleSaved,
		"history": d.handleHistory,
		"health":  d.handleHealth,
		"clear":   d.handleClear,
		"help":    d.handleHelp,
	}
	return d
}

// Prefix returns the command prefix.
func (d *Dispatcher) Prefix() string {
	return d.prefix
}

// ParseCommand splits a prefixed message into a command name and its
// arguments at the first whitespace. It returns false for messages that are
// not commands.
func (d *Dispatcher) ParseCommand(content, userID string) (Command, bool) {
	if !strings.HasPrefix(content, d.prefix) {
		return Command{}, false
	}

	body := strings.TrimSpace(strings.TrimPrefix(content, d.prefix))
	name, args := body, ""
	if i := strings.IndexFunc(body, unicode.IsSpace); i >= 0 {
		name, args = body[:i], body[i:]
	}
	if name == "" {
		return Command{}, false
	}

	return Command{
		Name:   strings.ToLower(name),
		Args:   strings.TrimSpace(args),
		UserID: userID,
	}, true
}

// Handle runs cmd and sends its replies through out. Unknown commands are
// ignored. Errors that escape a handler are reported to the user.
func (d *Dispatcher) Handle(ctx context.Context, cmd Command, out Responder) error {
	handler, ok := d.handlers[cmd.Name]
	if !ok {
		return nil
	}

	logger := d.logger.With().Str("command", cmd.Name).Str("user_id", cmd.UserID).Logger()
	logger.Debug().Str("args", cmd.Args).Msg("handling command")

	err := handler(ctx, cmd, out)
	if err == nil {
		return nil
	}

	logger.Error().Err(err).Msg("command failed")
	reply := embedReply("Command Error", fmt.Sprintf("**Error:** %s", err), pager.ColorRed)
	if _, sendErr := out.Send(ctx, reply); sendErr != nil {
		return errors.Join(err, sendErr)
	}
	return err
}

// ButtonResult is the response to a button press. Update replaces the
// message the button belongs to; Notice is sent as a new message.
type ButtonResult struct {
	Update *Reply
	Notice *Reply
}

// HandleButton applies a button press to its session.
func (d *Dispatcher) HandleButton(ctx context.Context, customID string) (ButtonResult, error) {
	sessionID, action, ok := pager.ParseCustomID(customID)
	if !ok {
		return ButtonResult{}, fmt.Errorf("unknown component %q", customID)
	}
	kind, _ := action.EventKind()

	session, effect, err := d.registry.Dispatch(sessionID, kind)
	switch {
	case errors.Is(err, pager.ErrSessionExpired):
		update := viewReply(session)
		notice := Reply{Content: "This job list has expired. Run the command again.", Ephemeral: true}
		return ButtonResult{Update: &update, Notice: &notice}, nil
	case errors.Is(err, pager.ErrSessionNotFound):
		notice := Reply{Content: "This job list has expired. Run the command again.", Ephemeral: true}
		return ButtonResult{Notice: &notice}, nil
	case err != nil:
		return ButtonResult{}, err
	}

	if effect.Kind == pager.EffectNone {
		update := viewReply(session)
		return ButtonResult{Update: &update}, nil
	}

	n, err := d.controller.Execute(ctx, session, effect)
	if err != nil {
		return ButtonResult{}, err
	}
	notice := noticeReply(n)
	return ButtonResult{Notice: &notice}, nil
}

// ExpireIdle expires idle sessions and returns their final replies, with
// every button disabled, keyed by the message they were attached to.
func (d *Dispatcher) ExpireIdle(now time.Time) map[MessageRef]Reply {
	expired := d.registry.Sweep(now)
	replies := make(map[MessageRef]Reply, len(expired))
	for _, s := range expired {
		if s.MessageID == "" {
			continue
		}
		replies[MessageRef{ChannelID: s.ChannelID, MessageID: s.MessageID}] = viewReply(s)
	}
	return replies
}
