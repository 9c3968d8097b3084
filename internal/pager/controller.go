package pager

import (
	"context"
	"fmt"

	"job-bot-go/internal/models"
)

// Bookmarker is the part of the store the Save button needs.
type Bookmarker interface {
	AddBookmark(ctx context.Context, userID string, job models.Job) (bool, error)
}

// Notice is the reply to a Save or Apply press. Ephemeral notices are only
// shown to the user who pressed the button. A non-empty Title means the
// notice is an embed.
type Notice struct {
	Text        string
	Title       string
	Description string
	Color       int
	Ephemeral   bool
}

// Controller carries out the effects returned by Transition.
type Controller struct {
	store Bookmarker
}

func NewController(store Bookmarker) *Controller {
	return &Controller{store: store}
}

// Execute performs effect for session s. Saves are attributed to the owner
// of the session, not to whoever pressed the button.
func (c *Controller) Execute(ctx context.Context, s Session, effect Effect) (Notice, error) {
	switch effect.Kind {
	case EffectSave:
		return c.save(ctx, s.OwnerID, effect.Job)
	case EffectApply:
		return apply(effect.Job), nil
	default:
		return Notice{}, nil
	}
}

func (c *Controller) save(ctx context.Context, ownerID string, job *models.Job) (Notice, error) {
	if ownerID == "" || c == nil || c.store == nil {
		return Notice{Text: "Unable to identify user.", Ephemeral: true}, nil
	}
	if job == nil {
		return Notice{Text: "No job to save.", Ephemeral: true}, nil
	}

	added, err := c.store.AddBookmark(ctx, ownerID, *job)
	if err != nil {
		return Notice{}, fmt.Errorf("failed to save job: %w", err)
	}
	if !added {
		return Notice{Text: "Job has already been saved", Ephemeral: true}, nil
	}
	return Notice{
		Text:      fmt.Sprintf("Saved '%s' at %s", job.Title, job.EmployerName),
		Ephemeral: true,
	}, nil
}

func apply(job *models.Job) Notice {
	if job == nil || job.ApplyLink == "" {
		return Notice{Text: "No application link available."}
	}
	return Notice{
		Title:       "Apply below",
		Description: fmt.Sprintf("**[Click here to apply for this position](%s)**", job.ApplyLink),
		Color:       ColorWhite,
	}
}
