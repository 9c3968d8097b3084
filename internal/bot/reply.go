package bot

import (
	"context"

	"job-bot-go/internal/pager"
)

// Embed is a platform-neutral rich message.
type Embed struct {
	Title       string
	Description string
	URL         string
	Color       int
	Fields      []pager.Field
	Footer      string
}

// Reply is one outgoing message. SessionID and Buttons are set for
// paginated job views.
type Reply struct {
	Content   string
	Embed     *Embed
	SessionID string
	Buttons   []pager.Button
	Ephemeral bool
}

// MessageRef identifies a sent message.
type MessageRef struct {
	ChannelID string
	MessageID string
}

// Responder delivers the replies of one command to where it was issued.
type Responder interface {
	Send(ctx context.Context, reply Reply) (MessageRef, error)
	Edit(ctx context.Context, ref MessageRef, reply Reply) error
}

// Command is a parsed chat command.
type Command struct {
	Name   string
	Args   string
	UserID string
}

func embedReply(title, description string, color int) Reply {
	return Reply{Embed: &Embed{Title: title, Description: description, Color: color}}
}

func textReply(text string) Reply {
	return Reply{Content: text}
}

// viewReply turns a rendered session into a reply with its buttons.
func viewReply(s pager.Session) Reply {
	view := pager.Render(s)
	reply := Reply{
		Embed: &Embed{
			Title:       view.Title,
			Description: view.Description,
			URL:         view.URL,
			Color:       view.Color,
			Fields:      view.Fields,
			Footer:      view.Footer,
		},
	}
	if len(view.Buttons) > 0 {
		reply.SessionID = s.ID
		reply.Buttons = view.Buttons
	}
	return reply
}

func noticeReply(n pager.Notice) Reply {
	if n.Title != "" {
		return Reply{
			Embed:     &Embed{Title: n.Title, Description: n.Description, Color: n.Color},
			Ephemeral: n.Ephemeral,
		}
	}
	return Reply{Content: n.Text, Ephemeral: n.Ephemeral}
}
