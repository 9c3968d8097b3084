package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"job-bot-go/internal/pager"
)

// commandTimeout bounds one command, which includes a provider search.
const commandTimeout = 45 * time.Second

// Discord connects a Dispatcher to the Discord gateway.
type Discord struct {
	session    *discordgo.Session
	dispatcher *Dispatcher
	logger     zerolog.Logger
}

// NewDiscord creates the gateway session. The dispatcher can be attached
// later with SetDispatcher so it can use Latency.
func NewDiscord(token string, logger zerolog.Logger) (*Discord, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentMessageContent

	d := &Discord{
		session: session,
		logger:  logger.With().Str("component", "discord").Logger(),
	}
	session.AddHandler(d.onReady)
	session.AddHandler(d.onMessageCreate)
	session.AddHandler(d.onInteractionCreate)
	return d, nil
}

func (d *Discord) SetDispatcher(dispatcher *Dispatcher) {
	d.dispatcher = dispatcher
}

// Latency returns the last gateway heartbeat round trip.
func (d *Discord) Latency() time.Duration {
	return d.session.HeartbeatLatency()
}

func (d *Discord) Open() error {
	if d.dispatcher == nil {
		return fmt.Errorf("discord: no dispatcher attached")
	}
	if err := d.session.Open(); err != nil {
		return fmt.Errorf("failed to open discord gateway: %w", err)
	}
	return nil
}

func (d *Discord) Close() error {
	return d.session.Close()
}

// DisableExpired edits the messages of idle sessions so their buttons can no
// longer be pressed.
func (d *Discord) DisableExpired(ctx context.Context, now time.Time) int {
	edited := 0
	for ref, reply := range d.dispatcher.ExpireIdle(now) {
		responder := &channelResponder{session: d.session, channelID: ref.ChannelID}
		if err := responder.Edit(ctx, ref, reply); err != nil {
			d.logger.Warn().Err(err).Str("message_id", ref.MessageID).Msg("failed to disable buttons")
			continue
		}
		edited++
	}
	return edited
}

func (d *Discord) onReady(_ *discordgo.Session, r *discordgo.Ready) {
	d.logger.Info().
		Str("user", r.User.Username).
		Int("guilds", len(r.Guilds)).
		Msg("connected to gateway")
}

func (d *Discord) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}

	cmd, ok := d.dispatcher.ParseCommand(m.Content, m.Author.ID)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	responder := &channelResponder{session: s, channelID: m.ChannelID}
	if err := d.dispatcher.Handle(ctx, cmd, responder); err != nil {
		d.logger.Error().Err(err).Str("command", cmd.Name).Msg("command failed")
	}
}

func (d *Discord) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionMessageComponent {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	customID := i.MessageComponentData().CustomID
	result, err := d.dispatcher.HandleButton(ctx, customID)
	if err != nil {
		d.logger.Error().Err(err).Str("custom_id", customID).Msg("interaction failed")
		notice := Reply{Content: fmt.Sprintf("Something went wrong: %s", err), Ephemeral: true}
		result = ButtonResult{Notice: &notice}
	}

	if err := d.respond(ctx, i.Interaction, result); err != nil {
		d.logger.Error().Err(err).Str("custom_id", customID).Msg("failed to respond to interaction")
	}
}

// respond answers an interaction. An update edits the message in place; a
// notice alone becomes a new message, and a notice after an update is sent
// as a followup.
func (d *Discord) respond(ctx context.Context, i *discordgo.Interaction, result ButtonResult) error {
	switch {
	case result.Update != nil:
		embeds, components := render(*result.Update)
		err := d.session.InteractionRespond(i, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseUpdateMessage,
			Data: &discordgo.InteractionResponseData{
				Content:    result.Update.Content,
				Embeds:     embeds,
				Components: components,
			},
		}, discordgo.WithContext(ctx))
		if err != nil || result.Notice == nil {
			return err
		}

		embeds, _ = render(*result.Notice)
		params := &discordgo.WebhookParams{Content: result.Notice.Content, Embeds: embeds}
		if result.Notice.Ephemeral {
			params.Flags = discordgo.MessageFlagsEphemeral
		}
		_, err = d.session.FollowupMessageCreate(i, false, params, discordgo.WithContext(ctx))
		return err
	case result.Notice != nil:
		embeds, _ := render(*result.Notice)
		data := &discordgo.InteractionResponseData{Content: result.Notice.Content, Embeds: embeds}
		if result.Notice.Ephemeral {
			data.Flags = discordgo.MessageFlagsEphemeral
		}
		return d.session.InteractionRespond(i, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: data,
		}, discordgo.WithContext(ctx))
	default:
		return nil
	}
}

// channelResponder sends and edits messages in one channel.
type channelResponder struct {
	session   *discordgo.Session
	channelID string
}

func (c *channelResponder) Send(ctx context.Context, reply Reply) (MessageRef, error) {
	embeds, components := render(reply)
	msg, err := c.session.ChannelMessageSendComplex(c.channelID, &discordgo.MessageSend{
		Content:    reply.Content,
		Embeds:     embeds,
		Components: components,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return MessageRef{}, fmt.Errorf("failed to send message: %w", err)
	}
	return MessageRef{ChannelID: msg.ChannelID, MessageID: msg.ID}, nil
}

func (c *channelResponder) Edit(ctx context.Context, ref MessageRef, reply Reply) error {
	embeds, components := render(reply)
	edit := discordgo.NewMessageEdit(ref.ChannelID, ref.MessageID)
	edit.Content = &reply.Content
	edit.Embeds = &embeds
	edit.Components = &components

	if _, err := c.session.ChannelMessageEditComplex(edit, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to edit message: %w", err)
	}
	return nil
}

var buttonStyles = map[pager.ButtonStyle]discordgo.ButtonStyle{
	pager.StylePrimary:   discordgo.PrimaryButton,
	pager.StyleSecondary: discordgo.SecondaryButton,
	pager.StyleSuccess:   discordgo.SuccessButton,
}

// render converts a reply to discordgo embeds and one row of buttons.
func render(reply Reply) ([]*discordgo.MessageEmbed, []discordgo.MessageComponent) {
	embeds := []*discordgo.MessageEmbed{}
	if e := reply.Embed; e != nil {
		embed := &discordgo.MessageEmbed{
			Title:       e.Title,
			Description: e.Description,
			URL:         e.URL,
			Color:       e.Color,
		}
		for _, f := range e.Fields {
			embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: f.Name, Value: f.Value, Inline: f.Inline})
		}
		if e.Footer != "" {
			embed.Footer = &discordgo.MessageEmbedFooter{Text: e.Footer}
		}
		embeds = append(embeds, embed)
	}

	components := []discordgo.MessageComponent{}
	if len(reply.Buttons) > 0 {
		row := discordgo.ActionsRow{}
		for _, b := range reply.Buttons {
			row.Components = append(row.Components, discordgo.Button{
				Label:    b.Label,
				Style:    buttonStyles[b.Style],
				Disabled: b.Disabled,
				CustomID: pager.CustomID(reply.SessionID, b.Action),
			})
		}
		components = append(components, row)
	}
	return embeds, components
}
