package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"job-bot-go/internal/jsearch"
	"job-bot-go/internal/models"
	"job-bot-go/internal/pager"
	"job-bot-go/internal/query"
)

const (
	defaultRecent = 5
	maxRecent     = 10
	historyLayout = "01/02 15:04"
)

func (d *Dispatcher) handleJobs(ctx context.Context, cmd Command, out Responder) error {
	if strings.TrimSpace(cmd.Args) == "" {
		_, err := out.Send(ctx, embedReply("Invalid Search",
			fmt.Sprintf("Please provide a search query\n\n**Example:**\n`%sjobs python developer --location london --limit 5 --salary 50000`", d.prefix),
			pager.ColorRed))
		return err
	}

	return d.search(ctx, cmd, cmd.Args, query.Parse(cmd.Args), out)
}

// handleJobsLocation runs "jobsloc <location> <query>". The location may be
// double-quoted to include spaces.
func (d *Dispatcher) handleJobsLocation(ctx context.Context, cmd Command, out Responder) error {
	location, rest := splitLocation(cmd.Args)
	if location == "" || strings.TrimSpace(rest) == "" {
		_, err := out.Send(ctx, embedReply("Invalid Search",
			fmt.Sprintf("**Usage:**\n`%sjobsloc <location> <query>`\n\n**Example:**\n`%sjobsloc \"new york\" software engineer`", d.prefix, d.prefix),
			pager.ColorRed))
		return err
	}

	q := query.Parse(rest)
	q.Location = location
	return d.search(ctx, cmd, rest+" --location "+location, q, out)
}

// search records raw in the user's history, then runs q behind a
// placeholder message that is edited with the outcome.
func (d *Dispatcher) search(ctx context.Context, cmd Command, raw string, q query.Query, out Responder) error {
	if !q.Valid() {
		_, err := out.Send(ctx, embedReply("Invalid Search", "Please provide a job title or keywords", pager.ColorRed))
		return err
	}

	if err := d.store.AddSearchHistory(ctx, cmd.UserID, raw); err != nil {
		return err
	}

	ref, err := out.Send(ctx, embedReply("Searching for Jobs...",
		fmt.Sprintf("**Query:** %s\n**Location:** %s\n**Limit:** %d", q.Keywords, orAny(q.Location), q.Limit),
		pager.ColorWhite))
	if err != nil {
		return err
	}

	jobs, err := d.searcher.Search(ctx, q)
	if err != nil {
		return out.Edit(ctx, ref, embedReply("Search Error",
			fmt.Sprintf("**Error:** %s\n\nPlease try again later or contact an admin.", jsearch.Describe(err)),
			pager.ColorRed))
	}

	if err := d.recent.Add(ctx, jobs[:min(len(jobs), d.perSearch)]); err != nil {
		d.logger.Warn().Err(err).Msg("failed to update recent jobs")
	}

	if len(jobs) == 0 {
		return out.Edit(ctx, ref, embedReply("No Jobs Found", "Try different keywords or remove some filters", pager.ColorRed))
	}

	session := d.registry.Create(jobs, cmd.UserID)
	if err := out.Edit(ctx, ref, viewReply(session)); err != nil {
		return err
	}
	d.registry.Attach(session.ID, ref.ChannelID, ref.MessageID)
	return nil
}

func (d *Dispatcher) handleRecent(ctx context.Context, cmd Command, out Responder) error {
	limit := defaultRecent
	if fields := strings.Fields(cmd.Args); len(fields) > 0 {
		if n, err := strconv.Atoi(fields[0]); err == nil {
			limit = n
		}
	}
	limit = query.Clamp(limit, 1, maxRecent)

	jobs, err := d.recent.Latest(ctx, limit)
	if err != nil {
		return err
	}
	if len(jobs) == 0 {
		_, err := out.Send(ctx, embedReply("No Recent Jobs",
			fmt.Sprintf("No jobs have been searched recently. Try using `%sjobs` first", d.prefix),
			pager.ColorWhite))
		return err
	}

	return d.sendJobs(ctx, jobs, cmd.UserID, out)
}

func (d *Dispatcher) handleSaved(ctx context.Context, cmd Command, out Responder) error {
	jobs, err := d.store.GetBookmarks(ctx, cmd.UserID)
	if err != nil {
		return err
	}
	if len(jobs) == 0 {
		_, err := out.Send(ctx, embedReply("No Saved Jobs",
			"You haven't saved any jobs yet. Use the 'Save' button when viewing jobs",
			pager.ColorWhite))
		return err
	}

	return d.sendJobs(ctx, jobs, cmd.UserID, out)
}

// sendJobs posts a new paginated view over jobs.
func (d *Dispatcher) sendJobs(ctx context.Context, jobs []models.Job, userID string, out Responder) error {
	session := d.registry.Create(jobs, userID)
	ref, err := out.Send(ctx, viewReply(session))
	if err != nil {
		return err
	}
	d.registry.Attach(session.ID, ref.ChannelID, ref.MessageID)
	return nil
}

func (d *Dispatcher) handleHistory(ctx context.Context, cmd Command, out Responder) error {
	entries, err := d.store.GetSearchHistory(ctx, cmd.UserID)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		_, err := out.Send(ctx, embedReply("No Search History", "You haven't searched for jobs yet", pager.ColorWhite))
		return err
	}

	embed := &Embed{Title: "Your Search History", Color: pager.ColorWhite}
	for i, entry := range entries {
		embed.Fields = append(embed.Fields, pager.Field{
			Name:  fmt.Sprintf("%d. %s", i+1, formatTimestamp(entry)),
			Value: fmt.Sprintf("`%s`", entry.Query),
		})
	}

	_, err = out.Send(ctx, Reply{Embed: embed})
	return err
}

func formatTimestamp(entry models.HistoryEntry) string {
	if entry.Timestamp.IsZero() {
		return "unknown"
	}
	return entry.Timestamp.UTC().Format(historyLayout)
}

func (d *Dispatcher) handleHealth(ctx context.Context, _ Command, out Responder) error {
	apiStatus, color := "Healthy", pager.ColorGreen
	if err := d.searcher.Ping(ctx); err != nil {
		apiStatus, color = "Error: "+firstRunes(jsearch.Describe(err), 100), pager.ColorRed
	}

	embed := &Embed{
		Title: "Health Check",
		Color: color,
		Fields: []pager.Field{
			{Name: "Bot Status", Value: "Online", Inline: true},
			{Name: "API Status", Value: apiStatus, Inline: true},
			{Name: "Latency", Value: fmt.Sprintf("%dms", d.latency().Milliseconds()), Inline: true},
		},
	}

	_, err := out.Send(ctx, Reply{Embed: embed})
	return err
}

func (d *Dispatcher) handleClear(ctx context.Context, cmd Command, out Responder) error {
	var reply Reply

	switch target, _, _ := strings.Cut(strings.ToLower(cmd.Args), " "); target {
	case "saved":
		count, err := d.store.ClearBookmarks(ctx, cmd.UserID)
		if err != nil {
			return err
		}
		reply = textReply(fmt.Sprintf("Cleared %d saved jobs", count))
	case "history":
		count, err := d.store.ClearSearchHistory(ctx, cmd.UserID)
		if err != nil {
			return err
		}
		reply = textReply(fmt.Sprintf("Cleared %d search history entries", count))
	case "all":
		saved, history, err := d.store.ClearAllUserData(ctx, cmd.UserID)
		if err != nil {
			return err
		}
		reply = textReply(fmt.Sprintf("Cleared all data: %d saved jobs, %d history entries", saved, history))
	default:
		reply = embedReply("Clear Data",
			fmt.Sprintf("**Usage:**\n`%[1]sclear saved` - Clear saved jobs\n`%[1]sclear history` - Clear search history\n`%[1]sclear all` - Clear everything", d.prefix),
			pager.ColorWhite)
	}

	_, err := out.Send(ctx, reply)
	return err
}

func (d *Dispatcher) handleHelp(ctx context.Context, _ Command, out Responder) error {
	_, err := out.Send(ctx, Reply{Embed: helpEmbed(d.prefix)})
	return err
}

// splitLocation takes the first argument, honouring double quotes, and
// returns it with the remaining text.
func splitLocation(args string) (string, string) {
	args = strings.TrimSpace(args)
	if strings.HasPrefix(args, `"`) {
		location, rest, ok := strings.Cut(args[1:], `"`)
		if !ok {
			return "", ""
		}
		return strings.TrimSpace(location), strings.TrimSpace(rest)
	}

	location, rest, _ := strings.Cut(args, " ")
	return location, strings.TrimSpace(rest)
}

func orAny(location string) string {
	if location == "" {
		return "Any"
	}
	return location
}

func firstRunes(s string, n int) string {
	if runes := []rune(s); len(runes) > n {
		return string(runes[:n])
	}
	return s
}
