package bot

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"job-bot-go/internal/config"
	"job-bot-go/internal/jsearch"
	mockjsearch "job-bot-go/internal/jsearch/mock"
	"job-bot-go/internal/models"
	"job-bot-go/internal/pager"
	"job-bot-go/internal/query"
	"job-bot-go/internal/recent"
	"job-bot-go/internal/storage"
)

type sentMessage struct {
	ref   MessageRef
	reply Reply
	edits []Reply
}

// fakeResponder records messages and their edits.
type fakeResponder struct {
	messages []*sentMessage
}

func (f *fakeResponder) Send(_ context.Context, reply Reply) (MessageRef, error) {
	ref := MessageRef{ChannelID: "chan-1", MessageID: fmt.Sprintf("msg-%d", len(f.messages)+1)}
	f.messages = append(f.messages, &sentMessage{ref: ref, reply: reply})
	return ref, nil
}

func (f *fakeResponder) Edit(_ context.Context, ref MessageRef, reply Reply) error {
	for _, m := range f.messages {
		if m.ref == ref {
			m.edits = append(m.edits, reply)
			return nil
		}
	}
	return fmt.Errorf("unknown message %s", ref.MessageID)
}

// final returns what message i shows after all edits.
func (f *fakeResponder) final(i int) Reply {
	m := f.messages[i]
	if len(m.edits) == 0 {
		return m.reply
	}
	return m.edits[len(m.edits)-1]
}

type testEnv struct {
	dispatcher *Dispatcher
	searcher   *mockjsearch.MockSearcher
	store      storage.Store
	recent     *recent.Ring
	registry   *pager.Registry
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	ctrl := gomock.NewController(t)
	searcher := mockjsearch.NewMockSearcher(ctrl)

	store, err := storage.NewSQLStore(config.StorageConfig{
		Driver: config.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "job_bot.db"),
	}, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	ring := recent.NewRing(20)
	registry := pager.NewRegistry(5 * time.Minute)

	dispatcher := NewDispatcher(Options{
		Searcher:  searcher,
		Store:     store,
		Recent:    ring,
		Registry:  registry,
		Prefix:    ".",
		PerSearch: 5,
		Latency:   func() time.Duration { return 42 * time.Millisecond },
		Logger:    zerolog.Nop(),
	})

	return &testEnv{
		dispatcher: dispatcher,
		searcher:   searcher,
		store:      store,
		recent:     ring,
		registry:   registry,
	}
}

func (e *testEnv) run(t *testing.T, content string) *fakeResponder {
	t.Helper()

	cmd, ok := e.dispatcher.ParseCommand(content, "user-1")
	require.True(t, ok, content)

	out := &fakeResponder{}
	require.NoError(t, e.dispatcher.Handle(context.Background(), cmd, out))
	return out
}

func sampleJobs(n int) []models.Job {
	jobs := make([]models.Job, n)
	for i := range jobs {
		jobs[i] = models.Job{
			ID:           fmt.Sprintf("job-%d", i),
			Title:        fmt.Sprintf("Go Developer %d", i),
			EmployerName: "Acme",
			ApplyLink:    fmt.Sprintf("https://example.com/apply/%d", i),
		}
	}
	return jobs
}

func TestParseCommand(t *testing.T) {
	env := newTestEnv(t)

	cmd, ok := env.dispatcher.ParseCommand(".JOBS  python developer --remote ", "u")
	require.True(t, ok)
	require.Equal(t, "jobs", cmd.Name)
	require.Equal(t, "python developer --remote", cmd.Args)
	require.Equal(t, "u", cmd.UserID)

	for _, content := range []string{".jobs\npython developer", ".jobs\tpython developer", ".jobs \n python developer"} {
		cmd, ok := env.dispatcher.ParseCommand(content, "u")
		require.True(t, ok, content)
		require.Equal(t, "jobs", cmd.Name, content)
		require.Equal(t, "python developer", cmd.Args, content)
	}

	cmd, ok = env.dispatcher.ParseCommand(".help", "u")
	require.True(t, ok)
	require.Equal(t, "help", cmd.Name)
	require.Empty(t, cmd.Args)

	for _, content := range []string{"jobs python", ".", "hello"} {
		_, ok := env.dispatcher.ParseCommand(content, "u")
		require.False(t, ok, content)
	}
}

func TestJobs_Success(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.searcher.EXPECT().
		Search(gomock.Any(), query.Parse("python developer --location london --limit 8")).
		Return(sampleJobs(8), nil)

	out := env.run(t, ".jobs python developer --location london --limit 8")
	require.Len(t, out.messages, 1)

	placeholder := out.messages[0].reply
	require.Equal(t, "Searching for Jobs...", placeholder.Embed.Title)
	require.Equal(t, "**Query:** python developer\n**Location:** london\n**Limit:** 8", placeholder.Embed.Description)

	final := out.final(0)
	require.Equal(t, "Go Developer 0", final.Embed.Title)
	require.Equal(t, "Job 1 of 8", final.Embed.Footer)
	require.Len(t, final.Buttons, 5)
	require.NotEmpty(t, final.SessionID)

	session, ok := env.registry.Get(final.SessionID)
	require.True(t, ok)
	require.Equal(t, "msg-1", session.MessageID)
	require.Equal(t, "user-1", session.OwnerID)

	latest, err := env.recent.Latest(ctx, 20)
	require.NoError(t, err)
	require.Len(t, latest, 5)
	require.Equal(t, "job-0", latest[0].ID)

	history, err := env.store.GetSearchHistory(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Equal(t, "python developer --location london --limit 8", history[0].Query)
}

func TestJobs_RateLimited(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.searcher.EXPECT().Search(gomock.Any(), gomock.Any()).Return(nil, jsearch.ErrRateLimited)

	out := env.run(t, ".jobs golang")
	final := out.final(0)
	require.Equal(t, "Search Error", final.Embed.Title)
	require.Contains(t, final.Embed.Description, "Rate limit exceeded. Please try again later.")
	require.Equal(t, pager.ColorRed, final.Embed.Color)

	latest, err := env.recent.Latest(ctx, 20)
	require.NoError(t, err)
	require.Empty(t, latest)

	// history is written before the provider call
	history, err := env.store.GetSearchHistory(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Zero(t, env.registry.Len())
}

func TestJobs_NoResults(t *testing.T) {
	env := newTestEnv(t)
	env.searcher.EXPECT().Search(gomock.Any(), gomock.Any()).Return([]models.Job{}, nil)

	out := env.run(t, ".jobs underwater basket weaving")
	require.Equal(t, "No Jobs Found", out.final(0).Embed.Title)
	require.Zero(t, env.registry.Len())
}

func TestJobs_InvalidQuery(t *testing.T) {
	env := newTestEnv(t)

	out := env.run(t, ".jobs")
	require.Equal(t, "Invalid Search", out.final(0).Embed.Title)
	require.Contains(t, out.final(0).Embed.Description, "Please provide a search query")

	out = env.run(t, ".jobs --remote --week")
	require.Equal(t, "Invalid Search", out.final(0).Embed.Title)
	require.Equal(t, "Please provide a job title or keywords", out.final(0).Embed.Description)

	history, err := env.store.GetSearchHistory(context.Background(), "user-1")
	require.NoError(t, err)
	require.Empty(t, history)
}

func TestJobsLocation(t *testing.T) {
	env := newTestEnv(t)

	env.searcher.EXPECT().
		Search(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, q query.Query) ([]models.Job, error) {
			require.Equal(t, "software engineer", q.Keywords)
			require.Equal(t, "new york", q.Location)
			return sampleJobs(1), nil
		})

	out := env.run(t, `.jobsloc "new york" software engineer`)
	require.Equal(t, "Job 1 of 1", out.final(0).Embed.Footer)

	history, err := env.store.GetSearchHistory(context.Background(), "user-1")
	require.NoError(t, err)
	require.Equal(t, "software engineer --location new york", history[0].Query)

	out = env.run(t, ".jobsloc london")
	require.Equal(t, "Invalid Search", out.final(0).Embed.Title)
}

func TestSplitLocation(t *testing.T) {
	testCases := []struct {
		args     string
		location string
		rest     string
	}{
		{"london python developer", "london", "python developer"},
		{`"new york" software engineer`, "new york", "software engineer"},
		{`"unterminated quote`, "", ""},
		{"berlin", "berlin", ""},
	}

	for _, tc := range testCases {
		location, rest := splitLocation(tc.args)
		require.Equal(t, tc.location, location, tc.args)
		require.Equal(t, tc.rest, rest, tc.args)
	}
}

func TestRecent(t *testing.T) {
	env := newTestEnv(t)

	out := env.run(t, ".recent")
	require.Equal(t, "No Recent Jobs", out.final(0).Embed.Title)

	require.NoError(t, env.recent.Add(context.Background(), sampleJobs(8)))

	out = env.run(t, ".recent 3")
	require.Equal(t, "Job 1 of 3", out.final(0).Embed.Footer)
	require.Equal(t, "Go Developer 5", out.final(0).Embed.Title)

	out = env.run(t, ".recent abc")
	require.Equal(t, "Job 1 of 5", out.final(0).Embed.Footer)

	out = env.run(t, ".recent 50")
	require.Equal(t, "Job 1 of 8", out.final(0).Embed.Footer)

	out = env.run(t, ".recent 0")
	require.Equal(t, "Job 1 of 1", out.final(0).Embed.Footer)
}

func TestSavedAndButtons(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	out := env.run(t, ".saved")
	require.Equal(t, "No Saved Jobs", out.final(0).Embed.Title)

	require.NoError(t, env.recent.Add(ctx, sampleJobs(2)))
	out = env.run(t, ".recent")
	sessionID := out.final(0).SessionID

	result, err := env.dispatcher.HandleButton(ctx, pager.CustomID(sessionID, pager.ActionNext))
	require.NoError(t, err)
	require.NotNil(t, result.Update)
	require.Nil(t, result.Notice)
	require.Equal(t, "Job 2 of 2", result.Update.Embed.Footer)

	result, err = env.dispatcher.HandleButton(ctx, pager.CustomID(sessionID, pager.ActionToggle))
	require.NoError(t, err)
	require.Equal(t, pager.LabelShowLess, result.Update.Buttons[2].Label)

	result, err = env.dispatcher.HandleButton(ctx, pager.CustomID(sessionID, pager.ActionSave))
	require.NoError(t, err)
	require.Nil(t, result.Update)
	require.Equal(t, "Saved 'Go Developer 1' at Acme", result.Notice.Content)
	require.True(t, result.Notice.Ephemeral)

	result, err = env.dispatcher.HandleButton(ctx, pager.CustomID(sessionID, pager.ActionSave))
	require.NoError(t, err)
	require.Equal(t, "Job has already been saved", result.Notice.Content)

	result, err = env.dispatcher.HandleButton(ctx, pager.CustomID(sessionID, pager.ActionApply))
	require.NoError(t, err)
	require.Equal(t, "Apply below", result.Notice.Embed.Title)
	require.Contains(t, result.Notice.Embed.Description, "https://example.com/apply/1")

	out = env.run(t, ".saved")
	require.Equal(t, "Go Developer 1", out.final(0).Embed.Title)
	require.Equal(t, "Job 1 of 1", out.final(0).Embed.Footer)

	_, err = env.dispatcher.HandleButton(ctx, "jobs:bogus")
	require.Error(t, err)
}

func TestButtons_ExpiredSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.recent.Add(ctx, sampleJobs(2)))
	out := env.run(t, ".recent")
	sessionID := out.final(0).SessionID

	replies := env.dispatcher.ExpireIdle(time.Now().Add(time.Hour))
	require.Len(t, replies, 1)
	reply, ok := replies[MessageRef{ChannelID: "chan-1", MessageID: "msg-1"}]
	require.True(t, ok)
	for _, b := range reply.Buttons {
		require.True(t, b.Disabled)
	}

	result, err := env.dispatcher.HandleButton(ctx, pager.CustomID(sessionID, pager.ActionNext))
	require.NoError(t, err)
	require.Nil(t, result.Update)
	require.True(t, result.Notice.Ephemeral)
	require.Contains(t, result.Notice.Content, "expired")
}

func TestButtons_IdleSessionRejected(t *testing.T) {
	env := newTestEnv(t)
	env.registry = pager.NewRegistry(time.Millisecond)
	env.dispatcher.registry = env.registry
	ctx := context.Background()

	require.NoError(t, env.recent.Add(ctx, sampleJobs(2)))
	out := env.run(t, ".recent")
	sessionID := out.final(0).SessionID

	time.Sleep(5 * time.Millisecond)

	result, err := env.dispatcher.HandleButton(ctx, pager.CustomID(sessionID, pager.ActionSave))
	require.NoError(t, err)
	require.NotNil(t, result.Update)
	require.True(t, result.Update.Buttons[0].Disabled)
	require.Contains(t, result.Notice.Content, "expired")

	jobs, err := env.store.GetBookmarks(ctx, "user-1")
	require.NoError(t, err)
	require.Empty(t, jobs)
}

func TestHistory(t *testing.T) {
	env := newTestEnv(t)

	out := env.run(t, ".history")
	require.Equal(t, "No Search History", out.final(0).Embed.Title)

	require.NoError(t, env.store.AddSearchHistory(context.Background(), "user-1", "golang --remote"))

	out = env.run(t, ".history")
	embed := out.final(0).Embed
	require.Equal(t, "Your Search History", embed.Title)
	require.Len(t, embed.Fields, 1)
	require.Regexp(t, `^1\. \d{2}/\d{2} \d{2}:\d{2}$`, embed.Fields[0].Name)
	require.Equal(t, "`golang --remote`", embed.Fields[0].Value)
}

func TestClear(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	seed := func() {
		for _, job := range sampleJobs(3) {
			_, err := env.store.AddBookmark(ctx, "user-1", job)
			require.NoError(t, err)
		}
		for i := 0; i < 7; i++ {
			require.NoError(t, env.store.AddSearchHistory(ctx, "user-1", fmt.Sprintf("query %d", i)))
		}
	}

	seed()
	out := env.run(t, ".clear all")
	require.Equal(t, "Cleared all data: 3 saved jobs, 7 history entries", out.final(0).Content)

	jobs, err := env.store.GetBookmarks(ctx, "user-1")
	require.NoError(t, err)
	require.Empty(t, jobs)
	history, err := env.store.GetSearchHistory(ctx, "user-1")
	require.NoError(t, err)
	require.Empty(t, history)

	seed()
	out = env.run(t, ".clear saved")
	require.Equal(t, "Cleared 3 saved jobs", out.final(0).Content)
	out = env.run(t, ".clear HISTORY")
	require.Equal(t, "Cleared 7 search history entries", out.final(0).Content)

	out = env.run(t, ".clear")
	require.Equal(t, "Clear Data", out.final(0).Embed.Title)
	out = env.run(t, ".clear everything")
	require.Equal(t, "Clear Data", out.final(0).Embed.Title)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	env.searcher.EXPECT().Ping(gomock.Any()).Return(nil)
	out := env.run(t, ".health")
	embed := out.final(0).Embed
	require.Equal(t, pager.ColorGreen, embed.Color)
	require.Equal(t, "Online", embed.Fields[0].Value)
	require.Equal(t, "Healthy", embed.Fields[1].Value)
	require.Equal(t, "42ms", embed.Fields[2].Value)

	env.searcher.EXPECT().Ping(gomock.Any()).Return(jsearch.ErrUnauthorized)
	out = env.run(t, ".health")
	embed = out.final(0).Embed
	require.Equal(t, pager.ColorRed, embed.Color)
	require.Equal(t, "Error: Invalid API key.", embed.Fields[1].Value)
}

func TestHelpAndUnknown(t *testing.T) {
	env := newTestEnv(t)

	out := env.run(t, ".help")
	embed := out.final(0).Embed
	require.Equal(t, "Job Bot Help", embed.Title)
	require.Len(t, embed.Fields, 7)
	require.Contains(t, embed.Fields[0].Value, "`.jobs python developer`")

	out = env.run(t, ".dance")
	require.Empty(t, out.messages)
}
