package pager_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"job-bot-go/internal/models"
	"job-bot-go/internal/pager"
)

type fakeBookmarker struct {
	saved map[string]bool
	users []string
	err   error
}

func (f *fakeBookmarker) AddBookmark(_ context.Context, userID string, job models.Job) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	if f.saved == nil {
		f.saved = make(map[string]bool)
	}
	f.users = append(f.users, userID)
	key := userID + "/" + job.Title + "/" + job.EmployerName
	if f.saved[key] {
		return false, nil
	}
	f.saved[key] = true
	return true, nil
}

func saveEffect(job models.Job) pager.Effect {
	return pager.Effect{Kind: pager.EffectSave, Job: &job}
}

func TestController_Save(t *testing.T) {
	store := &fakeBookmarker{}
	controller := pager.NewController(store)
	s := pager.Session{OwnerID: "42"}
	job := models.Job{Title: "Go Developer", EmployerName: "Acme"}

	notice, err := controller.Execute(context.Background(), s, saveEffect(job))
	require.NoError(t, err)
	require.Equal(t, "Saved 'Go Developer' at Acme", notice.Text)
	require.True(t, notice.Ephemeral)

	notice, err = controller.Execute(context.Background(), s, saveEffect(job))
	require.NoError(t, err)
	require.Equal(t, "Job has already been saved", notice.Text)
	require.True(t, notice.Ephemeral)

	require.Equal(t, []string{"42", "42"}, store.users)
}

func TestController_SaveWithoutIdentity(t *testing.T) {
	job := models.Job{Title: "Go Developer", EmployerName: "Acme"}

	notice, err := pager.NewController(&fakeBookmarker{}).Execute(context.Background(), pager.Session{}, saveEffect(job))
	require.NoError(t, err)
	require.Equal(t, "Unable to identify user.", notice.Text)
	require.True(t, notice.Ephemeral)

	notice, err = pager.NewController(nil).Execute(context.Background(), pager.Session{OwnerID: "42"}, saveEffect(job))
	require.NoError(t, err)
	require.Equal(t, "Unable to identify user.", notice.Text)
}

func TestController_SaveStoreError(t *testing.T) {
	boom := errors.New("disk full")
	controller := pager.NewController(&fakeBookmarker{err: boom})

	_, err := controller.Execute(context.Background(), pager.Session{OwnerID: "42"}, saveEffect(models.Job{Title: "A", EmployerName: "B"}))
	require.ErrorIs(t, err, boom)
}

func TestController_Apply(t *testing.T) {
	controller := pager.NewController(nil)

	notice, err := controller.Execute(context.Background(), pager.Session{}, pager.Effect{
		Kind: pager.EffectApply,
		Job:  &models.Job{ApplyLink: "https://example.com/apply"},
	})
	require.NoError(t, err)
	require.Equal(t, "Apply below", notice.Title)
	require.Equal(t, "**[Click here to apply for this position](https://example.com/apply)**", notice.Description)
	require.False(t, notice.Ephemeral)

	notice, err = controller.Execute(context.Background(), pager.Session{}, pager.Effect{
		Kind: pager.EffectApply,
		Job:  &models.Job{},
	})
	require.NoError(t, err)
	require.Equal(t, "No application link available.", notice.Text)
}
