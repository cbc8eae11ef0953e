package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"careerplan/generator"
)

func backends(t *testing.T) map[string]Store {
	t.Helper()
	db, err := NewSQLite(filepath.Join(t.TempDir(), "surveys.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return map[string]Store{
		"memory": NewMemory(),
		"sqlite": db,
	}
}

func newSurvey(id string, updated time.Time) *Survey {
	return &Survey{
		ID: id,
		Answers: generator.Answers{
			Experience: "3 years",
			Interests:  []string{"data", "ml"},
			Goal:       "data engineer",
			Language:   "he",
		},
		Plan: generator.Plan{Title: "Plan " + id, Digest: "digest", Markdown: "# Plan " + id},
		History: []generator.Turn{
			{Summary: "initial", Plan: generator.Plan{Title: "Plan " + id}, CreatedAt: updated},
		},
		CreatedAt: updated,
		UpdatedAt: updated,
	}
}

func TestStoreCRUD(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()

	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := newSurvey("a", now)
			require.NoError(t, st.Create(ctx, s))
			assert.Error(t, st.Create(ctx, s), "duplicate id")

			got, err := st.Get(ctx, "a")
			require.NoError(t, err)
			assert.Equal(t, s.Answers, got.Answers)
			assert.Equal(t, s.Plan, got.Plan)
			require.Len(t, got.History, 1)
			assert.Equal(t, "initial", got.History[0].Summary)
			assert.True(t, s.CreatedAt.Equal(got.CreatedAt))

			got.Plan.Markdown = "# Changed"
			got.History = append(got.History, generator.Turn{Comment: "shorter", Summary: "revision", CreatedAt: now})
			got.UpdatedAt = now.Add(time.Minute)
			require.NoError(t, st.Update(ctx, got))

			again, err := st.Get(ctx, "a")
			require.NoError(t, err)
			assert.Equal(t, "# Changed", again.Plan.Markdown)
			require.Len(t, again.History, 2)
			assert.Equal(t, "shorter", again.History[1].Comment)

			require.NoError(t, st.Delete(ctx, "a"))
			_, err = st.Get(ctx, "a")
			assert.True(t, errors.Is(err, ErrNotFound))
		})
	}
}

func TestStoreMissing(t *testing.T) {
	ctx := context.Background()
	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := st.Get(ctx, "nope")
			assert.True(t, errors.Is(err, ErrNotFound))
			assert.True(t, errors.Is(st.Update(ctx, newSurvey("nope", time.Now())), ErrNotFound))
			assert.True(t, errors.Is(st.Delete(ctx, "nope"), ErrNotFound))
		})
	}
}

func TestStoreListNewestFirst(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, st.Create(ctx, newSurvey("old", base)))
			require.NoError(t, st.Create(ctx, newSurvey("new", base.Add(time.Hour))))
			require.NoError(t, st.Create(ctx, newSurvey("mid", base.Add(time.Minute))))

			list, err := st.List(ctx)
			require.NoError(t, err)
			require.Len(t, list, 3)
			assert.Equal(t, "new", list[0].ID)
			assert.Equal(t, "mid", list[1].ID)
			assert.Equal(t, "old", list[2].ID)
			assert.Len(t, list[0].History, 1)
		})
	}
}

func TestMemoryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Create(ctx, newSurvey("a", time.Now())))

	got, err := m.Get(ctx, "a")
	require.NoError(t, err)
	got.Answers.Interests[0] = "changed"
	got.Plan.Title = "changed"

	again, err := m.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "data", again.Answers.Interests[0])
	assert.Equal(t, "Plan a", again.Plan.Title)
}

func TestOpen(t *testing.T) {
	st, err := Open("")
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, st)

	st, err = Open(filepath.Join(t.TempDir(), "x.db"))
	require.NoError(t, err)
	defer st.Close()
	assert.IsType(t, &SQLite{}, st)
}
