package state

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func runAt(id string, started time.Time) RunRecord {
	return RunRecord{
		RunID:      id,
		StartedAt:  started,
		FinishedAt: started.Add(3 * time.Second),
		Documents:  12,
		Rewritten:  40,
		Unresolved: 2,
		Collisions: 1,
		Outcome:    "success",
	}
}

func TestRecordRunAndRecentRuns(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	base := time.Date(2020, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, store.RecordRun(ctx, runAt("run-1", base)))
	require.NoError(t, store.RecordRun(ctx, runAt("run-2", base.Add(time.Hour))))
	require.NoError(t, store.RecordRun(ctx, runAt("run-3", base.Add(2*time.Hour))))

	runs, err := store.RecentRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-3", runs[0].RunID)
	assert.Equal(t, "run-2", runs[1].RunID)

	assert.Equal(t, base.Add(2*time.Hour).Unix(), runs[0].StartedAt.Unix())
	assert.Equal(t, 12, runs[0].Documents)
	assert.Equal(t, 40, runs[0].Rewritten)
	assert.Equal(t, "success", runs[0].Outcome)
}

func TestLatestRun(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	latest, err := store.LatestRun(ctx)
	require.NoError(t, err)
	assert.Nil(t, latest)

	base := time.Date(2020, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, store.RecordRun(ctx, runAt("run-1", base)))
	require.NoError(t, store.RecordRun(ctx, runAt("run-2", base.Add(time.Minute))))

	latest, err = store.LatestRun(ctx)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "run-2", latest.RunID)
}

func TestSnapshotAndLookupMappings(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	mappings := []Mapping{
		{
			NormalizedURL: "https://orthodox.cn/news/20150517beijing_ru.htm",
			CanonicalPath: "/news/archive/20150517beijing",
			Category:      "News",
			Subcategory:   "Archive",
		},
		{
			NormalizedURL: "https://orthodox.cn/catechesis/intro_ru.htm",
			CanonicalPath: "/catechism/vvedenie",
			Category:      "Catechism",
		},
	}
	require.NoError(t, store.SnapshotMappings(ctx, "run-1", mappings))

	got, err := store.LookupMapping(ctx, "run-1", "https://orthodox.cn/news/20150517beijing_ru.htm")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "/news/archive/20150517beijing", got.CanonicalPath)
	assert.Equal(t, "Archive", got.Subcategory)

	miss, err := store.LookupMapping(ctx, "run-1", "https://orthodox.cn/unknown_ru.htm")
	require.NoError(t, err)
	assert.Nil(t, miss)

	otherRun, err := store.LookupMapping(ctx, "run-2", "https://orthodox.cn/news/20150517beijing_ru.htm")
	require.NoError(t, err)
	assert.Nil(t, otherRun)
}

func TestMappingsForRun(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	require.NoError(t, store.SnapshotMappings(ctx, "run-1", []Mapping{
		{NormalizedURL: "https://orthodox.cn/a_ru.htm", CanonicalPath: "/other/a", Category: "Other"},
		{NormalizedURL: "https://orthodox.cn/b_ru.htm", CanonicalPath: "/other/b", Category: "Other"},
	}))
	require.NoError(t, store.SnapshotMappings(ctx, "run-2", []Mapping{
		{NormalizedURL: "https://orthodox.cn/c_ru.htm", CanonicalPath: "/other/c", Category: "Other"},
	}))

	got, err := store.MappingsForRun(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "/other/a", got[0].CanonicalPath)
	assert.Equal(t, "/other/b", got[1].CanonicalPath)

	empty, err := store.MappingsForRun(ctx, "run-9")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestOpenPersistsToFile(t *testing.T) {
	path := t.TempDir() + "/deepcrawl.db"

	store, err := Open(path)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, store.RecordRun(ctx, runAt("run-1", time.Date(2020, 3, 1, 10, 0, 0, 0, time.UTC))))
	require.NoError(t, store.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	runs, err := reopened.RecentRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "run-1", runs[0].RunID)
}
