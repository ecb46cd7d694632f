package store

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hsorel/shelf/internal/domain"
	"github.com/hsorel/shelf/internal/logging"
)

func openTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalogue.db")
	s, err := Open(path, logging.Null())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, path
}

func testRecords() []domain.Record {
	return []domain.Record{
		{ID: "outer-wilds-game", Type: domain.MediaTypeGame, Title: "Outer Wilds", TitleLowercase: "outer wilds", Rating: 5, Author: "Mobius Digital", Date: 1560124800},
		{ID: "dune-book", Type: domain.MediaTypeBook, Title: "Dune", TitleLowercase: "dune", Rating: 4, Author: "Frank Herbert", Date: 1262304000},
		{ID: "dune-movie", Type: domain.MediaTypeMovie, Title: "Dune", TitleLowercase: "dune", Rating: 4, Author: "Legendary Pictures", Date: 1634860800},
		{ID: "backlog-game", Type: domain.MediaTypeGame, Title: "Backlog", TitleLowercase: "backlog", Rating: 2, Author: "Nobody", Date: 0},
	}
}

func seedTestStore(t *testing.T, s *Store, hash string) {
	t.Helper()
	require.NoError(t, s.ClearRecords())
	require.NoError(t, s.BeginSeed(hash))
	require.NoError(t, s.PutRecords(testRecords()))
	require.NoError(t, s.CompleteSeed())
}

func TestOpenFreshStoreReportsRecreatedOnce(t *testing.T) {
	s, _ := openTestStore(t)

	assert.True(t, s.Recreated(), "a fresh store has no schema version and must rebuild")
	assert.False(t, s.Recreated(), "the flag is one-shot")
}

func TestReopenDoesNotRebuild(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalogue.db")

	s, err := Open(path, logging.Null())
	require.NoError(t, err)
	seedTestStore(t, s, "aaaa")
	require.NoError(t, s.Close())

	s, err = Open(path, logging.Null())
	require.NoError(t, err)
	defer s.Close()

	assert.False(t, s.Recreated())
	records, err := s.GetAll()
	require.NoError(t, err)
	assert.Len(t, records, len(testRecords()))
}

func TestCorruptFileIsDeletedAndRecreated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalogue.db")
	require.NoError(t, os.WriteFile(path, []byte("this is not a bolt database"), 0600))

	s, err := Open(path, logging.Null())
	require.NoError(t, err)
	defer s.Close()

	assert.True(t, s.Recreated())
	records, err := s.GetAll()
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestVersionRoundTrip(t *testing.T) {
	s, _ := openTestStore(t)

	_, found, err := s.Version()
	require.NoError(t, err)
	assert.False(t, found, "no version row before seeding starts")

	require.NoError(t, s.BeginSeed("cafe"))
	v, found, err := s.Version()
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "cafe", v.Hash)
	assert.False(t, v.Complete, "the marker starts incomplete")
	assert.NotZero(t, v.Timestamp)

	require.NoError(t, s.CompleteSeed())
	v, found, err = s.Version()
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, v.Complete)
	assert.Equal(t, "cafe", v.Hash)
}

func TestCompleteSeedWithoutMarkerFails(t *testing.T) {
	s, _ := openTestStore(t)
	assert.Error(t, s.CompleteSeed())
}

func TestClearRecordsRemovesEverything(t *testing.T) {
	s, _ := openTestStore(t)
	seedTestStore(t, s, "aaaa")

	require.NoError(t, s.ClearRecords())

	records, err := s.GetAll()
	require.NoError(t, err)
	assert.Empty(t, records)

	_, found, err := s.Version()
	require.NoError(t, err)
	assert.False(t, found, "the stale version row is cleared with the records")

	var walked int
	require.NoError(t, s.Walk(domain.SortDate, true, func(domain.Record) error {
		walked++
		return nil
	}))
	assert.Zero(t, walked, "index entries are cleared too")
}

func TestGetAllSkipsVersionRow(t *testing.T) {
	s, _ := openTestStore(t)
	seedTestStore(t, s, "aaaa")

	records, err := s.GetAll()
	require.NoError(t, err)
	assert.Len(t, records, len(testRecords()))
	for _, r := range records {
		assert.NotEqual(t, domain.VersionKey, r.ID)
	}
}

func walkIDs(t *testing.T, s *Store, field domain.SortField, ascending bool) []string {
	t.Helper()
	var ids []string
	require.NoError(t, s.Walk(field, ascending, func(r domain.Record) error {
		ids = append(ids, r.ID)
		return nil
	}))
	return ids
}

func TestWalkDateOrder(t *testing.T) {
	s, _ := openTestStore(t)
	seedTestStore(t, s, "aaaa")

	asc := walkIDs(t, s, domain.SortDate, true)
	assert.Equal(t, []string{"backlog-game", "dune-book", "outer-wilds-game", "dune-movie"}, asc,
		"undated (0) entries sort first ascending")

	desc := walkIDs(t, s, domain.SortDate, false)
	assert.Equal(t, []string{"dune-movie", "outer-wilds-game", "dune-book", "backlog-game"}, desc)
}

func TestWalkTitleOrder(t *testing.T) {
	s, _ := openTestStore(t)
	seedTestStore(t, s, "aaaa")

	asc := walkIDs(t, s, domain.SortTitle, true)
	assert.Equal(t, []string{"backlog-game", "dune-book", "dune-movie", "outer-wilds-game"}, asc)
}

func TestWalkRatingDateOrder(t *testing.T) {
	s, _ := openTestStore(t)
	seedTestStore(t, s, "aaaa")

	desc := walkIDs(t, s, domain.SortRating, false)
	// Rating non-increasing; within equal ratings, date non-increasing.
	assert.Equal(t, []string{"outer-wilds-game", "dune-movie", "dune-book", "backlog-game"}, desc)
}

func TestWalkUnknownFieldFallsBackToDate(t *testing.T) {
	s, _ := openTestStore(t)
	seedTestStore(t, s, "aaaa")

	assert.Equal(t,
		walkIDs(t, s, domain.SortDate, true),
		walkIDs(t, s, domain.SortField("bogus"), true))
}

func TestDateKeyByteOrderMatchesNumericOrder(t *testing.T) {
	dates := []int64{-5, 0, 10, 1560124800}
	for i := 1; i < len(dates); i++ {
		a := dateKey(dates[i-1], "x")
		b := dateKey(dates[i], "x")
		assert.Negative(t, bytes.Compare(a, b), "key for %d must sort before key for %d", dates[i-1], dates[i])
	}
}

func TestRatingDateKeyOrdersByRatingThenDate(t *testing.T) {
	low := ratingDateKey(3, 2000, "a")
	highOld := ratingDateKey(4, 1000, "a")
	highNew := ratingDateKey(4, 2000, "a")

	assert.Negative(t, bytes.Compare(low, highOld), "lower rating sorts first regardless of date")
	assert.Negative(t, bytes.Compare(highOld, highNew), "within a rating, older dates sort first")
}
