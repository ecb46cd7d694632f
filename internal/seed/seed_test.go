package seed

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hsorel/shelf/internal/domain"
	"github.com/hsorel/shelf/internal/logging"
	"github.com/hsorel/shelf/internal/manifest"
	"github.com/hsorel/shelf/internal/store"
)

// A real thumbhash (the reference implementation's example image).
const sampleThumbhash = "1QcSHQRnh493V4dIh4eXh1h4kJUI"

func manifestJSON(hash string, titles ...string) string {
	entries := ""
	for i, title := range titles {
		if i > 0 {
			entries += ","
		}
		entries += fmt.Sprintf(`["/covers/%d.avif", %q, %d, %q, 4, "Someone", %d]`,
			i, sampleThumbhash, i%4, title, 1000000000+i)
	}
	return fmt.Sprintf(`[%q, [%s]]`, hash, entries)
}

// manifestServer serves whatever payload the pointer currently holds,
// plus a companion latest.json carrying just the hash.
func manifestServer(t *testing.T, payload *atomic.Value) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/content.json":
			w.Write([]byte(payload.Load().(string)))
		case "/latest.json":
			m, err := manifest.Decode([]byte(payload.Load().(string)))
			require.NoError(t, err)
			fmt.Fprintf(w, "%q", m.Hash)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newFixture(t *testing.T, firstPayload string) (*store.Store, *manifest.Client, *atomic.Value) {
	t.Helper()
	var payload atomic.Value
	payload.Store(firstPayload)
	srv := manifestServer(t, &payload)

	st, err := store.Open(filepath.Join(t.TempDir(), "catalogue.db"), logging.Null())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	client := manifest.NewClient(srv.URL+"/content.json", srv.URL+"/latest.json", logging.Null())
	return st, client, &payload
}

func TestSeedPopulatesAndCommits(t *testing.T) {
	st, client, _ := newFixture(t, manifestJSON("hash-a", "Outer Wilds", "Dune", "Arrival"))
	seeder := NewSeeder(st, client, logging.Null())

	require.NoError(t, seeder.Seed(context.Background()))

	records, err := st.GetAll()
	require.NoError(t, err)
	assert.Len(t, records, 3)

	v, found, err := st.Version()
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "hash-a", v.Hash)
	assert.True(t, v.Complete)
}

func TestSeedFetchFailureCommitsNothing(t *testing.T) {
	st, _, _ := newFixture(t, manifestJSON("hash-a"))
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	badClient := manifest.NewClient(srv.URL, srv.URL, logging.Null())
	seeder := NewSeeder(st, badClient, logging.Null())

	err := seeder.Seed(context.Background())
	assert.ErrorIs(t, err, domain.ErrManifestUnavailable)

	_, found, verr := st.Version()
	require.NoError(t, verr)
	assert.False(t, found, "nothing is written before the manifest arrives")
}

// failingStore wraps a real store but refuses record writes, standing
// in for a write failure mid-seed.
type failingStore struct {
	domain.CatalogueStore
	completed bool
}

func (f *failingStore) PutRecords([]domain.Record) error {
	return errors.New("disk full")
}

func (f *failingStore) CompleteSeed() error {
	f.completed = true
	return f.CatalogueStore.CompleteSeed()
}

func TestSeedWriteFailureLeavesStoreInvalid(t *testing.T) {
	st, client, _ := newFixture(t, manifestJSON("hash-a", "Outer Wilds"))
	failing := &failingStore{CatalogueStore: st}
	seeder := NewSeeder(failing, client, logging.Null())

	err := seeder.Seed(context.Background())
	assert.ErrorIs(t, err, domain.ErrSeedFailed)
	assert.False(t, failing.completed, "the completion marker is never flipped after a write failure")

	v, found, verr := st.Version()
	require.NoError(t, verr)
	require.True(t, found)
	assert.False(t, v.Complete, "the store stays invalid so the next session reseeds")
}

func TestReconcilerSeedsFreshStore(t *testing.T) {
	st, client, _ := newFixture(t, manifestJSON("hash-a", "Outer Wilds", "Dune"))
	r := NewReconciler(st, client, NewSeeder(st, client, logging.Null()), logging.Null())

	reseeded, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, reseeded, "a freshly rebuilt store bypasses the version gate")

	records, err := st.GetAll()
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestReconcilerKeepsFreshCache(t *testing.T) {
	st, client, _ := newFixture(t, manifestJSON("hash-a", "Outer Wilds"))
	seeder := NewSeeder(st, client, logging.Null())
	r := NewReconciler(st, client, seeder, logging.Null())

	_, err := r.Run(context.Background())
	require.NoError(t, err)

	reseeded, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.False(t, reseeded, "matching hash with complete marker is valid")
}

func TestReconcilerHashChangeReseeds(t *testing.T) {
	st, client, payload := newFixture(t, manifestJSON("hash-a", "Outer Wilds"))
	seeder := NewSeeder(st, client, logging.Null())
	r := NewReconciler(st, client, seeder, logging.Null())

	_, err := r.Run(context.Background())
	require.NoError(t, err)

	// A new manifest generation appears between sessions.
	payload.Store(manifestJSON("hash-b", "Outer Wilds", "Dune", "Arrival"))

	reseeded, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, reseeded)

	records, rerr := st.GetAll()
	require.NoError(t, rerr)
	assert.Len(t, records, 3, "record count matches the new manifest")

	v, found, verr := st.Version()
	require.NoError(t, verr)
	require.True(t, found)
	assert.Equal(t, "hash-b", v.Hash)
	assert.True(t, v.Complete)
}

func TestReconcilerTreatsIncompleteSeedAsInvalid(t *testing.T) {
	st, client, _ := newFixture(t, manifestJSON("hash-a", "Outer Wilds", "Dune"))

	// Simulate a crash after the records landed but before the
	// completion marker flipped: the partial data survives in the
	// store, yet the cache must not be treated as valid.
	st.Recreated()
	require.NoError(t, st.BeginSeed("hash-a"))
	require.NoError(t, st.PutRecords([]domain.Record{
		{ID: "outer-wilds-game", Type: domain.MediaTypeGame, Title: "Outer Wilds", TitleLowercase: "outer wilds"},
	}))

	seeder := NewSeeder(st, client, logging.Null())
	r := NewReconciler(st, client, seeder, logging.Null())

	reseeded, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, reseeded, "hash matches but complete=false forces a reseed")

	records, rerr := st.GetAll()
	require.NoError(t, rerr)
	assert.Len(t, records, 2, "the partial generation was fully replaced")
}

// gateStore serves a canned version row for exercising the validity
// predicate without touching disk.
type gateStore struct {
	domain.CatalogueStore
	version domain.VersionRecord
	found   bool
	seeded  bool
}

func (g *gateStore) Recreated() bool { return false }

func (g *gateStore) Version() (domain.VersionRecord, bool, error) {
	return g.version, g.found, nil
}

func (g *gateStore) ClearRecords() error              { g.seeded = true; return nil }
func (g *gateStore) BeginSeed(string) error           { return nil }
func (g *gateStore) PutRecords([]domain.Record) error { return nil }
func (g *gateStore) CompleteSeed() error              { return nil }

type staticSource struct{ hash string }

func (s staticSource) LatestFingerprint(context.Context) (string, error) { return s.hash, nil }

func (s staticSource) Fetch(context.Context) (*manifest.Manifest, error) {
	return &manifest.Manifest{Hash: s.hash}, nil
}

func TestVersionGateTruthTable(t *testing.T) {
	cases := []struct {
		name     string
		found    bool
		stored   string
		complete bool
		reseed   bool
	}{
		{"absent", false, "", false, true},
		{"hash mismatch", true, "old", true, true},
		{"incomplete", true, "current", false, true},
		{"mismatch and incomplete", true, "old", false, true},
		{"valid", true, "current", true, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gs := &gateStore{
				version: domain.VersionRecord{ID: domain.VersionKey, Hash: tc.stored, Complete: tc.complete},
				found:   tc.found,
			}
			src := staticSource{hash: "current"}
			r := NewReconciler(gs, src, NewSeeder(gs, src, logging.Null()), logging.Null())

			reseeded, err := r.Run(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tc.reseed, reseeded)
			assert.Equal(t, tc.reseed, gs.seeded)
		})
	}
}
