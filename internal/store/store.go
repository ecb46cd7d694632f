package store

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/hsorel/shelf/internal/domain"
	bolt "go.etcd.io/bbolt"
)

// schemaVersion is the structural version of the store. Any mismatch
// with the on-disk version drops and rebuilds every bucket, which
// forces a full reseed. There is no per-version upgrade path: the
// store is a disposable cache, not a source of truth.
const schemaVersion = 4

var (
	bucketRecords    = []byte("records")
	bucketMeta       = []byte("meta")
	bucketIdxDate    = []byte("idx:date")
	bucketIdxTitle   = []byte("idx:title")
	bucketIdxRatingD = []byte("idx:rating_date")

	keySchemaVersion = []byte("schema_version")
)

var indexBuckets = [][]byte{bucketIdxDate, bucketIdxTitle, bucketIdxRatingD}

// Store implements domain.CatalogueStore using BoltDB. One records
// bucket keyed by id (the version row included, under the literal key
// "version") plus one bucket per secondary index, keyed so that
// bytewise cursor order equals the index's sort order.
type Store struct {
	db        *bolt.DB
	logger    *slog.Logger
	recreated bool
}

// Open opens (or recovers) the store at path. If the underlying file
// cannot be opened it is deleted and recreated from scratch; if even
// deletion fails, domain.ErrStoreUnusable is returned and the caller
// must surface a terminal error instead of retrying.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	db, err := openFile(path)
	if err != nil {
		logger.Error("failed to open store, resetting", "path", path, "error", err)
		if rmErr := os.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) {
			return nil, fmt.Errorf("%w: delete failed: %v", domain.ErrStoreUnusable, rmErr)
		}
		db, err = openFile(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnusable, err)
		}
	}

	s := &Store{db: db, logger: logger}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnusable, err)
	}
	return s, nil
}

func openFile(path string) (*bolt.DB, error) {
	return bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
}

// migrate compares the on-disk structural version with schemaVersion
// and rebuilds the store on any mismatch. A missing version (fresh or
// pre-versioning file) counts as a mismatch.
func (s *Store) migrate() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		current := -1
		if meta := tx.Bucket(bucketMeta); meta != nil {
			if v := meta.Get(keySchemaVersion); len(v) == 8 {
				current = int(binary.BigEndian.Uint64(v))
			}
		}
		if current == schemaVersion {
			return nil
		}

		s.logger.Info("rebuilding store", "from", current, "to", schemaVersion)
		if err := dropAll(tx); err != nil {
			return err
		}
		if err := createAll(tx); err != nil {
			return err
		}

		var v [8]byte
		binary.BigEndian.PutUint64(v[:], uint64(schemaVersion))
		if err := tx.Bucket(bucketMeta).Put(keySchemaVersion, v[:]); err != nil {
			return err
		}
		s.recreated = true
		return nil
	})
}

func dropAll(tx *bolt.Tx) error {
	for _, name := range [][]byte{bucketRecords, bucketMeta, bucketIdxDate, bucketIdxTitle, bucketIdxRatingD} {
		if err := tx.DeleteBucket(name); err != nil && !errors.Is(err, bolt.ErrBucketNotFound) {
			return err
		}
	}
	return nil
}

func createAll(tx *bolt.Tx) error {
	for _, name := range [][]byte{bucketRecords, bucketMeta, bucketIdxDate, bucketIdxTitle, bucketIdxRatingD} {
		if _, err := tx.CreateBucketIfNotExists(name); err != nil {
			return err
		}
	}
	return nil
}

// Recreated reports whether opening structurally rebuilt the store.
// One-shot: the flag clears on read so the caller's version gate does
// not re-run after a rebuild already decided the answer.
func (s *Store) Recreated() bool {
	r := s.recreated
	s.recreated = false
	return r
}

func (s *Store) Close() error {
	return s.db.Close()
}

// === Version row ===

func (s *Store) Version() (domain.VersionRecord, bool, error) {
	var rec domain.VersionRecord
	found := false
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketRecords).Get([]byte(domain.VersionKey))
		if v == nil {
			return nil
		}
		if err := json.Unmarshal(v, &rec); err != nil {
			return err
		}
		found = true
		return nil
	})
	if err != nil {
		return domain.VersionRecord{}, false, err
	}
	return rec, found, nil
}

// BeginSeed writes the incomplete version marker before any record is
// inserted, so a crash mid-seed never leaves a store that looks valid.
func (s *Store) BeginSeed(hash string) error {
	rec := domain.VersionRecord{
		ID:        domain.VersionKey,
		Hash:      hash,
		Timestamp: time.Now().Unix(),
		Complete:  false,
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketRecords).Put([]byte(domain.VersionKey), data)
	})
}

// PutRecords writes all records and their index entries in a single
// transaction: either the whole batch becomes visible or none of it.
func (s *Store) PutRecords(records []domain.Record) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		rb := tx.Bucket(bucketRecords)
		for _, rec := range records {
			data, err := json.Marshal(rec)
			if err != nil {
				return err
			}
			if err := rb.Put([]byte(rec.ID), data); err != nil {
				return err
			}
			id := []byte(rec.ID)
			if err := tx.Bucket(bucketIdxDate).Put(dateKey(rec.Date, rec.ID), id); err != nil {
				return err
			}
			if err := tx.Bucket(bucketIdxTitle).Put(titleKey(rec.TitleLowercase, rec.ID), id); err != nil {
				return err
			}
			if err := tx.Bucket(bucketIdxRatingD).Put(ratingDateKey(rec.Rating, rec.Date, rec.ID), id); err != nil {
				return err
			}
		}
		return nil
	})
}

// CompleteSeed flips the version row to complete. It fails if no
// version row exists, which would mean BeginSeed never ran.
func (s *Store) CompleteSeed() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		rb := tx.Bucket(bucketRecords)
		v := rb.Get([]byte(domain.VersionKey))
		if v == nil {
			return errors.New("version record not found when marking seed complete")
		}
		var rec domain.VersionRecord
		if err := json.Unmarshal(v, &rec); err != nil {
			return err
		}
		rec.Complete = true
		data, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		return rb.Put([]byte(domain.VersionKey), data)
	})
}

// ClearRecords drops every record and index entry, the stale version
// row included, so old and new generations never mix.
func (s *Store) ClearRecords() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketRecords, bucketIdxDate, bucketIdxTitle, bucketIdxRatingD} {
			if err := tx.DeleteBucket(name); err != nil && !errors.Is(err, bolt.ErrBucketNotFound) {
				return err
			}
			if _, err := tx.CreateBucket(name); err != nil {
				return err
			}
		}
		return nil
	})
}

// Walk traverses the secondary index for field in the requested
// direction. Index values hold record ids; the record itself is
// loaded from the records bucket. Unrecognized sort fields fall back
// to the date index.
func (s *Store) Walk(field domain.SortField, ascending bool, fn func(domain.Record) error) error {
	var bucket []byte
	switch field {
	case domain.SortTitle:
		bucket = bucketIdxTitle
	case domain.SortRating:
		bucket = bucketIdxRatingD
	default:
		bucket = bucketIdxDate
	}

	return s.db.View(func(tx *bolt.Tx) error {
		rb := tx.Bucket(bucketRecords)
		c := tx.Bucket(bucket).Cursor()

		next := c.Next
		k, v := c.First()
		if !ascending {
			next = c.Prev
			k, v = c.Last()
		}

		for ; k != nil; k, v = next() {
			data := rb.Get(v)
			if data == nil {
				// Dangling index entry; generations are cleared
				// wholesale so this should not happen.
				continue
			}
			var rec domain.Record
			if err := json.Unmarshal(data, &rec); err != nil {
				return err
			}
			if err := fn(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetAll returns every catalogue record, skipping the version row.
func (s *Store) GetAll() ([]domain.Record, error) {
	var records []domain.Record
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketRecords).ForEach(func(k, v []byte) error {
			if string(k) == domain.VersionKey {
				return nil
			}
			var rec domain.Record
			if err := json.Unmarshal(v, &rec); err != nil {
				return err
			}
			records = append(records, rec)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}
