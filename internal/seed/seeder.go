package seed

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hsorel/shelf/internal/domain"
	"github.com/hsorel/shelf/internal/manifest"
)

// ManifestSource provides the full manifest. *manifest.Client
// implements it.
type ManifestSource interface {
	Fetch(ctx context.Context) (*manifest.Manifest, error)
}

// Seeder populates the store from the remote manifest, atomically
// with respect to readers: a version marker with Complete=false goes
// in first, then the record batch, and Complete flips to true only
// after every insert has been acknowledged. Any failure leaves the
// store invalid so the next session retries the full reseed.
type Seeder struct {
	store  domain.CatalogueStore
	source ManifestSource
	logger *slog.Logger
}

func NewSeeder(store domain.CatalogueStore, source ManifestSource, logger *slog.Logger) *Seeder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Seeder{store: store, source: source, logger: logger}
}

// Seed runs one full reseed cycle: fetch, decode, clear, repopulate,
// commit.
func (s *Seeder) Seed(ctx context.Context) error {
	m, err := s.source.Fetch(ctx)
	if err != nil {
		return err
	}
	records, err := m.Records()
	if err != nil {
		s.logger.Error("failed to normalize manifest entries", "error", err)
		return fmt.Errorf("%w: %v", domain.ErrSeedFailed, err)
	}

	if err := s.store.ClearRecords(); err != nil {
		s.logger.Error("failed to clear store", "error", err)
		return fmt.Errorf("%w: %v", domain.ErrSeedFailed, err)
	}
	if err := s.store.BeginSeed(m.Hash); err != nil {
		s.logger.Error("failed to write version marker", "error", err)
		return fmt.Errorf("%w: %v", domain.ErrSeedFailed, err)
	}
	if err := s.store.PutRecords(records); err != nil {
		// The version row stays Complete=false, so the next load
		// treats the store as invalid and retries.
		s.logger.Error("failed to write records", "error", err)
		return fmt.Errorf("%w: %v", domain.ErrSeedFailed, err)
	}
	if err := s.store.CompleteSeed(); err != nil {
		s.logger.Error("failed to mark seed complete", "error", err)
		return fmt.Errorf("%w: %v", domain.ErrSeedFailed, err)
	}

	s.logger.Info("seeded catalogue", "hash", m.Hash, "records", len(records))
	return nil
}
