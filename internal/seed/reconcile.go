package seed

import (
	"context"
	"log/slog"

	"github.com/hsorel/shelf/internal/domain"
)

// FingerprintSource provides the fingerprint currently advertised by
// the content provider. *manifest.Client implements it.
type FingerprintSource interface {
	LatestFingerprint(ctx context.Context) (string, error)
}

// Reconciler decides, once per session, whether the store is fresh or
// must be reseeded. The stored generation is valid only when a version
// row exists, its hash matches the advertised fingerprint, and its
// Complete flag is set; anything else forces a reseed.
type Reconciler struct {
	store  domain.CatalogueStore
	source FingerprintSource
	seeder *Seeder
	logger *slog.Logger
}

func NewReconciler(store domain.CatalogueStore, source FingerprintSource, seeder *Seeder, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{store: store, source: source, seeder: seeder, logger: logger}
}

// Run performs the version check and, when needed, the reseed. It
// reports whether a reseed happened. Failures reading the version row
// are treated as staleness, not errors: the reseed rewrites it anyway.
func (r *Reconciler) Run(ctx context.Context) (reseeded bool, err error) {
	if r.store.Recreated() {
		// Structural rebuild already decided the answer; skip the
		// version gate.
		r.logger.Info("store was rebuilt, reseeding")
		return true, r.seeder.Seed(ctx)
	}

	latest, err := r.source.LatestFingerprint(ctx)
	if err != nil {
		return false, err
	}

	v, found, err := r.store.Version()
	if err != nil {
		r.logger.Warn("failed to read version record, reseeding", "error", err)
		return true, r.seeder.Seed(ctx)
	}
	if !found || v.Hash != latest || !v.Complete {
		r.logger.Info("cache invalid, reseeding",
			"found", found, "stored", v.Hash, "latest", latest, "complete", v.Complete)
		return true, r.seeder.Seed(ctx)
	}

	r.logger.Debug("cache is fresh", "hash", v.Hash)
	return false, nil
}
