package domain

import "errors"

var (
	// ErrManifestUnavailable indicates the manifest endpoint could not
	// be fetched or decoded
	ErrManifestUnavailable = errors.New("catalogue manifest is unavailable")

	// ErrStoreUnusable indicates the durable store could not be opened
	// and could not be recreated either
	ErrStoreUnusable = errors.New("catalogue store is unusable")

	// ErrSeedFailed indicates a seeding cycle aborted before the
	// completion marker was written
	ErrSeedFailed = errors.New("catalogue seeding failed")

	// ErrQueryFailed indicates an index walk could not be completed
	ErrQueryFailed = errors.New("catalogue query failed")

	// ErrUnknownMediaType indicates a manifest entry carried a type
	// code outside 0..3
	ErrUnknownMediaType = errors.New("unknown media type code")
)
