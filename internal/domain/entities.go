package domain

import "fmt"

// MediaType classifies a catalogue entry.
type MediaType string

const (
	MediaTypeGame  MediaType = "game"
	MediaTypeMovie MediaType = "movie"
	MediaTypeShow  MediaType = "show"
	MediaTypeBook  MediaType = "book"
)

// MediaTypeFromCode maps the manifest's compact integer type codes
// (0=game, 1=movie, 2=show, 3=book) to a MediaType.
func MediaTypeFromCode(code int) (MediaType, error) {
	switch code {
	case 0:
		return MediaTypeGame, nil
	case 1:
		return MediaTypeMovie, nil
	case 2:
		return MediaTypeShow, nil
	case 3:
		return MediaTypeBook, nil
	default:
		return "", fmt.Errorf("%w: %d", ErrUnknownMediaType, code)
	}
}

// SortField selects the secondary index a query walks.
type SortField string

const (
	SortDate   SortField = "date"
	SortTitle  SortField = "alphabetical"
	SortRating SortField = "rating"
)

// Record is the durable unit of the catalogue cache.
type Record struct {
	ID             string    `json:"id"`
	Type           MediaType `json:"type"`
	Title          string    `json:"title"`
	TitleLowercase string    `json:"lower_case_title"`
	Rating         int       `json:"rating"` // 0..5, higher = better
	Author         string    `json:"author"`
	Date           int64     `json:"date"` // Unix seconds, 0 = undated
	Cover          string    `json:"cover"`
	Placeholder    string    `json:"placeholder"` // inline data URL preview
}

// RatingEmoji returns the glyph shown next to a rendered entry.
func (r Record) RatingEmoji() string {
	switch r.Rating {
	case 5:
		return "❤️"
	case 4:
		return "🥰"
	case 3:
		return "🙂"
	case 2:
		return "😐"
	case 1:
		return "😕"
	case 0:
		return "🙁"
	default:
		return ""
	}
}

// VersionKey is the reserved record id under which the singleton
// VersionRecord lives, sharing the records store.
const VersionKey = "version"

// VersionRecord marks which manifest generation the store holds. The
// store is valid only when Hash matches the advertised fingerprint and
// Complete is true; Complete is flipped last during seeding so a crash
// mid-seed never leaves a store that looks valid.
type VersionRecord struct {
	ID        string `json:"id"`
	Hash      string `json:"hash"`
	Timestamp int64  `json:"timestamp"`
	Complete  bool   `json:"complete"`
}
