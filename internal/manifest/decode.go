package manifest

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hsorel/shelf/internal/domain"
)

// Manifest is the versioned payload describing all catalogue entries.
type Manifest struct {
	Hash    string
	Entries []Entry
}

// Entry is one fixed-position tuple from the compact array encoding:
// [cover, placeholderHash, type, title, rating, author, date?].
type Entry struct {
	Cover           string
	PlaceholderHash string
	TypeCode        int
	Title           string
	Rating          int
	Author          string
	Date            int64 // 0 when the entry is undated
}

// UnmarshalJSON decodes the positional tuple form.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var tuple []json.RawMessage
	if err := json.Unmarshal(data, &tuple); err != nil {
		return err
	}
	if len(tuple) < 6 || len(tuple) > 7 {
		return fmt.Errorf("entry has %d fields, want 6 or 7", len(tuple))
	}
	fields := []struct {
		name string
		dest any
	}{
		{"cover", &e.Cover},
		{"placeholder", &e.PlaceholderHash},
		{"type", &e.TypeCode},
		{"title", &e.Title},
		{"rating", &e.Rating},
		{"author", &e.Author},
	}
	for i, f := range fields {
		if err := json.Unmarshal(tuple[i], f.dest); err != nil {
			return fmt.Errorf("entry field %s: %w", f.name, err)
		}
	}
	e.Date = 0
	if len(tuple) == 7 {
		if err := json.Unmarshal(tuple[6], &e.Date); err != nil {
			return fmt.Errorf("entry field date: %w", err)
		}
	}
	return nil
}

// Decode parses the raw manifest payload [versionHash, entries].
func Decode(data []byte) (*Manifest, error) {
	var outer []json.RawMessage
	if err := json.Unmarshal(data, &outer); err != nil {
		return nil, err
	}
	if len(outer) != 2 {
		return nil, fmt.Errorf("manifest has %d elements, want 2", len(outer))
	}
	hash, err := decodeHash(outer[0])
	if err != nil {
		return nil, err
	}
	var entries []Entry
	if err := json.Unmarshal(outer[1], &entries); err != nil {
		return nil, err
	}
	return &Manifest{Hash: hash, Entries: entries}, nil
}

// Records normalizes the manifest entries into durable records. Ids
// are deterministic slugs of title plus media type, disambiguated
// against collisions within the manifest; placeholder hashes are
// decoded into inline-renderable previews.
func (m *Manifest) Records() ([]domain.Record, error) {
	slugger := newSlugger()
	records := make([]domain.Record, 0, len(m.Entries))

	for _, e := range m.Entries {
		mediaType, err := domain.MediaTypeFromCode(e.TypeCode)
		if err != nil {
			return nil, fmt.Errorf("entry %q: %w", e.Title, err)
		}
		placeholder, err := decodePlaceholder(e.PlaceholderHash)
		if err != nil {
			return nil, fmt.Errorf("entry %q: %w", e.Title, err)
		}
		records = append(records, domain.Record{
			ID:             slugger.slug(e.Title) + "-" + string(mediaType),
			Type:           mediaType,
			Title:          e.Title,
			TitleLowercase: strings.ToLower(e.Title),
			Rating:         e.Rating,
			Author:         e.Author,
			Date:           e.Date,
			Cover:          e.Cover,
			Placeholder:    placeholder,
		})
	}
	return records, nil
}
