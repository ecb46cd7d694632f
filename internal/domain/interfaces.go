package domain

// CatalogueStore is the storage port: a durable key-value store with
// secondary-index cursor traversal. Writes happen only during seeding;
// queries only read.
type CatalogueStore interface {
	// Version returns the singleton VersionRecord, reporting whether
	// one exists.
	Version() (VersionRecord, bool, error)

	// ClearRecords removes every record, including any stale
	// VersionRecord, so generations never mix.
	ClearRecords() error

	// BeginSeed writes a VersionRecord with Complete=false.
	BeginSeed(hash string) error

	// PutRecords bulk-writes records and their index entries in one
	// atomic unit.
	PutRecords(records []Record) error

	// CompleteSeed flips the VersionRecord to Complete=true. Called
	// only after every PutRecords write has been acknowledged.
	CompleteSeed() error

	// Walk traverses the secondary index for the given sort field in
	// the requested direction, invoking fn with each record in index
	// order. Unrecognized fields fall back to the date index.
	Walk(field SortField, ascending bool, fn func(Record) error) error

	// GetAll returns every catalogue record, excluding the version
	// row, in no particular order.
	GetAll() ([]Record, error)

	// Recreated reports whether the store was structurally rebuilt
	// while opening. The flag is one-shot: it reads true at most once,
	// so the version gate is not redundantly re-run afterwards.
	Recreated() bool

	Close() error
}

// Surface is the rendering port the engine populates. Implementations
// are DOM-like: they own layout and styling, the engine owns content.
type Surface interface {
	// AppendItems adds rendered blocks for each record after any
	// existing content.
	AppendItems(items []Record)

	// SetCount displays the total match count.
	SetCount(total int)

	// ShowEmpty replaces content with the zero-results message.
	ShowEmpty()

	// ShowError replaces content with a terminal error message.
	ShowError(msg string)

	// Clear removes all rendered content.
	Clear()

	// ScrollTop resets the viewport to the top of the content.
	ScrollTop()
}
