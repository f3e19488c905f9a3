package config

const (
	// MaxFileNameCodeUnits bounds file names, measured in UTF-16 code
	// units. Names must be shorter than this; the limit matches the
	// VARCHAR(255) column on the revision table.
	MaxFileNameCodeUnits = 256

	// DefaultRangeLimit is the number of revisions a range scan returns
	// when the caller does not specify a limit.
	DefaultRangeLimit = 100
)
