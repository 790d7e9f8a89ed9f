package config

// Default paths for databases
const (
	// DefaultDatabasePath is the default path for the main application database
	DefaultDatabasePath = "./curator.db"

	// DefaultLegacyDatabasePaths lists candidate locations of the
	// pre-rewrite database, probed in order by the migration engine.
	DefaultLegacyDatabasePaths = "./curator-legacy.db,./fieldnotes.db"
)
