package config

// Default locations for the stores
const (
	// DefaultDatabasePath is the sqlite file used when DB_DRIVER is sqlite
	DefaultDatabasePath = "./bookstore.db"

	// DefaultTasksDatabasePath holds the mirror retry queue
	DefaultTasksDatabasePath = "./bookstore-tasks.db"

	// DefaultMirrorURI points at a local MongoDB
	DefaultMirrorURI = "mongodb://localhost:27017/"

	// DefaultMirrorDatabase is the analytics database inside the mirror
	DefaultMirrorDatabase = "bookstore_analytics"
)
