package config

const (
	// DefaultDatabasePath is where the sqlite database lives unless
	// DATABASE_PATH overrides it.
	DefaultDatabasePath = "./secrets.db"
)
