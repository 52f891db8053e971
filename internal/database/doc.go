// Package database provides the data access layer for the application.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup, migrations
//	├── users/           # User records (credential store)
//	├── flash/           # One-shot per-session flash messages
//	└── secrets/         # Submitted secrets
//
// Each sub-package provides a Repository type with domain-specific
// operations:
//
//	db, err := database.NewDatabase("./secrets.db")
//	usersRepo := users.NewRepository(db.DB)
//	flashRepo := flash.NewRepository(db.DB)
//
// The sessions table is owned by auth.NewSessionManager, which creates it
// against the raw *sql.DB because the session store is not a gorm model.
package database
