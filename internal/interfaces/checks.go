package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/alexedwards/scs/sqlite3store"

	"github.com/mrlokans/secrets/internal/auth"
	"github.com/mrlokans/secrets/internal/database/flash"
	"github.com/mrlokans/secrets/internal/database/secrets"
	"github.com/mrlokans/secrets/internal/database/users"
	"github.com/mrlokans/secrets/internal/http"
	"github.com/mrlokans/secrets/internal/scheduler"
)

// =============================================================================
// Data Access Layer
// =============================================================================

// UserStore implementations
var _ auth.UserStore = (*users.Repository)(nil)

// FlashQueue implementations
var _ auth.FlashQueue = (*flash.Repository)(nil)

// FlashPruner implementations
var _ scheduler.FlashPruner = (*flash.Repository)(nil)

// SecretStore implementations
var _ http.SecretStore = (*secrets.Repository)(nil)

// =============================================================================
// Session Storage
// =============================================================================

// SessionStore implementations
var _ auth.SessionStore = (*sqlite3store.SQLite3Store)(nil)

// =============================================================================
// Authentication Strategies
// =============================================================================

// Strategy implementations
var _ auth.Strategy = (*auth.LocalStrategy)(nil)
var _ auth.Strategy = (*auth.OAuthStrategy)(nil)
