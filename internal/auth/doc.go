// Package auth implements authentication for the application: password
// hashing, pluggable verification strategies, opaque sessions and the
// login/register/logout orchestration the web layer calls.
//
// # Layout
//
//   - password.go: bcrypt hashing behind a bounded worker pool
//   - strategy.go: named strategy registry (local password, OAuth profile)
//   - sessions.go: opaque session tokens mapping to a username
//   - service.go: the orchestrator composing strategies, sessions and the
//     flash queue
//   - handlers.go / middleware.go: gin bindings
//
// # Failure model
//
// Authentication failures (unknown user, wrong password, duplicate
// username, provider errors) are sentinel errors the orchestrator converts
// into exactly one flash message for the caller's session. Anything else is
// an infrastructure failure and propagates wrapped.
//
// # Usage
//
//	hasher := auth.NewHasher(cfg.Auth.BcryptCost, cfg.Auth.HashWorkers)
//	sessions, _ := auth.NewSessionManager(sqlDB, usersRepo, cfg.Auth)
//	registry := auth.NewRegistry()
//	registry.Register(auth.StrategyLocal, auth.NewLocalStrategy(usersRepo, hasher))
//	svc := auth.NewService(registry, sessions, usersRepo, flashRepo, hasher)
package auth
