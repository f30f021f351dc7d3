// Package session provides battle session management for netbattle.
//
// The session package implements:
//   - Thread-safe session storage and retrieval
//   - Field construction from a battle config, including its mob
//   - Session persistence to JSON files, SQLite or PostgreSQL
//   - Session cleanup and expiration
//
// Core Types:
//
// Manager owns the live sessions. Each session has its own battle.Field and,
// when the config names one, a started mob.Mob. A SessionPersistence backend
// stores the field snapshot together with the elapsed battle time.
//
// Session Identifiers:
//
// Generated IDs are the first eight hex digits of a random UUID. Lookups are
// case-insensitive.
//
// Usage:
//
//	manager := session.NewManager()
//
//	sess, err := manager.Create("", "starfish", config)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	sess, err = manager.Get(sess.ID)
//
// Persistence:
//
// Restored sessions get their field back from the snapshot but not their mob
// behaviour; in-flight moves are dropped.
package session
