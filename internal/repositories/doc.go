// Package repositories implements SQLite persistence for all domain entities.
//
// Each repository handles CRUD operations with atomic sequence generation for stable ordering.
// All repositories support soft deletes via deleted_at timestamps and exclude deleted records from queries by default.
//
// Key Implementations:
//   - [UserRepository] : account persistence with email and username lookups; also resolves principals for the auth guard
//   - [PlaylistRepository] : playlists plus their embedded, ordered songs
//
// Lookups that find nothing wrap [shared.ErrNotFound]; unique constraint failures wrap [shared.ErrAlreadyExists].
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
