// Package models defines domain entities and persistence interfaces for the playlist service.
//
// Persistent entities embed a private record carrying ID, sequence and timestamps:
//   - [User] : accounts with a bcrypt password hash
//   - [Playlist] : an owned, ordered list of [Song] values
//
// [Principal] is the secret-free projection of a [User] that authenticated requests carry.
// [Song] is a flat catalog track used both in playlists and in search results.
//
// The Repository[T] interface defines standard CRUD operations for database access.
package models
