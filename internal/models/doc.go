// Package models defines the domain entities shared by the sampling pipeline.
//
// The package contains lightweight structs representing remote service data:
//   - [Track] : a saved track with the metadata used for filtering, sampling, and export
//   - [Artist] : an artist record carrying the genre tags used for enrichment
//   - [Playlist] : metadata of a created playlist, including its public link
//   - [User] : the authenticated user's identity
//
// It also holds the keyword normalization and match rules used by the filter
// stage. Tracks are rebuilt from the remote service on every pipeline run and
// are treated as immutable once enriched; nothing in this package persists.
package models
