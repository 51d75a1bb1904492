// Package tasks orchestrates the saved-tracks sampling pipeline with real-time progress reporting.
//
// # Core Operations
//
// The [Engine] interface defines the pipeline:
//
//  1. [Engine.FetchLibrary] : Page through the user's saved tracks
//     - Requests fixed-size pages until an empty page is returned
//     - Preserves library order
//
//  2. [Engine.EnrichGenres] : Attach artist genres to tracks
//     - Deduplicates artist IDs across the library
//     - Looks them up in batches within the API limit
//     - Each track gets the sorted genre union over its artists
//
//  3. [Engine.Run] : Full pipeline
//     - Fetch, enrich, keyword-filter, then uniform random sample
//     - Returns totals alongside the selection
//
//  4. [Engine.Materialize] : Create a private playlist from a selection
//     - Appends track URIs in order, batched to the insertion limit
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates.
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking.
//
// # Implementation
//
// [SampleEngine] implements [Engine] with dependencies on:
//   - [services.Service] : Spotify API client
//   - [rate.Limiter] : Outgoing request throttle
//   - [rand.Rand] : Injectable randomness source for reproducible sampling
package tasks
