package tasks

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/williamschertzer/spotify-representative-sampler/internal/models"
	"github.com/williamschertzer/spotify-representative-sampler/internal/services"
	"github.com/williamschertzer/spotify-representative-sampler/internal/shared"
	"golang.org/x/time/rate"
)

const (
	// libraryPageSize is the saved-tracks page size requested per API call.
	libraryPageSize = 50

	// artistBatchSize is the maximum artist IDs per genre lookup.
	artistBatchSize = 50

	// insertBatchSize is the maximum URIs per playlist insertion.
	insertBatchSize = 100

	// PlaylistDescription is attached to every created playlist.
	PlaylistDescription = "Filtered tracks from Liked Songs"
)

// RunResult contains all data from a full sampling run.
type RunResult struct {
	Total    int            // Saved tracks fetched from the library
	Filtered int            // Tracks matching the keyword filter
	Keywords []string       // Normalized keywords used for filtering
	Selected []models.Track // Final sampled selection in sampled order
}

// DefaultPlaylistName derives a playlist name from the selection size and keywords.
func (r *RunResult) DefaultPlaylistName() string {
	return fmt.Sprintf("Rep sample (%d) - %s", len(r.Selected), strings.Join(r.Keywords, ", "))
}

// Engine defines the sampling pipeline operations.
type Engine interface {
	// FetchLibrary retrieves every saved track in the user's library.
	FetchLibrary(ctx context.Context, progress chan<- ProgressUpdate) ([]models.Track, error)

	// EnrichGenres attaches artist genres to the given tracks.
	EnrichGenres(ctx context.Context, tracks []models.Track, progress chan<- ProgressUpdate) ([]models.Track, error)

	// Run performs the full fetch, enrich, filter, and sample pipeline.
	Run(ctx context.Context, progress chan<- ProgressUpdate, keywords []string, size int) (*RunResult, error)

	// Materialize creates a private playlist containing the given tracks.
	Materialize(ctx context.Context, progress chan<- ProgressUpdate, name string, tracks []models.Track) (*models.Playlist, error)
}

// SampleEngine implements Engine against a streaming service.
type SampleEngine struct {
	svc     services.Service
	limiter *rate.Limiter
	rng     *rand.Rand
}

// EngineOpts configures a SampleEngine.
type EngineOpts struct {
	// RateLimit caps outgoing API calls per second. Zero means 5/s.
	RateLimit float64

	// Rand is the randomness source for sampling. Nil means time-seeded.
	Rand *rand.Rand
}

// NewSampleEngine creates a SampleEngine backed by the given service.
func NewSampleEngine(svc services.Service, opts EngineOpts) *SampleEngine {
	limit := opts.RateLimit
	if limit <= 0 {
		limit = 5
	}
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &SampleEngine{
		svc:     svc,
		limiter: rate.NewLimiter(rate.Limit(limit), 1),
		rng:     rng,
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *SampleEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
		// Sent successfully
	default:
		// Channel full or closed, skip this update
	}
}

func (e *SampleEngine) wait(ctx context.Context) error {
	if err := e.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrTimeout, err)
	}
	return nil
}

// FetchLibrary pages through the user's saved tracks until an empty page.
func (e *SampleEngine) FetchLibrary(ctx context.Context, progress chan<- ProgressUpdate) ([]models.Track, error) {
	if e.svc == nil {
		return nil, fmt.Errorf("%w: service not initialized", shared.ErrServiceUnavailable)
	}

	var tracks []models.Track
	offset := 0
	for {
		if err := e.wait(ctx); err != nil {
			return nil, err
		}

		page, err := e.svc.SavedTracks(ctx, libraryPageSize, offset)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch saved tracks at offset %d: %w", offset, err)
		}
		if len(page) == 0 {
			break
		}

		tracks = append(tracks, page...)
		offset += len(page)
		e.sendProgress(progress, fetchPageUpdate(len(tracks)))
	}

	e.sendProgress(progress, fetchDoneUpdate(len(tracks)))
	return tracks, nil
}

// EnrichGenres resolves the genres of every artist referenced by the tracks
// and attaches the per-track union to each track.
//
// Artist IDs are deduplicated and looked up in batches. A track's genre set is
// the sorted union over its artists; tracks without artist IDs keep an empty
// set. Enrichment is idempotent.
func (e *SampleEngine) EnrichGenres(ctx context.Context, tracks []models.Track, progress chan<- ProgressUpdate) ([]models.Track, error) {
	if e.svc == nil {
		return nil, fmt.Errorf("%w: service not initialized", shared.ErrServiceUnavailable)
	}

	seen := make(map[string]bool)
	var ids []string
	for _, track := range tracks {
		for _, id := range track.ArtistIDs {
			if id == "" || seen[id] {
				continue
			}
			seen[id] = true
			ids = append(ids, id)
		}
	}
	// Deterministic batch composition regardless of library order.
	sort.Strings(ids)

	genresByArtist := make(map[string][]string, len(ids))
	batches := (len(ids) + artistBatchSize - 1) / artistBatchSize

	for i := 0; i < len(ids); i += artistBatchSize {
		end := i + artistBatchSize
		if end > len(ids) {
			end = len(ids)
		}

		e.sendProgress(progress, enrichBatchUpdate(i/artistBatchSize+1, batches))

		if err := e.wait(ctx); err != nil {
			return nil, err
		}

		artists, err := e.svc.SeveralArtists(ctx, ids[i:end])
		if err != nil {
			return nil, fmt.Errorf("failed to fetch artist batch %d: %w", i/artistBatchSize+1, err)
		}
		for _, artist := range artists {
			genresByArtist[artist.ID] = artist.Genres
		}
	}

	enriched := make([]models.Track, len(tracks))
	for i, track := range tracks {
		genres := make(map[string]bool)
		for _, id := range track.ArtistIDs {
			for _, g := range genresByArtist[id] {
				genres[g] = true
			}
		}

		union := make([]string, 0, len(genres))
		for g := range genres {
			union = append(union, g)
		}
		sort.Strings(union)

		enriched[i] = track
		enriched[i].Genres = union
	}
	return enriched, nil
}

// FilterTracks returns the tracks matching any of the keywords, preserving
// order. An empty keyword list matches nothing.
func FilterTracks(tracks []models.Track, keywords []string) []models.Track {
	matched := make([]models.Track, 0)
	for _, track := range tracks {
		if track.Matches(keywords) {
			matched = append(matched, track)
		}
	}
	return matched
}

// SampleTracks returns a uniform random sample of at most size tracks.
//
// When size is zero or negative the sample is empty. When the input already
// fits, a copy of it is returned unchanged. The input is never mutated.
func SampleTracks(rng *rand.Rand, tracks []models.Track, size int) []models.Track {
	if size <= 0 {
		return []models.Track{}
	}

	out := make([]models.Track, len(tracks))
	copy(out, tracks)
	if len(out) <= size {
		return out
	}

	rng.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out[:size]
}

// Run performs the full sampling pipeline: fetch, enrich, filter, sample.
//
// Keywords are expected to be normalized already. The result always carries
// the totals even when nothing matched.
func (e *SampleEngine) Run(ctx context.Context, progress chan<- ProgressUpdate, keywords []string, size int) (*RunResult, error) {
	library, err := e.FetchLibrary(ctx, progress)
	if err != nil {
		return nil, err
	}

	enriched, err := e.EnrichGenres(ctx, library, progress)
	if err != nil {
		return nil, err
	}

	matched := FilterTracks(enriched, keywords)
	e.sendProgress(progress, filterUpdate(len(matched), len(enriched), keywords))

	selected := SampleTracks(e.rng, matched, size)
	e.sendProgress(progress, sampleUpdate(len(selected), len(matched)))

	return &RunResult{
		Total:    len(enriched),
		Filtered: len(matched),
		Keywords: keywords,
		Selected: selected,
	}, nil
}

// Materialize creates a private playlist holding the given tracks.
//
// Track URIs are appended in slice order, batched to the insertion limit.
func (e *SampleEngine) Materialize(ctx context.Context, progress chan<- ProgressUpdate, name string, tracks []models.Track) (*models.Playlist, error) {
	if e.svc == nil {
		return nil, fmt.Errorf("%w: service not initialized", shared.ErrServiceUnavailable)
	}
	if len(tracks) == 0 {
		return nil, fmt.Errorf("%w: no tracks to add", shared.ErrEmptySelection)
	}

	if err := e.wait(ctx); err != nil {
		return nil, err
	}
	user, err := e.svc.CurrentUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to look up current user: %w", err)
	}

	if err := e.wait(ctx); err != nil {
		return nil, err
	}
	playlist, err := e.svc.CreatePlaylist(ctx, user.ID, name, PlaylistDescription, false)
	if err != nil {
		return nil, fmt.Errorf("failed to create playlist: %w", err)
	}
	e.sendProgress(progress, createPlaylistUpdate(playlist))

	uris := make([]string, 0, len(tracks))
	for _, track := range tracks {
		if track.URI != "" {
			uris = append(uris, track.URI)
		}
	}

	batches := (len(uris) + insertBatchSize - 1) / insertBatchSize
	for i := 0; i < len(uris); i += insertBatchSize {
		end := i + insertBatchSize
		if end > len(uris) {
			end = len(uris)
		}

		e.sendProgress(progress, addTracksUpdate(i/insertBatchSize+1, batches))

		if err := e.wait(ctx); err != nil {
			return nil, err
		}
		if err := e.svc.AddPlaylistItems(ctx, playlist.ID, uris[i:end]); err != nil {
			return nil, fmt.Errorf("failed to add tracks to playlist: %w", err)
		}
	}

	playlist.TrackCount = len(uris)
	return playlist, nil
}
