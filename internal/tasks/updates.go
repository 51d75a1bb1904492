package tasks

import (
	"fmt"

	"github.com/williamschertzer/spotify-representative-sampler/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchLibrary Phase = iota
	EnrichGenres
	PhaseFilterTracks
	PhaseSampleTracks
	CreatePlaylist
	AddTracks
	ExportCSV
)

func (p Phase) String() string {
	switch p {
	case FetchLibrary:
		return "fetch_library"
	case EnrichGenres:
		return "enrich_genres"
	case PhaseFilterTracks:
		return "filter_tracks"
	case PhaseSampleTracks:
		return "sample_tracks"
	case CreatePlaylist:
		return "create_playlist"
	case AddTracks:
		return "add_tracks"
	case ExportCSV:
		return "export_csv"
	default:
		return ""
	}
}

func fetchPageUpdate(fetched int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchLibrary,
		Step:    fetched,
		Total:   0,
		Message: fmt.Sprintf("Fetched %d saved tracks...", fetched),
	}
}

func fetchDoneUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchLibrary,
		Step:    total,
		Total:   total,
		Message: fmt.Sprintf("Library fetched: %d saved tracks", total),
	}
}

func enrichBatchUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   EnrichGenres,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Looking up artist genres...", step, total),
	}
}

func filterUpdate(matched, total int, keywords []string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PhaseFilterTracks,
		Step:    matched,
		Total:   total,
		Message: fmt.Sprintf("Matched %d of %d tracks", matched, total),
		Data:    keywords,
	}
}

func sampleUpdate(selected, matched int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PhaseSampleTracks,
		Step:    selected,
		Total:   matched,
		Message: fmt.Sprintf("Sampled %d of %d matching tracks", selected, matched),
	}
}

func createPlaylistUpdate(pl *models.Playlist) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CreatePlaylist,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Playlist created: %s (ID: %s)", pl.Name, pl.ID),
		Data:    pl,
	}
}

func addTracksUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   AddTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Adding tracks to playlist...", step, total),
	}
}
