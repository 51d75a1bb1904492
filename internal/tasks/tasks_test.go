package tasks

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/williamschertzer/spotify-representative-sampler/internal/models"
	"github.com/williamschertzer/spotify-representative-sampler/internal/shared"
	tu "github.com/williamschertzer/spotify-representative-sampler/internal/testing"
)

// fastOpts keeps tests from waiting on the rate limiter.
var fastOpts = EngineOpts{RateLimit: 10_000, Rand: rand.New(rand.NewSource(1))}

// makeLibrary builds n tracks, each with a single unique artist.
func makeLibrary(n int) []models.Track {
	tracks := make([]models.Track, n)
	for i := range tracks {
		tracks[i] = models.Track{
			Name:        fmt.Sprintf("Track %03d", i),
			Artists:     []string{fmt.Sprintf("Artist %03d", i)},
			ArtistIDs:   []string{fmt.Sprintf("artist%03d", i)},
			Album:       fmt.Sprintf("Album %03d", i),
			ReleaseDate: "2020-01-01",
			ReleaseYear: "2020",
			URI:         fmt.Sprintf("spotify:track:%03d", i),
			URL:         fmt.Sprintf("https://open.spotify.com/track/%03d", i),
		}
	}
	return tracks
}

func TestFetchLibrary(t *testing.T) {
	t.Run("Pages Until Empty", func(t *testing.T) {
		mock := &tu.MockService{Library: makeLibrary(120)}
		engine := NewSampleEngine(mock, fastOpts)

		tracks, err := engine.FetchLibrary(context.Background(), nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(tracks) != 120 {
			t.Errorf("expected 120 tracks, got %d", len(tracks))
		}

		// 50 + 50 + 20, then a terminating empty page.
		if len(mock.SavedTracksCalls) != 4 {
			t.Fatalf("expected 4 page requests, got %d", len(mock.SavedTracksCalls))
		}
		for i, call := range mock.SavedTracksCalls {
			if call[0] != 50 {
				t.Errorf("call %d: expected limit 50, got %d", i, call[0])
			}
			if call[1] != i*50 {
				t.Errorf("call %d: expected offset %d, got %d", i, i*50, call[1])
			}
		}
	})

	t.Run("Preserves Library Order", func(t *testing.T) {
		mock := &tu.MockService{Library: makeLibrary(73)}
		engine := NewSampleEngine(mock, fastOpts)

		tracks, err := engine.FetchLibrary(context.Background(), nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		for i, track := range tracks {
			if want := fmt.Sprintf("Track %03d", i); track.Name != want {
				t.Fatalf("position %d: expected %s, got %s", i, want, track.Name)
			}
		}
	})

	t.Run("Empty Library", func(t *testing.T) {
		mock := &tu.MockService{}
		engine := NewSampleEngine(mock, fastOpts)

		tracks, err := engine.FetchLibrary(context.Background(), nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(tracks) != 0 {
			t.Errorf("expected empty result, got %d tracks", len(tracks))
		}
	})

	t.Run("Propagates Errors", func(t *testing.T) {
		mock := &tu.MockService{SavedTracksErr: errors.New("api down")}
		engine := NewSampleEngine(mock, fastOpts)

		if _, err := engine.FetchLibrary(context.Background(), nil); err == nil {
			t.Error("expected error from failing service")
		}
	})

	t.Run("Reports Progress", func(t *testing.T) {
		mock := &tu.MockService{Library: makeLibrary(60)}
		engine := NewSampleEngine(mock, fastOpts)

		progress := make(chan ProgressUpdate, 16)
		if _, err := engine.FetchLibrary(context.Background(), progress); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		close(progress)

		var phases []Phase
		for update := range progress {
			phases = append(phases, update.Phase)
		}
		if len(phases) == 0 {
			t.Fatal("expected progress updates")
		}
		for _, phase := range phases {
			if phase != FetchLibrary {
				t.Errorf("unexpected phase %s during fetch", phase)
			}
		}
	})
}

func TestEnrichGenres(t *testing.T) {
	t.Run("Attaches Sorted Genre Union", func(t *testing.T) {
		mock := &tu.MockService{
			Artists: map[string][]string{
				"a1": {"rock", "blues"},
				"a2": {"jazz", "rock"},
			},
		}
		engine := NewSampleEngine(mock, fastOpts)

		tracks := []models.Track{
			{Name: "Duet", ArtistIDs: []string{"a2", "a1"}},
		}
		enriched, err := engine.EnrichGenres(context.Background(), tracks, nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		got := strings.Join(enriched[0].Genres, ",")
		if got != "blues,jazz,rock" {
			t.Errorf("expected sorted union 'blues,jazz,rock', got %q", got)
		}
	})

	t.Run("Batches Deduplicated Sorted IDs", func(t *testing.T) {
		artists := make(map[string][]string)
		tracks := make([]models.Track, 0, 60)
		for i := 0; i < 60; i++ {
			id := fmt.Sprintf("artist%03d", i)
			artists[id] = []string{"genre"}
			// Each artist appears on two tracks to exercise deduplication.
			tracks = append(tracks, models.Track{Name: "A", ArtistIDs: []string{id}})
			tracks = append(tracks, models.Track{Name: "B", ArtistIDs: []string{id}})
		}

		mock := &tu.MockService{Artists: artists}
		engine := NewSampleEngine(mock, fastOpts)

		if _, err := engine.EnrichGenres(context.Background(), tracks, nil); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if len(mock.ArtistCalls) != 2 {
			t.Fatalf("expected 2 lookup batches for 60 artists, got %d", len(mock.ArtistCalls))
		}
		if len(mock.ArtistCalls[0]) != 50 || len(mock.ArtistCalls[1]) != 10 {
			t.Errorf("expected batch sizes 50 and 10, got %d and %d",
				len(mock.ArtistCalls[0]), len(mock.ArtistCalls[1]))
		}
		if mock.ArtistCalls[0][0] != "artist000" {
			t.Errorf("expected sorted batches, first ID was %s", mock.ArtistCalls[0][0])
		}
	})

	t.Run("No Artist IDs Means No Lookups", func(t *testing.T) {
		mock := &tu.MockService{}
		engine := NewSampleEngine(mock, fastOpts)

		tracks := []models.Track{{Name: "Local File"}}
		enriched, err := engine.EnrichGenres(context.Background(), tracks, nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(mock.ArtistCalls) != 0 {
			t.Errorf("expected no artist lookups, got %d", len(mock.ArtistCalls))
		}
		if len(enriched[0].Genres) != 0 {
			t.Errorf("expected empty genre set, got %v", enriched[0].Genres)
		}
	})

	t.Run("Unknown Artists Keep Empty Set", func(t *testing.T) {
		mock := &tu.MockService{Artists: map[string][]string{}}
		engine := NewSampleEngine(mock, fastOpts)

		tracks := []models.Track{{Name: "Ghost", ArtistIDs: []string{"missing"}}}
		enriched, err := engine.EnrichGenres(context.Background(), tracks, nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(enriched[0].Genres) != 0 {
			t.Errorf("expected empty genre set for unknown artist, got %v", enriched[0].Genres)
		}
	})

	t.Run("Idempotent", func(t *testing.T) {
		mock := &tu.MockService{
			Artists: map[string][]string{"a1": {"jazz"}},
		}
		engine := NewSampleEngine(mock, fastOpts)

		tracks := []models.Track{{Name: "Solo", ArtistIDs: []string{"a1"}}}
		once, err := engine.EnrichGenres(context.Background(), tracks, nil)
		if err != nil {
			t.Fatalf("first enrichment failed: %v", err)
		}
		twice, err := engine.EnrichGenres(context.Background(), once, nil)
		if err != nil {
			t.Fatalf("second enrichment failed: %v", err)
		}
		if strings.Join(once[0].Genres, ",") != strings.Join(twice[0].Genres, ",") {
			t.Errorf("enrichment not idempotent: %v vs %v", once[0].Genres, twice[0].Genres)
		}
	})
}

func TestFilterTracks(t *testing.T) {
	tracks := []models.Track{
		{Name: "So What", Artists: []string{"Miles Davis"}, Genres: []string{"cool jazz"}},
		{Name: "Paranoid", Artists: []string{"Black Sabbath"}, Genres: []string{"heavy metal"}},
		{Name: "Jazz Hands", Artists: []string{"Somebody"}},
	}

	t.Run("Matches Any Keyword", func(t *testing.T) {
		matched := FilterTracks(tracks, []string{"jazz", "metal"})
		if len(matched) != 3 {
			t.Errorf("expected 3 matches, got %d", len(matched))
		}
	})

	t.Run("Preserves Order", func(t *testing.T) {
		matched := FilterTracks(tracks, []string{"jazz"})
		if len(matched) != 2 {
			t.Fatalf("expected 2 matches, got %d", len(matched))
		}
		if matched[0].Name != "So What" || matched[1].Name != "Jazz Hands" {
			t.Errorf("order not preserved: %s, %s", matched[0].Name, matched[1].Name)
		}
	})

	t.Run("Empty Keywords Match Nothing", func(t *testing.T) {
		if matched := FilterTracks(tracks, nil); len(matched) != 0 {
			t.Errorf("expected no matches for empty keywords, got %d", len(matched))
		}
	})

	t.Run("No Matches", func(t *testing.T) {
		if matched := FilterTracks(tracks, []string{"polka"}); len(matched) != 0 {
			t.Errorf("expected no matches, got %d", len(matched))
		}
	})
}

func TestSampleTracks(t *testing.T) {
	t.Run("Zero Or Negative Size", func(t *testing.T) {
		rng := rand.New(rand.NewSource(1))
		if got := SampleTracks(rng, makeLibrary(10), 0); len(got) != 0 {
			t.Errorf("expected empty sample for size 0, got %d", len(got))
		}
		if got := SampleTracks(rng, makeLibrary(10), -5); len(got) != 0 {
			t.Errorf("expected empty sample for negative size, got %d", len(got))
		}
	})

	t.Run("Input Fits", func(t *testing.T) {
		rng := rand.New(rand.NewSource(1))
		tracks := makeLibrary(5)
		got := SampleTracks(rng, tracks, 10)
		if len(got) != 5 {
			t.Fatalf("expected all 5 tracks, got %d", len(got))
		}
		for i := range got {
			if got[i].Name != tracks[i].Name {
				t.Errorf("expected unchanged order when input fits, position %d differs", i)
			}
		}
	})

	t.Run("Samples Without Duplicates", func(t *testing.T) {
		rng := rand.New(rand.NewSource(42))
		tracks := makeLibrary(100)
		got := SampleTracks(rng, tracks, 30)
		if len(got) != 30 {
			t.Fatalf("expected 30 tracks, got %d", len(got))
		}

		seen := make(map[string]bool)
		for _, track := range got {
			if seen[track.URI] {
				t.Fatalf("duplicate track in sample: %s", track.URI)
			}
			seen[track.URI] = true
		}
	})

	t.Run("Does Not Mutate Input", func(t *testing.T) {
		rng := rand.New(rand.NewSource(7))
		tracks := makeLibrary(50)
		SampleTracks(rng, tracks, 10)
		for i, track := range tracks {
			if want := fmt.Sprintf("Track %03d", i); track.Name != want {
				t.Fatalf("input mutated at position %d", i)
			}
		}
	})

	t.Run("Deterministic With Seed", func(t *testing.T) {
		tracks := makeLibrary(100)
		first := SampleTracks(rand.New(rand.NewSource(99)), tracks, 10)
		second := SampleTracks(rand.New(rand.NewSource(99)), tracks, 10)
		for i := range first {
			if first[i].URI != second[i].URI {
				t.Fatalf("same seed produced different samples at position %d", i)
			}
		}
	})
}

func TestSampleEngine_Run(t *testing.T) {
	library := makeLibrary(120)
	artists := make(map[string][]string)
	// First 40 artists are jazz, the rest have no genres.
	for i := 0; i < 40; i++ {
		artists[fmt.Sprintf("artist%03d", i)] = []string{"cool jazz"}
	}

	t.Run("Full Pipeline", func(t *testing.T) {
		mock := &tu.MockService{Library: library, Artists: artists}
		engine := NewSampleEngine(mock, fastOpts)

		result, err := engine.Run(context.Background(), nil, []string{"jazz"}, 15)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if result.Total != 120 {
			t.Errorf("expected total 120, got %d", result.Total)
		}
		if result.Filtered != 40 {
			t.Errorf("expected 40 filtered, got %d", result.Filtered)
		}
		if len(result.Selected) != 15 {
			t.Errorf("expected 15 selected, got %d", len(result.Selected))
		}
		for _, track := range result.Selected {
			if !strings.Contains(strings.Join(track.Genres, " "), "jazz") {
				t.Errorf("selected track %s does not match filter", track.Name)
			}
		}
	})

	t.Run("Default Playlist Name", func(t *testing.T) {
		mock := &tu.MockService{Library: library, Artists: artists}
		engine := NewSampleEngine(mock, fastOpts)

		result, err := engine.Run(context.Background(), nil, []string{"jazz", "blues"}, 10)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		want := fmt.Sprintf("Rep sample (%d) - jazz, blues", len(result.Selected))
		if got := result.DefaultPlaylistName(); got != want {
			t.Errorf("expected %q, got %q", want, got)
		}
	})

	t.Run("Nothing Matches", func(t *testing.T) {
		mock := &tu.MockService{Library: library, Artists: artists}
		engine := NewSampleEngine(mock, fastOpts)

		result, err := engine.Run(context.Background(), nil, []string{"zydeco"}, 10)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if result.Filtered != 0 || len(result.Selected) != 0 {
			t.Errorf("expected empty result, got filtered=%d selected=%d",
				result.Filtered, len(result.Selected))
		}
		if result.Total != 120 {
			t.Errorf("expected total preserved, got %d", result.Total)
		}
	})

	t.Run("Selection Fits Filter", func(t *testing.T) {
		mock := &tu.MockService{Library: library, Artists: artists}
		engine := NewSampleEngine(mock, fastOpts)

		result, err := engine.Run(context.Background(), nil, []string{"jazz"}, 500)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(result.Selected) != result.Filtered {
			t.Errorf("expected all %d matches selected, got %d",
				result.Filtered, len(result.Selected))
		}
	})
}

func TestMaterialize(t *testing.T) {
	t.Run("Creates Private Playlist", func(t *testing.T) {
		mock := &tu.MockService{}
		engine := NewSampleEngine(mock, fastOpts)

		playlist, err := engine.Materialize(context.Background(), nil, "My Sample", makeLibrary(10))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if mock.CreatedName != "My Sample" {
			t.Errorf("expected playlist name 'My Sample', got %s", mock.CreatedName)
		}
		if mock.CreatedPublic {
			t.Error("expected private playlist")
		}
		if mock.CreatedDesc != PlaylistDescription {
			t.Errorf("unexpected description: %s", mock.CreatedDesc)
		}
		if playlist.TrackCount != 10 {
			t.Errorf("expected track count 10, got %d", playlist.TrackCount)
		}
	})

	t.Run("Batches Additions", func(t *testing.T) {
		mock := &tu.MockService{}
		engine := NewSampleEngine(mock, fastOpts)

		tracks := makeLibrary(250)
		if _, err := engine.Materialize(context.Background(), nil, "Big Sample", tracks); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if len(mock.AddedBatches) != 3 {
			t.Fatalf("expected 3 batches for 250 tracks, got %d", len(mock.AddedBatches))
		}
		sizes := []int{len(mock.AddedBatches[0]), len(mock.AddedBatches[1]), len(mock.AddedBatches[2])}
		if sizes[0] != 100 || sizes[1] != 100 || sizes[2] != 50 {
			t.Errorf("expected batch sizes 100/100/50, got %v", sizes)
		}

		uris := mock.AddedURIs()
		for i, uri := range uris {
			if want := fmt.Sprintf("spotify:track:%03d", i); uri != want {
				t.Fatalf("URI order not preserved at position %d: got %s", i, uri)
			}
		}
	})

	t.Run("Empty Selection", func(t *testing.T) {
		mock := &tu.MockService{}
		engine := NewSampleEngine(mock, fastOpts)

		_, err := engine.Materialize(context.Background(), nil, "Empty", nil)
		if !errors.Is(err, shared.ErrEmptySelection) {
			t.Errorf("expected ErrEmptySelection, got %v", err)
		}
		if mock.CreatedName != "" {
			t.Error("playlist should not be created for an empty selection")
		}
	})

	t.Run("Skips Tracks Without URIs", func(t *testing.T) {
		mock := &tu.MockService{}
		engine := NewSampleEngine(mock, fastOpts)

		tracks := []models.Track{
			{Name: "Has URI", URI: "spotify:track:1"},
			{Name: "Local File"},
		}
		playlist, err := engine.Materialize(context.Background(), nil, "Mixed", tracks)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if playlist.TrackCount != 1 {
			t.Errorf("expected 1 added track, got %d", playlist.TrackCount)
		}
	})

	t.Run("Propagates Create Errors", func(t *testing.T) {
		mock := &tu.MockService{CreatePlaylistErr: errors.New("quota exceeded")}
		engine := NewSampleEngine(mock, fastOpts)

		if _, err := engine.Materialize(context.Background(), nil, "Fail", makeLibrary(1)); err == nil {
			t.Error("expected error from failing create")
		}
	})
}
