package models

import (
	"strings"
)

// Track represents one track from the user's saved library.
//
// Artists and ArtistIDs come from the same source list but are filtered
// independently, so their lengths may differ. Genres stays empty until the
// enrichment stage populates it.
type Track struct {
	Name        string   `json:"name"`
	Artists     []string `json:"artists"`
	ArtistIDs   []string `json:"artist_ids"`
	Album       string   `json:"album"`
	ReleaseDate string   `json:"release_date"`
	ReleaseYear string   `json:"release_year"`
	URI         string   `json:"uri"`
	URL         string   `json:"url"`
	Genres      []string `json:"genres"`
}

// SearchText builds the lowercased haystack the keyword filter matches
// against: name, artist names, album, and genre tags joined by single spaces.
func (t Track) SearchText() string {
	parts := make([]string, 0, len(t.Artists)+len(t.Genres)+2)
	parts = append(parts, t.Name)
	parts = append(parts, t.Artists...)
	parts = append(parts, t.Album)
	parts = append(parts, t.Genres...)
	return strings.ToLower(strings.Join(parts, " "))
}

// Matches reports whether any of the given keywords occurs as a substring of
// the track's search text. Keywords are expected to be normalized already; an
// empty keyword list matches nothing.
func (t Track) Matches(keywords []string) bool {
	text := t.SearchText()
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// ReleaseYear extracts the leading year segment of a release date in the
// remote service's precision format (year, year-month, or full date).
func ReleaseYear(releaseDate string) string {
	if releaseDate == "" {
		return ""
	}
	return strings.SplitN(releaseDate, "-", 2)[0]
}

// Artist represents an artist record with its genre tags.
type Artist struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Genres []string `json:"genres"`
}

// Playlist represents a playlist created on the remote service.
type Playlist struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Public      bool   `json:"public"`
	TrackCount  int    `json:"track_count"`
	URL         string `json:"url"`
}

// User represents the authenticated user's identity.
type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// ParseKeywords splits a comma-separated keyword string and normalizes the
// parts: whitespace trimmed, empties dropped, lowercased.
func ParseKeywords(raw string) []string {
	return NormalizeKeywords(strings.Split(raw, ","))
}

// NormalizeKeywords trims whitespace from each keyword, drops empty entries,
// and lowercases the rest. The result may be empty, in which case the filter
// matches no tracks.
func NormalizeKeywords(keywords []string) []string {
	normalized := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		normalized = append(normalized, strings.ToLower(kw))
	}
	return normalized
}
