// package formatter serializes sampled track selections for export (CSV, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/williamschertzer/spotify-representative-sampler/internal/models"
)

// DefaultExportFilename is used when no export path is configured.
const DefaultExportFilename = "filtered_tracks.csv"

// csvHeaders is the fixed export column order.
var csvHeaders = []string{"name", "artists", "album", "release_date", "release_year", "genres", "url", "uri"}

// ExportToCSV converts tracks to CSV with columns: name, artists, album,
// release_date, release_year, genres, url, uri. Multi-valued fields are
// joined with ", ".
func ExportToCSV(tracks []models.Track) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(csvHeaders); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, track := range tracks {
		record := []string{
			track.Name,
			strings.Join(track.Artists, ", "),
			track.Album,
			track.ReleaseDate,
			track.ReleaseYear,
			strings.Join(track.Genres, ", "),
			track.URL,
			track.URI,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToText converts tracks to a numbered plain text listing.
func ExportToText(tracks []models.Track) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Tracks: %d\n\n", len(tracks)))
	for i, track := range tracks {
		buf.WriteString(fmt.Sprintf("%d. %s - %s\n", i+1, strings.Join(track.Artists, ", "), track.Name))
	}

	return buf.Bytes()
}

// WriteCSVExport writes the CSV export of tracks to the given path.
//
// Defaults to DefaultExportFilename when path is empty. Returns the path written.
func WriteCSVExport(tracks []models.Track, path string) (string, error) {
	if path == "" {
		path = DefaultExportFilename
	}

	csvData, err := ExportToCSV(tracks)
	if err != nil {
		return "", fmt.Errorf("failed to generate CSV: %w", err)
	}

	if err := os.WriteFile(path, csvData, 0644); err != nil {
		return "", fmt.Errorf("failed to write CSV file: %w", err)
	}

	return path, nil
}
