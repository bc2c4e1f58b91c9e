// package formatter renders playlists to CSV, Markdown and plain text
package formatter

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/desertthunder/setlist/internal/models"
	"github.com/desertthunder/setlist/internal/shared"
)

// Format names an export format.
type Format string

const (
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "md"
	FormatText     Format = "txt"
)

// ParseFormat accepts csv, md/markdown and txt/text (case-insensitive). Empty means csv.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "csv":
		return FormatCSV, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	case "txt", "text":
		return FormatText, nil
	default:
		return "", fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidArgument, s)
	}
}

// ContentType returns the MIME type served for f.
func (f Format) ContentType() string {
	switch f {
	case FormatMarkdown:
		return "text/markdown; charset=utf-8"
	case FormatText:
		return "text/plain; charset=utf-8"
	default:
		return "text/csv; charset=utf-8"
	}
}

// Filename returns a download filename for playlist p.
func (f Format) Filename(p *models.Playlist) string {
	return fmt.Sprintf("%s.%s", slug(p.Name(), p.ID()), f)
}

// Export writes p to w in format f.
func Export(w io.Writer, p *models.Playlist, f Format) error {
	switch f {
	case FormatCSV:
		return WriteCSV(w, p)
	case FormatMarkdown:
		return WriteMarkdown(w, p)
	case FormatText:
		return WriteText(w, p)
	default:
		return fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidArgument, f)
	}
}

// WriteFile exports p to path, creating or truncating it.
func WriteFile(path string, p *models.Playlist, f Format) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}

	if err := Export(file, p, f); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// WriteCSV writes one row per song with columns: ID, Title, Artist, Album, Duration, URI
func WriteCSV(w io.Writer, p *models.Playlist) error {
	writer := csv.NewWriter(w)

	headers := []string{"ID", "Title", "Artist", "Album", "Duration", "URI"}
	if err := writer.Write(headers); err != nil {
		return fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, song := range p.Songs() {
		record := []string{
			song.ID,
			song.Title,
			song.Artist,
			song.Album,
			strconv.Itoa(song.Duration),
			song.URI,
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("CSV writer error: %w", err)
	}

	return nil
}

// WriteMarkdown writes a Markdown document with the cover image and a numbered track list
func WriteMarkdown(w io.Writer, p *models.Playlist) error {
	ew := &errWriter{w: w}

	ew.printf("# %s\n\n", p.Name())

	if p.CoverImage() != "" {
		ew.printf("![Cover](%s)\n\n", p.CoverImage())
	}

	if p.Description() != "" {
		ew.printf("**Description**: %s\n\n", p.Description())
	}

	ew.printf("**Tracks**: %d\n", len(p.Songs()))
	ew.printf("**Length**: %s\n\n", shared.FormatDuration(totalSeconds(p)))

	ew.printf("## Tracks\n\n")
	for i, song := range p.Songs() {
		albumPart := ""
		if song.Album != "" {
			albumPart = fmt.Sprintf(" (%s)", song.Album)
		}
		ew.printf("%d. %s - %s%s [%s]\n", i+1, song.Artist, song.Title, albumPart, shared.FormatDuration(song.Duration))
	}

	return ew.err
}

// WriteText writes a plain text listing
func WriteText(w io.Writer, p *models.Playlist) error {
	ew := &errWriter{w: w}

	ew.printf("Playlist: %s\n", p.Name())
	if p.Description() != "" {
		ew.printf("Description: %s\n", p.Description())
	}
	ew.printf("Tracks: %d\n\n", len(p.Songs()))

	for i, song := range p.Songs() {
		ew.printf("%d. %s - %s\n", i+1, song.Artist, song.Title)
	}

	return ew.err
}

// errWriter stops writing after the first error.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...any) {
	if ew.err != nil {
		return
	}
	if _, err := fmt.Fprintf(ew.w, format, args...); err != nil {
		ew.err = fmt.Errorf("failed to write export: %w", err)
	}
}

func totalSeconds(p *models.Playlist) int {
	total := 0
	for _, song := range p.Songs() {
		total += song.Duration
	}
	return total
}

// slug lowercases name and keeps letters and digits, joining words with "-".
func slug(name, fallback string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
	}

	s := strings.TrimSuffix(b.String(), "-")
	if s == "" {
		return fallback
	}
	return s
}
