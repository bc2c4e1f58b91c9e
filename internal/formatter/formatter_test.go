package formatter

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/setlist/internal/models"
	"github.com/desertthunder/setlist/internal/shared"
	th "github.com/desertthunder/setlist/internal/testing"
)

func testPlaylist() *models.Playlist {
	p := models.NewPlaylist(1, "u-1", "Road Trip: 2025!", "Long drives")
	p.SetID("p-1")
	p.AddSong(models.Song{ID: "track1", Title: "Song One", Artist: "Artist One", Album: "Album One", Duration: 180, URI: "spotify:track:track1"})
	p.AddSong(models.Song{ID: "track2", Title: "Song, Two", Artist: "Artist Two", Duration: 245, URI: "spotify:track:track2"})
	return p
}

func TestExporters(t *testing.T) {
	t.Run("WriteCSV", func(t *testing.T) {
		var buf bytes.Buffer
		if err := WriteCSV(&buf, testPlaylist()); err != nil {
			t.Fatalf("WriteCSV failed: %v", err)
		}

		output := buf.String()
		if !strings.HasPrefix(output, "ID,Title,Artist,Album,Duration,URI\n") {
			t.Errorf("CSV missing headers, got: %s", output)
		}
		if !strings.Contains(output, "track1,Song One,Artist One,Album One,180,spotify:track:track1") {
			t.Errorf("CSV missing track1 row, got: %s", output)
		}
		if !strings.Contains(output, `"Song, Two"`) {
			t.Errorf("CSV should quote fields containing commas, got: %s", output)
		}
	})

	t.Run("WriteMarkdown", func(t *testing.T) {
		var buf bytes.Buffer
		if err := WriteMarkdown(&buf, testPlaylist()); err != nil {
			t.Fatalf("WriteMarkdown failed: %v", err)
		}

		output := buf.String()
		for _, want := range []string{
			"# Road Trip: 2025!",
			"![Cover](" + models.DefaultCoverImage + ")",
			"**Description**: Long drives",
			"**Tracks**: 2",
			"**Length**: 7:05",
			"1. Artist One - Song One (Album One) [3:00]",
			"2. Artist Two - Song, Two [4:05]",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("Markdown missing %q, got:\n%s", want, output)
			}
		}
	})

	t.Run("WriteText", func(t *testing.T) {
		var buf bytes.Buffer
		if err := WriteText(&buf, testPlaylist()); err != nil {
			t.Fatalf("WriteText failed: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "Playlist: Road Trip: 2025!") || !strings.Contains(output, "1. Artist One - Song One") {
			t.Errorf("unexpected text export:\n%s", output)
		}
	})

	t.Run("Empty Playlist", func(t *testing.T) {
		p := models.NewPlaylist(1, "u-1", "Empty", "")
		var buf bytes.Buffer
		if err := WriteText(&buf, p); err != nil {
			t.Fatalf("WriteText failed: %v", err)
		}
		if strings.Contains(buf.String(), "Description") {
			t.Error("empty description should be omitted")
		}
		if !strings.Contains(buf.String(), "Tracks: 0") {
			t.Errorf("expected zero tracks, got:\n%s", buf.String())
		}
	})

	t.Run("Write Errors", func(t *testing.T) {
		p := testPlaylist()

		if err := WriteMarkdown(&th.FWriter{}, p); err == nil {
			t.Error("expected Markdown write error")
		}
		if err := WriteCSV(&th.FWriter{}, p); err == nil {
			t.Error("expected CSV write error")
		}

		var buf bytes.Buffer
		limited := th.NewLimitedWriter(2, 0, &buf)
		if err := WriteText(&limited, p); err == nil {
			t.Error("expected text write error after limit")
		}
	})
}

func TestFormat(t *testing.T) {
	t.Run("ParseFormat", func(t *testing.T) {
		tt := []struct {
			in      string
			want    Format
			wantErr bool
		}{
			{in: "", want: FormatCSV},
			{in: "CSV", want: FormatCSV},
			{in: "markdown", want: FormatMarkdown},
			{in: "md", want: FormatMarkdown},
			{in: "text", want: FormatText},
			{in: "pdf", wantErr: true},
		}

		for _, tc := range tt {
			got, err := ParseFormat(tc.in)
			if tc.wantErr {
				if !errors.Is(err, shared.ErrInvalidArgument) {
					t.Errorf("ParseFormat(%q) expected ErrInvalidArgument, got %v", tc.in, err)
				}
				continue
			}
			if err != nil || got != tc.want {
				t.Errorf("ParseFormat(%q) = %q, %v; want %q", tc.in, got, err, tc.want)
			}
		}
	})

	t.Run("Filename", func(t *testing.T) {
		p := testPlaylist()
		if got := FormatMarkdown.Filename(p); got != "road-trip-2025.md" {
			t.Errorf("unexpected filename %q", got)
		}

		untitled := models.NewPlaylist(1, "u-1", "!!!", "")
		untitled.SetID("p-9")
		if got := FormatCSV.Filename(untitled); got != "p-9.csv" {
			t.Errorf("expected ID fallback, got %q", got)
		}
	})

	t.Run("WriteFile", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "export.txt")
		if err := WriteFile(path, testPlaylist(), FormatText); err != nil {
			t.Fatalf("WriteFile failed: %v", err)
		}
		th.AssertFileExists(t, path)

		if content := th.MustReadFile(t, path); !strings.HasPrefix(content, "Playlist: Road Trip") {
			t.Errorf("unexpected file content:\n%s", content)
		}
	})

	t.Run("Export Unknown", func(t *testing.T) {
		if err := Export(&bytes.Buffer{}, testPlaylist(), Format("pdf")); err == nil {
			t.Error("expected error for unknown format")
		}
	})
}
