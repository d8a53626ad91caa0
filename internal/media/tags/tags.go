package tags

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"
)

// ErrNoTags is returned when a file carries no recognizable metadata block.
var ErrNoTags = errors.New("no tags found")

// Metadata holds the descriptive tags of a song file.
type Metadata struct {
	Title  string `json:"title,omitempty"`
	Artist string `json:"artist,omitempty"`
	Album  string `json:"album,omitempty"`
	Genre  string `json:"genre,omitempty"`
	Year   int    `json:"year,omitempty"`
	Format string `json:"format,omitempty"`
}

// Empty reports whether no descriptive field is set.
func (m Metadata) Empty() bool {
	return m.Title == "" && m.Artist == "" && m.Album == "" && m.Genre == "" && m.Year == 0
}

var supportedExtensions = map[string]bool{
	"mp3":  true,
	"flac": true,
	"wav":  true,
	"m4a":  true,
	"aac":  true,
	"ogg":  true,
	"opus": true,
	"aiff": true,
	"wma":  true,
}

// Supported reports whether path has an audio extension the pipeline accepts.
func Supported(path string) bool {
	return supportedExtensions[strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))]
}

// Read extracts descriptive tags from the audio file at path.
func Read(path string) (Metadata, error) {
	file, err := os.Open(path)
	if err != nil {
		return Metadata{}, fmt.Errorf("read tags: %w", err)
	}
	defer file.Close()

	m, err := tag.ReadFrom(file)
	if err != nil {
		if errors.Is(err, tag.ErrNoTagsFound) {
			return Metadata{}, ErrNoTags
		}
		return Metadata{}, fmt.Errorf("read tags: %w", err)
	}
	if m == nil {
		return Metadata{}, ErrNoTags
	}
	return Metadata{
		Title:  clean(m.Title()),
		Artist: clean(m.Artist()),
		Album:  clean(m.Album()),
		Genre:  clean(m.Genre()),
		Year:   m.Year(),
		Format: strings.ToLower(string(m.FileType())),
	}, nil
}

func clean(value string) string {
	return strings.TrimSpace(strings.Trim(value, "\x00"))
}
