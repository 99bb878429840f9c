package stream

import (
	"fmt"
	"path"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"fkstream/models"
)

// Matcher picks the file inside a torrent that best corresponds to a
// target episode. Release names are uneven (NFO-derived names, SxxEyy
// tags, bare episode numbers), so matching tries strategies in decreasing
// order of confidence.
type Matcher struct{}

// NewMatcher creates a file matcher.
func NewMatcher() *Matcher {
	return &Matcher{}
}

var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// normalize lowercases, strips diacritics (titles are French) and squeezes
// punctuation so "Saïyen" and "saiyen" compare equal.
func normalize(s string) string {
	folded, _, err := transform.String(foldTransformer, s)
	if err != nil {
		folded = s
	}
	folded = strings.ToLower(folded)
	var b strings.Builder
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func stripExtension(name string) string {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	if ext := path.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	return base
}

var seasonEpisodePattern = regexp.MustCompile(`(?i)s(\d{1,3})[ ._-]?e(\d{1,4})`)

// BestFile returns the index of the best candidate for the episode, or
// false when nothing matches; a non-match skips the source, it is not an
// error.
func (m *Matcher) BestFile(files []string, episode models.Episode) (int, bool) {
	if len(files) == 0 {
		return 0, false
	}

	// NFO naming is authoritative when present: the video file carries
	// the same base name as the episode's NFO.
	if episode.NFOFilename != "" {
		wanted := normalize(stripExtension(episode.NFOFilename))
		if wanted != "" {
			for i, file := range files {
				if normalize(stripExtension(file)) == wanted {
					return i, true
				}
			}
		}
	}

	// Explicit SxxEyy tag.
	for i, file := range files {
		if match := seasonEpisodePattern.FindStringSubmatch(file); match != nil {
			if atoi(match[1]) == episode.SeasonNumber && atoi(match[2]) == episode.Number {
				return i, true
			}
		}
	}

	// Episode title contained in the file name.
	if title := normalize(episode.Name); title != "" {
		for i, file := range files {
			if strings.Contains(normalize(stripExtension(file)), title) {
				return i, true
			}
		}
	}

	// Bare zero-padded episode number as its own token ("042", "42").
	if episode.Number > 0 {
		candidates := []string{
			fmt.Sprintf("%03d", episode.Number),
			fmt.Sprintf("%02d", episode.Number),
		}
		for i, file := range files {
			fields := strings.Fields(normalize(stripExtension(file)))
			for _, field := range fields {
				for _, candidate := range candidates {
					if field == candidate {
						return i, true
					}
				}
			}
		}
	}

	return 0, false
}

func atoi(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return -1
		}
		n = n*10 + int(r-'0')
	}
	return n
}
