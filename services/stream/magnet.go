package stream

import (
	"html"
	"net/url"
	"regexp"
	"strings"
)

var btihPattern = regexp.MustCompile(`(?i)btih:([a-fA-F0-9]{40})`)

// Torrent is one candidate torrent source derived from a dataset magnet.
type Torrent struct {
	InfoHash string
	Trackers []string
	Files    []string
	Size     int64
	Seeders  int
}

// ParseMagnet extracts the 40-hex info-hash (lowercased) and the tracker
// URLs from a magnet URI. Magnets without a parseable btih value report
// ok=false and are discarded from the candidate set.
func ParseMagnet(magnet string) (hash string, trackers []string, ok bool) {
	decoded := html.UnescapeString(magnet)

	match := btihPattern.FindStringSubmatch(decoded)
	if match == nil {
		return "", nil, false
	}
	hash = strings.ToLower(match[1])

	parsed, err := url.Parse(decoded)
	if err != nil {
		// Hash is still usable without trackers.
		return hash, nil, true
	}
	return hash, parsed.Query()["tr"], true
}
