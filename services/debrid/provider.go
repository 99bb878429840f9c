package debrid

import "context"

// Availability statuses reported by a debrid provider. Anything the
// provider reports outside this set maps to StatusUnknown.
const (
	StatusCached      = "cached"
	StatusMagnet      = "magnet"
	StatusDownloading = "downloading"
	StatusQueued      = "queued"
	StatusUnknown     = "unknown"
)

// HashStatus pairs one info-hash with its provider-reported status.
type HashStatus struct {
	Hash   string `json:"hash"`
	Status string `json:"status"`
}

// DownloadRequest identifies one file of one torrent for link generation.
type DownloadRequest struct {
	Hash      string
	FileIndex int
	Filename  string
	Season    int
	Episode   int
	MediaID   string
	ClientIP  string
}

// Provider is the debrid service contract consumed by the stream pipeline
// and the playback resolver.
type Provider interface {
	// Name returns the provider identifier (e.g. "realdebrid").
	Name() string

	// GetAvailability reports the cache status of each hash. Partial
	// results are fine; hashes missing from the reply are unknown.
	GetAvailability(ctx context.Context, hashes []string) ([]HashStatus, error)

	// GenerateDownloadLink produces a direct download URL for one file,
	// or "" when the torrent is not ready yet.
	GenerateDownloadLink(ctx context.Context, req DownloadRequest) (string, error)
}

// serviceExtensions maps service identifiers to the short badge shown in
// stream names.
var serviceExtensions = map[string]string{
	"realdebrid": "RD",
	"alldebrid":  "AD",
	"premiumize": "PM",
	"torbox":     "TB",
	"easydebrid": "ED",
	"debridlink": "DL",
	"offcloud":   "OC",
	"pikpak":     "PP",
	"torrent":    "TORRENT",
}

// Extension returns the display badge for a debrid service identifier.
func Extension(service string) string {
	if ext, ok := serviceExtensions[service]; ok {
		return ext
	}
	return "UNKNOWN"
}
