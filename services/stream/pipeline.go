package stream

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/sourcegraph/conc/pool"

	"fkstream/config"
	"fkstream/models"
	"fkstream/services/debrid"
	"fkstream/services/sources"
)

type episodeResolver interface {
	Episode(ctx context.Context, animeID, episodeID, mediaID string) (*models.AnimeDetail, *models.Episode)
}

type sourceCatalog interface {
	AnimeByAPIID(animeID string) (*sources.DatasetAnime, bool)
	CustomURLs(animeID string, season, episode int) []string
}

type availabilityLookup interface {
	Lookup(ctx context.Context, provider debrid.Provider, mediaID string, hashes []string) map[string]string
}

type pageResolver interface {
	Resolve(ctx context.Context, pageURL string) (string, error)
}

var _ availabilityLookup = (*debrid.AvailabilityService)(nil)
var _ pageResolver = (*sources.Scraper)(nil)

const scrapeConcurrency = 5

// Builder assembles the stream descriptors for one media id: torrent
// sources from the dataset plus scraped custom sources.
type Builder struct {
	metadata     episodeResolver
	catalog      sourceCatalog
	availability availabilityLookup
	scraper      pageResolver
	matcher      *Matcher
	baseURL      string
}

// NewBuilder creates a stream builder. baseURL is the externally reachable
// addon root used to mint playback URLs.
func NewBuilder(metadata episodeResolver, catalog sourceCatalog, availability availabilityLookup, scraper pageResolver, baseURL string) *Builder {
	return &Builder{
		metadata:     metadata,
		catalog:      catalog,
		availability: availability,
		scraper:      scraper,
		matcher:      NewMatcher(),
		baseURL:      strings.TrimRight(baseURL, "/"),
	}
}

// BuildStreams resolves mediaID ("fk:{anime}:{episode}") into playable
// stream descriptors. Empty results are normal outcomes: a malformed id,
// an unknown episode or an anime absent from the dataset all yield an
// empty list, never an error.
func (b *Builder) BuildStreams(ctx context.Context, mediaID, configB64 string, cfg config.UserConfig, provider debrid.Provider) []models.Stream {
	animeID, episodeID := ParseMediaID(mediaID)
	if animeID == "" {
		log.Printf("[stream] malformed media id %q", mediaID)
		return nil
	}

	_, episode := b.metadata.Episode(ctx, animeID, episodeID, mediaID)
	if episode == nil {
		log.Printf("[stream] no episode %s for anime %s", episodeID, animeID)
		return nil
	}

	streams := b.torrentStreams(ctx, mediaID, configB64, cfg, provider, animeID, *episode)
	streams = append(streams, b.customStreams(ctx, animeID, *episode)...)
	return streams
}

func (b *Builder) torrentStreams(ctx context.Context, mediaID, configB64 string, cfg config.UserConfig, provider debrid.Provider, animeID string, episode models.Episode) []models.Stream {
	entry, ok := b.catalog.AnimeByAPIID(animeID)
	if !ok {
		return nil
	}

	// Every parseable source stays a matching candidate; the hash set is
	// deduplicated only for the availability query.
	torrents := make([]Torrent, 0, len(entry.Sources))
	seen := make(map[string]struct{}, len(entry.Sources))
	hashes := make([]string, 0, len(entry.Sources))
	for _, src := range entry.Sources {
		hash, trackers, ok := ParseMagnet(src.Magnet)
		if !ok {
			continue
		}
		if _, dup := seen[hash]; !dup {
			seen[hash] = struct{}{}
			hashes = append(hashes, hash)
		}
		torrents = append(torrents, Torrent{
			InfoHash: hash,
			Trackers: trackers,
			Files:    src.Files,
			Size:     src.Size,
			Seeders:  src.Seeders,
		})
	}
	if len(torrents) == 0 {
		return nil
	}

	useDebrid := cfg.Debrid() && provider != nil
	statuses := map[string]string{}
	if useDebrid {
		statuses = b.availability.Lookup(ctx, provider, mediaID, hashes)
	}

	var streams []models.Stream
	for _, torrent := range torrents {
		fileIdx, matched := b.matcher.BestFile(torrent.Files, episode)
		if !matched {
			// No file corresponds to the episode; the source is skipped,
			// not served with a guess.
			continue
		}
		filename := ""
		if fileIdx < len(torrent.Files) {
			filename = torrent.Files[fileIdx]
		}

		if !useDebrid {
			streams = append(streams, b.torrentStream(torrent, fileIdx, filename, episode))
			continue
		}

		status := statuses[torrent.InfoHash]
		if !passesFilter(cfg.StreamFilter, status) {
			continue
		}
		streams = append(streams, b.debridStream(mediaID, configB64, provider, torrent, fileIdx, filename, status, episode))
	}
	return streams
}

func (b *Builder) torrentStream(torrent Torrent, fileIdx int, filename string, episode models.Episode) models.Stream {
	idx := fileIdx
	return models.Stream{
		Name:        "[🧲] FKStream",
		Description: describe(episode, filename, torrent),
		InfoHash:    torrent.InfoHash,
		FileIdx:     &idx,
		Sources:     trackerSources(torrent),
		BehaviorHints: &models.StreamBehaviorHints{
			BingeGroup: "fkstream|" + torrent.InfoHash,
			Filename:   filename,
			VideoSize:  torrent.Size,
		},
	}
}

func (b *Builder) debridStream(mediaID, configB64 string, provider debrid.Provider, torrent Torrent, fileIdx int, filename, status string, episode models.Episode) models.Stream {
	token := PlaybackToken{
		MediaID:   mediaID,
		Hash:      torrent.InfoHash,
		FileIndex: fileIdx,
		Filename:  filename,
	}
	return models.Stream{
		Name:        fmt.Sprintf("[%s %s] FKStream", debrid.Extension(provider.Name()), statusBadge(status)),
		Description: describe(episode, filename, torrent),
		URL:         fmt.Sprintf("%s/%s/playback/%s", b.baseURL, configB64, token.Encode()),
		BehaviorHints: &models.StreamBehaviorHints{
			BingeGroup: "fkstream|" + torrent.InfoHash,
			Filename:   filename,
			VideoSize:  torrent.Size,
		},
	}
}

// customStreams scrapes the registered source pages concurrently. A page
// that fails to resolve is dropped; the survivors keep their listing
// order.
func (b *Builder) customStreams(ctx context.Context, animeID string, episode models.Episode) []models.Stream {
	urls := b.catalog.CustomURLs(animeID, episode.SeasonNumber, episode.Number)
	if len(urls) == 0 {
		return nil
	}

	resolved := make([]string, len(urls))
	p := pool.New().WithMaxGoroutines(scrapeConcurrency)
	for i, pageURL := range urls {
		i, pageURL := i, pageURL
		p.Go(func() {
			scrapeCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
			defer cancel()
			videoURL, err := b.scraper.Resolve(scrapeCtx, pageURL)
			if err != nil {
				log.Printf("[stream] custom source %s skipped: %v", pageURL, err)
				return
			}
			resolved[i] = videoURL
		})
	}
	p.Wait()

	var streams []models.Stream
	for i, videoURL := range resolved {
		if videoURL == "" {
			continue
		}
		streams = append(streams, models.Stream{
			Name:        "[🔗] FKStream",
			Description: fmt.Sprintf("%s\n📺 %s", episode.Name, hostOf(urls[i])),
			URL:         videoURL,
			BehaviorHints: &models.StreamBehaviorHints{
				BingeGroup: "fkstream|custom|" + animeID,
			},
		})
	}
	return streams
}

func passesFilter(filter, status string) bool {
	switch filter {
	case "cached_only":
		return status == debrid.StatusCached
	case "cached_unknown":
		return status == debrid.StatusCached || status == debrid.StatusUnknown
	default:
		return true
	}
}

func statusBadge(status string) string {
	switch status {
	case debrid.StatusCached:
		return "⚡"
	case debrid.StatusDownloading, debrid.StatusQueued:
		return "⬇️"
	case debrid.StatusMagnet:
		return "🧲"
	default:
		return "❓"
	}
}

func describe(episode models.Episode, filename string, torrent Torrent) string {
	lines := []string{episode.Name}
	if filename != "" {
		lines = append(lines, "📁 "+filename)
	}
	details := make([]string, 0, 2)
	if torrent.Size > 0 {
		details = append(details, "💾 "+humanSize(torrent.Size))
	}
	if torrent.Seeders > 0 {
		details = append(details, fmt.Sprintf("👥 %d", torrent.Seeders))
	}
	if len(details) > 0 {
		lines = append(lines, strings.Join(details, " "))
	}
	return strings.Join(lines, "\n")
}

func trackerSources(torrent Torrent) []string {
	if len(torrent.Trackers) == 0 {
		return nil
	}
	out := make([]string, 0, len(torrent.Trackers))
	for _, tracker := range torrent.Trackers {
		out = append(out, "tracker:"+tracker)
	}
	return out
}

func humanSize(size int64) string {
	const gb = 1 << 30
	const mb = 1 << 20
	switch {
	case size >= gb:
		return fmt.Sprintf("%.2f GB", float64(size)/float64(gb))
	case size >= mb:
		return fmt.Sprintf("%.0f MB", float64(size)/float64(mb))
	default:
		return fmt.Sprintf("%d B", size)
	}
}

func hostOf(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" {
		return raw
	}
	return parsed.Host
}
