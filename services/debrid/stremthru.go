package debrid

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
)

// StremThru proxies every supported debrid service behind one API. The
// store credential is "service:apikey", base64-encoded.
type StremThru struct {
	baseURL    string
	service    string
	token      string
	clientIP   string
	httpClient *http.Client
}

var _ Provider = (*StremThru)(nil)

// NewStremThru creates a client bound to one debrid service account.
func NewStremThru(baseURL, service, apiKey, clientIP string, httpClient *http.Client) *StremThru {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &StremThru{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		service:    service,
		token:      BuildToken(service, apiKey),
		clientIP:   clientIP,
		httpClient: httpClient,
	}
}

// BuildToken encodes the per-service store credential.
func BuildToken(service, apiKey string) string {
	return base64.StdEncoding.EncodeToString([]byte(service + ":" + apiKey))
}

// Name returns the wrapped debrid service identifier.
func (s *StremThru) Name() string {
	return s.service
}

type magnetCheckResponse struct {
	Data struct {
		Items []struct {
			Hash   string `json:"hash"`
			Status string `json:"status"`
		} `json:"items"`
	} `json:"data"`
}

// GetAvailability batch-checks hashes against the wrapped store.
func (s *StremThru) GetAvailability(ctx context.Context, hashes []string) ([]HashStatus, error) {
	if len(hashes) == 0 {
		return nil, nil
	}

	query := url.Values{}
	query.Set("magnet", strings.Join(hashes, ","))
	if s.clientIP != "" {
		query.Set("client_ip", s.clientIP)
	}

	var parsed magnetCheckResponse
	endpoint := fmt.Sprintf("%s/v0/store/magnets/check?%s", s.baseURL, query.Encode())
	if err := s.doJSON(ctx, http.MethodGet, endpoint, nil, &parsed); err != nil {
		return nil, fmt.Errorf("check magnets: %w", err)
	}

	statuses := make([]HashStatus, 0, len(parsed.Data.Items))
	for _, item := range parsed.Data.Items {
		statuses = append(statuses, HashStatus{
			Hash:   strings.ToLower(item.Hash),
			Status: normalizeStatus(item.Status),
		})
	}
	return statuses, nil
}

func normalizeStatus(status string) string {
	switch status {
	case StatusCached, StatusMagnet, StatusDownloading, StatusQueued:
		return status
	default:
		return StatusUnknown
	}
}

type addMagnetResponse struct {
	Data struct {
		ID     string `json:"id"`
		Status string `json:"status"`
		Files  []struct {
			Index int    `json:"index"`
			Name  string `json:"name"`
			Link  string `json:"link"`
		} `json:"files"`
	} `json:"data"`
}

type generateLinkResponse struct {
	Data struct {
		Link string `json:"link"`
	} `json:"data"`
}

// GenerateDownloadLink adds the magnet to the store and asks for a direct
// link to the requested file. An empty URL with a nil error means the
// torrent is not downloaded yet; the caller serves a placeholder.
func (s *StremThru) GenerateDownloadLink(ctx context.Context, req DownloadRequest) (string, error) {
	magnet := "magnet:?xt=urn:btih:" + req.Hash

	var added addMagnetResponse
	body := map[string]string{"magnet": magnet}
	if err := s.doJSON(ctx, http.MethodPost, s.baseURL+"/v0/store/magnets", body, &added); err != nil {
		return "", fmt.Errorf("add magnet: %w", err)
	}
	if added.Data.Status != "downloaded" && added.Data.Status != StatusCached {
		// Still downloading or queued; recoverable-expected, not an error.
		return "", nil
	}

	link := ""
	for _, file := range added.Data.Files {
		if file.Index == req.FileIndex || matchesFilename(file.Name, req.Filename) {
			link = file.Link
			break
		}
	}
	if link == "" && len(added.Data.Files) > 0 {
		link = added.Data.Files[0].Link
	}
	if link == "" {
		return "", nil
	}

	var generated generateLinkResponse
	body = map[string]string{"link": link}
	if s.clientIP != "" {
		body["client_ip"] = s.clientIP
	}
	if err := s.doJSON(ctx, http.MethodPost, s.baseURL+"/v0/store/links/generate", body, &generated); err != nil {
		return "", fmt.Errorf("generate link: %w", err)
	}
	return generated.Data.Link, nil
}

func matchesFilename(candidate, wanted string) bool {
	if wanted == "" {
		return false
	}
	return strings.EqualFold(lastPathSegment(candidate), lastPathSegment(wanted))
}

func lastPathSegment(p string) string {
	if idx := strings.LastIndex(p, "/"); idx >= 0 {
		return p[idx+1:]
	}
	return p
}

func (s *StremThru) doJSON(ctx context.Context, method, endpoint string, body any, v any) error {
	return retry.Do(
		func() error {
			var reader io.Reader
			if body != nil {
				payload, err := json.Marshal(body)
				if err != nil {
					return retry.Unrecoverable(err)
				}
				reader = strings.NewReader(string(payload))
			}

			req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
			if err != nil {
				return retry.Unrecoverable(err)
			}
			req.Header.Set("X-StremThru-Store-Authorization", "Basic "+s.token)
			if body != nil {
				req.Header.Set("Content-Type", "application/json")
			}

			resp, err := s.httpClient.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode >= 400 {
				raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
				err := fmt.Errorf("stremthru status %s: %s", strconv.Itoa(resp.StatusCode), raw)
				if resp.StatusCode < 500 {
					return retry.Unrecoverable(err)
				}
				return err
			}
			return json.NewDecoder(resp.Body).Decode(v)
		},
		retry.Context(ctx),
		retry.Attempts(2),
		retry.Delay(300*time.Millisecond),
		retry.LastErrorOnly(true),
	)
}
