package deezer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL = "https://api.deezer.com"

	// Deezer reports quota exhaustion as an API error with this code.
	quotaExceededCode = 4
	maxTrackPages     = 20
)

// APIError is the error object Deezer embeds in an otherwise successful
// response body.
type APIError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("deezer %s (code %d): %s", e.Type, e.Code, e.Message)
}

var ErrUnexpectedStatus = errors.New("unexpected status code")

type Client struct {
	httpClient *http.Client
	userAgent  string
	baseURL    string
	limiter    *rate.Limiter
	maxRetries int
	backoff    time.Duration
}

type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithBackoff sets the first retry delay; later retries double it.
func WithBackoff(d time.Duration) Option {
	return func(c *Client) { c.backoff = d }
}

func NewClient(userAgent string, rps int, maxRetries int, opts ...Option) *Client {
	if rps <= 0 {
		rps = 1
	}
	c := &Client{
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		userAgent:  userAgent,
		baseURL:    DefaultBaseURL,
		limiter:    rate.NewLimiter(rate.Every(time.Second/time.Duration(rps)), rps),
		maxRetries: maxRetries,
		backoff:    time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type Artist struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Album matches an entry of search/album.
type Album struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Cover       string `json:"cover"`
	CoverMedium string `json:"cover_medium"`
	GenreID     int64  `json:"genre_id"`
	NbTracks    int    `json:"nb_tracks"`
	ReleaseDate string `json:"release_date"`
	Tracklist   string `json:"tracklist"`
	Artist      Artist `json:"artist"`
}

// SearchResponse matches search/album.
type SearchResponse struct {
	Data  []Album `json:"data"`
	Total int     `json:"total"`
	Next  string  `json:"next"`
}

// Track matches an entry of album/{id}/tracks.
type Track struct {
	ID            int64  `json:"id"`
	Title         string `json:"title"`
	Duration      int    `json:"duration"`
	TrackPosition int    `json:"track_position"`
	DiskNumber    int    `json:"disk_number"`
}

type tracksResponse struct {
	Data  []Track `json:"data"`
	Total int     `json:"total"`
	Next  string  `json:"next"`
}

type Genre struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// AlbumDetails matches album/{id}.
type AlbumDetails struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	UPC         string `json:"upc"`
	Label       string `json:"label"`
	GenreID     int64  `json:"genre_id"`
	ReleaseDate string `json:"release_date"`
	NbTracks    int    `json:"nb_tracks"`
	Duration    int    `json:"duration"`
	CoverMedium string `json:"cover_medium"`
	Genres      struct {
		Data []Genre `json:"data"`
	} `json:"genres"`
	Artist Artist `json:"artist"`
}

// PrimaryGenre returns the album's genre id and name, preferring the
// expanded genre list over the bare id.
func (d *AlbumDetails) PrimaryGenre() (int64, string) {
	for _, g := range d.Genres.Data {
		if g.ID == d.GenreID || d.GenreID <= 0 {
			return g.ID, g.Name
		}
	}
	return d.GenreID, ""
}

func (c *Client) SearchAlbums(ctx context.Context, query string, page, limit int) (*SearchResponse, error) {
	if page < 1 {
		page = 1
	}
	q := url.Values{}
	q.Set("q", query)
	q.Set("index", strconv.Itoa((page-1)*limit))
	q.Set("limit", strconv.Itoa(limit))
	u := fmt.Sprintf("%s/search/album?%s", c.baseURL, q.Encode())

	var res SearchResponse
	if err := c.get(ctx, u, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// GetAlbumTracks follows pagination until the full tracklist is read.
func (c *Client) GetAlbumTracks(ctx context.Context, albumID string) ([]Track, error) {
	u := fmt.Sprintf("%s/album/%s/tracks?limit=100", c.baseURL, url.PathEscape(albumID))

	var tracks []Track
	for page := 0; u != "" && page < maxTrackPages; page++ {
		var res tracksResponse
		if err := c.get(ctx, u, &res); err != nil {
			return nil, err
		}
		tracks = append(tracks, res.Data...)
		u = res.Next
	}
	return tracks, nil
}

func (c *Client) GetAlbum(ctx context.Context, albumID string) (*AlbumDetails, error) {
	u := fmt.Sprintf("%s/album/%s", c.baseURL, url.PathEscape(albumID))

	var res AlbumDetails
	if err := c.get(ctx, u, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) get(ctx context.Context, url string, target any) error {
	var lastErr error
	for i := 0; i <= c.maxRetries; i++ {
		if i > 0 {
			// Backoff: 1x, 2x, 4x...
			backoff := c.backoff * time.Duration(1<<uint(i-1))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		retry, err := c.do(ctx, url, target)
		if err == nil {
			return nil
		}
		if !retry {
			return err
		}
		lastErr = err
	}
	return fmt.Errorf("after %d retries: %w", c.maxRetries, lastErr)
}

func (c *Client) do(ctx context.Context, url string, target any) (retry bool, err error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return false, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return ctx.Err() == nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
		return resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return true, err
	}

	var envelope struct {
		Error *APIError `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return false, fmt.Errorf("decode response: %w", err)
	}
	if envelope.Error != nil {
		return envelope.Error.Code == quotaExceededCode, envelope.Error
	}

	if err := json.Unmarshal(body, target); err != nil {
		return false, fmt.Errorf("decode response: %w", err)
	}
	return false, nil
}
