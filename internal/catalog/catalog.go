package catalog

import (
	"errors"
	"time"
)

var (
	ErrNotFound        = errors.New("album not found")
	ErrMalformedRecord = errors.New("malformed album record")
)

// UnknownGenreID is stored when the catalog supplies no genre for an album.
const (
	UnknownGenreID   int64 = 0
	UnknownGenreName       = "Unknown"
)

// TrackRecord is a track as delivered by the external catalog at select time.
type TrackRecord struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Duration int    `json:"duration"`
	Position int    `json:"track_position"`
}

// AlbumRecord is the loosely-structured album stub carried from a search
// response, optionally enriched with detail and tracks by a select.
type AlbumRecord struct {
	ID          string        `json:"deezer_id"`
	Title       string        `json:"title"`
	ArtistName  string        `json:"artist_name"`
	ArtistID    string        `json:"artist_id"`
	CoverURL    string        `json:"cover_url"`
	ReleaseDate *string       `json:"release_date"`
	GenreID     int64         `json:"genre_id,omitempty"`
	GenreName   string        `json:"genre_name,omitempty"`
	Tracks      []TrackRecord `json:"tracks,omitempty"`
}

// Clone returns a deep copy so the caller and the copy never share mutable state.
func (r AlbumRecord) Clone() AlbumRecord {
	out := r
	if r.ReleaseDate != nil {
		d := *r.ReleaseDate
		out.ReleaseDate = &d
	}
	if r.Tracks != nil {
		out.Tracks = make([]TrackRecord, len(r.Tracks))
		copy(out.Tracks, r.Tracks)
	}
	return out
}

type Author struct {
	ID   int64  `json:"author_id"`
	Name string `json:"author_name"`
}

type Genre struct {
	ID   int64  `json:"genre_id"`
	Name string `json:"genre_name"`
}

type Album struct {
	ID          int64      `json:"album_id"`
	AuthorID    int64      `json:"author_id"`
	AuthorName  string     `json:"author_name,omitempty"`
	GenreID     int64      `json:"genre_id"`
	GenreName   string     `json:"genre_name,omitempty"`
	Title       string     `json:"album_name"`
	Rating      *float64   `json:"album_rating"`
	ReleaseDate *time.Time `json:"release_date"`
	CoverURL    string     `json:"cover_url,omitempty"`
	Songs       []Song     `json:"songs,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

type Song struct {
	ID       int64  `json:"song_id"`
	AuthorID int64  `json:"author_id"`
	AlbumID  int64  `json:"album_id"`
	Title    string `json:"song_name"`
	Number   int    `json:"song_num"`
	Duration int    `json:"duration"`
}

type ListQuery struct {
	AuthorID *int64
	GenreID  *int64
	Q        string
	Limit    int
	Offset   int
}
