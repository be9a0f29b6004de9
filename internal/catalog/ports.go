package catalog

import (
	"context"
)

// Tx is the set of conditional writes issued by the upsert engine. Every
// method is insert-if-absent keyed on the catalog's own identifier; none of
// them update an existing row.
type Tx interface {
	EnsureAuthor(ctx context.Context, a Author) (int64, error)
	EnsureGenre(ctx context.Context, g Genre) (int64, error)
	InsertAlbum(ctx context.Context, a Album) (inserted bool, err error)
	InsertSong(ctx context.Context, s Song) (inserted bool, err error)
}

// TxRunner runs fn inside a single durable-store transaction. The
// transaction commits when fn returns nil and rolls back otherwise. fn must
// issue its statements with the context it is given, which carries the
// store's statement timeout.
type TxRunner interface {
	InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

//go:generate mockgen -destination=mock_repository.go -package=catalog musicapi/internal/catalog Repository

// Repository is the read side over persisted albums.
type Repository interface {
	GetAlbum(ctx context.Context, albumID int64) (Album, error)
	ListAlbums(ctx context.Context, q ListQuery) ([]Album, int, error)
}
