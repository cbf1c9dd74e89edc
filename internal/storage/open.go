package storage

import (
	"context"
	"fmt"

	"slides/internal/domain"
)

// Store is a slide store that holds a connection.
type Store interface {
	domain.SlideStore
	Close() error
}

var (
	_ Store = (*SlideStore)(nil)
	_ Store = (*MongoStore)(nil)
)

// Open connects to the backend cfg.Driver names. An empty driver means SQLite.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Driver {
	case "", string(SQLite):
		path := cfg.Path
		if path == "" {
			path = "slides.db"
		}
		db, err := New(path)
		if err != nil {
			return nil, err
		}
		return NewSlideStore(db), nil
	case string(Postgres):
		db, err := OpenSQL(ctx, Postgres, buildPostgresDSN(cfg))
		if err != nil {
			return nil, err
		}
		return NewSlideStore(db), nil
	case string(MySQL):
		db, err := OpenSQL(ctx, MySQL, buildMySQLDSN(cfg))
		if err != nil {
			return nil, err
		}
		return NewSlideStore(db), nil
	case "mongo", "mongodb":
		return NewMongoStore(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported driver: %s", cfg.Driver)
	}
}
