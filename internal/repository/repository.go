package repository

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"gocg-permutas/pkg/changefeed"
)

// Repository aggregates every repository.
type Repository struct {
	Militar MilitarRepository
	Usuario UsuarioRepository
	Permuta PermutaRepository
}

// NewRepository builds the aggregate. Every committed write is announced on
// feed so the projections can rebuild.
func NewRepository(db *gorm.DB, feed changefeed.Publisher, logger *zap.Logger) *Repository {
	n := &notifier{feed: feed, logger: logger}
	return &Repository{
		Militar: NewMilitarRepo(db, n),
		Usuario: NewUsuarioRepo(db, n),
		Permuta: NewPermutaRepo(db, n),
	}
}

// notifier publishes change events after commit. A failed publish is logged
// and otherwise ignored: the write already happened and the periodic resync
// will pick it up.
type notifier struct {
	feed   changefeed.Publisher
	logger *zap.Logger
}

func (n *notifier) emit(ctx context.Context, collection string, op changefeed.Op, ids ...string) {
	if n == nil || n.feed == nil {
		return
	}
	evt := changefeed.NewEvent(collection, op, ids...)
	if err := n.feed.Publish(context.WithoutCancel(ctx), evt); err != nil {
		n.logger.Warn("publish change event failed",
			zap.String("collection", collection),
			zap.String("op", string(op)),
			zap.Strings("ids", ids),
			zap.Error(err),
		)
	}
}
