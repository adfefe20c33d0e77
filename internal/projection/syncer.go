package projection

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"gocg-permutas/internal/model"
	"gocg-permutas/pkg/changefeed"
)

// MilitarSource loads the full roster.
type MilitarSource interface {
	ListAll(ctx context.Context) ([]model.Militar, error)
}

// PermutaSource loads every stored permuta.
type PermutaSource interface {
	ListAll(ctx context.Context) ([]model.Permuta, error)
}

// Syncer keeps a Directory and a SwapProjection in step with the store.
// Rebuilds are serialized; a rebuild always re-derives the swap projection
// from the latest directory and the latest stored permutas.
type Syncer struct {
	militares MilitarSource
	permutas  PermutaSource
	dir       *Directory
	swaps     *SwapProjection
	feed      changefeed.Feed
	logger    *zap.Logger

	mu     sync.Mutex
	stored []model.Permuta
	done   chan struct{}
}

// NewSyncer wires the sources to the two projections.
func NewSyncer(
	militares MilitarSource,
	permutas PermutaSource,
	dir *Directory,
	swaps *SwapProjection,
	feed changefeed.Feed,
	logger *zap.Logger,
) *Syncer {
	return &Syncer{
		militares: militares,
		permutas:  permutas,
		dir:       dir,
		swaps:     swaps,
		feed:      feed,
		logger:    logger,
		done:      make(chan struct{}),
	}
}

// Start subscribes to the feed, performs the initial load and keeps
// consuming events until ctx is done. Subscribing first means no write made
// during the initial load goes unnoticed.
func (s *Syncer) Start(ctx context.Context) error {
	events, err := s.feed.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("subscribe change feed: %w", err)
	}

	if err := s.Resync(ctx); err != nil {
		return err
	}

	go s.consume(ctx, events)
	return nil
}

// Done is closed once the consumer goroutine exits.
func (s *Syncer) Done() <-chan struct{} {
	return s.done
}

// Resync reloads both collections and rebuilds everything.
func (s *Syncer) Resync(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.reloadDirectory(ctx); err != nil {
		return err
	}
	if err := s.reloadPermutas(ctx); err != nil {
		return err
	}
	s.rederive()
	return nil
}

func (s *Syncer) consume(ctx context.Context, events <-chan changefeed.Event) {
	defer close(s.done)

	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-events:
			if !ok {
				return
			}
			if err := s.handle(ctx, evt); err != nil {
				s.logger.Error("projection rebuild failed",
					zap.String("collection", evt.Collection),
					zap.String("op", string(evt.Op)),
					zap.Error(err),
				)
			}
		}
	}
}

func (s *Syncer) handle(ctx context.Context, evt changefeed.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch evt.Collection {
	case changefeed.CollectionMilitares:
		if err := s.reloadDirectory(ctx); err != nil {
			return err
		}
	case changefeed.CollectionPermutas:
		if err := s.reloadPermutas(ctx); err != nil {
			return err
		}
	default:
		return nil
	}

	s.rederive()
	return nil
}

func (s *Syncer) reloadDirectory(ctx context.Context) error {
	list, err := s.militares.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("load militares: %w", err)
	}
	s.dir.Replace(list)
	return nil
}

func (s *Syncer) reloadPermutas(ctx context.Context) error {
	list, err := s.permutas.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("load permutas: %w", err)
	}
	s.stored = list
	return nil
}

func (s *Syncer) rederive() {
	resolved, dropped := Resolve(s.stored, s.dir.Get)
	s.swaps.Replace(resolved)

	for _, d := range dropped {
		s.logger.Warn("permuta hidden: unresolved militar reference",
			zap.String("permuta_id", d.PermutaID),
			zap.Strings("missing_rgs", d.MissingRGs),
		)
	}

	s.logger.Debug("projection rebuilt",
		zap.Int("militares", s.dir.Len()),
		zap.Int("permutas", len(resolved)),
		zap.Int("dropped", len(dropped)),
	)
}
