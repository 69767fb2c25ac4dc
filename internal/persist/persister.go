package persist

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/sweeney/drive-timer/internal/logic"
	"github.com/sweeney/drive-timer/internal/storage"
)

// Key is the storage key of the record. A layout change needs a new key.
const Key = "timer-state.v1"

// Persister saves and loads engine state through a Store.
type Persister struct {
	store  storage.Store
	key    string
	logger zerolog.Logger
}

// NewPersister creates a persister writing under Key.
func NewPersister(store storage.Store, logger zerolog.Logger) *Persister {
	return &Persister{
		store:  store,
		key:    Key,
		logger: logger.With().Str("component", "persist").Logger(),
	}
}

// Save writes s. A failure is logged and returned; callers carry on.
func (p *Persister) Save(ctx context.Context, s logic.State) error {
	if err := p.store.Write(ctx, p.key, Encode(s)); err != nil {
		p.logger.Error().Err(err).Str("key", p.key).Msg("failed to save state")
		return fmt.Errorf("save state: %w", err)
	}
	p.logger.Debug().Str("key", p.key).Msg("state saved")
	return nil
}

// Load reads the record. It reports false when there is none yet or when the
// stored record is unreadable or corrupt.
func (p *Persister) Load(ctx context.Context) (logic.State, bool) {
	buf, err := p.store.Read(ctx, p.key)
	if errors.Is(err, storage.ErrNotFound) {
		p.logger.Info().Str("key", p.key).Msg("no saved state, starting fresh")
		return logic.State{}, false
	}
	if err != nil {
		p.logger.Error().Err(err).Str("key", p.key).Msg("failed to read state")
		return logic.State{}, false
	}

	s, err := Decode(buf)
	if err != nil {
		p.logger.Warn().Err(err).Str("key", p.key).Msg("discarding saved state")
		return logic.State{}, false
	}
	return s, true
}
