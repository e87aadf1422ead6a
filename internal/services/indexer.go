package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/senpaisearch/apiserver/internal/mq"
	"github.com/senpaisearch/apiserver/types"
)

// CharacterIndexer consumes character change events from the broker and
// maintains a live in-memory view of the catalog. It runs as its own
// process (the indexer command), decoupled from the API server through
// the events channel.
type CharacterIndexer struct {
	events  *mq.MQ
	channel string
	logger  *slog.Logger

	mu   sync.RWMutex
	byID map[int]types.Character
}

// NewCharacterIndexer constructs an indexer reading from the given
// events channel.
func NewCharacterIndexer(events *mq.MQ, channel string, logger *slog.Logger) *CharacterIndexer {
	if logger == nil {
		logger = slog.Default()
	}
	return &CharacterIndexer{
		events:  events,
		channel: channel,
		logger:  logger,
		byID:    make(map[int]types.Character),
	}
}

// Run consumes events until the context is cancelled or the broker
// connection fails.
func (ix *CharacterIndexer) Run(ctx context.Context) error {
	ix.logger.Info("indexer consuming", "channel", ix.channel)
	return ix.events.Subscribe(ctx, ix.channel, ix.handle)
}

// handle applies one broker message to the index. Malformed payloads are
// acked and dropped: they would fail identically on every redelivery.
func (ix *CharacterIndexer) handle(_ context.Context, msg mq.Message) error {
	var ev CharacterEvent
	if err := json.Unmarshal(msg.Data, &ev); err != nil {
		ix.logger.Error("dropping malformed character event", "message_id", msg.ID, "error", err)
		return nil
	}

	switch ev.Event {
	case EventCharacterCreated, EventCharacterUpdated:
		ix.mu.Lock()
		ix.byID[ev.Character.ID] = ev.Character
		ix.mu.Unlock()
	case EventCharacterDeleted:
		ix.mu.Lock()
		delete(ix.byID, ev.Character.ID)
		ix.mu.Unlock()
	default:
		ix.logger.Warn("dropping unknown character event", "event", ev.Event, "message_id", msg.ID)
		return nil
	}

	ix.logger.Info("indexed character event", "event", ev.Event, "character_id", ev.Character.ID)
	return nil
}

// Lookup returns the indexed view of a character.
func (ix *CharacterIndexer) Lookup(id int) (types.Character, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	ch, ok := ix.byID[id]
	return ch, ok
}

// Size returns the number of indexed characters.
func (ix *CharacterIndexer) Size() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.byID)
}
