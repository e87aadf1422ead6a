package services

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/senpaisearch/apiserver/internal/mq"
	"github.com/senpaisearch/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memBroker is an in-memory mq.Backend. Subscribe drains the stored
// messages through the handler and returns, keeping a message queued
// when the handler reports an error.
type memBroker struct {
	messages map[string][]mq.Message
	nextID   int
}

func newMemBroker() *memBroker {
	return &memBroker{messages: map[string][]mq.Message{}, nextID: 1}
}

func (b *memBroker) Publish(_ context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	id := fmt.Sprintf("msg-%d", b.nextID)
	b.nextID++
	b.messages[channel] = append(b.messages[channel], mq.Message{ID: id, Data: data, Attributes: attrs})
	return id, nil
}

func (b *memBroker) Subscribe(ctx context.Context, channel string, handler mq.Handler) error {
	for len(b.messages[channel]) > 0 {
		msg := b.messages[channel][0]
		if err := handler(ctx, msg); err != nil {
			return err
		}
		b.messages[channel] = b.messages[channel][1:]
	}
	return nil
}

func (b *memBroker) Close() error { return nil }

func TestIndexerAppliesCharacterEvents(t *testing.T) {
	ctx := context.Background()
	broker := newMemBroker()
	bus := mq.New(broker)
	svc := NewCharacterService(newMemCharacterRepo(), nil, bus, "character-events", nil)
	owner := types.User{ID: 1, Role: types.RoleAdmin}

	kept, err := svc.Create(ctx, owner, CharacterInput{Name: "Levi", Anime: "Attack on Titan", Hierarchy: "Captain"})
	require.NoError(t, err)
	removed, err := svc.Create(ctx, owner, CharacterInput{Name: "Gojo", Anime: "Jujutsu Kaisen", Hierarchy: "Sorcerer"})
	require.NoError(t, err)

	name := "Levi Ackerman"
	_, err = svc.Patch(ctx, owner, kept.ID, CharacterPatch{Name: &name})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, owner, removed.ID))

	ix := NewCharacterIndexer(bus, "character-events", nil)
	require.NoError(t, ix.Run(ctx))

	assert.Equal(t, 1, ix.Size())
	got, ok := ix.Lookup(kept.ID)
	require.True(t, ok)
	assert.Equal(t, "Levi Ackerman", got.Name)

	_, ok = ix.Lookup(removed.ID)
	assert.False(t, ok)
}

func TestIndexerDropsUndecodableEvents(t *testing.T) {
	ctx := context.Background()
	broker := newMemBroker()
	bus := mq.New(broker)

	_, err := bus.Publish(ctx, "character-events", []byte("not json"), nil)
	require.NoError(t, err)

	data, err := json.Marshal(CharacterEvent{Event: "renamed", Character: types.Character{ID: 9}})
	require.NoError(t, err)
	_, err = bus.Publish(ctx, "character-events", data, nil)
	require.NoError(t, err)

	ix := NewCharacterIndexer(bus, "character-events", nil)
	require.NoError(t, ix.Run(ctx))

	// Both messages are acked and dropped: redelivery could never
	// succeed for them.
	assert.Equal(t, 0, ix.Size())
	assert.Empty(t, broker.messages["character-events"])
}

func TestCharacterEventPayloads(t *testing.T) {
	ctx := context.Background()
	broker := newMemBroker()
	bus := mq.New(broker)
	svc := NewCharacterService(newMemCharacterRepo(), nil, bus, "character-events", nil)
	owner := types.User{ID: 1, Role: types.RoleAdmin}

	created, err := svc.Create(ctx, owner, CharacterInput{Name: "Levi", Anime: "Attack on Titan", Hierarchy: "Captain"})
	require.NoError(t, err)

	queued := broker.messages["character-events"]
	require.Len(t, queued, 1)
	assert.Equal(t, EventCharacterCreated, queued[0].Attributes["event"])

	var ev CharacterEvent
	require.NoError(t, json.Unmarshal(queued[0].Data, &ev))
	assert.Equal(t, EventCharacterCreated, ev.Event)
	assert.Equal(t, created.ID, ev.Character.ID)
	assert.Equal(t, "Levi", ev.Character.Name)
}
