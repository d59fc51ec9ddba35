package outbox

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spingames/partyround/internal/engine/events"
)

type stubBroadcaster struct {
	got []events.Event
}

func (b *stubBroadcaster) Broadcast(_ uuid.UUID, evt events.Event) {
	b.got = append(b.got, evt)
}

func TestMemorySinkForwardsToBroadcaster(t *testing.T) {
	b := &stubBroadcaster{}
	sink := NewMemorySink(b)

	evt, err := events.New(uuid.New(), events.TypeRoundStarted, time.Now(), map[string]int{"seq": 1})
	require.NoError(t, err)
	require.NoError(t, sink.Append(context.Background(), evt))

	require.Len(t, b.got, 1)
	assert.Equal(t, evt.ID, b.got[0].ID)

	recorded := sink.Events()
	require.Len(t, recorded, 1)
	assert.Equal(t, events.TypeRoundStarted, recorded[0].Type)

	// The returned slice is a copy.
	recorded[0].Type = events.TypeRoundAborted
	assert.Equal(t, events.TypeRoundStarted, sink.Events()[0].Type)
}

func TestTeeAppendsThenBroadcasts(t *testing.T) {
	inner := NewMemorySink(nil)
	b := &stubBroadcaster{}
	tee := Tee{Sink: inner, Broadcaster: b}

	evt, err := events.New(uuid.New(), events.TypeGuessMade, time.Now(), map[string]string{"payload": "apple"})
	require.NoError(t, err)
	require.NoError(t, tee.Append(context.Background(), evt))

	assert.Len(t, inner.Events(), 1)
	require.Len(t, b.got, 1)
	assert.Equal(t, evt.ID, b.got[0].ID)
}
