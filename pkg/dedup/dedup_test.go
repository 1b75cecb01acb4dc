package dedup

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_SeenWithinTTL(t *testing.T) {
	s := NewMemoryStore(50 * time.Millisecond)
	defer s.Close()

	key := Key("62811@s.whatsapp.net", "ABC")

	seen, err := s.Seen(context.Background(), key)
	require.NoError(t, err)
	assert.False(t, seen)

	seen, _ = s.Seen(context.Background(), key)
	assert.True(t, seen)

	seen, _ = s.Seen(context.Background(), Key("other@s.whatsapp.net", "ABC"))
	assert.False(t, seen, "same id in another chat is a different message")

	time.Sleep(80 * time.Millisecond)
	seen, _ = s.Seen(context.Background(), key)
	assert.False(t, seen, "expired keys are forgotten")
}

func TestMemoryStore_HitDoesNotExtendTTL(t *testing.T) {
	s := NewMemoryStore(60 * time.Millisecond)
	defer s.Close()

	_, _ = s.Seen(context.Background(), "a")
	time.Sleep(40 * time.Millisecond)
	seen, _ := s.Seen(context.Background(), "a")
	require.True(t, seen)

	time.Sleep(40 * time.Millisecond)
	seen, _ = s.Seen(context.Background(), "a")
	assert.False(t, seen, "a duplicate must not keep the key alive")
}

func TestMemoryStore_Cleanup(t *testing.T) {
	s := NewMemoryStore(20 * time.Millisecond)
	defer s.Close()

	_, _ = s.Seen(context.Background(), "a")
	_, _ = s.Seen(context.Background(), "b")
	assert.Equal(t, 2, s.Len())

	time.Sleep(40 * time.Millisecond)
	s.Cleanup()
	assert.Equal(t, 0, s.Len())
}

func TestMemoryStore_CloseIsIdempotent(t *testing.T) {
	s := NewMemoryStore(time.Minute)

	done := make(chan struct{})
	go func() {
		s.Close()
		s.Close()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Close did not return")
	}

	seen, err := s.Seen(context.Background(), "a")
	require.NoError(t, err)
	assert.False(t, seen)
}
