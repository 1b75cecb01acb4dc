package websocket

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPublish_DropsWhenQueueFull(t *testing.T) {
	h := NewHub(nil, "local")
	for i := 0; i < cap(h.broadcast)+10; i++ {
		h.Publish("QR_CODE", "scan", i)
	}
	assert.Len(t, h.broadcast, cap(h.broadcast))

	first := <-h.broadcast
	assert.Equal(t, "QR_CODE", first.Code)
	assert.Equal(t, 0, first.Result)
	assert.Empty(t, first.SenderID)
}
