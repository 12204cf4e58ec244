package gateway

import (
	"testing"

	"github.com/arclight-ai/agentcore/pkg/protocol"
)

func TestClientSendEventDeliversToChannel(t *testing.T) {
	c := NewClient(nil, nil)
	c.SendEvent(*protocol.NewEvent("s2c:agent:status", map[string]string{"status": "ok"}))

	select {
	case f := <-c.send:
		if f.Type != "s2c:agent:status" {
			t.Errorf("f.Type = %q, want s2c:agent:status", f.Type)
		}
	default:
		t.Fatal("expected a frame to be queued on c.send")
	}
}

func TestClientSendEventDropsWhenBufferFull(t *testing.T) {
	c := NewClient(nil, nil)
	for i := 0; i < clientSendBuffer; i++ {
		c.SendEvent(*protocol.NewEvent("s2c:agent:status", nil))
	}
	// One more past capacity should be dropped, not block.
	done := make(chan struct{})
	go func() {
		c.SendEvent(*protocol.NewEvent("s2c:agent:status", nil))
		close(done)
	}()
	<-done // SendEvent must never block even when the buffer is full.

	if len(c.send) != clientSendBuffer {
		t.Errorf("len(c.send) = %d, want the buffer to stay at capacity", len(c.send))
	}
}
