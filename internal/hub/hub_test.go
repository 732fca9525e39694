package hub

import (
	"encoding/json"
	"testing"
	"time"
)

func newTestClient(h *Hub, buffer int) *Client {
	return &Client{ID: "client-" + time.Now().Format("150405.000000"), send: make(chan []byte, buffer), hub: h}
}

func TestRegisterUnregister(t *testing.T) {
	h := NewHub()
	go h.Run()

	c := newTestClient(h, 256)
	h.Register(c)
	time.Sleep(50 * time.Millisecond)
	if h.ClientCount() != 1 {
		t.Errorf("count = %d after register", h.ClientCount())
	}

	h.Unregister(c)
	time.Sleep(50 * time.Millisecond)
	if h.ClientCount() != 0 {
		t.Errorf("count = %d after unregister", h.ClientCount())
	}
	if _, ok := <-c.send; ok {
		t.Error("send channel should be closed on unregister")
	}
}

func TestUnregisterUnknownClientIsHarmless(t *testing.T) {
	h := NewHub()
	go h.Run()

	c := newTestClient(h, 1)
	h.Unregister(c)
	time.Sleep(50 * time.Millisecond)
	if h.ClientCount() != 0 {
		t.Errorf("count = %d", h.ClientCount())
	}
}

func TestBroadcastFragmentReachesAllClients(t *testing.T) {
	h := NewHub()
	go h.Run()

	a := newTestClient(h, 256)
	b := newTestClient(h, 256)
	b.ID = a.ID + "-b"
	h.Register(a)
	h.Register(b)
	time.Sleep(50 * time.Millisecond)

	h.BroadcastFragment("clock-1", `<div class="clock-widget">12:00</div>`)

	for _, c := range []*Client{a, b} {
		select {
		case raw := <-c.send:
			var msg Message
			if err := json.Unmarshal(raw, &msg); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if msg.Type != "fragment" || msg.ID != "clock-1" || msg.HTML == "" {
				t.Errorf("msg = %+v", msg)
			}
		case <-time.After(time.Second):
			t.Fatalf("client %s never received the fragment", c.ID)
		}
	}
}

func TestBroadcastReload(t *testing.T) {
	h := NewHub()
	go h.Run()

	c := newTestClient(h, 256)
	h.Register(c)
	time.Sleep(50 * time.Millisecond)

	h.BroadcastReload()

	select {
	case raw := <-c.send:
		var msg Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if msg.Type != "reload" || msg.ID != "" {
			t.Errorf("msg = %+v", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("reload never delivered")
	}
}

func TestSlowConsumerDoesNotBlockBroadcast(t *testing.T) {
	h := NewHub()
	go h.Run()

	slow := newTestClient(h, 1)
	h.Register(slow)
	time.Sleep(50 * time.Millisecond)

	// The first message fills the buffer; the rest are dropped rather
	// than stalling the hub loop.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			h.BroadcastFragment("w", "<div></div>")
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("broadcast blocked on a slow consumer")
	}
	time.Sleep(50 * time.Millisecond) // let the hub loop drain
	if got := len(slow.send); got != 1 {
		t.Errorf("buffered = %d, want 1", got)
	}
}
