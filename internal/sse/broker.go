// Package sse implements a Server-Sent Events broker for live catalog
// and song list updates.
package sse

import (
	"encoding/json"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/starford/canti/internal/models"
)

// Event types sent to clients.
const (
	TypeCatalogUpdated = "catalog.updated"
	TypeSongsChanged   = "songs.changed"
)

const clientBuffer = 64

// Event is one message for every connected client.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// hub is the broker state. Only the run loop touches it.
type hub struct {
	clients  map[chan []byte]struct{}
	seq      uint64
	catalog  []byte
	lastList time.Time
	listMin  time.Duration
}

func (h *hub) frame(e Event) []byte {
	payload, err := json.Marshal(e.Data)
	if err != nil {
		return nil
	}
	h.seq++
	buf := make([]byte, 0, len(e.Type)+len(payload)+32)
	buf = append(buf, "id: "...)
	buf = strconv.AppendUint(buf, h.seq, 10)
	buf = append(buf, "\nevent: "...)
	buf = append(buf, e.Type...)
	buf = append(buf, "\ndata: "...)
	buf = append(buf, payload...)
	return append(buf, "\n\n"...)
}

func (h *hub) broadcast(e Event) {
	raw := h.frame(e)
	if raw == nil {
		return
	}
	if e.Type == TypeCatalogUpdated {
		h.catalog = raw
	}
	for ch := range h.clients {
		select {
		case ch <- raw:
		default:
			// Slow client; it misses this frame.
		}
	}
}

// add registers ch and hands it the latest catalog frame, if any.
func (h *hub) add(ch chan []byte) {
	h.clients[ch] = struct{}{}
	if h.catalog != nil {
		ch <- h.catalog
	}
}

func (h *hub) remove(ch chan []byte) {
	if _, ok := h.clients[ch]; ok {
		delete(h.clients, ch)
		close(ch)
	}
}

func (h *hub) songEvent(kind, name string, now time.Time) {
	switch kind {
	case "created", "updated", "deleted":
	default:
		return
	}
	h.broadcast(Event{Type: "song." + kind, Data: map[string]string{"name": name}})
	if now.Sub(h.lastList) >= h.listMin {
		h.lastList = now
		h.broadcast(Event{Type: TypeSongsChanged, Data: map[string]string{}})
	}
}

// Broker fans events out to SSE clients.
//
// The hub is owned by one goroutine; every public method sends it a
// closure over ops, so no locks are taken.
type Broker struct {
	ops     chan func(*hub)
	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker creates a new SSE broker. listThrottle is the minimum interval
// between two songs.changed events.
func NewBroker(listThrottle time.Duration) *Broker {
	if listThrottle <= 0 {
		listThrottle = 2 * time.Second
	}
	b := &Broker{
		ops:     make(chan func(*hub), 256),
		stopCh:  make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go b.run(&hub{clients: make(map[chan []byte]struct{}), listMin: listThrottle})
	return b
}

func (b *Broker) run(h *hub) {
	defer close(b.stopped)
	for {
		select {
		case <-b.stopCh:
			for ch := range h.clients {
				h.remove(ch)
			}
			return
		case op := <-b.ops:
			op(h)
		}
	}
}

// do queues op for the run loop. It reports false once the broker is closed.
func (b *Broker) do(op func(*hub)) bool {
	if b.closed.Load() {
		return false
	}
	select {
	case b.ops <- op:
		return true
	case <-b.stopped:
		return false
	}
}

// Close stops the loop and closes every client channel.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe adds a new client and returns its channel. A closed broker
// returns an already closed channel.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, clientBuffer)
	done := make(chan struct{})
	if !b.do(func(h *hub) { h.add(ch); close(done) }) {
		close(ch)
		return ch
	}
	select {
	case <-done:
	case <-b.stopped:
		select {
		case <-done:
		default:
			// The loop exited before registering ch.
			close(ch)
		}
	}
	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	done := make(chan struct{})
	if !b.do(func(h *hub) { h.remove(ch); close(done) }) {
		return
	}
	select {
	case <-done:
	case <-b.stopped:
	}
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	resp := make(chan int, 1)
	if !b.do(func(h *hub) { resp <- len(h.clients) }) {
		return 0
	}
	select {
	case n := <-resp:
		return n
	case <-b.stopped:
		return 0
	}
}

// Publish sends an event to all connected clients.
func (b *Broker) Publish(event Event) {
	b.do(func(h *hub) { h.broadcast(event) })
}

// PublishCatalog announces a saved catalog document. The frame is kept and
// replayed to clients that connect later.
func (b *Broker) PublishCatalog(c *models.Catalog) {
	if c == nil {
		return
	}
	b.Publish(Event{Type: TypeCatalogUpdated, Data: map[string]any{
		"domenica": c.WeekDate,
		"count":    len(c.Songs),
	}})
}

// PublishSongEvent publishes a song page change ("created", "updated" or
// "deleted") and a throttled songs.changed event. Other kinds are ignored.
func (b *Broker) PublishSongEvent(kind, name string) {
	now := time.Now()
	b.do(func(h *hub) { h.songEvent(kind, name, now) })
}
