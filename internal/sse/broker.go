// Package sse streams per-user change notifications over Server-Sent Events.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"
)

// Event types.
const (
	TypeContentCreated = "content.created"
	TypeContentUpdated = "content.updated"
	TypeContentDeleted = "content.deleted"
	TypeCorpusUpdated  = "corpus.updated"
	TypeAutosaveSaved  = "autosave.saved"
	TypeAutosaveFailed = "autosave.failed"
	TypeProfileUpdated = "profile.updated"
)

// Change is the kind of mutation behind a content event.
type Change string

const (
	Created Change = "created"
	Updated Change = "updated"
	Deleted Change = "deleted"
)

// Event is one message for the clients of User. An empty User reaches every client.
type Event struct {
	Type string `json:"type"`
	User string `json:"-"`
	Data any    `json:"data"`
}

type contentReq struct {
	user   string
	change Change
	kind   string
	id     string
}

type client struct {
	user string
	ch   chan []byte
}

// Broker fans events out to connected clients.
//
// A single goroutine owns the client set and the per-user corpus throttle.
// Public methods talk to it over channels.
type Broker struct {
	corpusMin time.Duration

	subscribeCh   chan client
	unsubscribeCh chan chan []byte
	publishCh     chan Event
	contentCh     chan contentReq
	countReqCh    chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker returns a running broker that emits at most one corpus.updated
// per user every corpusThrottle.
func NewBroker(corpusThrottle time.Duration) *Broker {
	if corpusThrottle <= 0 {
		corpusThrottle = 2 * time.Second
	}

	b := &Broker{
		corpusMin:     corpusThrottle,
		subscribeCh:   make(chan client),
		unsubscribeCh: make(chan chan []byte),
		publishCh:     make(chan Event, 256),
		contentCh:     make(chan contentReq, 256),
		countReqCh:    make(chan chan int),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}

	go b.run()
	return b
}

func (b *Broker) run() {
	defer close(b.stopped)

	clients := make(map[chan []byte]string)
	lastCorpus := make(map[string]time.Time)

	broadcast := func(event Event) {
		payload, err := json.Marshal(event.Data)
		if err != nil {
			return
		}
		raw := []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", event.Type, payload))

		for ch, user := range clients {
			if event.User != "" && user != event.User {
				continue
			}
			select {
			case ch <- raw:
			default:
				// Slow client; drop rather than stall the loop.
			}
		}
	}

	for {
		select {
		case <-b.stopCh:
			for ch := range clients {
				close(ch)
			}
			return

		case c := <-b.subscribeCh:
			clients[c.ch] = c.user

		case ch := <-b.unsubscribeCh:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}

		case event := <-b.publishCh:
			broadcast(event)

		case req := <-b.contentCh:
			data := map[string]string{"kind": req.kind, "id": req.id}
			switch req.change {
			case Created:
				broadcast(Event{Type: TypeContentCreated, User: req.user, Data: data})
			case Updated:
				broadcast(Event{Type: TypeContentUpdated, User: req.user, Data: data})
			case Deleted:
				broadcast(Event{Type: TypeContentDeleted, User: req.user, Data: data})
			}

			now := time.Now()
			if now.Sub(lastCorpus[req.user]) >= b.corpusMin {
				lastCorpus[req.user] = now
				broadcast(Event{Type: TypeCorpusUpdated, User: req.user, Data: map[string]string{}})
			}

		case resp := <-b.countReqCh:
			resp <- len(clients)
		}
	}
}

// Close stops the loop and closes every client channel.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe registers a client for userID's events and returns its channel.
func (b *Broker) Subscribe(userID string) chan []byte {
	ch := make(chan []byte, 64)
	if b.closed.Load() {
		close(ch)
		return ch
	}

	select {
	case b.subscribeCh <- client{user: userID, ch: ch}:
	case <-b.stopped:
		close(ch)
	}

	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	if b.closed.Load() {
		return
	}
	select {
	case b.unsubscribeCh <- ch:
	case <-b.stopped:
	}
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	if b.closed.Load() {
		return 0
	}

	resp := make(chan int, 1)
	select {
	case b.countReqCh <- resp:
	case <-b.stopped:
		return 0
	}

	select {
	case n := <-resp:
		return n
	case <-b.stopped:
		return 0
	}
}

// Publish queues an event for delivery.
func (b *Broker) Publish(event Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.publishCh <- event:
	case <-b.stopped:
	}
}

// PublishContent announces a change to one of userID's records and, at most
// once per throttle window, a corpus.updated for that user.
func (b *Broker) PublishContent(userID string, change Change, kind, id string) {
	if b.closed.Load() {
		return
	}
	select {
	case b.contentCh <- contentReq{user: userID, change: change, kind: kind, id: id}:
	case <-b.stopped:
	}
}

// Stream serves the event stream of userID until the client disconnects or
// the broker closes.
func (b *Broker) Stream(w http.ResponseWriter, r *http.Request, userID string) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := b.Subscribe(userID)
	defer b.Unsubscribe(ch)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}
