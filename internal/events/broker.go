// Package events diffuse les changements du fil aux clients connectés.
// Les clients reçoivent une notification et rechargent la liste.
package events

import (
	"context"
	"sync"
	"time"

	"github.com/ArthurDelaporte/CommunityFeed-Back/internal/logs"
)

type Type string

const (
	PostCreated    Type = "post.created"
	PostUpdated    Type = "post.updated"
	PostDeleted    Type = "post.deleted"
	CommentCreated Type = "comment.created"
	CommentUpdated Type = "comment.updated"
	CommentDeleted Type = "comment.deleted"
	LikeChanged    Type = "like.changed"
)

type Event struct {
	Type   Type      `json:"type"`
	PostID string    `json:"postId"`
	At     time.Time `json:"at"`
}

func New(t Type, postID string) Event {
	return Event{Type: t, PostID: postID, At: time.Now().UTC()}
}

// Publisher est implémenté par Broker (une instance) et RedisRelay (plusieurs)
type Publisher interface {
	Publish(ctx context.Context, e Event)
}

// Broker répartit les événements entre les abonnés locaux.
// Un abonné trop lent perd des événements plutôt que de bloquer les écritures.
type Broker struct {
	mu     sync.RWMutex
	subs   map[chan Event]struct{}
	buffer int
	closed bool
}

func NewBroker(buffer int) *Broker {
	if buffer <= 0 {
		buffer = 16
	}
	return &Broker{subs: make(map[chan Event]struct{}), buffer: buffer}
}

// Subscribe retourne le canal de l'abonné et la fonction pour se désabonner.
// Le canal est fermé au désabonnement ou à la fermeture du Broker.
func (b *Broker) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, b.buffer)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch, func() {}
	}
	b.subs[ch] = struct{}{}

	return ch, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if _, ok := b.subs[ch]; ok {
			delete(b.subs, ch)
			close(ch)
		}
	}
}

// Close termine tous les flux ouverts (arrêt du serveur)
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for ch := range b.subs {
		delete(b.subs, ch)
		close(ch)
	}
}

func (b *Broker) Publish(_ context.Context, e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch := range b.subs {
		select {
		case ch <- e:
		default:
			logs.LogJSON("WARN", "Feed event dropped for slow subscriber", map[string]interface{}{
				"type":   string(e.Type),
				"postID": e.PostID,
			})
		}
	}
}

func (b *Broker) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
