package events

import (
	"context"
	"encoding/json"

	"github.com/go-redis/redis/v8"

	"github.com/ArthurDelaporte/CommunityFeed-Back/internal/logs"
)

// RedisRelay publie sur un canal Redis partagé par toutes les instances.
// Listen réinjecte ce qui arrive du canal dans le Broker local, y compris
// les événements émis par cette instance.
type RedisRelay struct {
	client  *redis.Client
	channel string
	local   *Broker
}

func NewRedisRelay(client *redis.Client, channel string, local *Broker) *RedisRelay {
	return &RedisRelay{client: client, channel: channel, local: local}
}

func (r *RedisRelay) Publish(ctx context.Context, e Event) {
	payload, err := json.Marshal(e)
	if err != nil {
		logs.LogJSON("ERROR", "Feed event encoding failed", map[string]interface{}{"error": err.Error()})
		return
	}

	if err := r.client.Publish(ctx, r.channel, payload).Err(); err != nil {
		// Redis indisponible : les abonnés locaux sont quand même prévenus
		logs.LogJSON("WARN", "Redis publish failed, delivering locally", map[string]interface{}{
			"error":   err.Error(),
			"channel": r.channel,
			"type":    string(e.Type),
		})
		r.local.Publish(ctx, e)
	}
}

// StartRelay ne renvoie le relais qu'une fois l'abonnement confirmé par
// Redis. En cas d'échec les événements restent sur le Broker local, qui est
// renvoyé avec l'erreur.
func StartRelay(ctx context.Context, client *redis.Client, channel string, local *Broker) (Publisher, error) {
	r := NewRedisRelay(client, channel, local)
	if err := r.Listen(ctx); err != nil {
		return local, err
	}
	return r, nil
}

// Listen s'abonne au canal et attend la confirmation avant de rendre la
// main. La réception continue en arrière-plan jusqu'à l'annulation de ctx.
func (r *RedisRelay) Listen(ctx context.Context) error {
	sub := r.client.Subscribe(ctx, r.channel)
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return err
	}
	logs.LogJSON("INFO", "Subscribed to feed events channel", map[string]interface{}{"channel": r.channel})

	go r.forward(ctx, sub)
	return nil
}

func (r *RedisRelay) forward(ctx context.Context, sub *redis.PubSub) {
	defer sub.Close()

	msgs := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				logs.LogJSON("WARN", "Feed events channel closed", map[string]interface{}{"channel": r.channel})
				return
			}
			r.deliver(ctx, msg.Payload)
		}
	}
}

func (r *RedisRelay) deliver(ctx context.Context, payload string) {
	var e Event
	if err := json.Unmarshal([]byte(payload), &e); err != nil {
		logs.LogJSON("WARN", "Invalid feed event payload", map[string]interface{}{
			"error":   err.Error(),
			"channel": r.channel,
		})
		return
	}
	r.local.Publish(ctx, e)
}
