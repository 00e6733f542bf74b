package mailer

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"movie_store/config"

	"github.com/redis/go-redis/v9"
)

const queueKey = "mailer:notifications"

var (
	queue  *redis.Client
	sender Sender = NewSMTPSender()
)

// Init wires the redis-backed queue; without it Dispatch falls back to
// sending directly in a goroutine.
func Init() {
	queue = redis.NewClient(&redis.Options{Addr: config.Config("REDIS_ADDR")})
	sender = NewSMTPSender()
}

// Use swaps the sender and disables the queue. Tests install a recorder here.
func Use(s Sender) {
	queue = nil
	sender = s
}

// Dispatch hands a notification off for delivery. It never returns an error:
// a lost notification must not fail the mutation that produced it.
func Dispatch(n Notification) {
	if queue != nil {
		payload, err := json.Marshal(n)
		if err != nil {
			log.Printf("mailer: marshal notification: %v", err)
			return
		}
		if err := queue.LPush(context.Background(), queueKey, payload).Err(); err != nil {
			log.Printf("mailer: enqueue for %s failed: %v", n.Email, err)
		}
		return
	}
	go func() {
		if err := sender.Send(n); err != nil {
			log.Printf("mailer: send to %s failed: %v", n.Email, err)
		}
	}()
}

// StartWorker drains the queue in the background.
func StartWorker() {
	if queue == nil {
		return
	}
	go func() {
		ctx := context.Background()
		for {
			res, err := queue.BRPop(ctx, 5*time.Second, queueKey).Result()
			if err != nil {
				if err != redis.Nil {
					log.Printf("mailer: queue read failed: %v", err)
					time.Sleep(time.Second)
				}
				continue
			}
			// BRPop returns [key, value]
			if len(res) != 2 {
				continue
			}
			var n Notification
			if err := json.Unmarshal([]byte(res[1]), &n); err != nil {
				log.Printf("mailer: bad payload dropped: %v", err)
				continue
			}
			if err := sender.Send(n); err != nil {
				log.Printf("mailer: send to %s failed: %v", n.Email, err)
			}
		}
	}()
}
