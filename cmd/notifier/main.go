package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"campus/internal/config"
	"campus/internal/notify"
	"campus/internal/store"
)

// Notifier consumes operator notices from the queue and delivers them.
// Delivery here is the log; a deployment can swap in mail or push without
// touching the API.
func main() {
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutdown signal received")
		cancel()
	}()

	var q notify.Queue
	if cfg.QueueBackend == "redis" {
		redisClient := store.NewRedis(cfg.RedisAddr)
		if !redisClient.Healthy(ctx) {
			log.Printf("WARNING: redis at %s not reachable, will retry on consume", cfg.RedisAddr)
		}
		q = notify.NewRedisQueue(redisClient.Client, "campus:notices")
	} else {
		// In-memory queues only make sense inside the API process; a
		// standalone notifier needs the shared Redis backend.
		log.Fatal("notifier requires QUEUE_BACKEND=redis")
	}

	notices, err := q.Consume(ctx)
	if err != nil {
		log.Fatalf("queue consume init failed: %v", err)
	}

	log.Println("notifier started, waiting for notices...")
	for n := range notices {
		switch n.Level {
		case notify.LevelError:
			log.Printf("[%s] ERROR for %s: %s", n.At.Format("15:04:05"), n.Operator, n.Text)
		default:
			log.Printf("[%s] %s: %s", n.At.Format("15:04:05"), n.Operator, n.Text)
		}
	}

	log.Println("notifier stopped")
}
