package kafka

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

// Handler returns nil only when the message is fully processed and its offset
// may be committed.
type Handler func(ctx context.Context, m kafka.Message) error

// Reader is the subset of *kafka.Reader the consumer uses.
type Reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Consumer struct {
	r          Reader
	workers    int
	backoff    time.Duration
	maxBackoff time.Duration
	log        logrus.FieldLogger
}

func NewConsumer(brokers []string, group string, topics []string, workers int, log logrus.FieldLogger) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		GroupID:        group,
		GroupTopics:    topics,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: 0, // manual commit
	})
	return NewConsumerFromReader(r, workers, log.WithField("group", group))
}

func NewConsumerFromReader(r Reader, workers int, log logrus.FieldLogger) *Consumer {
	if workers <= 0 {
		workers = 1
	}
	return &Consumer{r: r, workers: workers, backoff: 200 * time.Millisecond, maxBackoff: 10 * time.Second, log: log}
}

// Start dispatches messages to the worker pool until ctx is done or the
// reader fails. It returns after every worker has finished.
//
// Offsets commit cumulatively per partition, so each partition is owned by
// one worker that handles its messages in order and retries a failing one
// until it succeeds. Nothing past a failed message is ever committed.
func (c *Consumer) Start(ctx context.Context, h Handler) error {
	defer c.r.Close()

	jobs := make([]chan kafka.Message, c.workers)
	var wg sync.WaitGroup
	for i := range jobs {
		jobs[i] = make(chan kafka.Message, 128)
		wg.Add(1)
		go func(id int, in <-chan kafka.Message) {
			defer wg.Done()
			for m := range in {
				if ctx.Err() != nil {
					continue // shutting down, leave the rest uncommitted
				}
				if !c.handle(ctx, h, m, id) {
					continue
				}
				if err := c.r.CommitMessages(ctx, m); err != nil {
					c.report(err, id, m, "commit failed")
				}
			}
		}(i, jobs[i])
	}
	stop := func() {
		for _, ch := range jobs {
			close(ch)
		}
		wg.Wait()
	}

	for {
		m, err := c.r.FetchMessage(ctx)
		if err != nil {
			stop()
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		select {
		case jobs[c.worker(m)] <- m:
		case <-ctx.Done():
			stop()
			return nil
		}
	}
}

func (c *Consumer) worker(m kafka.Message) int {
	return int(xxhash.Sum64String(m.Topic+"/"+strconv.Itoa(m.Partition)) % uint64(c.workers))
}

// handle runs h until it succeeds. It gives up only when ctx is done.
func (c *Consumer) handle(ctx context.Context, h Handler, m kafka.Message, worker int) bool {
	wait := c.backoff
	for {
		err := h(ctx, m)
		if err == nil {
			return true
		}
		c.report(err, worker, m, "message not processed, retrying")
		select {
		case <-ctx.Done():
			return false
		case <-time.After(wait):
		}
		if wait *= 2; wait > c.maxBackoff {
			wait = c.maxBackoff
		}
	}
}

func (c *Consumer) report(err error, worker int, m kafka.Message, msg string) {
	c.log.WithError(err).WithFields(logrus.Fields{
		"worker":    worker,
		"topic":     m.Topic,
		"partition": m.Partition,
		"offset":    m.Offset,
	}).Error(msg)
}
