package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	domainErrors "github.com/AlwaysKim-03/orderland-sub000/internal/domain/errors"
	"github.com/AlwaysKim-03/orderland-sub000/internal/domain/model"
	"github.com/AlwaysKim-03/orderland-sub000/internal/domain/repository"
)

var errFeedClosed = errors.New("change feed closed")

// Subscriber keeps one live subscription to the order collection open,
// reconnecting with a linear backoff until the retry budget is spent.
type Subscriber struct {
	store       repository.OrderStore
	maxRetries  int
	backoffStep time.Duration
	logger      *slog.Logger

	wait func(ctx context.Context, d time.Duration) bool
}

// NewSubscriber constructs a subscriber over store.
func NewSubscriber(store repository.OrderStore, maxRetries int, backoffStep time.Duration, logger *slog.Logger) *Subscriber {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if backoffStep <= 0 {
		backoffStep = 2 * time.Second
	}
	return &Subscriber{
		store:       store,
		maxRetries:  maxRetries,
		backoffStep: backoffStep,
		logger:      logger,
		wait:        sleep,
	}
}

// Subscribe starts watching in the background. onSnapshot receives every full
// snapshot; onError is called once when the feed gives up. The returned
// cancel stops the watch and any pending retry timer and may be called any
// number of times.
func (s *Subscriber) Subscribe(onSnapshot func([]model.OrderRecord), onError func(error)) (cancel func()) {
	ctx, stop := context.WithCancel(context.Background())

	go s.run(ctx, onSnapshot, onError)

	var once sync.Once
	return func() {
		once.Do(func() {
			stop()
			s.logger.Info("change feed cancelled")
		})
	}
}

func (s *Subscriber) run(ctx context.Context, onSnapshot func([]model.OrderRecord), onError func(error)) {
	retries := 0
	for {
		var delivered atomic.Bool
		err := s.store.Watch(ctx, func(records []model.OrderRecord) {
			if ctx.Err() != nil {
				return
			}
			delivered.Store(true)
			onSnapshot(records)
		})
		if ctx.Err() != nil {
			return
		}
		if err == nil {
			err = errFeedClosed
		}
		if delivered.Load() {
			retries = 0
		}

		if retries >= s.maxRetries {
			s.logger.Error("change feed retries exhausted",
				slog.Int("retries", retries),
				slog.String("error", err.Error()),
			)
			onError(fmt.Errorf("%w: %w", domainErrors.ErrFeedStopped, err))
			return
		}

		retries++
		delay := time.Duration(retries) * s.backoffStep
		s.logger.Warn("change feed failed, retrying",
			slog.Int("attempt", retries),
			slog.Duration("backoff", delay),
			slog.String("error", err.Error()),
		)
		if !s.wait(ctx, delay) {
			return
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
