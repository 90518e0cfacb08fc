package coderadio

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

var (
	// ErrConnect is returned by Connect when the initial handshake fails.
	ErrConnect = errors.New("feed connect failed")
	// ErrFeed is returned by Next when the feed dropped and every
	// reconnect attempt of the outage failed.
	ErrFeed = errors.New("feed lost")
)

const (
	DefaultRetryAttempts = 3
	DefaultRetryDelay    = time.Second
)

// Source provides the two halves of the hybrid transport: a request that
// primes state and a subscription that delivers updates.
type Source interface {
	NowPlaying(ctx context.Context) (*Message, error)
	Subscribe(ctx context.Context) (Subscription, error)
}

// FeedConfig bounds reconnection per outage.
type FeedConfig struct {
	RetryAttempts int
	RetryDelay    time.Duration
}

func (c FeedConfig) withDefaults() FeedConfig {
	if c.RetryAttempts <= 0 {
		c.RetryAttempts = DefaultRetryAttempts
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = DefaultRetryDelay
	}
	return c
}

// Feed is a single logical sequence of now-playing messages.
//
// Messages lost while disconnected are not replayed. Next and Connect must
// be called from one goroutine; Close may be called from any.
type Feed struct {
	source Source
	cfg    FeedConfig
	log    zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	sub    Subscription
	primed *Message

	retry   backoff.BackOff
	outage  bool
	lastErr error
}

// NewFeed creates a feed over source.
func NewFeed(source Source, cfg FeedConfig, log zerolog.Logger) *Feed {
	cfg = cfg.withDefaults()
	ctx, cancel := context.WithCancel(context.Background())
	return &Feed{
		source: source,
		cfg:    cfg,
		log:    log.With().Str("component", "feed").Logger(),
		ctx:    ctx,
		cancel: cancel,
		// The first attempt of an outage is immediate and not charged here.
		retry: backoff.WithMaxRetries(
			backoff.NewConstantBackOff(cfg.RetryDelay),
			uint64(cfg.RetryAttempts-1), //nolint:gosec // positive
		),
	}
}

// Connect primes the feed with the current message and opens the
// subscription for updates.
func (f *Feed) Connect(ctx context.Context) error {
	msg, err := f.source.NowPlaying(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConnect, err)
	}

	sub, err := f.source.Subscribe(f.ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConnect, err)
	}

	f.primed = msg
	f.sub = sub
	f.log.Info().Str("station", msg.Station.Name).Msg("feed connected")
	return nil
}

// Next blocks until the next message. A dropped subscription is
// reconnected transparently; once the outage exhausts its retry budget
// Next returns an error wrapping ErrFeed.
func (f *Feed) Next(ctx context.Context) (*Message, error) {
	if msg := f.primed; msg != nil {
		f.primed = nil
		return msg, nil
	}

	for {
		if f.sub == nil {
			if err := f.reconnect(ctx); err != nil {
				return nil, err
			}
		}

		msg, err := f.read(ctx)
		if err == nil {
			if f.outage {
				f.log.Info().Msg("feed recovered")
			}
			f.outage = false
			f.retry.Reset()
			return msg, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if f.ctx.Err() != nil {
			return nil, fmt.Errorf("%w: closed", ErrFeed)
		}

		f.log.Warn().Err(err).Msg("feed dropped")
		f.lastErr = err
		_ = f.sub.Close()
		f.sub = nil
	}
}

// read waits for one message, closing the subscription if ctx ends or the
// feed is closed first.
func (f *Feed) read(ctx context.Context) (*Message, error) {
	sub := f.sub
	closeSub := func() { _ = sub.Close() }
	stop := context.AfterFunc(ctx, closeSub)
	defer stop()
	stopFeed := context.AfterFunc(f.ctx, closeSub)
	defer stopFeed()
	return sub.Next()
}

func (f *Feed) reconnect(ctx context.Context) error {
	for attempt := 1; ; attempt++ {
		if !f.outage {
			f.outage = true
		} else {
			delay := f.retry.NextBackOff()
			if delay == backoff.Stop {
				return fmt.Errorf("%w: %d reconnect attempts failed: %w", ErrFeed, f.cfg.RetryAttempts, f.lastErr)
			}
			if err := f.sleep(ctx, delay); err != nil {
				return err
			}
		}

		sub, err := f.source.Subscribe(f.ctx)
		if err == nil {
			f.sub = sub
			f.log.Info().Int("attempt", attempt).Msg("feed reconnected")
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if f.ctx.Err() != nil {
			return fmt.Errorf("%w: closed", ErrFeed)
		}
		f.lastErr = err
		f.log.Warn().Err(err).Int("attempt", attempt).Msg("feed reconnect failed")
	}
}

func (f *Feed) sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-f.ctx.Done():
		return fmt.Errorf("%w: closed", ErrFeed)
	}
}

// Close ends the subscription. A blocked Next returns.
func (f *Feed) Close() {
	f.cancel()
}
