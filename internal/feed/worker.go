package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"

	"github.com/boryxf/ag-kernel/internal/storage"
)

// Config describes one capture session.
type Config struct {
	URL      string  // websocket endpoint
	Symbol   string  // instrument to subscribe
	Stream   string  // storage stream name ticks land under
	TickSize float64 // price grid the feed is quantized onto
}

// Recorder manages the lifecycle of a capture connection: reconnect with
// backoff, read timeouts, and sequential writes into the tick store. All
// storage writes happen on the read loop goroutine, so the stored stream
// preserves arrival order.
type Recorder struct {
	cfg      Config
	store    *storage.RunStore
	tickSize decimal.Decimal

	mu     sync.RWMutex
	conn   *websocket.Conn
	cancel context.CancelFunc
	wg     sync.WaitGroup

	seq     int64         // read-loop goroutine only
	dropped atomic.Uint64 // readable while the loop runs

	ReadTimeout  time.Duration
	PingInterval time.Duration
}

// NewRecorder creates a recorder appending to the configured stream. The
// sequence counter resumes from whatever the stream already holds.
func NewRecorder(ctx context.Context, cfg Config, store *storage.RunStore) (*Recorder, error) {
	if cfg.TickSize <= 0 {
		return nil, fmt.Errorf("feed tick size must be positive, got %v", cfg.TickSize)
	}
	last, err := store.LastSeq(ctx, cfg.Stream)
	if err != nil {
		return nil, err
	}
	return &Recorder{
		cfg:          cfg,
		store:        store,
		tickSize:     decimal.NewFromFloat(cfg.TickSize),
		seq:          last,
		ReadTimeout:  60 * time.Second,
		PingInterval: 30 * time.Second,
	}, nil
}

// Start begins the capture loop in the background.
func (r *Recorder) Start(ctx context.Context) {
	ctx, r.cancel = context.WithCancel(ctx)
	r.wg.Add(1)
	go r.runLoop(ctx)
}

// Stop terminates the capture and waits for the read loop to exit.
func (r *Recorder) Stop() {
	if r.cancel != nil {
		r.cancel()
	}
	r.close()
	r.wg.Wait()
}

// Dropped reports how many messages failed to parse or store. Safe to
// call while the recorder is running.
func (r *Recorder) Dropped() uint64 { return r.dropped.Load() }

func (r *Recorder) runLoop(ctx context.Context) {
	defer r.wg.Done()
	retry := 0

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := r.connect(ctx); err != nil {
			delay := reconnectDelay(retry)
			slog.Warn("FEED_CONNECT_FAILED",
				slog.String("url", r.cfg.URL),
				slog.Any("err", err),
				slog.Int("retry", retry),
				slog.Duration("delay", delay))
			retry++

			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
				continue
			}
		}

		retry = 0
		r.process(ctx)
	}
}

func (r *Recorder) connect(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, r.cfg.URL, nil)
	if err != nil {
		return err
	}

	sub, _ := json.Marshal(map[string]any{
		"op":     "subscribe",
		"symbol": r.cfg.Symbol,
		"topic":  "trade",
	})
	if err := conn.WriteMessage(websocket.TextMessage, sub); err != nil {
		conn.Close()
		return fmt.Errorf("subscribe failed: %w", err)
	}

	r.mu.Lock()
	r.conn = conn
	r.mu.Unlock()

	if r.PingInterval > 0 {
		go r.pingLoop(ctx)
	}

	slog.Info("FEED_CONNECTED",
		slog.String("symbol", r.cfg.Symbol),
		slog.String("stream", r.cfg.Stream))
	return nil
}

func (r *Recorder) process(ctx context.Context) {
	for {
		r.mu.RLock()
		c := r.conn
		r.mu.RUnlock()
		if c == nil {
			return
		}

		c.SetReadDeadline(time.Now().Add(r.ReadTimeout))
		_, msg, err := c.ReadMessage()
		if err != nil {
			slog.Warn("FEED_READ_ERROR", slog.String("stream", r.cfg.Stream), slog.Any("err", err))
			r.close()
			return
		}

		tick, err := parseTrade(msg, r.tickSize)
		if err != nil {
			slog.Warn("FEED_DROP", slog.Any("err", err), slog.Uint64("total", r.dropped.Add(1)))
			continue
		}

		r.seq++
		if err := r.store.AppendTick(ctx, r.cfg.Stream, r.seq, tick); err != nil {
			r.seq--
			r.dropped.Add(1)
			slog.Error("FEED_STORE_ERROR", slog.Any("err", err))
		}
	}
}

func (r *Recorder) pingLoop(ctx context.Context) {
	ticker := time.NewTicker(r.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.mu.RLock()
			c := r.conn
			r.mu.RUnlock()
			if c == nil {
				return
			}
			if err := c.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				slog.Warn("FEED_PING_ERROR", slog.Any("err", err))
				r.close()
				return
			}
		}
	}
}

func (r *Recorder) close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conn != nil {
		r.conn.Close()
		r.conn = nil
	}
}
