package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"logfactory/pkg/logx"
)

const (
	logstashDialTimeout  = 2 * time.Second
	logstashWriteTimeout = 2 * time.Second
)

// Logstash ships records as JSON lines to a Logstash tcp/udp input.
//
// Writes never block the caller: records go through a bounded queue drained
// by a single worker, and are dropped when the queue is full. The connection
// is dialed lazily and re-dialed on the next record after a write error.
type Logstash struct {
	network string
	addr    string
	level   logx.Level
	augment func(map[string]any)

	queue   chan []byte
	pending atomic.Int64
	dropped atomic.Uint64

	// mu is held shared by writers across the closed check and the enqueue,
	// and exclusively by Close, so nothing is queued after the worker drains.
	mu     sync.RWMutex
	closed bool

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closeOnce sync.Once

	// worker-owned
	conn     net.Conn
	degraded bool
}

// NewLogstash builds the log-shipping output and starts its worker.
func NewLogstash(opts logx.ShipperOptions) (logx.Output, error) {
	size := opts.QueueSize
	if size <= 0 {
		size = logx.DefaultQueueSize
	}
	network := opts.Network
	if network == "" {
		network = "tcp"
	}
	ctx, cancel := context.WithCancel(context.Background())
	l := &Logstash{
		network: network,
		addr:    net.JoinHostPort(opts.Host, strconv.Itoa(opts.Port)),
		level:   opts.Level,
		augment: opts.Augment,
		queue:   make(chan []byte, size),
		cancel:  cancel,
	}
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		l.run(ctx)
	}()
	return l, nil
}

func (l *Logstash) Name() string      { return "logstash" }
func (l *Logstash) Level() logx.Level { return l.level }

// Dropped reports how many records were lost (queue full or send failure).
func (l *Logstash) Dropped() uint64 { return l.dropped.Load() }

func (l *Logstash) Write(p []byte) (int, error) {
	// Default to info when WriteLevel isn't used.
	return l.WriteLevel(zerolog.InfoLevel, p)
}

func (l *Logstash) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	if level < l.level {
		return len(p), nil
	}
	rec, err := logx.DecodeRecord(p)
	if err != nil {
		return len(p), nil
	}
	if l.augment != nil {
		l.augment(rec)
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return len(p), nil
	}
	b = append(b, '\n')

	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return len(p), nil
	}
	l.pending.Add(1)
	// Never block core logging.
	select {
	case l.queue <- b:
	default:
		l.pending.Add(-1)
		l.dropped.Add(1)
	}
	return len(p), nil
}

// Flush waits until every queued record has been sent or dropped.
func (l *Logstash) Flush(timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for l.pending.Load() > 0 {
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(5 * time.Millisecond)
	}
	return true
}

// Close stops the worker after it has drained the queue.
func (l *Logstash) Close() error {
	l.closeOnce.Do(func() {
		l.mu.Lock()
		l.closed = true
		l.mu.Unlock()
		l.cancel()
		l.wg.Wait()
	})
	return nil
}

func (l *Logstash) run(ctx context.Context) {
	defer l.closeConn()
	for {
		select {
		case <-ctx.Done():
			for {
				select {
				case b := <-l.queue:
					l.send(b)
				default:
					return
				}
			}
		case b := <-l.queue:
			l.send(b)
		}
	}
}

func (l *Logstash) send(b []byte) {
	defer l.pending.Add(-1)

	if l.conn == nil {
		d := net.Dialer{Timeout: logstashDialTimeout}
		c, err := d.Dial(l.network, l.addr)
		if err != nil {
			l.dropped.Add(1)
			l.report(err)
			return
		}
		l.conn = c
		l.degraded = false
	}
	_ = l.conn.SetWriteDeadline(time.Now().Add(logstashWriteTimeout))
	if _, err := l.conn.Write(b); err != nil {
		l.dropped.Add(1)
		l.report(err)
		l.closeConn()
	}
}

// report prints the first failure of a streak; the streak ends on the next
// successful dial.
func (l *Logstash) report(err error) {
	if l.degraded {
		return
	}
	l.degraded = true
	fmt.Fprintf(logx.Stderr(), "sink: logstash %s %s: %v\n", l.network, l.addr, err)
}

func (l *Logstash) closeConn() {
	if l.conn != nil {
		_ = l.conn.Close()
		l.conn = nil
	}
}
