package logx

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// ---- Service (hot-swappable outputs) ----

// Service owns a root output set and swaps it on Apply. Loggers obtained
// from it follow the current set.
type Service struct {
	mu      sync.Mutex
	factory *Factory
	cfg     Config
	closed  bool

	root atomic.Pointer[core]
}

// NewService builds the initial outputs from cfg and returns both the
// Service and a root Logger.
func NewService(f *Factory, cfg Config) (*Service, Logger, error) {
	c, err := f.build(cfg)
	if err != nil {
		return nil, Logger{}, err
	}
	s := &Service{factory: f, cfg: cfg}
	s.root.Store(c)
	return s, Logger{svc: s}, nil
}

func (s *Service) current() *core { return s.root.Load() }

func (s *Service) Logger() Logger { return Logger{svc: s} }

// Config returns the configuration of the active output set.
func (s *Service) Config() Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// Apply swaps outputs/levels at runtime. When the new set cannot be built
// the previous one stays active and the error is returned.
// It is safe to call concurrently.
func (s *Service) Apply(cfg Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrServiceClosed
	}
	c, err := s.factory.build(cfg)
	if err != nil {
		return fmt.Errorf("apply logging config: %w", err)
	}
	old := s.root.Swap(c)
	s.cfg = cfg
	if old != nil {
		if err := closeOutputs(old.outputs); err != nil {
			fmt.Fprintf(Stderr(), "logx: closing previous outputs: %v\n", err)
		}
	}
	return nil
}

// Close flushes and closes the active outputs. Loggers from this Service
// become no-ops.
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	old := s.root.Swap(nopCore)
	if old == nil {
		return nil
	}
	return closeOutputs(old.outputs)
}
