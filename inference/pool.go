package inference

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Pool lends SaT sessions to pipeline workers. Each session holds its own copy
// of the model, so sessions are created on demand, up to the pool size, when
// every existing one is busy. A run with fewer books than workers never loads
// more sessions than it uses.
type Pool struct {
	open  func() (*Session, error)
	idle  chan *Session
	slots chan struct{} // one token per session not yet created
	done  chan struct{}
	size  int

	mu     sync.Mutex
	closed bool
}

// NewPool creates a pool of up to size sessions for modelPath. A size below
// one is treated as one. The first session is created immediately, so a
// model that cannot be loaded fails here.
func NewPool(modelPath string, size int, cfg Config) (*Pool, error) {
	return newPool(size, func() (*Session, error) {
		return NewSession(modelPath, cfg)
	})
}

func newPool(size int, open func() (*Session, error)) (*Pool, error) {
	size = max(size, 1)

	p := &Pool{
		open:  open,
		idle:  make(chan *Session, size),
		slots: make(chan struct{}, size-1),
		done:  make(chan struct{}),
		size:  size,
	}
	for range size - 1 {
		p.slots <- struct{}{}
	}

	session, err := open()
	if err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}
	p.idle <- session

	return p, nil
}

// Acquire takes an idle session, creates one if the pool has room, or blocks
// until a session is released or ctx is done.
func (p *Pool) Acquire(ctx context.Context) (*Session, error) {
	select {
	case <-p.done:
		return nil, ErrPoolClosed
	case s := <-p.idle:
		return p.checkOut(s)
	default:
	}

	select {
	case s := <-p.idle:
		return p.checkOut(s)
	case <-p.slots:
		s, err := p.open()
		if err != nil {
			p.slots <- struct{}{}
			return nil, fmt.Errorf("creating session: %w", err)
		}
		return p.checkOut(s)
	case <-p.done:
		return nil, ErrPoolClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// checkOut hands s to the caller unless the pool closed while it was being
// taken.
func (p *Pool) checkOut(s *Session) (*Session, error) {
	select {
	case <-p.done:
		p.Release(s)
		return nil, ErrPoolClosed
	default:
		return s, nil
	}
}

// Release returns a session to the pool. Sessions released after Close are
// destroyed.
func (p *Pool) Release(s *Session) {
	if s == nil {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		_ = s.Close()
		return
	}

	select {
	case p.idle <- s:
	default:
		_ = s.Close() // not one of ours
	}
}

// Close destroys all idle sessions. Sessions still held are destroyed when
// released.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.done)
	p.mu.Unlock()

	var errs []error
	for {
		select {
		case s := <-p.idle:
			if err := s.Close(); err != nil {
				errs = append(errs, err)
			}
		default:
			return errors.Join(errs...)
		}
	}
}

// Size returns the most sessions the pool will create.
func (p *Pool) Size() int {
	return p.size
}

// Loaded returns how many sessions have been created.
func (p *Pool) Loaded() int {
	return p.size - len(p.slots)
}
