package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	appconsignment "github.com/erp/consignment/internal/application/consignment"
	"github.com/erp/consignment/internal/domain/shared"
)

// LocalLocker serializes work inside one process. Used when Redis is not configured.
type LocalLocker struct {
	mu    sync.Mutex
	slots map[string]*slot
}

type slot struct {
	ch   chan struct{}
	refs int
}

// NewLocalLocker creates an in-process locker
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{slots: make(map[string]*slot)}
}

// Obtain waits for the key until ctx is done. Without a deadline on ctx the
// wait is bounded by ttl.
func (l *LocalLocker) Obtain(ctx context.Context, key string, ttl time.Duration) (appconsignment.Lock, error) {
	if _, ok := ctx.Deadline(); !ok && ttl > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, ttl)
		defer cancel()
	}

	s := l.acquireSlot(key)
	select {
	case s.ch <- struct{}{}:
		return &localLock{locker: l, key: key, slot: s}, nil
	case <-ctx.Done():
		l.releaseSlot(key, s)
		return nil, shared.NewDomainError(shared.CodeConcurrencyConflict,
			fmt.Sprintf("resource %s is busy, retry later", key))
	}
}

func (l *LocalLocker) acquireSlot(key string) *slot {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.slots[key]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		l.slots[key] = s
	}
	s.refs++
	return s
}

func (l *LocalLocker) releaseSlot(key string, s *slot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s.refs--
	if s.refs == 0 {
		delete(l.slots, key)
	}
}

// held returns the number of keys with holders or waiters
func (l *LocalLocker) held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.slots)
}

type localLock struct {
	locker *LocalLocker
	key    string
	slot   *slot
	once   sync.Once
}

func (l *localLock) Release(context.Context) error {
	l.once.Do(func() {
		<-l.slot.ch
		l.locker.releaseSlot(l.key, l.slot)
	})
	return nil
}

var _ appconsignment.Locker = (*LocalLocker)(nil)
