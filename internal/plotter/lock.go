package plotter

import "sync"

// lockToken identifies one update cycle. Every lock taken during a
// cycle is taken with the cycle's token, which makes re-acquisition
// within the cycle (share delegating back into an already locked
// formatoption) a depth increment instead of a deadlock.
type lockToken struct{ _ byte }

func newToken() *lockToken { return &lockToken{} }

// rlock is a reentrant lock keyed by token. The zero value is ready to
// use.
type rlock struct {
	mu    sync.Mutex
	cond  *sync.Cond
	owner *lockToken
	depth int
}

// acquire blocks until the lock is free or already owned by tok.
func (l *rlock) acquire(tok *lockToken) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cond == nil {
		l.cond = sync.NewCond(&l.mu)
	}
	for l.owner != nil && l.owner != tok {
		l.cond.Wait()
	}
	l.owner = tok
	l.depth++
}

// release undoes one acquire. Releasing a lock the token does not own
// is ignored; the rollback path releases blindly.
func (l *rlock) release(tok *lockToken) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.owner != tok {
		return
	}
	l.depth--
	if l.depth <= 0 {
		l.owner = nil
		l.depth = 0
		if l.cond != nil {
			l.cond.Broadcast()
		}
	}
}

// forceRelease drops the lock entirely if tok owns it, regardless of
// depth.
func (l *rlock) forceRelease(tok *lockToken) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.owner != tok {
		return
	}
	l.owner = nil
	l.depth = 0
	if l.cond != nil {
		l.cond.Broadcast()
	}
}
