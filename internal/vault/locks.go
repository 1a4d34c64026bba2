package vault

import (
	"slices"
	"sync"
)

// aliasLocks serialises operations per alias. Entries are dropped once no
// goroutine holds or waits for them.
type aliasLocks struct {
	mu    sync.Mutex
	locks map[string]*aliasLock
}

type aliasLock struct {
	mu   sync.Mutex
	refs int
}

// lock acquires every alias in sorted order and returns the release func
func (l *aliasLocks) lock(aliases ...string) func() {
	names := slices.Clone(aliases)
	slices.Sort(names)
	names = slices.Compact(names)

	held := make([]*aliasLock, 0, len(names))
	for _, name := range names {
		al := l.acquire(name)
		al.mu.Lock()
		held = append(held, al)
	}

	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].mu.Unlock()
			l.release(names[i])
		}
	}
}

func (l *aliasLocks) acquire(name string) *aliasLock {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.locks == nil {
		l.locks = make(map[string]*aliasLock)
	}
	al, ok := l.locks[name]
	if !ok {
		al = &aliasLock{}
		l.locks[name] = al
	}
	al.refs++
	return al
}

func (l *aliasLocks) release(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	al := l.locks[name]
	al.refs--
	if al.refs == 0 {
		delete(l.locks, name)
	}
}

func (l *aliasLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
