package accounting

import "sync"

type lockKey struct {
	userId     int
	categoryId int
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Locks serializes read-check-write sequences per (owner, category) within the process.
// Entries are dropped once no goroutine holds or waits on them.
type Locks struct {
	mu      sync.Mutex
	entries map[lockKey]*lockEntry
}

func NewLocks() *Locks {
	return &Locks{entries: map[lockKey]*lockEntry{}}
}

// Lock blocks until the category is free and returns the matching unlock function.
func (l *Locks) Lock(userId int, categoryId int) func() {
	key := lockKey{userId: userId, categoryId: categoryId}

	l.mu.Lock()
	entry, ok := l.entries[key]
	if !ok {
		entry = &lockEntry{}
		l.entries[key] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()
		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.entries, key)
		}
		l.mu.Unlock()
	}
}

// LockOptional locks the category when categoryId is set and returns a no-op otherwise.
func (l *Locks) LockOptional(userId int, categoryId *int) func() {
	if categoryId == nil {
		return func() {}
	}
	return l.Lock(userId, *categoryId)
}

// LockPair locks up to two categories in id order so that writers moving a transaction
// between the same categories cannot deadlock.
func (l *Locks) LockPair(userId int, a *int, b *int) func() {
	if a == nil || b == nil || *a == *b {
		if a == nil {
			return l.LockOptional(userId, b)
		}
		return l.LockOptional(userId, a)
	}
	first, second := *a, *b
	if first > second {
		first, second = second, first
	}
	unlockFirst := l.Lock(userId, first)
	unlockSecond := l.Lock(userId, second)
	return func() {
		unlockSecond()
		unlockFirst()
	}
}

func (l *Locks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
