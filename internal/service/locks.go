package service

import (
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// lockTable hands out one mutex per aggregate id. Entries are reference
// counted and dropped once nobody holds or waits for them.
type lockTable struct {
	mu    sync.Mutex
	locks map[primitive.ObjectID]*refLock
}

type refLock struct {
	mu   sync.Mutex
	refs int
}

func newLockTable() *lockTable {
	return &lockTable{locks: make(map[primitive.ObjectID]*refLock)}
}

// lock blocks until id is free and returns the matching unlock.
func (t *lockTable) lock(id primitive.ObjectID) (unlock func()) {
	t.mu.Lock()
	l, ok := t.locks[id]
	if !ok {
		l = &refLock{}
		t.locks[id] = l
	}
	l.refs++
	t.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		t.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(t.locks, id)
		}
		t.mu.Unlock()
	}
}

// size is the number of ids currently held or waited on.
func (t *lockTable) size() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.locks)
}
