// Package engine holds concurrency primitives shared by the connection,
// voting and response use cases.
package engine

import "sync"

// ConnectionLocks serializes all mutating operations of a single connection
// (vote casting, response submission, progress updates, round resolution)
// without ever blocking one connection on another.
type ConnectionLocks struct {
	locks sync.Map // connection id -> *sync.Mutex
}

func NewConnectionLocks() *ConnectionLocks {
	return &ConnectionLocks{}
}

// Lock acquires the mutex for the connection and returns the unlock func.
//
//	defer locks.Lock(connID)()
func (l *ConnectionLocks) Lock(connectionID int) func() {
	v, _ := l.locks.LoadOrStore(connectionID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
