// Package guard provides the call-scoped mutual exclusion every mutating
// keeper entry point holds for its whole duration, including nested calls
// into token ledgers and strategies.
package guard

import (
	"sync/atomic"

	errorsmod "cosmossdk.io/errors"
)

// Codespace is the error codespace for guard errors.
const Codespace = "guard"

// ErrReentrantCall is returned when a guarded entry point is entered while
// another guarded call on the same keeper is still executing.
var ErrReentrantCall = errorsmod.Register(Codespace, 2, "reentrant call")

// Guard is an exclusive, non-blocking lock. A second Enter before release
// fails instead of waiting: under serialized execution the only way to find
// the guard held is re-entry from a collaborator.
type Guard struct {
	name string
	held atomic.Bool
}

// New creates a guard. name is reported in reentrancy errors.
func New(name string) *Guard {
	return &Guard{name: name}
}

// Enter acquires the guard. The returned release func must be deferred by
// the caller so the guard is freed on every exit path.
func (g *Guard) Enter(entry string) (release func(), err error) {
	if !g.held.CompareAndSwap(false, true) {
		return nil, errorsmod.Wrapf(ErrReentrantCall, "%s.%s", g.name, entry)
	}
	return func() { g.held.Store(false) }, nil
}

// Held reports whether a guarded call is in progress.
func (g *Guard) Held() bool {
	return g.held.Load()
}
