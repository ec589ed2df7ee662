package rtos

import "sync/atomic"

// Semaphore is a counting semaphore: Take blocks while no token is
// available, Give blocks while the semaphore is already at capacity
// (unless it has no ceiling). Ported from OS_UTILS/semaphore.c.
//
// As with Mutex, the original's LDREX/STREX token update is rendered
// here as a compare-and-swap loop over an atomic.Uint32.
type Semaphore struct {
	tokens    atomic.Uint32
	maxTokens uint32
	queue     WaitQueue
}

// NewSemaphore builds a counting semaphore of the given capacity,
// initialised with initTokens (clamped to size if out of range: a
// programmer error under §7's taxonomy). size == 0 means uncapped:
// Give never blocks, only Take does.
func NewSemaphore(size, initTokens uint32) *Semaphore {
	if initTokens > size {
		initTokens = size
	}
	s := &Semaphore{maxTokens: size}
	s.tokens.Store(initTokens)
	return s
}

// NewBinarySemaphore builds a semaphore of capacity 1, a special case
// of NewSemaphore. initFull is clamped to 1 if out of range.
func NewBinarySemaphore(initFull uint32) *Semaphore {
	return NewSemaphore(1, initFull)
}

// NewCountingSemaphore builds an uncapped semaphore starting empty: Take
// blocks until a token is given, Give never blocks and can accumulate
// up to 2^32-1 tokens before it is the caller's responsibility to keep
// takes and gives balanced.
func NewCountingSemaphore() *Semaphore {
	return NewSemaphore(0, 0)
}

// tryTake attempts to remove one token without blocking, reporting
// success.
func (s *Semaphore) tryTake() bool {
	for {
		tokens := s.tokens.Load()
		if tokens == 0 {
			return false
		}
		if s.tokens.CompareAndSwap(tokens, tokens-1) {
			return true
		}
	}
}

// tryGive attempts to add one token without blocking, reporting
// success. A zero maxTokens semaphore is uncapped and always succeeds.
func (s *Semaphore) tryGive() bool {
	for {
		tokens := s.tokens.Load()
		if s.maxTokens != 0 && tokens >= s.maxTokens {
			return false
		}
		if s.tokens.CompareAndSwap(tokens, tokens+1) {
			return true
		}
	}
}
