package wallet

import (
	"fmt"
	"sync"
)

// KeyRotator hands out keys in round-robin order, one cursor per algorithm.
// N back-to-back Next calls return N distinct keys whenever N does not
// exceed the number of configured keys for that algorithm, which gives
// concurrent submissions independent account nonce sequences.
type KeyRotator struct {
	mu     sync.Mutex
	keys   map[Algorithm][]*Key
	cursor map[Algorithm]int
}

// NewKeyRotator parses the configured key material. Key order within an
// algorithm is preserved; it determines the rotation order.
func NewKeyRotator(data []KeyPairData) (*KeyRotator, error) {
	r := &KeyRotator{
		keys:   make(map[Algorithm][]*Key),
		cursor: make(map[Algorithm]int),
	}
	for i, kp := range data {
		key, err := parseKey(kp)
		if err != nil {
			return nil, fmt.Errorf("key %d: %w", i, err)
		}
		r.keys[kp.Alg] = append(r.keys[kp.Alg], key)
	}
	return r, nil
}

// Next returns the key at the cursor and advances it, wrapping to zero
// after the last key. The cursor is not rolled back if the caller's
// submission later fails; returning a consumed slot would reintroduce the
// nonce collisions rotation exists to prevent.
func (r *KeyRotator) Next(alg Algorithm) (*Key, error) {
	if alg != AlgorithmES256K && alg != AlgorithmES256 {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedAlgorithm, alg)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	keys := r.keys[alg]
	if len(keys) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoKeyForAlgorithm, alg)
	}
	key := keys[r.cursor[alg]]
	r.cursor[alg] = (r.cursor[alg] + 1) % len(keys)
	return key, nil
}

// First returns the first configured key of an algorithm without touching
// the cursor.
func (r *KeyRotator) First(alg Algorithm) (*Key, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	keys := r.keys[alg]
	if len(keys) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoKeyForAlgorithm, alg)
	}
	return keys[0], nil
}

// Len reports how many keys are configured for an algorithm.
func (r *KeyRotator) Len(alg Algorithm) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.keys[alg])
}
