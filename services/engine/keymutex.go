package engine

import (
	"hash/fnv"
	"sync"
)

const lockStripes = 64

// keyMutex serializes work per key with a fixed set of striped locks.
// Two sessions hashing to the same stripe contend, which is acceptable
// for turn-length critical sections.
type keyMutex struct {
	stripes [lockStripes]sync.Mutex
}

func (k *keyMutex) lock(key string) (unlock func()) {
	h := fnv.New32a()
	h.Write([]byte(key))
	m := &k.stripes[h.Sum32()%lockStripes]
	m.Lock()
	return m.Unlock
}
