package service

import (
	"hash/crc32"
	"sort"
	"strconv"
)

// defaultVirtualNodes is how many ring positions each instance gets to
// smooth load distribution.
const defaultVirtualNodes = 150

// hashRing maps 32-bit hash values to instance IDs with a fixed number of
// virtual nodes per instance. It is owned by the LoadBalancer and guarded
// by its reader/writer lock; the ring itself carries no synchronization.
// Invariant: ring entries for an instance exist iff the instance is
// registered, so removing an instance remaps only the keys that landed on
// its virtual nodes.
type hashRing struct {
	virtualNodes int
	hashes       []uint32          // sorted ring positions
	owners       map[uint32]string // ring position -> instance ID
}

func newHashRing(virtualNodes int) *hashRing {
	if virtualNodes < 1 {
		virtualNodes = defaultVirtualNodes
	}
	return &hashRing{
		virtualNodes: virtualNodes,
		owners:       make(map[uint32]string),
	}
}

// hashKey is the stable 32-bit hash used for both ring positions and
// routing keys.
func hashKey(key string) uint32 {
	return crc32.ChecksumIEEE([]byte(key))
}

// add inserts the instance's virtual nodes. Position collisions keep the
// existing owner so that add/remove stays symmetric.
func (r *hashRing) add(instanceID string) {
	for i := 0; i < r.virtualNodes; i++ {
		h := hashKey(instanceID + "#" + strconv.Itoa(i))
		if _, taken := r.owners[h]; taken {
			continue
		}
		r.owners[h] = instanceID
		idx := sort.Search(len(r.hashes), func(j int) bool { return r.hashes[j] >= h })
		r.hashes = append(r.hashes, 0)
		copy(r.hashes[idx+1:], r.hashes[idx:])
		r.hashes[idx] = h
	}
}

// remove deletes exactly the instance's virtual nodes, leaving all other
// mappings unchanged.
func (r *hashRing) remove(instanceID string) {
	kept := r.hashes[:0]
	for _, h := range r.hashes {
		if r.owners[h] == instanceID {
			delete(r.owners, h)
			continue
		}
		kept = append(kept, h)
	}
	r.hashes = kept
}

// lookup walks the ring clockwise from the key's hash and returns the first
// owner accepted by healthy, wrapping around past the largest position.
// Returns "" when the ring is empty or no owner is accepted.
func (r *hashRing) lookup(key string, healthy func(instanceID string) bool) string {
	if len(r.hashes) == 0 {
		return ""
	}
	start := sort.Search(len(r.hashes), func(j int) bool { return r.hashes[j] >= hashKey(key) })
	for i := 0; i < len(r.hashes); i++ {
		h := r.hashes[(start+i)%len(r.hashes)]
		owner := r.owners[h]
		if healthy(owner) {
			return owner
		}
	}
	return ""
}

// len reports the number of ring positions, for tests and the admin API.
func (r *hashRing) len() int {
	return len(r.hashes)
}
