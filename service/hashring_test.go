package service

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func allHealthy(string) bool { return true }

func TestHashRing_AddRemoveInvariant(t *testing.T) {
	r := newHashRing(defaultVirtualNodes)

	r.add("inst-a")
	r.add("inst-b")
	require.Equal(t, 2*defaultVirtualNodes, r.len())

	r.remove("inst-a")
	require.Equal(t, defaultVirtualNodes, r.len())

	// Remaining positions all belong to inst-b.
	for _, h := range r.hashes {
		assert.Equal(t, "inst-b", r.owners[h])
	}

	r.remove("inst-b")
	assert.Equal(t, 0, r.len())
	assert.Equal(t, "", r.lookup("any-key", allHealthy))
}

func TestHashRing_StableLookup(t *testing.T) {
	r := newHashRing(defaultVirtualNodes)
	for i := 0; i < 5; i++ {
		r.add(fmt.Sprintf("inst-%d", i))
	}

	for i := 0; i < 50; i++ {
		key := fmt.Sprintf("session-%d", i)
		first := r.lookup(key, allHealthy)
		require.NotEmpty(t, first)
		for j := 0; j < 5; j++ {
			assert.Equal(t, first, r.lookup(key, allHealthy))
		}
	}
}

func TestHashRing_BoundedRemapping(t *testing.T) {
	r := newHashRing(defaultVirtualNodes)
	for i := 0; i < 5; i++ {
		r.add(fmt.Sprintf("inst-%d", i))
	}

	before := make(map[string]string)
	for i := 0; i < 200; i++ {
		key := fmt.Sprintf("session-%d", i)
		before[key] = r.lookup(key, allHealthy)
	}

	r.remove("inst-3")

	for key, owner := range before {
		got := r.lookup(key, allHealthy)
		if owner == "inst-3" {
			assert.NotEqual(t, "inst-3", got)
		} else {
			// Keys not owned by the removed instance keep their mapping.
			assert.Equal(t, owner, got, "key %s remapped although its owner survived", key)
		}
	}
}

func TestHashRing_SkipsUnhealthyOwners(t *testing.T) {
	r := newHashRing(defaultVirtualNodes)
	r.add("inst-a")
	r.add("inst-b")

	onlyB := func(id string) bool { return id == "inst-b" }
	for i := 0; i < 20; i++ {
		assert.Equal(t, "inst-b", r.lookup(fmt.Sprintf("key-%d", i), onlyB))
	}

	none := func(string) bool { return false }
	assert.Equal(t, "", r.lookup("key", none))
}
