package domain

import "time"

// LockLease describes a held distributed-lock lease. Only the holder with
// the matching Token may release or extend it; after TTL expires any caller
// may acquire the resource regardless of the old token.
type LockLease struct {
	Resource string        // lock resource name (store key, minus prefix)
	Token    string        // random ownership token
	TTL      time.Duration // lease duration granted at acquire/extend time
}
