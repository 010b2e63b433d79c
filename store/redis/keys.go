package redis

// Redis key naming conventions for admitq data.
// All keys are prefixed with "admitq:" to avoid collisions.

const keyPrefix = "admitq:"

// ── Token keys ──

// tokenKey returns the key for a token entity: admitq:token:{id}
func tokenKey(id string) string { return keyPrefix + "token:" + id }

// tokenIDsKey is the Set tracking all token IDs for enumeration.
const tokenIDsKey = keyPrefix + "token_ids"

// activePatientsKey maps patient IDs to their active token ID.
const activePatientsKey = keyPrefix + "active_patients"

// ── Event keys ──

// eventKey returns the key for an event entity: admitq:event:{id}
func eventKey(id string) string { return keyPrefix + "event:" + id }

// eventStreamKey returns the Stream key for an event name: admitq:events:{name}
func eventStreamKey(name string) string { return keyPrefix + "events:" + name }
