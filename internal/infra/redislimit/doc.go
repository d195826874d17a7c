// Package redislimit is a fixed-window rate limiter shared through Redis.
//
// Every gateway instance increments the same per-key counter, so the limit
// holds across replicas. Window expiry is the key's TTL; no sweeper runs.
package redislimit
