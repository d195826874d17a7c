// Package storage persists API key records and tenant memberships.
//
// BadgerEngine is an embedded key-value store (on disk, or in memory for
// tests and ephemeral deployments). APIKeyStore and MembershipStore lay
// their records out on any KVEngine as JSON documents with secondary index
// keys, and implement the repository interfaces of the service package.
package storage
