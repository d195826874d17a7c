// Package memory provides in-memory repositories.
//
// They back the "memory" storage backend and gateway tests. Data does not
// survive a restart.
package memory
