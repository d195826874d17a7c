// Package command defines the tenantgate-cli commands using urfave/cli/v2.
//
//   - root.go: App, global flags, shared helpers
//   - store.go: Opening the badger data directory for admin commands
//   - apikey.go: apikey create|list|get|disable|enable
//   - membership.go: membership add|remove|list
//   - remote.go: whoami and health against a running server
//
// Admin commands work on the data directory directly and need the server
// stopped, since badger holds an exclusive lock on it.
package command
