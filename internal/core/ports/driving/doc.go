// Package driving defines the interfaces through which the outside
// world drives the core: the CLI (and any future automation surface)
// calls IN through these ports.
//
// These are the "driving" or "primary" ports in hexagonal architecture.
package driving
