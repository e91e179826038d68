// Package services contains the core business logic: the bootstrap
// pipeline orchestrator and the post-bootstrap verifier. Services
// depend only on the port interfaces, never on concrete adapters.
package services
