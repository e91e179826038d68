// Package domain contains the core types of the bootstrap pipeline:
// the step plan, run records, configuration, and domain errors.
//
// Import rules: this package imports nothing from the rest of the
// module. Ports and services build on it; adapters translate between
// it and the outside world.
package domain
