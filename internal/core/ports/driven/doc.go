// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - CommandRunner: Executes external commands (apt-get, make, monetdbd, ...)
//   - PackageInstaller: Installs OS build dependencies
//   - SourceFetcher: Downloads and unpacks the source tarball
//   - Builder: Configures, compiles and installs the unpacked source
//   - FarmController: Manages the database farm and the monetdbd daemon
//   - DatabaseAdmin: Creates, releases and destroys databases
//   - DepInstaller: Installs and checks test-time Python dependencies
//   - Prober: Speaks MAPI to the daemon for readiness and verification
//   - RunJournal: Persists run and step outcomes
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
