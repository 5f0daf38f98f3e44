/*
Package ports defines the driven ports (interfaces) of the drills environment.

These interfaces decouple the session from external implementations, allowing
it to run against a real synthesis tool, a scripted fake in tests, or alternate
record stores.

# Key Interfaces

  - ToolRunner: Executes the external optimizer binary and returns its report.
  - Analyzer: Extracts one family of structural features from a design artifact.
  - RecordStore: Persists best-known records so that they survive the process.
  - Environment: The reset/step contract consumed by policy runners and remote drivers.
  - DistributedLocker: Coordinates access to a session across replicas.
*/
package ports
