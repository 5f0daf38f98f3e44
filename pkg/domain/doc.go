/*
Package domain contains the core domain models of the drills optimization environment.

It defines the entities shared by the session, the reward model and the adapters:
the transformation catalog, metric snapshots, observations and best-known records.
This package is kept pure and free of external dependencies like I/O or process
execution, following Hexagonal Architecture principles.

# Key Entities

  - Catalog: Ordered, immutable list of transformations exposed to an agent as indices.
  - Metrics: Snapshot of the optimized and constrained metrics reported after one run.
  - Observation: Structural features of a design artifact, exposed as a fixed-size vector.
  - Record: Best-known (optimization, constraint, episode, iteration) tuple.
*/
package domain
