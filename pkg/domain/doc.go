/*
Package domain contains the core domain models for the Espalier engine.

It defines the fundamental entities of the workflow DAG, such as Nodes, Edges,
the Graph itself, and the per-run records (NodeOutcome, ExecutionResult). This
package is kept pure and free of external dependencies like I/O or transport,
following Hexagonal Architecture principles.

# Key Entities

  - Node: A unit of work wrapping one Executable capability.
  - Edge: A declared data/order dependency between two nodes.
  - Graph: The validated, acyclic collection of nodes and edges.
  - ExecutionContext: The opaque payload threaded between nodes.
  - NodeOutcome / ExecutionResult: Per-node and per-run execution records.
  - ExecutionProfile: A named bundle of retry/timeout/fail-fast settings.
*/
package domain
