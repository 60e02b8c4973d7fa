/*
Package ports defines the driven ports (interfaces) for the Espalier engine.

These interfaces decouple the core scheduler from external implementations,
allowing pipelines to be defined declaratively, capabilities to be supplied by
any host, and task dispatch to be bounded or instrumented.

# Key Interfaces

  - PipelineLoader: Builds a ready domain.Graph from a declarative source.
  - Dispatcher: Submits node tasks for execution (goroutines, worker pools).
*/
package ports
