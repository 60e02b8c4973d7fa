// Package espalier executes workflows of cooperating agents as directed
// acyclic graphs. Nodes carry an executable capability; edges declare data
// dependencies. The engine runs every ready node concurrently, merges
// predecessor outputs into successor inputs, and applies a named execution
// profile for retries, timeouts and failure policy.
//
// The zero-config path:
//
//	eng := espalier.New()
//	defer eng.Close()
//
//	g := domain.NewGraph()
//	g.AddNode("fetch", fetchAgent, nil)
//	g.AddNode("score", scoreAgent, nil)
//	g.AddEdge("fetch", "score")
//
//	result, err := eng.Execute(ctx, g, domain.NewExecutionContext())
//
// Declarative pipelines load through pkg/adapters/yamlpipeline and bind to
// capabilities registered in pkg/registry.
package espalier
