// Package plan compiles project build descriptors into Cloud Build step
// plans.
//
// A plan is the ordered step list that builds one project for one flavor.
// Fuzzing plans carry one step chain per supported engine, sanitizer, and
// architecture combination; coverage plans carry a single chain. Steps hold
// identifiers and wait-for edges, so an executor that understands them runs
// independent chains in parallel, while one that ignores them still gets a
// valid total order.
//
// Compilation is deterministic: the inputs are the descriptor, an injected
// clock, and pre-signed artifact addresses. An empty plan means "skip this
// project" and is never an error, so batch callers keep going.
//
// Example usage:
//
//	compiler := plan.New(plan.Options{
//	    ProjectsRoot: "projects",
//	    Signer:       signer,
//	    Corpora:      provider,
//	})
//
//	plans, err := compiler.Fuzzing(ctx, "libxml2", "zlib")
//	if err != nil {
//	    return err
//	}
package plan
