// Package trigger serves build requests over HTTP.
//
// One request compiles one project for one flavor, submits the plan, and
// records the returned build id in the history ledger. Projects the
// compiler skips answer 204 and nothing is submitted. The service also
// exposes recorded build history, a health probe, and Prometheus metrics.
//
// Example usage:
//
//	srv, err := trigger.New(trigger.Config{
//	    Compiler:  compiler,
//	    Submitter: client,
//	    Ledger:    db,
//	})
//	if err != nil {
//	    return err
//	}
//
//	if err := srv.Start(); err != nil {
//	    return err
//	}
//	defer srv.Stop()
//
//	srv.Wait()
package trigger
