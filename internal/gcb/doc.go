// Package gcb submits compiled plans to the Cloud Build API.
//
// A plan turns into a build request carrying the plan's steps, the global
// build timeout, the shared logs bucket, and a project-flavor tag for later
// statistics queries. Extra executor options, such as the machine type, come
// from the GCB_OPTIONS environment variable.
//
// Example usage:
//
//	client, err := gcb.NewClient(ctx, gcb.DefaultBuildsProject)
//	if err != nil {
//	    return err
//	}
//
//	options, err := gcb.OptionsFromEnv()
//	if err != nil {
//	    return err
//	}
//
//	buildID, err := client.Submit(ctx, gcb.Request(p, options))
package gcb
