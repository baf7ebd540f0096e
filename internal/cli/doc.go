// Parses flags and dispatches the buildplan subcommands.
//
// The tool accepts the following global flags:
//
//	-q, --quiet                Suppress informational output.
//	-v, --verbose              Enable verbose output.
//	-d, --debug                Enable debug output.
//	    --projects             Directory holding one subdirectory per project.
//	    --registry-project     Cloud project namespacing the per-project images.
//	    --base-images-project  Cloud project namespacing the base images.
//
// Flags override build-time defaults set via linker flags. After parsing, the
// global logger is reconfigured to reflect the final level and verbosity before
// the selected command runs.
package cli
