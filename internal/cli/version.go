package cli

import (
	"context"
	"fmt"

	"github.com/xhanulik/oss-fuzz/internal"
)

// Represents the 'buildplan version' command.
type VersionCmd struct{}

// Executes the version command.
func (c *VersionCmd) Run(ctx context.Context) error {
	fmt.Println(internal.VersionString())
	return nil
}
