package runner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gantryci/gantry/internal/ctxlog"
	"github.com/gantryci/gantry/internal/matrix"
)

// Checkout stands in for the source-checkout collaborator. Real VCS
// integration lives outside the core; this runner only ensures the working
// directory the rest of the job will run in actually exists.
type Checkout struct {
	Workdir string
}

// NewCheckout creates a checkout runner rooted at the given directory.
func NewCheckout(workdir string) *Checkout {
	return &Checkout{Workdir: workdir}
}

// Run verifies the checkout target. An optional `path` parameter selects a
// subdirectory of the working directory.
func (c *Checkout) Run(ctx context.Context, params map[string]string, _ matrix.Assignment) (string, error) {
	target := c.Workdir
	if sub := params["path"]; sub != "" {
		target = filepath.Join(c.Workdir, sub)
	}

	info, err := os.Stat(target)
	if err != nil {
		return "", fmt.Errorf("checkout target %q: %w", target, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("checkout target %q is not a directory", target)
	}

	ctxlog.FromContext(ctx).Debug("Checkout verified.", "path", target)
	return "checked out " + target, nil
}

// Toolchain stands in for the toolchain-provisioning collaborator. It
// resolves the requested channel (from the `channel` parameter, falling back
// to the matrix axis of the same name) and reports it as provisioned.
type Toolchain struct{}

// NewToolchain creates a toolchain runner.
func NewToolchain() *Toolchain {
	return &Toolchain{}
}

// Run resolves and acknowledges the toolchain channel for this instance.
func (t *Toolchain) Run(ctx context.Context, params map[string]string, assignment matrix.Assignment) (string, error) {
	channel := params["channel"]
	if channel == "" {
		channel, _ = assignment.Value("channel")
	}
	if channel == "" {
		return "", fmt.Errorf("toolchain step requires a channel parameter or a channel matrix axis")
	}

	ctxlog.FromContext(ctx).Debug("Toolchain resolved.", "channel", channel)
	return "toolchain " + channel + " ready", nil
}
