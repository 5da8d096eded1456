// Package hcl loads workflow documents written in HCL and translates them
// into the format-agnostic workflow model.
package hcl

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/gantryci/gantry/internal/ctxlog"
	"github.com/gantryci/gantry/internal/workflow"
)

// Loader errors. They are fatal build-time errors, like graph validation.
var (
	// ErrNoWorkflow — no workflow block found at the given path.
	ErrNoWorkflow = errors.New("no workflow definition found")

	// ErrMultipleWorkflows — more than one workflow block found; a run
	// executes exactly one workflow.
	ErrMultipleWorkflows = errors.New("multiple workflow definitions found")

	// ErrMissingOn — the workflow declares no trigger rules.
	ErrMissingOn = errors.New("workflow has no on block")

	// ErrDuplicateAxis — a matrix declares the same axis twice.
	ErrDuplicateAxis = errors.New("duplicate matrix axis")
)

// Loader parses HCL workflow files.
type Loader struct{}

// NewLoader creates a new HCL workflow loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load reads the workflow definition from the given path (a single .hcl
// file or a directory of them) and returns the translated spec. Exactly one
// workflow block must be present across all files.
func (l *Loader) Load(ctx context.Context, path string) (*workflow.Spec, error) {
	logger := ctxlog.FromContext(ctx)

	files, err := findHCLFiles(path)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w at %s", ErrNoWorkflow, path)
	}
	logger.Debug("Discovered workflow files.", "count", len(files))

	parser := hclparse.NewParser()
	var blocks []*workflowBlock

	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse %s: %w", file, diags)
		}

		var root fileRoot
		if diags := gohcl.DecodeBody(hclFile.Body, nil, &root); diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode %s: %w", file, diags)
		}
		blocks = append(blocks, root.Workflows...)
	}

	switch len(blocks) {
	case 0:
		return nil, fmt.Errorf("%w at %s", ErrNoWorkflow, path)
	case 1:
		// exactly one, as required
	default:
		return nil, fmt.Errorf("%w at %s (%d)", ErrMultipleWorkflows, path, len(blocks))
	}

	spec, err := translate(blocks[0])
	if err != nil {
		return nil, err
	}
	logger.Debug("Workflow loaded.", "name", spec.Name, "jobs", len(spec.Jobs))
	return spec, nil
}

// findHCLFiles resolves a path to the list of .hcl files it names: the file
// itself, or every .hcl file under a directory, in walk order.
func findHCLFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("error accessing path %s: %w", path, err)
	}

	if !info.IsDir() {
		return []string{path}, nil
	}

	var files []string
	err = filepath.Walk(path, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(p) == ".hcl" {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}
