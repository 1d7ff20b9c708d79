package procfile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/oac-tree/oac-tree-gui-sub008/internal/ctxlog"
	"github.com/oac-tree/oac-tree-gui-sub008/internal/model"
)

// Loader reads procedures from .hcl files.
type Loader struct {
	parser *hclparse.Parser
}

func NewLoader() *Loader {
	return &Loader{parser: hclparse.NewParser()}
}

// Load parses every .hcl file found in paths, which may be files or
// directories, and returns the procedures in file order. Procedure names
// must be unique across all files.
func (l *Loader) Load(ctx context.Context, paths ...string) ([]*model.ProcedureItem, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Procedure loader started.", "path_count", len(paths))

	files, err := findAllHCLFiles(paths)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .hcl files found in %v", paths)
	}
	logger.Debug("Discovered HCL files.", "count", len(files))

	var procs []*model.ProcedureItem
	for _, file := range files {
		hclFile, diags := l.parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}
		found, err := l.decode(ctx, file, hclFile)
		if err != nil {
			return nil, err
		}
		procs = append(procs, found...)
	}
	if err := checkUnique(procs); err != nil {
		return nil, err
	}
	logger.Debug("Procedure loading complete.", "procedures", len(procs))
	return procs, nil
}

// Parse decodes procedures from HCL source. filename is used in
// diagnostics only.
func (l *Loader) Parse(ctx context.Context, filename string, src []byte) ([]*model.ProcedureItem, error) {
	hclFile, diags := l.parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", filename, diags)
	}
	procs, err := l.decode(ctx, filename, hclFile)
	if err != nil {
		return nil, err
	}
	if err := checkUnique(procs); err != nil {
		return nil, err
	}
	return procs, nil
}

func (l *Loader) decode(ctx context.Context, file string, hclFile *hcl.File) ([]*model.ProcedureItem, error) {
	var root fileRoot
	if diags := gohcl.DecodeBody(hclFile.Body, nil, &root); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", file, diags)
	}
	procs := make([]*model.ProcedureItem, 0, len(root.Procedures))
	for _, b := range root.Procedures {
		proc, err := translateProcedure(ctx, b)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", file, err)
		}
		procs = append(procs, proc)
	}
	return procs, nil
}

func checkUnique(procs []*model.ProcedureItem) error {
	seen := make(map[string]struct{}, len(procs))
	for _, p := range procs {
		if _, dup := seen[p.Name()]; dup {
			return fmt.Errorf("duplicate procedure %q", p.Name())
		}
		seen[p.Name()] = struct{}{}
	}
	return nil
}

// Find returns the procedure called name. An empty name selects the only
// procedure when there is exactly one.
func Find(procs []*model.ProcedureItem, name string) (*model.ProcedureItem, error) {
	if name == "" {
		if len(procs) == 1 {
			return procs[0], nil
		}
		return nil, fmt.Errorf("%d procedures loaded, a procedure name is required", len(procs))
	}
	for _, p := range procs {
		if p.Name() == name {
			return p, nil
		}
	}
	return nil, fmt.Errorf("procedure %q not found", name)
}

// findAllHCLFiles walks all given paths and returns a flat list of all .hcl
// files found.
func findAllHCLFiles(paths []string) ([]string, error) {
	var allFiles []string
	seen := make(map[string]struct{})
	add := func(p string) {
		if _, wasSeen := seen[p]; !wasSeen {
			allFiles = append(allFiles, p)
			seen[p] = struct{}{}
		}
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("error accessing path %s: %w", path, err)
		}
		if !info.IsDir() {
			if filepath.Ext(path) == ".hcl" {
				add(path)
			}
			continue
		}
		err = filepath.Walk(path, func(p string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if !info.IsDir() && filepath.Ext(p) == ".hcl" {
				add(p)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return allFiles, nil
}
