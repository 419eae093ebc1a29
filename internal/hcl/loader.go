package hcl

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/vk/flowgridgo/internal/ctxlog"
	"github.com/vk/flowgridgo/internal/fsutil"
	"github.com/vk/flowgridgo/internal/manifest"
	"github.com/vk/flowgridgo/internal/schema"
)

// manifestExtension is the file extension manifest discovery looks for.
const manifestExtension = ".hcl"

// Loader implements manifest.Source over directories of HCL files. A
// manifest's identifier is its file basename; the block label inside the
// file must agree.
type Loader struct {
	moduleFiles   map[string]string
	pipelineFiles map[string]string
}

// NewLoader indexes the given module and pipeline directories recursively.
// Files are parsed lazily, on first reference through the Library.
func NewLoader(ctx context.Context, modulesPath, pipelinesPath string) (*Loader, error) {
	logger := ctxlog.FromContext(ctx)

	moduleFiles, err := indexManifests(modulesPath)
	if err != nil {
		return nil, fmt.Errorf("indexing module manifests under %q: %w", modulesPath, err)
	}
	pipelineFiles, err := indexManifests(pipelinesPath)
	if err != nil {
		return nil, fmt.Errorf("indexing pipeline manifests under %q: %w", pipelinesPath, err)
	}
	logger.Debug("Manifest index built.",
		"modules", len(moduleFiles), "pipelines", len(pipelineFiles))

	return &Loader{moduleFiles: moduleFiles, pipelineFiles: pipelineFiles}, nil
}

// indexManifests maps manifest identifiers (file basenames) to paths.
func indexManifests(root string) (map[string]string, error) {
	index := make(map[string]string)
	if root == "" {
		return index, nil
	}
	files, err := fsutil.FindFilesByExtension(root, manifestExtension)
	if err != nil {
		return nil, err
	}
	for _, path := range files {
		id := strings.TrimSuffix(filepath.Base(path), manifestExtension)
		if prev, dup := index[id]; dup {
			return nil, fmt.Errorf("manifest id %q defined by both %q and %q", id, prev, path)
		}
		index[id] = path
	}
	return index, nil
}

// Module implements manifest.Source.
func (l *Loader) Module(ctx context.Context, id string) (*manifest.ModuleManifest, error) {
	path, ok := l.moduleFiles[id]
	if !ok {
		return nil, fmt.Errorf("module %q: %w", id, manifest.ErrNotFound)
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, diags
	}

	var mf schema.ModuleFile
	if diags := gohcl.DecodeBody(file.Body, nil, &mf); diags.HasErrors() {
		return nil, diags
	}
	if mf.Module == nil {
		return nil, fmt.Errorf("%s contains no module block", path)
	}
	if mf.Module.ID != id {
		return nil, fmt.Errorf("%s declares module %q, but the file name requires %q", path, mf.Module.ID, id)
	}
	return translateModule(mf.Module), nil
}

// Pipeline implements manifest.Source.
func (l *Loader) Pipeline(ctx context.Context, id string) (*manifest.PipelineManifest, error) {
	path, ok := l.pipelineFiles[id]
	if !ok {
		return nil, fmt.Errorf("pipeline %q: %w", id, manifest.ErrNotFound)
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, diags
	}

	var pf schema.PipelineFile
	if diags := gohcl.DecodeBody(file.Body, nil, &pf); diags.HasErrors() {
		return nil, diags
	}
	if pf.Pipeline == nil {
		return nil, fmt.Errorf("%s contains no pipeline block", path)
	}
	if pf.Pipeline.ID != id {
		return nil, fmt.Errorf("%s declares pipeline %q, but the file name requires %q", path, pf.Pipeline.ID, id)
	}
	return translatePipeline(pf.Pipeline)
}
