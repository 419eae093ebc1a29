package manifest

import (
	"context"
	"sync"

	"github.com/vk/flowgridgo/internal/ctxlog"
	"github.com/vk/flowgridgo/internal/typesys"
)

// Source is the format-specific backend a Library reads raw manifests
// from. Implementations return the typed model without cross-manifest
// validation; the Library owns caching and validation.
type Source interface {
	// Module loads the module manifest with the given identifier.
	Module(ctx context.Context, id string) (*ModuleManifest, error)
	// Pipeline loads the pipeline manifest with the given identifier.
	Pipeline(ctx context.Context, id string) (*PipelineManifest, error)
}

// Library is the process-wide manifest cache. Loads are lazy, memoized
// with single initialization per identifier, and safe for concurrent
// readers across jobs. Manifests are never mutated after loading.
type Library struct {
	source Source
	types  *typesys.Registry

	mu        sync.Mutex
	modules   map[string]*moduleEntry
	pipelines map[string]*pipelineEntry
}

type moduleEntry struct {
	once sync.Once
	m    *ModuleManifest
	err  error
}

type pipelineEntry struct {
	once sync.Once
	p    *PipelineManifest
	err  error
}

// NewLibrary creates a Library over the given source and type registry.
func NewLibrary(source Source, types *typesys.Registry) *Library {
	return &Library{
		source:    source,
		types:     types,
		modules:   make(map[string]*moduleEntry),
		pipelines: make(map[string]*pipelineEntry),
	}
}

// Types returns the type registry the library validates against.
func (l *Library) Types() *typesys.Registry { return l.types }

// Module returns the validated module manifest for id, loading it on
// first reference. Subsequent calls return the cached instance.
func (l *Library) Module(ctx context.Context, id string) (*ModuleManifest, error) {
	l.mu.Lock()
	entry, ok := l.modules[id]
	if !ok {
		entry = &moduleEntry{}
		l.modules[id] = entry
	}
	l.mu.Unlock()

	entry.once.Do(func() {
		logger := ctxlog.FromContext(ctx)
		logger.Debug("Loading module manifest.", "module", id)
		m, err := l.source.Module(ctx, id)
		if err != nil {
			entry.err = newError(id, err)
			return
		}
		if err := m.Validate(l.types); err != nil {
			entry.err = err
			return
		}
		entry.m = m
	})
	return entry.m, entry.err
}

// Pipeline returns the validated pipeline manifest for id, loading it and
// every module it references on first use. Validation failure is fatal to
// the load: no partial pipeline is ever returned.
func (l *Library) Pipeline(ctx context.Context, id string) (*PipelineManifest, error) {
	l.mu.Lock()
	entry, ok := l.pipelines[id]
	if !ok {
		entry = &pipelineEntry{}
		l.pipelines[id] = entry
	}
	l.mu.Unlock()

	entry.once.Do(func() {
		logger := ctxlog.FromContext(ctx)
		logger.Debug("Loading pipeline manifest.", "pipeline", id)
		p, err := l.source.Pipeline(ctx, id)
		if err != nil {
			entry.err = newError(id, err)
			return
		}
		modules, err := l.modulesFor(ctx, p)
		if err != nil {
			entry.err = err
			return
		}
		if err := ValidatePipeline(p, modules, l.types); err != nil {
			entry.err = err
			return
		}
		entry.p = p
	})
	return entry.p, entry.err
}

// ModulesFor returns the module manifests referenced by the pipeline,
// keyed by module identifier.
func (l *Library) ModulesFor(ctx context.Context, p *PipelineManifest) (map[string]*ModuleManifest, error) {
	return l.modulesFor(ctx, p)
}

func (l *Library) modulesFor(ctx context.Context, p *PipelineManifest) (map[string]*ModuleManifest, error) {
	modules := make(map[string]*ModuleManifest)
	for i := range p.Instances {
		id := p.Instances[i].ModuleID
		if _, done := modules[id]; done {
			continue
		}
		m, err := l.Module(ctx, id)
		if err != nil {
			return nil, err
		}
		modules[id] = m
	}
	return modules, nil
}
