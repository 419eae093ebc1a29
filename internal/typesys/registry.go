package typesys

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"
)

// Kind classifies what a type tag describes on disk or in a config.
type Kind int

const (
	// KindFile tags name a single file artifact.
	KindFile Kind = iota
	// KindDirectory tags name a directory artifact.
	KindDirectory
	// KindValue tags name in-config parameter values, never artifacts.
	KindValue
)

// Spec describes a single registered type tag.
type Spec struct {
	Tag  string
	Kind Kind
	// Element names the per-item tag for sequence and directory types.
	// Empty for scalar types.
	Element string
	// Sequence marks file-pattern types that address one file per item,
	// e.g. an image sequence pattern like "%05d.png".
	Sequence bool
	// Generic marks the "file" and "directory" supertypes that every
	// concrete tag of the matching kind specializes.
	Generic bool
	// Cty is the value type for KindValue tags.
	Cty cty.Type
}

// MismatchError reports a connection between incompatible port types.
type MismatchError struct {
	Source string
	Sink   string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("type %q cannot feed a sink of type %q", e.Source, e.Sink)
}

// UnknownTagError reports a manifest referencing a type tag that was never
// registered.
type UnknownTagError struct {
	Tag string
}

func (e *UnknownTagError) Error() string {
	return fmt.Sprintf("unknown type tag %q", e.Tag)
}

// Registry resolves and compares type tags. A Registry is immutable after
// construction and safe for concurrent readers.
type Registry struct {
	specs map[string]Spec
}

// NewRegistry returns a Registry populated with the built-in analytics
// type vocabulary.
func NewRegistry() *Registry {
	r := &Registry{specs: make(map[string]Spec)}
	for _, s := range builtins {
		r.specs[s.Tag] = s
	}
	return r
}

// builtins is the standard tag vocabulary. Artifact tags follow the data
// shapes the module executables exchange; value tags type parameters.
var builtins = []Spec{
	// Generic supertypes.
	{Tag: "file", Kind: KindFile, Generic: true},
	{Tag: "directory", Kind: KindDirectory, Generic: true},

	// Media files.
	{Tag: "video", Kind: KindFile},
	{Tag: "video_file", Kind: KindFile},
	{Tag: "image", Kind: KindFile},
	{Tag: "zip_file", Kind: KindFile},

	// Sequences: printf-style file patterns, one file per item.
	{Tag: "image_sequence", Kind: KindFile, Element: "image", Sequence: true},
	{Tag: "video_file_sequence", Kind: KindFile, Element: "video_file", Sequence: true},

	// Directories of homogeneous items.
	{Tag: "image_file_directory", Kind: KindDirectory, Element: "image"},
	{Tag: "image_sequence_directory", Kind: KindDirectory, Element: "image"},
	{Tag: "video_file_directory", Kind: KindDirectory, Element: "video_file"},

	// Label documents.
	{Tag: "video_labels", Kind: KindFile},
	{Tag: "image_labels", Kind: KindFile},
	{Tag: "image_set_labels", Kind: KindFile},
	{Tag: "json_file", Kind: KindFile},

	// Parameter value types.
	{Tag: "string", Kind: KindValue, Cty: cty.String},
	{Tag: "number", Kind: KindValue, Cty: cty.Number},
	{Tag: "bool", Kind: KindValue, Cty: cty.Bool},
	{Tag: "array", Kind: KindValue, Cty: cty.DynamicPseudoType},
	{Tag: "object", Kind: KindValue, Cty: cty.DynamicPseudoType},
	// Model references ("name@version"), resolved by the model store.
	{Tag: "model", Kind: KindValue, Cty: cty.String},
}

// Lookup returns the Spec for a tag, if registered.
func (r *Registry) Lookup(tag string) (Spec, bool) {
	s, ok := r.specs[tag]
	return s, ok
}

// Known reports whether the tag is registered.
func (r *Registry) Known(tag string) bool {
	_, ok := r.specs[tag]
	return ok
}

// IsValue reports whether the tag names a parameter value type rather than
// an artifact type.
func (r *Registry) IsValue(tag string) bool {
	s, ok := r.specs[tag]
	return ok && s.Kind == KindValue
}

// CtyType returns the cty value type for a parameter tag.
func (r *Registry) CtyType(tag string) (cty.Type, bool) {
	s, ok := r.specs[tag]
	if !ok || s.Kind != KindValue {
		return cty.NilType, false
	}
	return s.Cty, true
}

// Compatible reports whether data produced with the source tag may feed a
// sink declared with the sink tag. The rules, in order:
//
//  1. Identical tags are always compatible.
//  2. A directory of T may feed a sequence-of-T sink: the consumer walks
//     the directory in pattern order.
//  3. Any concrete tag may feed the generic supertype of its kind
//     ("file" or "directory").
//
// A nil return means compatible; otherwise the error is a *MismatchError
// (or *UnknownTagError if either tag is unregistered).
func (r *Registry) Compatible(source, sink string) error {
	src, ok := r.specs[source]
	if !ok {
		return &UnknownTagError{Tag: source}
	}
	dst, ok := r.specs[sink]
	if !ok {
		return &UnknownTagError{Tag: sink}
	}

	if src.Kind == KindValue || dst.Kind == KindValue {
		if source == sink {
			return nil
		}
		return &MismatchError{Source: source, Sink: sink}
	}

	if source == sink {
		return nil
	}
	if src.Kind == KindDirectory && dst.Sequence && src.Element == dst.Element && src.Element != "" {
		return nil
	}
	if dst.Generic && src.Kind == dst.Kind {
		return nil
	}

	return &MismatchError{Source: source, Sink: sink}
}
