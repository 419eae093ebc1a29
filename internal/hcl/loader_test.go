package hcl_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	loader "github.com/vk/flowgridgo/internal/hcl"
	"github.com/vk/flowgridgo/internal/manifest"
	"github.com/vk/flowgridgo/internal/testutil"
)

// writeTree lays out manifest files under a fresh temp dir and returns the
// modules and pipelines roots.
func writeTree(t *testing.T, files map[string]string) (modulesPath, pipelinesPath string) {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "modules"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "pipelines"), 0o755))
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return filepath.Join(root, "modules"), filepath.Join(root, "pipelines")
}

func TestLoader_Module(t *testing.T) {
	t.Parallel()
	modules, pipelines := writeTree(t, map[string]string{
		"modules/format_videos.hcl": testutil.ModuleFormatVideos,
	})

	l, err := loader.NewLoader(context.Background(), modules, pipelines)
	require.NoError(t, err)

	m, err := l.Module(context.Background(), "format_videos")
	require.NoError(t, err)
	require.Equal(t, "format_videos", m.ID)
	require.Equal(t, "format_videos", m.Executable)

	in, ok := m.Input("video_path")
	require.True(t, ok)
	require.Equal(t, "video_file", in.Type)
	require.True(t, in.Required)

	out, ok := m.Output("output_video_path")
	require.True(t, ok)
	require.Equal(t, "video_file", out.Type)

	fps, ok := m.Parameter("fps")
	require.True(t, ok)
	require.NotNil(t, fps.Default)
	require.True(t, fps.Default.RawEquals(cty.NumberIntVal(-1)))

	size, ok := m.Parameter("size")
	require.True(t, ok)
	require.NotNil(t, size.Default)
	require.True(t, size.Default.Type().IsTupleType())
}

func TestLoader_Pipeline(t *testing.T) {
	t.Parallel()
	modules, pipelines := writeTree(t, map[string]string{
		"pipelines/transcode.hcl": testutil.PipelineTranscode,
	})

	l, err := loader.NewLoader(context.Background(), modules, pipelines)
	require.NoError(t, err)

	p, err := l.Pipeline(context.Background(), "transcode")
	require.NoError(t, err)
	require.Equal(t, []string{"raw_video", "labels"}, p.Inputs)
	require.Equal(t, []string{"annotated_video"}, p.Outputs)
	require.Len(t, p.Instances, 2)
	require.Len(t, p.Connections, 4)

	formatter, ok := p.Instance("formatter")
	require.True(t, ok)
	require.Equal(t, "format_videos", formatter.ModuleID)
	require.Equal(t, []string{"fps"}, formatter.Tunable)
	require.True(t, formatter.Set["scale"].RawEquals(cty.NumberFloatVal(0.5)))

	require.Equal(t, manifest.Endpoint{Owner: "INPUT", Port: "raw_video"}, p.Connections[0].Source)
	require.Equal(t, manifest.Endpoint{Owner: "formatter", Port: "video_path"}, p.Connections[0].Sink)
	require.Equal(t, manifest.Endpoint{Owner: "OUTPUT", Port: "annotated_video"}, p.Connections[3].Sink)
}

func TestLoader_UnknownManifest(t *testing.T) {
	t.Parallel()
	modules, pipelines := writeTree(t, map[string]string{
		"modules/format_videos.hcl": testutil.ModuleFormatVideos,
	})

	l, err := loader.NewLoader(context.Background(), modules, pipelines)
	require.NoError(t, err)

	_, err = l.Module(context.Background(), "no_such_module")
	require.ErrorIs(t, err, manifest.ErrNotFound)

	_, err = l.Pipeline(context.Background(), "no_such_pipeline")
	require.ErrorIs(t, err, manifest.ErrNotFound)
}

func TestLoader_LabelMustMatchFilename(t *testing.T) {
	t.Parallel()
	modules, pipelines := writeTree(t, map[string]string{
		// File is named wrong.hcl but declares module "format_videos".
		"modules/wrong.hcl": testutil.ModuleFormatVideos,
	})

	l, err := loader.NewLoader(context.Background(), modules, pipelines)
	require.NoError(t, err)

	_, err = l.Module(context.Background(), "wrong")
	require.ErrorContains(t, err, `declares module "format_videos"`)
}

func TestLoader_DuplicateIdentifiers(t *testing.T) {
	t.Parallel()
	modules, pipelines := writeTree(t, map[string]string{
		"modules/format_videos.hcl":        testutil.ModuleFormatVideos,
		"modules/legacy/format_videos.hcl": testutil.ModuleFormatVideos,
	})

	_, err := loader.NewLoader(context.Background(), modules, pipelines)
	require.ErrorContains(t, err, `manifest id "format_videos" defined by both`)
}

func TestLoader_MalformedHCL(t *testing.T) {
	t.Parallel()
	modules, pipelines := writeTree(t, map[string]string{
		"modules/broken.hcl": `module "broken" { executable = `,
	})

	l, err := loader.NewLoader(context.Background(), modules, pipelines)
	require.NoError(t, err, "parse errors surface on reference, not indexing")

	_, err = l.Module(context.Background(), "broken")
	require.Error(t, err)
}

func TestLoader_MissingDirectoriesAreEmpty(t *testing.T) {
	t.Parallel()
	// Empty roots index nothing rather than failing, so a modules-only
	// deployment can omit the pipelines flag entirely.
	l, err := loader.NewLoader(context.Background(), "", "")
	require.NoError(t, err)

	_, err = l.Module(context.Background(), "anything")
	require.ErrorIs(t, err, manifest.ErrNotFound)
}
