package manifest_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/flowgridgo/internal/manifest"
	"github.com/vk/flowgridgo/internal/typesys"
)

// formatModule builds a small transcoder-shaped module manifest that the
// mutation-style cases below can break one field at a time.
func formatModule() *manifest.ModuleManifest {
	fps := cty.NumberIntVal(-1)
	return &manifest.ModuleManifest{
		ID:         "format_videos",
		Executable: "format_videos",
		Inputs:     []manifest.PortSpec{{Name: "video_path", Type: "video_file", Required: true}},
		Outputs:    []manifest.PortSpec{{Name: "output_video_path", Type: "video_file"}},
		Parameters: []manifest.ParameterSpec{
			{Name: "fps", Type: "number", Default: &fps},
			{Name: "codec", Type: "string"},
		},
	}
}

func TestModuleManifest_Validate(t *testing.T) {
	t.Parallel()
	types := typesys.NewRegistry()

	require.NoError(t, formatModule().Validate(types))

	cases := []struct {
		name    string
		mutate  func(m *manifest.ModuleManifest)
		wantMsg string
	}{
		{
			name:    "missing identifier",
			mutate:  func(m *manifest.ModuleManifest) { m.ID = "" },
			wantMsg: "no identifier",
		},
		{
			name:    "missing executable",
			mutate:  func(m *manifest.ModuleManifest) { m.Executable = "" },
			wantMsg: "no executable",
		},
		{
			name: "duplicate port name across inputs and outputs",
			mutate: func(m *manifest.ModuleManifest) {
				m.Outputs = append(m.Outputs, manifest.PortSpec{Name: "video_path", Type: "video_file"})
			},
			wantMsg: "duplicate port name",
		},
		{
			name: "unknown port type tag",
			mutate: func(m *manifest.ModuleManifest) {
				m.Inputs[0].Type = "holo_video"
			},
			wantMsg: `unknown type tag "holo_video"`,
		},
		{
			name: "value tag on a port",
			mutate: func(m *manifest.ModuleManifest) {
				m.Inputs[0].Type = "string"
			},
			wantMsg: "parameter type tag",
		},
		{
			name: "duplicate parameter name",
			mutate: func(m *manifest.ModuleManifest) {
				m.Parameters = append(m.Parameters, manifest.ParameterSpec{Name: "fps", Type: "number"})
			},
			wantMsg: "duplicate parameter name",
		},
		{
			name: "artifact tag on a parameter",
			mutate: func(m *manifest.ModuleManifest) {
				m.Parameters[0].Type = "video_file"
			},
			wantMsg: "not a parameter type",
		},
		{
			name: "required parameter with a default",
			mutate: func(m *manifest.ModuleManifest) {
				m.Parameters[0].Required = true
			},
			wantMsg: "required but also carries a default",
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			m := formatModule()
			tc.mutate(m)
			err := m.Validate(types)
			require.Error(t, err)
			require.ErrorContains(t, err, tc.wantMsg)

			var merr *manifest.Error
			require.ErrorAs(t, err, &merr)
		})
	}
}

// transcodePipeline builds a two-stage pipeline over formatModule plus a
// labels renderer, for the pipeline validation cases.
func transcodePipeline() (*manifest.PipelineManifest, map[string]*manifest.ModuleManifest) {
	modules := map[string]*manifest.ModuleManifest{
		"format_videos": formatModule(),
		"visualize_labels": {
			ID:         "visualize_labels",
			Executable: "visualize_labels",
			Inputs: []manifest.PortSpec{
				{Name: "video_path", Type: "video_file", Required: true},
				{Name: "video_labels_path", Type: "video_labels", Required: true},
			},
			Outputs: []manifest.PortSpec{{Name: "output_path", Type: "video_file"}},
		},
	}

	conn := func(src, dst string) manifest.Connection {
		s, _ := manifest.ParseEndpoint(src)
		d, _ := manifest.ParseEndpoint(dst)
		return manifest.Connection{Source: s, Sink: d}
	}

	p := &manifest.PipelineManifest{
		ID:      "transcode",
		Inputs:  []string{"raw_video", "labels"},
		Outputs: []string{"annotated_video"},
		Instances: []manifest.ModuleInstance{
			{
				Name:     "formatter",
				ModuleID: "format_videos",
				Tunable:  []string{"fps"},
				Set:      map[string]cty.Value{"codec": cty.StringVal("h264")},
			},
			{Name: "visualizer", ModuleID: "visualize_labels"},
		},
		Connections: []manifest.Connection{
			conn("INPUT.raw_video", "formatter.video_path"),
			conn("INPUT.labels", "visualizer.video_labels_path"),
			conn("formatter.output_video_path", "visualizer.video_path"),
			conn("visualizer.output_path", "OUTPUT.annotated_video"),
		},
	}
	return p, modules
}

func TestValidatePipeline(t *testing.T) {
	t.Parallel()
	types := typesys.NewRegistry()

	p, modules := transcodePipeline()
	require.NoError(t, manifest.ValidatePipeline(p, modules, types))

	cases := []struct {
		name    string
		mutate  func(p *manifest.PipelineManifest)
		wantMsg string
	}{
		{
			name:    "reserved instance name",
			mutate:  func(p *manifest.PipelineManifest) { p.Instances[0].Name = "INPUT" },
			wantMsg: "reserved",
		},
		{
			name:    "duplicate instance name",
			mutate:  func(p *manifest.PipelineManifest) { p.Instances[1].Name = "formatter" },
			wantMsg: "duplicate instance name",
		},
		{
			name:    "unknown module reference",
			mutate:  func(p *manifest.PipelineManifest) { p.Instances[0].ModuleID = "no_such_module" },
			wantMsg: `unknown module "no_such_module"`,
		},
		{
			name:    "duplicate boundary name",
			mutate:  func(p *manifest.PipelineManifest) { p.Outputs = append(p.Outputs, "raw_video") },
			wantMsg: "duplicate pipeline output",
		},
		{
			name:    "tunable parameter does not exist",
			mutate:  func(p *manifest.PipelineManifest) { p.Instances[0].Tunable = []string{"bitrate"} },
			wantMsg: `tunable parameter "bitrate"`,
		},
		{
			name: "set parameter does not exist",
			mutate: func(p *manifest.PipelineManifest) {
				p.Instances[0].Set = map[string]cty.Value{"bitrate": cty.NumberIntVal(5)}
			},
			wantMsg: `set parameter "bitrate"`,
		},
		{
			name: "parameter both set and tunable",
			mutate: func(p *manifest.PipelineManifest) {
				p.Instances[0].Tunable = append(p.Instances[0].Tunable, "codec")
			},
			wantMsg: "both set and tunable",
		},
		{
			name: "sink bound twice",
			mutate: func(p *manifest.PipelineManifest) {
				p.Connections = append(p.Connections, p.Connections[2])
			},
			wantMsg: "more than one connection",
		},
		{
			name: "OUTPUT as a source",
			mutate: func(p *manifest.PipelineManifest) {
				p.Connections[0].Source = manifest.Endpoint{Owner: manifest.PipelineOutput, Port: "annotated_video"}
			},
			wantMsg: "cannot be used as a connection source",
		},
		{
			name: "INPUT as a sink",
			mutate: func(p *manifest.PipelineManifest) {
				p.Connections[3].Sink = manifest.Endpoint{Owner: manifest.PipelineInput, Port: "raw_video"}
			},
			wantMsg: "cannot be used as a connection sink",
		},
		{
			name: "input boundary wired straight to output boundary",
			mutate: func(p *manifest.PipelineManifest) {
				p.Connections = append(p.Connections, manifest.Connection{
					Source: manifest.Endpoint{Owner: manifest.PipelineInput, Port: "raw_video"},
					Sink:   manifest.Endpoint{Owner: manifest.PipelineOutput, Port: "annotated_video"},
				})
			},
			wantMsg: "route it through a module instance",
		},
		{
			name: "undeclared pipeline input",
			mutate: func(p *manifest.PipelineManifest) {
				p.Connections[0].Source.Port = "missing_input"
			},
			wantMsg: "undeclared pipeline input",
		},
		{
			name: "undeclared pipeline output",
			mutate: func(p *manifest.PipelineManifest) {
				p.Connections[3].Sink.Port = "missing_output"
			},
			wantMsg: "undeclared pipeline output",
		},
		{
			name: "unknown instance in connection",
			mutate: func(p *manifest.PipelineManifest) {
				p.Connections[2].Source.Owner = "ghost"
			},
			wantMsg: `unknown instance "ghost"`,
		},
		{
			name: "no such output port",
			mutate: func(p *manifest.PipelineManifest) {
				p.Connections[2].Source.Port = "no_such_port"
			},
			wantMsg: "has no output port",
		},
		{
			name: "no such input port",
			mutate: func(p *manifest.PipelineManifest) {
				p.Connections[2].Sink.Port = "no_such_port"
			},
			wantMsg: "has no input port",
		},
		{
			name: "incompatible connection types",
			mutate: func(p *manifest.PipelineManifest) {
				// Wire the formatter's video output into the labels sink.
				p.Connections[1].Source = manifest.Endpoint{Owner: "formatter", Port: "output_video_path"}
			},
			wantMsg: "cannot feed a sink",
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			p, modules := transcodePipeline()
			tc.mutate(p)
			err := manifest.ValidatePipeline(p, modules, types)
			require.Error(t, err)
			require.ErrorContains(t, err, tc.wantMsg)
		})
	}
}
