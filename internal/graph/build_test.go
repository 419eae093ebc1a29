package graph_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vk/flowgridgo/internal/graph"
	"github.com/vk/flowgridgo/internal/job"
	"github.com/vk/flowgridgo/internal/manifest"
)

// stageModule is a single-input single-output video stage, the smallest
// building block for graph shapes.
func stageModule() *manifest.ModuleManifest {
	return &manifest.ModuleManifest{
		ID:         "stage",
		Executable: "stage",
		Inputs:     []manifest.PortSpec{{Name: "in", Type: "video_file", Required: true}},
		Outputs:    []manifest.PortSpec{{Name: "out", Type: "video_file"}},
	}
}

func conn(src, dst string) manifest.Connection {
	s, err := manifest.ParseEndpoint(src)
	if err != nil {
		panic(err)
	}
	d, err := manifest.ParseEndpoint(dst)
	if err != nil {
		panic(err)
	}
	return manifest.Connection{Source: s, Sink: d}
}

// diamondPipeline wires x into y and w, and y into z:
//
//	INPUT -> x -> y -> z -> OUTPUT
//	          \-> w ------> OUTPUT
func diamondPipeline() *manifest.PipelineManifest {
	return &manifest.PipelineManifest{
		ID:      "diamond",
		Inputs:  []string{"src"},
		Outputs: []string{"from_z", "from_w"},
		Instances: []manifest.ModuleInstance{
			{Name: "x", ModuleID: "stage"},
			{Name: "y", ModuleID: "stage"},
			{Name: "z", ModuleID: "stage"},
			{Name: "w", ModuleID: "stage"},
		},
		Connections: []manifest.Connection{
			conn("INPUT.src", "x.in"),
			conn("x.out", "y.in"),
			conn("x.out", "w.in"),
			conn("y.out", "z.in"),
			conn("z.out", "OUTPUT.from_z"),
			conn("w.out", "OUTPUT.from_w"),
		},
	}
}

func diamondRequest() *job.Request {
	return &job.Request{
		Pipeline: "diamond",
		Inputs:   map[string]string{"src": "/data/in.mp4"},
		Outputs:  map[string]string{"from_z": "/data/z.mp4", "from_w": "/data/w.mp4"},
	}
}

func modulesByID() map[string]*manifest.ModuleManifest {
	return map[string]*manifest.ModuleManifest{"stage": stageModule()}
}

func TestBuild_Diamond(t *testing.T) {
	t.Parallel()

	g, err := graph.Build(context.Background(), diamondPipeline(), modulesByID(), diamondRequest())
	require.NoError(t, err)

	// 4 instances plus the synthetic boundary nodes.
	require.Len(t, g.Nodes, 6)
	require.Len(t, g.InstanceNodes(), 4)
	require.Len(t, g.Edges, 6)

	x := g.Nodes["x"]
	require.NotNil(t, x)
	require.False(t, x.Synthetic())
	require.Contains(t, x.Preds, "INPUT")
	require.Contains(t, x.Succs, "y")
	require.Contains(t, x.Succs, "w")

	require.True(t, g.Input.Synthetic())
	require.Empty(t, g.Input.Preds)
	require.Empty(t, g.Output.Succs)
	require.Contains(t, g.Output.Preds, "z")
	require.Contains(t, g.Output.Preds, "w")
}

func TestBuild_CycleDetection(t *testing.T) {
	t.Parallel()

	p := &manifest.PipelineManifest{
		ID: "loop",
		Instances: []manifest.ModuleInstance{
			{Name: "a", ModuleID: "stage"},
			{Name: "b", ModuleID: "stage"},
		},
		Connections: []manifest.Connection{
			conn("a.out", "b.in"),
			conn("b.out", "a.in"),
		},
	}
	req := &job.Request{Pipeline: "loop"}

	_, err := graph.Build(context.Background(), p, modulesByID(), req)
	require.Error(t, err)

	var cycle *graph.CycleError
	require.ErrorAs(t, err, &cycle)
	// The reported sequence closes on itself and names both members.
	require.GreaterOrEqual(t, len(cycle.Nodes), 3)
	require.Equal(t, cycle.Nodes[0], cycle.Nodes[len(cycle.Nodes)-1])
	require.Subset(t, cycle.Nodes, []string{"a", "b"})
	require.Contains(t, err.Error(), " -> ")
}

func TestBuild_RequiredInputUnbound(t *testing.T) {
	t.Parallel()

	p := diamondPipeline()
	// Drop the edge feeding w.
	p.Connections = append(p.Connections[:2], p.Connections[3:]...)

	_, err := graph.Build(context.Background(), p, modulesByID(), diamondRequest())
	require.ErrorContains(t, err, "required input w.in is not connected")
}

func TestBuild_PortDefaultSatisfiesRequiredInput(t *testing.T) {
	t.Parallel()

	modules := modulesByID()
	modules["stage"].Inputs[0].Default = "/defaults/stock.mp4"

	p := diamondPipeline()
	p.Connections = append(p.Connections[:2], p.Connections[3:]...)

	_, err := graph.Build(context.Background(), p, modules, diamondRequest())
	require.NoError(t, err)
}

func TestBuild_RequestBindings(t *testing.T) {
	t.Parallel()

	req := diamondRequest()
	delete(req.Inputs, "src")
	_, err := graph.Build(context.Background(), diamondPipeline(), modulesByID(), req)
	require.ErrorContains(t, err, `binds no path for pipeline input "src"`)

	req = diamondRequest()
	req.Inputs["mystery"] = "/data/extra.mp4"
	_, err = graph.Build(context.Background(), diamondPipeline(), modulesByID(), req)
	require.ErrorContains(t, err, `binds unknown pipeline input "mystery"`)

	req = diamondRequest()
	delete(req.Outputs, "from_w")
	_, err = graph.Build(context.Background(), diamondPipeline(), modulesByID(), req)
	require.ErrorContains(t, err, `binds no path for pipeline output "from_w"`)
}

func TestBuild_UnproducedOutput(t *testing.T) {
	t.Parallel()

	p := diamondPipeline()
	// Remove the connection producing from_w; the declared output dangles.
	p.Connections = p.Connections[:5]

	_, err := graph.Build(context.Background(), p, modulesByID(), diamondRequest())
	require.ErrorContains(t, err, `output "from_w" must have exactly one inbound connection, got 0`)
}

func TestNode_StateMachine(t *testing.T) {
	t.Parallel()

	g, err := graph.Build(context.Background(), diamondPipeline(), modulesByID(), diamondRequest())
	require.NoError(t, err)

	n := g.Nodes["y"]
	require.Equal(t, graph.Pending, n.State())
	n.SetState(graph.Running)
	require.Equal(t, "running", n.State().String())

	n.InitCounters()
	require.Equal(t, int32(0), n.PredDone(), "y waits on x alone")

	calls := 0
	n.Once(func() { calls++ })
	n.Once(func() { calls++ })
	require.Equal(t, 1, calls)
}
