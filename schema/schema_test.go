package schema_test

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/juju/errors"
	"github.com/rdx-aegse/yamcs-link/schema"
	"github.com/rdx-aegse/yamcs-link/tree"
	"github.com/rdx-aegse/yamcs-link/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildTree(t testing.TB) *tree.Tree {
	mode := wire.MustEnum("Mode", wire.KindU8,
		wire.EnumValue{Name: "SAFE", Value: 0},
		wire.EnumValue{Name: "NOMINAL", Value: 1})
	level := wire.MustEnum("Level", wire.KindI16,
		wire.EnumValue{Name: "LOW", Value: -1},
		wire.EnumValue{Name: "HIGH", Value: 1})
	nop := func(context.Context, wire.Args) (interface{}, error) { return uint8(0), nil }

	tr := tree.New("sat")
	power := tree.NewNode("power")
	adcs := tree.NewNode("adcs")
	require.NoError(t, tr.RegisterChild(tr.Root(), power))
	require.NoError(t, tr.RegisterChild(tr.Root(), adcs))

	voltage := tree.Telemetry0(0, "voltage", wire.F32, func() interface{} { return 3.3 })
	voltage.Period = time.Second
	voltage.Description = "bus voltage"
	require.NoError(t, tr.AddTelemetry(power, voltage))
	current := tree.Telemetry0(2, "current", wire.U16, func() interface{} { return 1 })
	current.Period = 100 * time.Millisecond
	require.NoError(t, tr.AddTelemetry(power, current))
	modeTM := tree.Telemetry0(1, "mode", mode.Type(), func() interface{} { return "SAFE" })
	modeTM.Period = 100 * time.Millisecond
	require.NoError(t, tr.AddTelemetry(adcs, modeTM))

	require.NoError(t, tr.AddCommand(power, &tree.Command{ID: 0, Name: "reset", Return: wire.Void, Handler: nop}))
	require.NoError(t, tr.AddCommand(adcs, &tree.Command{
		ID:   1,
		Name: "set_mode",
		Args: []tree.Arg{
			{Name: "mode", Type: mode.Type()},
			{Name: "gain", Type: wire.F32, Min: tree.Bound(0), Max: tree.Bound(2.5)},
			{Name: "level", Type: level.Type()},
		},
		Return:  wire.U8,
		Handler: nop,
	}))
	return tr
}

func TestGenerate(t *testing.T) {
	t.Parallel()

	doc, err := schema.Generate(buildTree(t), schema.Options{Version: "1.0", ByPeriod: true})
	require.NoError(t, err)
	assert.Equal(t, "sat", doc.Name)
	assert.Equal(t, []schema.Container{
		{Name: "sat"},
		{Name: "sat.power", Parent: "sat"},
		{Name: "sat.adcs", Parent: "sat"},
	}, doc.Containers)

	require.Len(t, doc.Packets, 2)
	assert.Equal(t, schema.Packet{
		ID: 0, Name: "tm-sat-100ms", PeriodMs: 100, Size: 3,
		Parameters: []string{"sat.power.current", "sat.adcs.mode"},
	}, doc.Packets[0])
	assert.Equal(t, "tm-sat-1000ms", doc.Packets[1].Name)
	assert.Equal(t, 1, doc.Packets[1].ID)

	require.Len(t, doc.Parameters, 3)
	mode := doc.Parameters[1]
	assert.Equal(t, "sat.adcs.mode", mode.Name)
	assert.Equal(t, "sat.adcs", mode.Container)
	assert.Equal(t, "Mode", mode.Type)
	assert.Equal(t, 2, mode.Offset)
	assert.Equal(t, "bus voltage", doc.Parameters[2].Description)

	require.Len(t, doc.Commands, 2)
	assert.Equal(t, "sat.power.reset", doc.Commands[0].Name)
	assert.Equal(t, "void", doc.Commands[0].Return)
	setMode := doc.Commands[1]
	assert.Equal(t, 1, setMode.ID)
	assert.Equal(t, "U8", setMode.Return)
	require.Len(t, setMode.Args, 3)
	assert.Equal(t, 2.5, *setMode.Args[1].Max)

	require.Len(t, doc.Enums, 2)
	assert.Equal(t, "Level", doc.Enums[0].Name)
	assert.Equal(t, "I16", doc.Enums[0].Width)
	assert.Equal(t, "Mode", doc.Enums[1].Name)
	assert.Equal(t, []schema.EnumMember{{Name: "SAFE", Value: 0}, {Name: "NOMINAL", Value: 1}}, doc.Enums[1].Members)
}

func TestGenerateSinglePacketWithHeader(t *testing.T) {
	t.Parallel()

	doc, err := schema.Generate(buildTree(t), schema.Options{TickPeriod: 50 * time.Millisecond, PacketHeader: true})
	require.NoError(t, err)
	require.Len(t, doc.Header, 2)
	require.Len(t, doc.Packets, 1)
	p := doc.Packets[0]
	assert.Equal(t, "tm-sat-50ms", p.Name)
	assert.Equal(t, 2+4+2+1, p.Size)
	assert.Equal(t, []string{"sat.power.voltage", "sat.power.current", "sat.adcs.mode"}, p.Parameters)
	offsets := []int{}
	for _, param := range doc.Parameters {
		offsets = append(offsets, param.Offset)
	}
	assert.Equal(t, []int{2, 6, 8}, offsets)
}

func TestDeterministic(t *testing.T) {
	t.Parallel()

	render := func() []byte {
		doc, err := schema.Generate(buildTree(t), schema.Options{ByPeriod: true})
		require.NoError(t, err)
		var buf bytes.Buffer
		require.NoError(t, doc.WriteYAML(&buf))
		return buf.Bytes()
	}
	first := render()
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, render())
	}
	assert.Contains(t, string(first), "name: sat.adcs.set_mode")
	assert.Contains(t, string(first), "max: 2.5")
}

func TestEnumNameConflict(t *testing.T) {
	t.Parallel()

	tr := tree.New("sat")
	a := wire.MustEnum("Mode", wire.KindU8, wire.EnumValue{Name: "A", Value: 0})
	b := wire.MustEnum("Mode", wire.KindU8, wire.EnumValue{Name: "B", Value: 0})
	require.NoError(t, tr.AddTelemetry(tr.Root(), tree.Telemetry0(0, "a", a.Type(), func() interface{} { return "A" })))
	require.NoError(t, tr.AddTelemetry(tr.Root(), tree.Telemetry0(1, "b", b.Type(), func() interface{} { return "B" })))
	_, err := schema.Generate(tr, schema.Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "enum name=Mode")
}

func TestExport(t *testing.T) {
	t.Parallel()

	doc, err := schema.Generate(buildTree(t), schema.Options{ByPeriod: true})
	require.NoError(t, err)
	dir := filepath.Join(t.TempDir(), "mdb")
	require.NoError(t, doc.Export(dir, nil))

	for _, name := range []string{"containers.csv", "enums.csv", "packets.csv", "parameters.csv", "commands.csv", "arguments.csv", schema.YAMLFile} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}
	args, err := os.ReadFile(filepath.Join(dir, "arguments.csv"))
	require.NoError(t, err)
	assert.Equal(t, "command,position,name,type,min,max\n"+
		"sat.adcs.set_mode,0,mode,Mode,,\n"+
		"sat.adcs.set_mode,1,gain,F32,0,2.5\n"+
		"sat.adcs.set_mode,2,level,Level,,\n", string(args))

	assert.Error(t, doc.Export(dir, []string{"xtce"}))
}

func TestReadYAML(t *testing.T) {
	t.Parallel()

	doc, err := schema.Generate(buildTree(t), schema.Options{ByPeriod: true, PacketHeader: true})
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, doc.WriteYAML(&buf))
	back, err := schema.ReadYAML(&buf)
	require.NoError(t, err)
	assert.Equal(t, doc, back)
}

func TestGenerateHeaderGroupLimit(t *testing.T) {
	t.Parallel()

	build := func(n int) *tree.Tree {
		tr := tree.New("sat")
		for i := 0; i < n; i++ {
			tm := tree.Telemetry0(i, fmt.Sprintf("p%d", i), wire.U8, func() interface{} { return 0 })
			tm.Period = time.Duration(i+1) * time.Millisecond
			require.NoError(t, tr.AddTelemetry(tr.Root(), tm))
		}
		return tr
	}

	doc, err := schema.Generate(build(schema.MaxHeaderGroups), schema.Options{ByPeriod: true, PacketHeader: true})
	require.NoError(t, err)
	assert.Len(t, doc.Packets, schema.MaxHeaderGroups)
	assert.Equal(t, 255, doc.Packets[255].ID)

	over := build(schema.MaxHeaderGroups + 1)
	_, err = schema.Generate(over, schema.Options{ByPeriod: true, PacketHeader: true})
	require.Error(t, err)
	assert.True(t, errors.IsNotValid(err), err.Error())
	// without header packets are told apart by size
	doc, err = schema.Generate(over, schema.Options{ByPeriod: true})
	require.NoError(t, err)
	assert.Len(t, doc.Packets, schema.MaxHeaderGroups+1)
	_, err = schema.Generate(over, schema.Options{TickPeriod: time.Second, PacketHeader: true})
	require.NoError(t, err)
}
