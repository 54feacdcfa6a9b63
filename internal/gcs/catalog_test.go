package gcs_test

import (
	"testing"
	"time"

	"github.com/rdx-aegse/yamcs-link/frame"
	"github.com/rdx-aegse/yamcs-link/helpers"
	"github.com/rdx-aegse/yamcs-link/internal/gcs"
	"github.com/rdx-aegse/yamcs-link/schema"
	"github.com/rdx-aegse/yamcs-link/tree"
	"github.com/rdx-aegse/yamcs-link/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testState = wire.MustEnum("State", wire.KindU8,
	wire.EnumValue{Name: "IDLE", Value: 0},
	wire.EnumValue{Name: "BUSY", Value: 1})

func newCatalog(t testing.TB, header bool, fc frame.Config) *gcs.Catalog {
	tr := tree.New("sat")
	n := tree.NewNode("eps")
	require.NoError(t, tr.RegisterChild(tr.Root(), n))
	volts := tree.Telemetry0(0, "volts", wire.U16, func() interface{} { return 0 })
	volts.Period = time.Second
	require.NoError(t, tr.AddTelemetry(n, volts))
	fast := tree.Telemetry0(1, "state", testState.Type(), func() interface{} { return 0 })
	fast.Period = 100 * time.Millisecond
	require.NoError(t, tr.AddTelemetry(n, fast))
	require.NoError(t, tr.AddCommand(n, &tree.Command{
		ID: 7, Name: "set", Return: wire.Void,
		Args: []tree.Arg{{Name: "state", Type: testState.Type()}, {Name: "level", Type: wire.I8}},
	}))
	doc, err := schema.Generate(tr, schema.Options{ByPeriod: header, PacketHeader: header})
	require.NoError(t, err)
	c, err := gcs.NewCatalog(doc, frame.MustCodec(fc))
	require.NoError(t, err)
	return c
}

func TestFrame(t *testing.T) {
	t.Parallel()
	legacy := frame.Config{Marker: 0xfeedcafe, IDType: wire.U8, MaxPacket: 64}
	cases := []struct {
		name   string
		config frame.Config
		words  []string
		expect string
		err    string
	}{
		{"enum-name", frame.DefaultConfig(), []string{"BUSY", "-2"}, "deadbeef 0004 0007 01fe", ""},
		{"enum-number", frame.DefaultConfig(), []string{"0", "0x10"}, "deadbeef 0004 0007 0010", ""},
		{"legacy", legacy, []string{"BUSY", "1"}, "feedcafe 07 0101", ""},
		{"unknown-member", frame.DefaultConfig(), []string{"OFF", "1"}, "", "argument=state"},
		{"range", frame.DefaultConfig(), []string{"IDLE", "200"}, "", "argument=level"},
		{"count", frame.DefaultConfig(), []string{"IDLE"}, "", "expects 2 arguments"},
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()
			catalog := newCatalog(t, false, c.config)
			cmd, ok := catalog.Command("set")
			require.True(t, ok)
			b, err := catalog.Frame(cmd, c.words)
			if c.err != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), c.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, helpers.MustHex(c.expect), b)
		})
	}
}

func TestDecode(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name   string
		header bool
		input  string
		packet string
		values []string
		err    string
	}{
		{"tick", false, "0102 01", "tm-sat-0ms", []string{"sat.eps.volts=258", "sat.eps.state=BUSY(1)"}, ""},
		{"group0", true, "00 00 01", "tm-sat-100ms", []string{"sat.eps.state=BUSY(1)"}, ""},
		{"group1", true, "00 01 0102", "tm-sat-1000ms", []string{"sat.eps.volts=258"}, ""},
		{"unknown-group", true, "00 05 01", "", nil, "packet id=5"},
		{"excess", false, "0102 01 ff", "tm-sat-0ms", nil, "excess bytes=1"},
		{"bad-enum", true, "00 00 09", "tm-sat-100ms", nil, "parameter=sat.eps.state"},
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()
			catalog := newCatalog(t, c.header, frame.DefaultConfig())
			p, values, err := catalog.Decode(helpers.MustHex(c.input))
			if c.packet != "" {
				require.NotNil(t, p)
				assert.Equal(t, c.packet, p.Name)
			}
			if c.err != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), c.err)
				return
			}
			require.NoError(t, err)
			strs := make([]string, len(values))
			for i, v := range values {
				strs[i] = v.String()
			}
			assert.Equal(t, c.values, strs)
		})
	}
}
