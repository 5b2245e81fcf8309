package hostinput_test

import (
	"strings"
	"testing"

	"github.com/fxamacker/cbor/v2"
	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/require"

	avroskema "github.com/reoring/avroskema"
	"github.com/reoring/avroskema/internal/hostinput"
	"github.com/reoring/avroskema/schema"
	"github.com/reoring/avroskema/wire"
	"github.com/reoring/avroskema/writer"
)

const probeJSON = `{"type":"record","name":"Probe","namespace":"test","fields":[
	{"name":"d","type":["double","null"]},
	{"name":"f","type":["null","float"]},
	{"name":"i","type":"int"},
	{"name":"b","type":"bytes","default":""},
	{"name":"in","type":{"type":"record","name":"Inner","fields":[{"name":"l","type":"long"}]}}
]}`

func all(p avroskema.Policy) hostinput.PolicyFunc {
	return func(string) avroskema.Policy { return p }
}

func TestRead_JSONLinesAndArrays(t *testing.T) {
	in := `{"i": 1}
[{"i": 2}, {"i": 3}]`
	recs, err := hostinput.Read(strings.NewReader(in), hostinput.FormatJSON)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	require.Equal(t, "3", recs[2]["i"].(json.Number).String())
}

func TestRead_YAMLDocuments(t *testing.T) {
	in := "i: 1\nin: {l: 2}\n---\n- i: 3\n"
	recs, err := hostinput.Read(strings.NewReader(in), hostinput.FormatYAML)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	require.Equal(t, map[string]any{"l": 2}, recs[0]["in"])
}

func TestRead_CBOR(t *testing.T) {
	data, err := cbor.Marshal(map[string]any{"i": 7, "in": map[string]any{"l": -1}})
	require.NoError(t, err)
	recs, err := hostinput.ReadBytes(data, hostinput.FormatCBOR)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	_, ok := recs[0]["in"].(map[string]any)
	require.True(t, ok)
}

func TestRead_RejectsScalarsAndUnknownFormat(t *testing.T) {
	_, err := hostinput.Read(strings.NewReader(`42`), hostinput.FormatJSON)
	require.Error(t, err)
	_, err = hostinput.Read(strings.NewReader(`{}`), "toml")
	require.Error(t, err)
}

func TestPrepare_CoercesToDeclaredKinds(t *testing.T) {
	s := schema.MustParse(probeJSON)
	recs, err := hostinput.ReadBytes([]byte(`{"d": 1234.5, "f": 2, "i": 3, "b": "ÿ", "in": {"l": 4}}`), hostinput.FormatJSON)
	require.NoError(t, err)

	rec := hostinput.Prepare(recs[0], s.Root(), all(avroskema.DirectOptional))
	require.Equal(t, 1234.5, rec["d"])
	require.Equal(t, float32(2), rec["f"])
	require.Equal(t, int32(3), rec["i"])
	require.Equal(t, []byte{0xff}, rec["b"])
	require.Equal(t, map[string]any{"l": int64(4)}, rec["in"])
}

func TestPrepare_ExplicitSumTypeWrapsPresence(t *testing.T) {
	s := schema.MustParse(probeJSON)
	rec := hostinput.Prepare(map[string]any{"d": nil, "f": 1.5}, s.Root(), func(path string) avroskema.Policy {
		if path == "/d" || path == "/f" {
			return avroskema.ExplicitSumType
		}
		return avroskema.PlainScalar
	})
	require.Equal(t, avroskema.None[any](), rec["d"])
	require.Equal(t, avroskema.Some[any](float32(1.5)), rec["f"])
}

func TestPrepare_KeepsMismatchesForValidation(t *testing.T) {
	s := schema.MustParse(probeJSON)
	rec := hostinput.Prepare(map[string]any{"i": "three", "extra": true}, s.Root(), all(avroskema.PlainScalar))
	require.Equal(t, "three", rec["i"])
	require.Equal(t, true, rec["extra"])
	_, present := rec["d"]
	require.False(t, present)
}

func TestPrepare_IntOutOfRangeIsNotNarrowed(t *testing.T) {
	s := schema.MustParse(probeJSON)
	rec := hostinput.Prepare(map[string]any{"i": int64(1) << 40}, s.Root(), all(avroskema.PlainScalar))
	require.Equal(t, int64(1)<<40, rec["i"])
}

func TestRenderJSON_RoundTrip(t *testing.T) {
	s := schema.MustParse(probeJSON)
	recs, err := hostinput.ReadBytes([]byte(`{"d": 1234.5, "f": null, "i": 3, "in": {"l": 4}}`), hostinput.FormatJSON)
	require.NoError(t, err)

	w := writer.New(s, avroskema.DirectOptional)
	require.NoError(t, w.Append(hostinput.Prepare(recs[0], s.Root(), w.PolicyFor)))
	vals, err := wire.DecodeAll(w.Finish(), s)
	require.NoError(t, err)
	require.Len(t, vals, 1)

	out, err := json.Marshal(hostinput.RenderJSON(vals[0], s.Root()))
	require.NoError(t, err)
	require.JSONEq(t, `{"d":{"double":1234.5},"f":null,"i":3,"b":"","in":{"l":4}}`, string(out))
	require.True(t, strings.HasPrefix(string(out), `{"d":`), "schema field order is kept: %s", out)
}

func TestRenderGeneric_CBOR(t *testing.T) {
	s := schema.MustParse(probeJSON)
	w := writer.New(s, avroskema.DirectOptional)
	require.NoError(t, w.Append(map[string]any{"i": int32(1), "b": []byte{1, 2}, "in": map[string]any{"l": int64(2)}, "d": nil, "f": nil}))
	vals, err := wire.DecodeAll(w.Finish(), s)
	require.NoError(t, err)

	data, err := cbor.Marshal(hostinput.RenderGeneric(vals[0], s.Root()))
	require.NoError(t, err)
	var back map[string]any
	require.NoError(t, cbor.Unmarshal(data, &back))
	require.Equal(t, []byte{1, 2}, back["b"])
	require.Nil(t, back["d"])
}
