package writer_test

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/hamba/avro/v2"
	"github.com/stretchr/testify/require"

	avroskema "github.com/reoring/avroskema"
	"github.com/reoring/avroskema/schema"
	"github.com/reoring/avroskema/value"
	"github.com/reoring/avroskema/wire"
	"github.com/reoring/avroskema/writer"
)

const topicJSON = `{
    "type": "record",
    "name": "Topic",
    "namespace": "some.namespace",
    "fields": [
        {"name": "double0", "type": ["double", "null"], "default": 0.0}
    ]
}`

const twoFieldJSON = `{"type":"record","name":"Topic","namespace":"some.namespace","fields":[
	{"name":"double0","type":["double","null"]},
	{"name":"float0","type":["float","null"]}
]}`

// 1234.5 as IEEE-754 little-endian.
var double1234_5 = []byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x4a, 0x93, 0x40}

type topic struct {
	Double0 *float64 `avro:"double0"`
}

type topicNonOptional struct {
	Double0 float64 `avro:"double0"`
}

type topicSum struct {
	Double0 avroskema.Option[float64] `avro:"double0"`
}

type twoFieldSum struct {
	Double0 avroskema.Option[float64] `avro:"double0"`
	Float0  avroskema.Option[float32] `avro:"float0"`
}

type twoFieldDirect struct {
	Double0 *float64 `avro:"double0"`
	Float0  *float32 `avro:"float0"`
}

func ptr[T any](v T) *T { return &v }

func nullableSchema(t *testing.T, kind schema.Kind, nullFirst bool) *schema.Schema {
	t.Helper()
	members := []schema.Type{schema.Prim(kind), schema.Prim(schema.Null)}
	if nullFirst {
		members[0], members[1] = members[1], members[0]
	}
	u, err := schema.NewUnion(members...)
	require.NoError(t, err)
	rec, err := schema.NewRecord("Probe", "test", schema.NewField("v", u))
	require.NoError(t, err)
	s, err := schema.New(rec)
	require.NoError(t, err)
	return s
}

var samples = []struct {
	kind  schema.Kind
	host  any
	value value.Value
}{
	{schema.Boolean, true, value.Boolean(true)},
	{schema.Int, int32(-42), value.Int(-42)},
	{schema.Long, int64(1) << 40, value.Long(1 << 40)},
	{schema.Float, float32(1.25), value.Float(1.25)},
	{schema.Double, 1234.5, value.Double(1234.5)},
	{schema.Bytes, []byte{0, 1, 0xff}, value.Bytes([]byte{0, 1, 0xff})},
	{schema.String, "héllo", value.String("héllo")},
}

func decodeField(t *testing.T, s *schema.Schema, data []byte, name string) []value.Value {
	t.Helper()
	recs, err := wire.DecodeAll(data, s)
	require.NoError(t, err)
	out := make([]value.Value, 0, len(recs))
	for _, r := range recs {
		f, ok := r.Field(name)
		require.True(t, ok)
		out = append(out, f)
	}
	return out
}

func TestRoundTrip_ExplicitSumType(t *testing.T) {
	for _, sm := range samples {
		t.Run(sm.kind.String(), func(t *testing.T) {
			s := nullableSchema(t, sm.kind, false)
			w := writer.New(s, avroskema.ExplicitSumType)
			require.NoError(t, w.Append(map[string]any{"v": avroskema.Some[any](sm.host)}))
			require.NoError(t, w.Append(map[string]any{"v": avroskema.None[any]()}))

			got := decodeField(t, s, w.Finish(), "v")
			require.Len(t, got, 2)
			require.True(t, value.Equal(got[0], value.Union(0, sm.value)), "present: %v", got[0])
			require.True(t, value.Equal(got[1], value.Union(1, value.Null())), "absent: %v", got[1])
		})
	}
}

func TestPlainScalar_NeverSelectsNull(t *testing.T) {
	for _, sm := range samples {
		t.Run(sm.kind.String(), func(t *testing.T) {
			s := nullableSchema(t, sm.kind, false)
			w := writer.New(s, avroskema.PlainScalar)
			require.NoError(t, w.Append(map[string]any{"v": sm.host}))
			got := decodeField(t, s, w.Finish(), "v")
			require.Equal(t, 0, got[0].Branch())

			w = writer.New(s, avroskema.PlainScalar)
			err := w.Append(map[string]any{"v": nil})
			require.True(t, avroskema.HasCode(err, avroskema.CodeMapping), "got %v", err)
			require.Zero(t, w.Len())
		})
	}
}

// DirectOptional is lenient: a present optional maps to its bare payload, so
// it resolves exactly like PlainScalar. TaggedOptional is the strict variant
// and fails against a union that only declares the payload and null.
func TestDirectOptional_ResolvesLikePlainScalar(t *testing.T) {
	s := schema.MustParse(topicJSON)

	direct := writer.New(s, avroskema.DirectOptional)
	require.NoError(t, direct.Append(topic{Double0: ptr(1234.5)}))
	plain := writer.New(s, avroskema.PlainScalar)
	require.NoError(t, plain.Append(topicNonOptional{Double0: 1234.5}))
	require.Equal(t, plain.Finish(), direct.Finish())

	strict := writer.New(s, avroskema.TaggedOptional)
	err := strict.Append(topic{Double0: ptr(1234.5)})
	require.True(t, errors.Is(err, avroskema.ErrUnionMismatch), "got %v", err)
	require.Zero(t, strict.Len())

	require.NoError(t, strict.Append(topic{}), "absent optionals still resolve to null")
	require.Equal(t, []byte{0x02}, strict.Finish())
}

func TestBranchIndexFollowsMemberOrder(t *testing.T) {
	doubleFirst := nullableSchema(t, schema.Double, false)
	nullFirst := nullableSchema(t, schema.Double, true)

	encode := func(s *schema.Schema, v avroskema.Option[float64]) []byte {
		w := writer.New(s, avroskema.ExplicitSumType)
		require.NoError(t, w.Append(map[string]any{"v": v}))
		return w.Finish()
	}
	present := avroskema.Some(1234.5)
	absent := avroskema.None[float64]()

	require.Equal(t, append([]byte{0x00}, double1234_5...), encode(doubleFirst, present))
	require.Equal(t, append([]byte{0x02}, double1234_5...), encode(nullFirst, present))
	require.Equal(t, []byte{0x02}, encode(doubleFirst, absent))
	require.Equal(t, []byte{0x00}, encode(nullFirst, absent))
}

func TestScenario_PlainScalarSuccess(t *testing.T) {
	w := writer.New(schema.MustParse(topicJSON), avroskema.PlainScalar)
	require.NoError(t, w.Append(topicNonOptional{Double0: 1234.5}))
	require.Equal(t, append([]byte{0x00}, double1234_5...), w.Finish())
}

func TestScenario_ExplicitSumTypeBothAbsent(t *testing.T) {
	w := writer.New(schema.MustParse(twoFieldJSON), avroskema.ExplicitSumType)
	require.NoError(t, w.Append(twoFieldSum{
		Double0: avroskema.None[float64](),
		Float0:  avroskema.None[float32](),
	}))
	require.Equal(t, []byte{0x02, 0x02}, w.Finish())
}

func TestScenario_TaggedPresentFailsAtomically(t *testing.T) {
	w := writer.New(schema.MustParse(twoFieldJSON), avroskema.ExplicitSumType,
		writer.WithFieldPolicy("/double0", avroskema.TaggedOptional),
		writer.WithFieldPolicy("/float0", avroskema.DirectOptional),
	)
	require.NoError(t, w.Append(twoFieldDirect{}))
	before := w.Len()
	require.Equal(t, 2, before)

	err := w.Append(twoFieldDirect{Double0: ptr(1234.5), Float0: ptr[float32](1)})
	iss, ok := avroskema.AsIssues(err)
	require.True(t, ok, "got %v", err)
	require.Len(t, iss, 1)
	require.Equal(t, avroskema.CodeUnionMismatch, iss[0].Code)
	require.Equal(t, "/double0", iss[0].Path)
	require.Equal(t, before, w.Len())
	require.Equal(t, 1, w.Count())
	require.Equal(t, []byte{0x02, 0x02}, w.Finish())
}

// Three host conventions against the same schema.
func TestOriginalConventions(t *testing.T) {
	s := schema.MustParse(topicJSON)

	w := writer.New(s, avroskema.PlainScalar)
	require.NoError(t, w.Append(topicNonOptional{Double0: 1234.5}))

	w = writer.New(s, avroskema.TaggedOptional)
	require.Error(t, w.Append(topic{Double0: ptr(1234.5)}))

	w = writer.New(s, avroskema.ExplicitSumType)
	require.NoError(t, w.Append(topicSum{Double0: avroskema.Some(1234.5)}))
}

func TestHambaDecodesOutput(t *testing.T) {
	hs, err := avro.Parse(twoFieldJSON)
	require.NoError(t, err)

	w := writer.New(schema.MustParse(twoFieldJSON), avroskema.ExplicitSumType)
	require.NoError(t, w.Append(twoFieldSum{Double0: avroskema.Some(1234.5), Float0: avroskema.None[float32]()}))
	data := w.Finish()

	var got struct {
		Double0 *float64 `avro:"double0"`
		Float0  *float32 `avro:"float0"`
	}
	require.NoError(t, avro.Unmarshal(hs, data, &got))
	require.NotNil(t, got.Double0)
	require.Equal(t, 1234.5, *got.Double0)
	require.Nil(t, got.Float0)

	// and the other way round
	want := struct {
		Double0 *float64 `avro:"double0"`
		Float0  *float32 `avro:"float0"`
	}{Float0: ptr[float32](2.5)}
	theirs, err := avro.Marshal(hs, want)
	require.NoError(t, err)
	w = writer.New(schema.MustParse(twoFieldJSON), avroskema.DirectOptional)
	require.NoError(t, w.Append(twoFieldDirect{Float0: ptr[float32](2.5)}))
	require.Equal(t, theirs, w.Finish())
}

func TestDefaultAppliesWhenFieldOmitted(t *testing.T) {
	type empty struct{}
	w := writer.New(schema.MustParse(topicJSON), avroskema.PlainScalar)
	require.NoError(t, w.Append(empty{}))
	require.Equal(t, []byte{0x00, 0, 0, 0, 0, 0, 0, 0, 0}, w.Finish())
}

func TestRecordShapeMismatch(t *testing.T) {
	w := writer.New(schema.MustParse(topicJSON), avroskema.DirectOptional)
	err := w.Append(map[string]any{"double0": 1.0, "extra": "x"})
	require.ErrorIs(t, err, avroskema.ErrRecordShapeMismatch)
	require.Zero(t, w.Len())
}

func TestInvalidUTF8StringRejected(t *testing.T) {
	s := schema.MustParse(`{"type":"record","name":"S","fields":[{"name":"s","type":"string"}]}`)
	w := writer.New(s, avroskema.PlainScalar)
	require.NoError(t, w.Append(map[string]any{"s": "ok"}))
	before := w.Len()

	err := w.Append(map[string]any{"s": "\xff\xfe"})
	require.ErrorIs(t, err, avroskema.ErrTypeMismatch)
	require.Equal(t, before, w.Len())
	require.Equal(t, 1, w.Count())

	vals, err := wire.DecodeAll(w.Finish(), s)
	require.NoError(t, err)
	require.Len(t, vals, 1)
}

func TestStrictUnions(t *testing.T) {
	s := schema.MustParse(topicJSON)
	w := writer.New(s, avroskema.PlainScalar, writer.WithStrictUnions(true))
	require.ErrorIs(t, w.Append(topicNonOptional{Double0: 1}), avroskema.ErrMapping)

	w = writer.New(s, avroskema.PlainScalar, writer.WithStrictUnions(true),
		writer.WithFieldPolicy("double0", avroskema.ExplicitSumType))
	require.NoError(t, w.Append(topicSum{Double0: avroskema.Some(1.0)}))
}

func TestFinish(t *testing.T) {
	w := writer.New(schema.MustParse(topicJSON), avroskema.PlainScalar)
	require.NoError(t, w.Append(topicNonOptional{Double0: 1}))
	out := w.Finish()
	require.Equal(t, out, w.Finish())
	err := w.Append(topicNonOptional{Double0: 2})
	require.ErrorIs(t, err, avroskema.ErrWriterFinished)
	require.Equal(t, out, w.Finish())
}

func TestWriterLogsRejections(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	w := writer.New(schema.MustParse(topicJSON), avroskema.TaggedOptional, writer.WithLogger(logger))
	require.Error(t, w.Append(topic{Double0: ptr(1.0)}))
	require.NoError(t, w.Append(topic{}))
	out := buf.String()
	require.True(t, strings.Contains(out, "record rejected"), out)
	require.True(t, strings.Contains(out, "code=union_mismatch"), out)
	require.True(t, strings.Contains(out, "record appended"), out)
}

func TestWithTrace(t *testing.T) {
	var stages []string
	w := writer.New(schema.MustParse(topicJSON), avroskema.PlainScalar,
		writer.WithTrace(func(stage string, v value.Value) { stages = append(stages, stage+":"+v.String()) }))
	require.NoError(t, w.Append(topicNonOptional{Double0: 1.5}))
	require.Equal(t, []string{
		"mapped:some.namespace.Topic{double0: 1.5}",
		"resolved:some.namespace.Topic{double0: union[0](1.5)}",
	}, stages)
}
