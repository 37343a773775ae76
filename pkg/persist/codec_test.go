package persist

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testState struct {
	Name   string         `json:"name"   yaml:"name"`
	Count  int            `json:"count"  yaml:"count"`
	Values map[string]int `json:"values" yaml:"values"`
}

func TestCodecs_RoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		codec     Codec
		extension string
	}{
		{name: "json", codec: NewJSONCodec(), extension: ".json"},
		{name: "yaml", codec: NewYAMLCodec(), extension: ".yaml"},
		{name: "json_lz4", codec: NewLZ4Codec(NewJSONCodec()), extension: ".json.lz4"},
		{name: "yaml_lz4", codec: NewLZ4Codec(NewYAMLCodec()), extension: ".yaml.lz4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			original := testState{Name: tt.name, Count: 7, Values: map[string]int{"x": 1}}

			var buf bytes.Buffer

			require.NoError(t, tt.codec.Encode(&buf, original))

			var decoded testState

			require.NoError(t, tt.codec.Decode(&buf, &decoded))
			assert.Equal(t, original, decoded)
			assert.Equal(t, tt.extension, tt.codec.Extension())
		})
	}
}

func TestJSONCodec_PrettyPrints(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	require.NoError(t, NewJSONCodec().Encode(&buf, testState{Name: "x"}))
	assert.Contains(t, buf.String(), defaultIndent+`"name"`)
}

func TestLZ4Codec_Compresses(t *testing.T) {
	t.Parallel()

	state := testState{Name: strings.Repeat("metric ", 500)}

	var plain, compressed bytes.Buffer

	require.NoError(t, NewJSONCodec().Encode(&plain, state))
	require.NoError(t, NewLZ4Codec(NewJSONCodec()).Encode(&compressed, state))

	assert.Less(t, compressed.Len(), plain.Len())
}

func TestCodecs_DecodeErrors(t *testing.T) {
	t.Parallel()

	var decoded testState

	err := NewJSONCodec().Decode(strings.NewReader("not valid json{{{"), &decoded)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "json decode")

	err = NewYAMLCodec().Decode(strings.NewReader("name: [unclosed"), &decoded)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "yaml decode")

	err = NewLZ4Codec(NewJSONCodec()).Decode(strings.NewReader("not a frame"), &decoded)
	require.Error(t, err)
}

func TestJSONCodec_EncodeError(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	// Channels cannot be JSON-encoded.
	err := NewJSONCodec().Encode(&buf, make(chan int))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "json encode")
}

func TestCodecFor(t *testing.T) {
	t.Parallel()

	codec, err := CodecFor(FormatYAML, false)
	require.NoError(t, err)
	assert.Equal(t, ".yaml", codec.Extension())

	codec, err = CodecFor(FormatJSON, true)
	require.NoError(t, err)
	assert.Equal(t, ".json.lz4", codec.Extension())

	_, err = CodecFor("toml", false)
	require.ErrorIs(t, err, ErrUnknownFormat)
}

func TestBasename(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "results", Basename("results.json"))
	assert.Equal(t, "results", Basename("results.json.lz4"))
	assert.Equal(t, "halstead", Basename("halstead.yaml"))
	assert.Equal(t, "statistic_tests", Basename("statistic_tests"))
}

func TestSaveLoadState_CreatesDirectory(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "analyzer", "nested")
	codec := NewLZ4Codec(NewYAMLCodec())
	original := testState{Name: "load-test", Count: 77, Values: map[string]int{"k": 5}}

	require.NoError(t, SaveState(dir, "results.json", codec, original))

	_, err := os.Stat(filepath.Join(dir, "results.yaml.lz4"))
	require.NoError(t, err)

	var loaded testState

	require.NoError(t, LoadState(dir, "results", codec, &loaded))
	assert.Equal(t, original, loaded)
}

func TestLoadState_MissingFile(t *testing.T) {
	t.Parallel()

	var loaded testState

	err := LoadState(t.TempDir(), "missing", NewJSONCodec(), &loaded)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "open state file")
}

func TestPersister_SaveLoad(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	p := NewPersister[*testState]("state.json", NewJSONCodec())

	require.NoError(t, p.Save(dir, &testState{Name: "hello", Count: 42}))
	assert.Equal(t, filepath.Join(dir, "state.json"), p.Path(dir))

	restored, err := p.Load(dir)
	require.NoError(t, err)
	require.NotNil(t, restored)
	assert.Equal(t, "hello", restored.Name)
	assert.Equal(t, 42, restored.Count)
}

func TestPersister_SaveIntoFile(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), "occupied")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o600))

	p := NewPersister[testState]("state", NewJSONCodec())

	require.Error(t, p.Save(file, testState{Name: "x"}))
}
