package objfile

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tisvm/asm"
)

func TestRawRoundTrip(t *testing.T) {
	f := File{Bytecode: []byte{0x17, 0x28, 0xFF}}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, f))
	assert.Equal(t, []byte{MagicRaw, 3, 0x17, 0x28, 0xFF}, buf.Bytes())

	got, err := Read(&buf)
	require.NoError(t, err)
	if diff := cmp.Diff(f.Bytecode, got.Bytecode); diff != "" {
		t.Errorf("bytecode mismatch (-want +got):\n%s", diff)
	}
	assert.False(t, got.HasDebug)
}

func TestDebugRoundTrip(t *testing.T) {
	f := File{
		Bytecode:  []byte{'H', 'I', 0x00, 0x76, 0xFF},
		HasDebug:  true,
		Source:    "msg: .\"HI\"\n GET msg; PUT DWN; HALT",
		LineTable: []uint16{1, 1, 1, 2, 2},
	}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, f))
	require.Equal(t, MagicDebug, buf.Bytes()[0])

	got, err := Read(&buf)
	require.NoError(t, err)
	assert.True(t, got.HasDebug)
	assert.Equal(t, f.Source, got.Source)
	if diff := cmp.Diff(f.Bytecode, got.Bytecode); diff != "" {
		t.Errorf("bytecode mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(f.LineTable, got.LineTable); diff != "" {
		t.Errorf("line table mismatch (-want +got):\n%s", diff)
	}
}

func TestEndiannessIsExplicitBigEndian(t *testing.T) {
	f := File{
		Bytecode:  []byte{0x01},
		HasDebug:  true,
		Source:    "x",
		LineTable: []uint16{0x0102},
	}
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, f))

	raw := buf.Bytes()
	// tag(1) + source_len(2) + source(1) + bytecode_len(1) + bytecode(1) + line_table(2)
	lineTableOffset := len(raw) - 2
	assert.Equal(t, byte(0x01), raw[lineTableOffset])
	assert.Equal(t, byte(0x02), raw[lineTableOffset+1])
}

func TestUnknownTagRecoversAsRawLength(t *testing.T) {
	// First byte is neither 0xBC nor 0xDB: legacy recovery treats it as
	// the bytecode length of a headerless stream.
	buf := bytes.NewBuffer([]byte{0x02, 0xAA, 0xBB})
	got, err := Read(buf)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xAA, 0xBB}, got.Bytecode)
	assert.False(t, got.HasDebug)
}

func TestShortReadIsReported(t *testing.T) {
	buf := bytes.NewBuffer([]byte{MagicRaw, 5, 0x01, 0x02})
	_, err := Read(buf)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrShortRead)
}

func TestWriteRejectsOversizedBytecode(t *testing.T) {
	f := File{Bytecode: make([]byte, 256)}
	var buf bytes.Buffer
	err := Write(&buf, f)
	assert.ErrorIs(t, err, ErrBytecodeTooLarge)
}

func TestSourceLine(t *testing.T) {
	f := File{
		Bytecode:  []byte{1, 2, 3},
		HasDebug:  true,
		LineTable: []uint16{4, 5, 6},
	}
	assert.Equal(t, 5, f.SourceLine(1))
	assert.Equal(t, 0, f.SourceLine(10))

	raw := File{Bytecode: []byte{1}}
	assert.Equal(t, 0, raw.SourceLine(0))
}

// S6 - an actually-assembled program survives a debug-mode write/read
// round trip byte-for-byte, bytecode and line table both.
func TestAssembledProgramRoundTripsThroughDebugObjectFile(t *testing.T) {
	source := "loop:\nget up\nadd 1\nput dwn\njmp loop\nhalt\n"
	res, _, err := asm.Assemble(source, nil)
	require.NoError(t, err)

	want := File{
		Bytecode:  res.Bytecode,
		HasDebug:  true,
		Source:    source,
		LineTable: res.LineTable,
	}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, want))

	got, err := Read(&buf)
	require.NoError(t, err)

	assert.True(t, got.HasDebug)
	assert.Equal(t, want.Source, got.Source)
	if diff := cmp.Diff(want.Bytecode, got.Bytecode); diff != "" {
		t.Errorf("bytecode mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want.LineTable, got.LineTable); diff != "" {
		t.Errorf("line table mismatch (-want +got):\n%s", diff)
	}
}
