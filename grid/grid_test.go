package grid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tisvm/asm"
	"tisvm/isa"
)

func assembleBytes(t *testing.T, source string) []byte {
	t.Helper()
	res, _, err := asm.Assemble(source, nil)
	require.NoError(t, err)
	return res.Bytecode
}

// S1 - echo with increment.
func TestScenarioEchoWithIncrement(t *testing.T) {
	g, err := New(1, 1)
	require.NoError(t, err)

	input := []byte{1, 2, 3, 4}
	output := make([]byte, 4)
	require.NoError(t, g.AttachInput(isa.Up, 0, input))
	require.NoError(t, g.AttachOutput(isa.Dwn, 0, output))

	code := assembleBytes(t, "loop:\nget up\nadd 1\nput dwn\njmp loop\nhalt\n")
	g.Load(0, 0, code)

	Run(g, 32)

	got, err := g.OutputSlot(isa.Dwn, 0)
	require.NoError(t, err)
	assert.Equal(t, []byte{2, 3, 4, 5}, got)
}

// S2 - overflow detection via JOF.
func TestScenarioOverflowDetection(t *testing.T) {
	g, err := New(1, 1)
	require.NoError(t, err)

	input := []byte{255, 0}
	output := make([]byte, 2)
	require.NoError(t, g.AttachInput(isa.Up, 0, input))
	require.NoError(t, g.AttachOutput(isa.Dwn, 0, output))

	code := assembleBytes(t, "get up\nadd 1\njof of\nput dwn\nhalt\nof:\nget 99\nput dwn\nhalt\n")
	g.Load(0, 0, code)

	Run(g, 32)

	got, err := g.OutputSlot(isa.Dwn, 0)
	require.NoError(t, err)
	assert.Equal(t, []byte{99}, got)
}

// S3 - stack reversal.
func TestScenarioStackReversal(t *testing.T) {
	g, err := New(1, 1)
	require.NoError(t, err)

	input := []byte{1, 2, 3}
	output := make([]byte, 3)
	require.NoError(t, g.AttachInput(isa.Up, 0, input))
	require.NoError(t, g.AttachOutput(isa.Dwn, 0, output))

	code := assembleBytes(t, "push up\npush up\npush up\npop dwn\npop dwn\npop dwn\nhalt\n")
	g.Load(0, 0, code)

	Run(g, 32)

	got, err := g.OutputSlot(isa.Dwn, 0)
	require.NoError(t, err)
	assert.Equal(t, []byte{3, 2, 1}, got)
}

// S5 - two-block rendezvous.
func TestScenarioTwoBlockRendezvous(t *testing.T) {
	g, err := New(1, 2)
	require.NoError(t, err)

	input := []byte{7}
	output := make([]byte, 1)
	require.NoError(t, g.AttachInput(isa.Up, 0, input))
	require.NoError(t, g.AttachOutput(isa.Dwn, 0, output))

	code := assembleBytes(t, "get up\nput dwn\nhalt\n")
	g.Load(0, 0, code)
	g.Load(0, 1, code)

	ticks := Run(g, 32)

	got, err := g.OutputSlot(isa.Dwn, 0)
	require.NoError(t, err)
	assert.Equal(t, []byte{7}, got)
	assert.True(t, g.Block(0, 0).Halted())
	assert.True(t, g.Block(0, 1).Halted())
	assert.LessOrEqual(t, ticks, 8)
}

func TestMultiplyIsMultiplicationNotSubtraction(t *testing.T) {
	g, err := New(1, 1)
	require.NoError(t, err)
	code := assembleBytes(t, "get 3\nmlt 2\nhalt\n")
	g.Load(0, 0, code)
	Run(g, 8)
	assert.Equal(t, byte(6), g.Block(0, 0).Acc())
}

func TestDivideByZeroSetsOverflowAndLeavesAccUnchanged(t *testing.T) {
	g, err := New(1, 1)
	require.NoError(t, err)
	code := assembleBytes(t, "get 9\ndiv 0\nhalt\n")
	g.Load(0, 0, code)
	Run(g, 8)
	b := g.Block(0, 0)
	assert.True(t, b.Overflow())
	assert.Equal(t, byte(9), b.Acc())
}

func TestAnyReadWithNoPartnerFailureUnlocksWithOverflow(t *testing.T) {
	g, err := New(1, 1)
	require.NoError(t, err)
	// A 1x1 grid has four edges but none are attached, so an ANY read
	// finds no readable partner on any side.
	code := assembleBytes(t, "get any\nhalt\n")
	g.Load(0, 0, code)
	Run(g, 4)
	b := g.Block(0, 0)
	assert.True(t, b.Overflow())
	assert.True(t, b.Halted())
}

func TestInvariantStackAndPCBounds(t *testing.T) {
	g, err := New(1, 1)
	require.NoError(t, err)
	code := assembleBytes(t, "loop:\npush acc\njmp loop\n")
	g.Load(0, 0, code)
	for i := 0; i < 50; i++ {
		Tick(g)
		b := g.Block(0, 0)
		assert.GreaterOrEqual(t, b.sp, -1)
		assert.LessOrEqual(t, b.sp, 15)
		assert.Less(t, b.pc, len(b.bytecode))
	}
}

// Invariant 7 (spec.md §8): a PUT ANY delivers to exactly one edge per
// tick, never duplicating the value across every open side.
func TestInvariantAnyWriteDeliversToExactlyOneEdge(t *testing.T) {
	g, err := New(1, 1)
	require.NoError(t, err)
	up := make([]byte, 1)
	down := make([]byte, 1)
	require.NoError(t, g.AttachOutput(isa.Up, 0, up))
	require.NoError(t, g.AttachOutput(isa.Dwn, 0, down))

	code := assembleBytes(t, "get 9\nput any\nhalt\n")
	g.Load(0, 0, code)
	Run(g, 8)

	gotUp, err := g.OutputSlot(isa.Up, 0)
	require.NoError(t, err)
	gotDown, err := g.OutputSlot(isa.Dwn, 0)
	require.NoError(t, err)
	assert.Equal(t, len(gotUp)+len(gotDown), 1, "exactly one edge receives the value")
}

// Invariant 9 (spec.md §8): only ADD/SUB/MLT/DIV/MOD/PUSH/POP/REF and
// edge I/O clear the overflow flag; GET leaves a prior overflow intact
// so a later JOF still observes it.
func TestInvariantGetDoesNotClearOverflow(t *testing.T) {
	g, err := New(1, 1)
	require.NoError(t, err)
	code := assembleBytes(t, "get 255\nadd 1\nget 0\njof hit\nhalt\nhit:\nget 42\nhalt\n")
	g.Load(0, 0, code)
	Run(g, 16)
	assert.Equal(t, byte(42), g.Block(0, 0).Acc())
}

func TestDeterminismAcrossIdenticalRuns(t *testing.T) {
	run := func() []byte {
		g, err := New(1, 1)
		require.NoError(t, err)
		input := []byte{1, 2, 3, 4}
		output := make([]byte, 4)
		require.NoError(t, g.AttachInput(isa.Up, 0, input))
		require.NoError(t, g.AttachOutput(isa.Dwn, 0, output))
		code := assembleBytes(t, "loop:\nget up\nadd 1\nput dwn\njmp loop\nhalt\n")
		g.Load(0, 0, code)
		Run(g, 32)
		got, err := g.OutputSlot(isa.Dwn, 0)
		require.NoError(t, err)
		out := make([]byte, len(got))
		copy(out, got)
		return out
	}
	assert.Equal(t, run(), run())
}
