package isa

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPackUnpackRoundTrip(t *testing.T) {
	for op := Nop; op <= Halt; op++ {
		for target := Stk; target <= Ref; target++ {
			instr := Pack(op, target)
			gotOp, gotTarget := instr.Unpack()
			assert.Equal(t, op, gotOp)
			assert.Equal(t, target, gotTarget)
		}
	}
}

func TestTargetSideIndex(t *testing.T) {
	cases := []struct {
		target Target
		want   int
	}{
		{Up, 0}, {Rig, 1}, {Dwn, 2}, {Lft, 3}, {Any, 4},
	}
	for _, c := range cases {
		require.True(t, c.target.IsSide())
		assert.Equal(t, c.want, c.target.SideIndex())
	}
	assert.False(t, Stk.IsSide())
	assert.False(t, Ref.IsSide())
}

func TestOpcodeByNameRoundTrip(t *testing.T) {
	for op, name := range opcodeNames {
		got, ok := OpcodeByName(name)
		require.True(t, ok)
		assert.Equal(t, op, got)
	}
	_, ok := OpcodeByName("nonexistent")
	assert.False(t, ok)
}

func TestTargetByNameRoundTrip(t *testing.T) {
	for target, name := range targetNames {
		got, ok := TargetByName(name)
		require.True(t, ok)
		assert.Equal(t, target, got)
	}
}

func TestIsJumpAndIsWrite(t *testing.T) {
	assert.True(t, Jmp.IsJump())
	assert.True(t, Jez.IsJump())
	assert.True(t, Jnz.IsJump())
	assert.True(t, Jof.IsJump())
	assert.False(t, Add.IsJump())

	assert.True(t, Put.IsWrite())
	assert.True(t, Pop.IsWrite())
	assert.False(t, Get.IsWrite())
}
