package vm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWritePushPopAcceptInRangePointerAndTempOffsets(t *testing.T) {
	var out strings.Builder
	e := NewVMEmitter(&out)

	require.NoError(t, e.WritePush(Pointer, 0))
	require.NoError(t, e.WritePush(Pointer, 1))
	require.NoError(t, e.WritePop(Temp, 0))
	require.NoError(t, e.WritePop(Temp, 7))
	require.NoError(t, e.Err())

	assert.Equal(t, "push pointer 0\npush pointer 1\npop temp 0\npop temp 7\n", out.String())
}

func TestWritePushRejectsOutOfRangePointerOffset(t *testing.T) {
	var out strings.Builder
	e := NewVMEmitter(&out)

	err := e.WritePush(Pointer, 2)
	assert.Error(t, err, "'pointer' only has 2 slots (0,1)")
	assert.Empty(t, out.String(), "a rejected offset must not reach the output")
}

func TestWritePopRejectsOutOfRangeTempOffset(t *testing.T) {
	var out strings.Builder
	e := NewVMEmitter(&out)

	err := e.WritePop(Temp, 8)
	assert.Error(t, err, "'temp' only has 8 slots (0-7)")
	assert.Empty(t, out.String(), "a rejected offset must not reach the output")
}

func TestCheckOffsetIgnoresSegmentsWithoutAFixedSize(t *testing.T) {
	var out strings.Builder
	e := NewVMEmitter(&out)

	assert.NoError(t, e.WritePush(Constant, 32767))
	assert.NoError(t, e.WritePush(Local, 1000))
	assert.NoError(t, e.WritePush(Argument, 1000))
	assert.NoError(t, e.WritePush(Static, 1000))
	assert.NoError(t, e.WritePush(This, 1000))
	assert.NoError(t, e.WritePush(That, 1000))
}
