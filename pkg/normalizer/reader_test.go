package normalizer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordReaderSplitsOnSeparator(t *testing.T) {
	input := "first body\n" + RecordSeparator + "\nsecond body\n" + RecordSeparator + "\n"
	rr := NewRecordReader(strings.NewReader(input))

	body, ok := rr.Next()
	require.True(t, ok)
	assert.Equal(t, "first body", body)

	body, ok = rr.Next()
	require.True(t, ok)
	assert.Equal(t, "second body", body)

	_, ok = rr.Next()
	assert.False(t, ok)
}

func TestRecordReaderDropsStdoutLines(t *testing.T) {
	input := "line one\nSTDOUT:hello from the program\nline two\n" + RecordSeparator + "\n"
	rr := NewRecordReader(strings.NewReader(input))

	body, ok := rr.Next()
	require.True(t, ok)
	assert.Equal(t, "line one\nline two", body)
}

func TestRecordReaderEmptyRecordIsNoopSuccess(t *testing.T) {
	input := RecordSeparator + "\nbody\n" + RecordSeparator + "\n"
	rr := NewRecordReader(strings.NewReader(input))

	body, ok := rr.Next()
	require.True(t, ok)
	assert.Empty(t, body)

	body, ok = rr.Next()
	require.True(t, ok)
	assert.Equal(t, "body", body)
}

func TestRecordReaderYieldsFinalUnterminatedBuffer(t *testing.T) {
	input := "first\n" + RecordSeparator + "\ntrailing, no separator"
	rr := NewRecordReader(strings.NewReader(input))

	_, ok := rr.Next()
	require.True(t, ok)

	body, ok := rr.Next()
	require.True(t, ok)
	assert.Equal(t, "trailing, no separator", body)

	_, ok = rr.Next()
	assert.False(t, ok)
}
