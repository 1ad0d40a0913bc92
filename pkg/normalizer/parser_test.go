package normalizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRecordEmptyBodyIsNoop(t *testing.T) {
	rec, err := ParseRecord("   \n  ", 0)
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestParseRecordDecodesStack(t *testing.T) {
	body := `{"line": 7, "stack": [{"func_name": "main", "FP": "0xA", "ordered_varnames": ["n"], "locals": {}}]}`
	rec, err := ParseRecord(body, 0)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, 7, rec.Line)
	require.Len(t, rec.Stack, 1)
	assert.Equal(t, "main", rec.Stack[0].FuncName)
	assert.Equal(t, []string{"n"}, rec.Stack[0].OrderedVarnames)
}

func TestParseRecordMalformedJSONIsParseError(t *testing.T) {
	_, err := ParseRecord("{not json", 3)
	require.Error(t, err)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 3, pe.RecordIndex)
}
