package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyIsSixteenHexChars(t *testing.T) {
	k := Key("int main(){}")
	assert.Len(t, k, KeyLen)
}

func TestResultCacheRoundTrip(t *testing.T) {
	rc, err := New(4)
	require.NoError(t, err)

	_, ok := rc.Get("source a")
	assert.False(t, ok)

	rc.Put("source a", []byte(`{"code":"a"}`))
	got, ok := rc.Get("source a")
	require.True(t, ok)
	assert.Equal(t, `{"code":"a"}`, string(got))
	assert.Equal(t, 1, rc.Len())
}

func TestResultCacheDistinctSourcesDistinctKeys(t *testing.T) {
	assert.NotEqual(t, Key("a"), Key("b"))
}
