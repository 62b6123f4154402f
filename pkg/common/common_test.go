package common

import (
	"encoding/base64"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOrderToken(t *testing.T) {
	token, hash, err := NewOrderToken()
	require.NoError(t, err)

	raw, err := base64.RawURLEncoding.DecodeString(token)
	require.NoError(t, err)
	assert.Len(t, raw, 32)
	assert.Equal(t, Sha256Hex(token), hash)
	assert.Len(t, hash, 64)

	other, _, err := NewOrderToken()
	require.NoError(t, err)
	assert.NotEqual(t, token, other)
}

func TestSafeEqualHex(t *testing.T) {
	h := Sha256Hex("secret")

	assert.True(t, SafeEqualHex(h, Sha256Hex("secret")))
	assert.False(t, SafeEqualHex(h, Sha256Hex("other")))
	assert.False(t, SafeEqualHex(h, ""))
	assert.False(t, SafeEqualHex("", ""))
	assert.False(t, SafeEqualHex(h, h[:10]))
	assert.False(t, SafeEqualHex("zz", "zz"))
}

func TestSafeEqualString(t *testing.T) {
	assert.True(t, SafeEqualString("abc", "abc"))
	assert.False(t, SafeEqualString("abc", "abd"))
	assert.False(t, SafeEqualString("", ""))
}

func TestRoundMoney(t *testing.T) {
	cases := map[float64]float64{
		100:     100,
		1.005:   1.01,
		2.675:   2.68,
		-1.005:  -1.01,
		10.4449: 10.44,
		0.125:   0.13,
	}
	for in, want := range cases {
		assert.Equal(t, want, RoundMoney(in), "RoundMoney(%v)", in)
	}
	assert.True(t, math.IsNaN(RoundMoney(math.NaN())))
}

func TestSubtotal(t *testing.T) {
	assert.Equal(t, 200.0, Subtotal(100, 2))
	assert.Equal(t, 0.3, Subtotal(0.1, 3))
}

func TestMask(t *testing.T) {
	assert.Equal(t, "undefined", Mask(""))
	assert.Equal(t, "abc***", Mask("abcdef"))
	assert.Equal(t, "ab***", Mask("ab"))
	assert.Equal(t, "APP_US...7890", Mask("APP_USR-1234567890"))
}

func TestTokenLabel(t *testing.T) {
	assert.Equal(t, "missing", TokenLabel(""))
	assert.Equal(t, "TEST-*", TokenLabel("TEST-abc"))
	assert.Equal(t, "APP_USR-* (prod)", TokenLabel("APP_USR-abc"))
	assert.Equal(t, "unknown-format", TokenLabel("xyz"))
}

func TestNextIDIsUnique(t *testing.T) {
	seen := make(map[int64]bool)
	for i := 0; i < 1000; i++ {
		id := NextID()
		assert.Positive(t, id)
		assert.False(t, seen[id])
		seen[id] = true
	}
}

func TestErrorID(t *testing.T) {
	id := ErrorID()
	assert.Len(t, id, 16)
	assert.NotEqual(t, id, ErrorID())
}
