package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	env := New([]byte("top-secret"), nil)

	values := Values{"user": map[string]interface{}{"sub": "123", "email": "a@b"}}
	encoded, err := env.Encode(values)
	require.NoError(t, err)

	decoded := env.Decode(encoded)
	assert.Equal(t, values, decoded)
}

func TestDecodeWrongSecretYieldsEmpty(t *testing.T) {
	env := New([]byte("correct-secret"), nil)
	other := New([]byte("wrong-secret"), nil)

	encoded, err := env.Encode(Values{"user": "alice"})
	require.NoError(t, err)

	decoded := other.Decode(encoded)
	assert.Empty(t, decoded)
}

func TestDecodeMalformedShapesYieldEmpty(t *testing.T) {
	env := New([]byte("secret"), nil)

	cases := []string{
		"",
		"no-dot-at-all",
		"not-base64!!!." + env.Sign([]byte("not-base64!!!")),
		"dGVzdA==.deadbeef",
	}
	for _, c := range cases {
		assert.Empty(t, env.Decode(c), "input %q should decode to empty session", c)
	}
}

func TestIdempotentOnUnmutatedSession(t *testing.T) {
	env := New([]byte("secret"), nil)
	values := Values{"user": map[string]interface{}{"sub": "42"}}

	first, err := env.Encode(values)
	require.NoError(t, err)

	decoded := env.Decode(first)
	second, err := env.Encode(decoded)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestVerifyConstantTimeComparison(t *testing.T) {
	env := New([]byte("secret"), nil)
	sig := env.Sign([]byte("payload"))

	assert.True(t, env.Verify([]byte("payload"), sig))
	assert.False(t, env.Verify([]byte("payload"), "00"))
	assert.False(t, env.Verify([]byte("tampered"), sig))
}
