package ir

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type authorID int32

func TestKey_NormalizesIntegers(t *testing.T) {
	var small int8 = 7
	testCases := []struct {
		name string
		in   any
	}{
		{"int", 7},
		{"int8", small},
		{"int64", int64(7)},
		{"uint16", uint16(7)},
		{"named", authorID(7)},
		{"pointer", &small},
		{"integral float", 7.0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			k, ok := Key(tc.in)
			assert.True(t, ok)
			assert.Equal(t, int64(7), k)
		})
	}
}

func TestKey_Nil(t *testing.T) {
	_, ok := Key(nil)
	assert.False(t, ok)

	var p *int64
	_, ok = Key(p)
	assert.False(t, ok)
}

func TestKey_StringsAndBytes(t *testing.T) {
	k, ok := Key([]byte("abc"))
	assert.True(t, ok)
	assert.Equal(t, "abc", k)
	assert.True(t, KeysEqual("abc", []byte("abc")))
}

func TestKey_UUIDMatchesText(t *testing.T) {
	id := uuid.MustParse("0b6b2a3a-6a0e-4f7c-9d45-3b7c1f0f2d11")
	assert.True(t, KeysEqual(id, "0b6b2a3a-6a0e-4f7c-9d45-3b7c1f0f2d11"))
}

func TestKey_Time(t *testing.T) {
	local := time.Date(2024, 3, 1, 10, 0, 0, 0, time.FixedZone("X", 3600))
	assert.True(t, KeysEqual(local, local.UTC()))
}

func TestKeysEqual(t *testing.T) {
	assert.True(t, KeysEqual(int64(3), 3))
	assert.False(t, KeysEqual(3, 4))
	assert.False(t, KeysEqual(nil, nil))
	assert.False(t, KeysEqual("3", 3))
}
