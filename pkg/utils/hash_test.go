package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFingerprintIsOrderSensitive(t *testing.T) {
	a, err := Fingerprint([]int{1, 2, 3})
	require.NoError(t, err)
	b, err := Fingerprint([]int{1, 2, 3})
	require.NoError(t, err)
	c, err := Fingerprint([]int{3, 2, 1})
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 16)
}

func TestFingerprintRejectsUnencodable(t *testing.T) {
	_, err := Fingerprint(make(chan int))
	assert.Error(t, err)
}
