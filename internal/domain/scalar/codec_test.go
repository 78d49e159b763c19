package scalar

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestEncodeSelection(t *testing.T) {
	assert.Equal(t, "", EncodeSelection(nil))
	assert.Equal(t, "", EncodeSelection([]int{}))
	assert.Equal(t, "MA==", EncodeSelection([]int{0}))
	assert.Equal(t, "MCwy", EncodeSelection([]int{0, 2}))
	assert.Equal(t, "MCwxLDI=", EncodeSelection([]int{0, 1, 2}))
}

func TestDecodeSelection(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []int
	}{
		{"empty", "", []int{}},
		{"single", "MA==", []int{0}},
		{"pair", "MCwy", []int{0, 2}},
		{"unpadded", "MA", []int{0}},
		{"invalid base64", "not-valid-base64!!", []int{}},
		{"garbage tokens filtered", base64.StdEncoding.EncodeToString([]byte("1,x,-2,3")), []int{1, 3}},
		{"trailing comma", base64.StdEncoding.EncodeToString([]byte("0,")), []int{0}},
		{"duplicates kept", base64.StdEncoding.EncodeToString([]byte("4,4")), []int{4, 4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DecodeSelection(tt.in)
			assert.NotNil(t, got)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSelectionCodec_RoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		xs := rapid.SliceOfDistinct(rapid.IntRange(0, 100000), rapid.ID[int]).Draw(t, "xs")
		got := DecodeSelection(EncodeSelection(xs))
		assert.ElementsMatch(t, xs, got)
	})
}

func TestDecodeSelection_NeverPanics(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := rapid.String().Draw(t, "s")
		assert.NotPanics(t, func() { DecodeSelection(s) })
	})
}
