package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsBufSet(t *testing.T) {
	assert.True(t, IsBufSet([]byte{0xFF, 0xFF, 0xFF}, 0xFF))
	assert.False(t, IsBufSet([]byte{0xFF, 0x00}, 0xFF))
	assert.True(t, IsBufSet(nil, 0xFF))
}

func TestRevMemCopy(t *testing.T) {
	dst := make([]byte, 4)
	n := RevMemCopy(dst, []byte{1, 2, 3, 4})
	assert.Equal(t, 4, n)
	assert.Equal(t, []byte{4, 3, 2, 1}, dst)
}

func TestMemDupIsIndependentCopy(t *testing.T) {
	src := []byte{1, 2, 3}
	dup := MemDup(src)
	dup[0] = 9
	assert.Equal(t, byte(1), src[0])
}

func TestStrNCpyMConcatenatesAndTruncates(t *testing.T) {
	dst := make([]byte, 5)
	n := StrNCpyM(dst, "abc", "defgh")
	assert.Equal(t, 5, n)
	assert.Equal(t, []byte("abcde"), dst)
}

func TestBuildUint16LittleEndian(t *testing.T) {
	assert.EqualValues(t, 0x0201, BuildUint16([]byte{0x01, 0x02}))
}

func TestBuildUint32LittleEndian(t *testing.T) {
	assert.EqualValues(t, 0x04030201, BuildUint32([]byte{0x01, 0x02, 0x03, 0x04}, 4))
}

func TestBufferUint32AppendsLittleEndian(t *testing.T) {
	buf := BufferUint32(nil, 0x04030201)
	assert.Equal(t, []byte{0x01, 0x02, 0x03, 0x04}, buf)
}

func TestBufferUint24AppendsThreeBytes(t *testing.T) {
	buf := BufferUint24(nil, 0x030201)
	assert.Equal(t, []byte{0x01, 0x02, 0x03}, buf)
}

func TestItoaRadix(t *testing.T) {
	assert.Equal(t, "255", Itoa(255, 10))
	assert.Equal(t, "ff", Itoa(255, 16))
	assert.Equal(t, "0", Itoa(0, 10))
}

func TestRandRangeStaysInBounds(t *testing.T) {
	InitRand(42)
	for i := 0; i < 100; i++ {
		v := RandRange(5, 10)
		assert.GreaterOrEqual(t, v, int32(5))
		assert.LessOrEqual(t, v, int32(10))
	}
}

func TestRandRangeDegenerateReturnsMin(t *testing.T) {
	assert.EqualValues(t, 3, RandRange(3, 3))
}
