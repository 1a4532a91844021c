package pool

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetBufferIsEmpty(t *testing.T) {
	b := GetBuffer()
	b.WriteString("Harry")
	PutBuffer(b)

	again := GetBuffer()
	assert.Equal(t, 0, again.Len())
	PutBuffer(again)
}

func TestPutBufferDropsHugeBuffers(t *testing.T) {
	b := GetBuffer()
	b.Write(bytes.Repeat([]byte("x"), maxPooledBuffer+1))
	PutBuffer(b) // not pooled, must not panic
}

func TestGetCountsIsEmpty(t *testing.T) {
	m := GetCounts()
	m["ron"] = 3
	PutCounts(m)

	again := GetCounts()
	assert.Empty(t, again)
	PutCounts(again)
}
