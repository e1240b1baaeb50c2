package sse

import (
	"strconv"
	"testing"

	// Packages
	assert "github.com/stretchr/testify/assert"
)

////////////////////////////////////////////////////////////////////////////////
// BUFFER TESTS

func Test_Buffer_NewestFirst(t *testing.T) {
	assert := assert.New(t)

	buffer := NewBuffer(10)
	buffer.Push(Envelope{Id: "1"})
	buffer.Push(Envelope{Id: "2"})
	buffer.Push(Envelope{Id: "3"})

	snapshot := buffer.Snapshot()
	assert.Len(snapshot, 3)
	assert.Equal("3", snapshot[0].Id)
	assert.Equal("2", snapshot[1].Id)
	assert.Equal("1", snapshot[2].Id)
}

func Test_Buffer_Capacity(t *testing.T) {
	assert := assert.New(t)

	// Pushing 250 envelopes through a 200-envelope buffer retains exactly
	// the newest 200, oldest evicted first
	buffer := NewBuffer(200)
	for i := 0; i < 250; i++ {
		buffer.Push(Envelope{Id: strconv.Itoa(i)})
	}

	assert.Equal(200, buffer.Len())
	snapshot := buffer.Snapshot()
	assert.Len(snapshot, 200)
	assert.Equal("249", snapshot[0].Id)
	assert.Equal("50", snapshot[199].Id)
}

func Test_Buffer_DefaultCapacity(t *testing.T) {
	assert := assert.New(t)

	buffer := NewBuffer(0)
	for i := 0; i < DefaultCapacity+1; i++ {
		buffer.Push(Envelope{Id: strconv.Itoa(i)})
	}
	assert.Equal(DefaultCapacity, buffer.Len())
}

func Test_Buffer_SnapshotIsolation(t *testing.T) {
	assert := assert.New(t)

	buffer := NewBuffer(10)
	buffer.Push(Envelope{Id: "1"})

	// A snapshot is a copy: later pushes do not leak into it
	snapshot := buffer.Snapshot()
	buffer.Push(Envelope{Id: "2"})

	assert.Len(snapshot, 1)
	assert.Equal("1", snapshot[0].Id)
}
