package mapi

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pipeBuffer is an in-memory io.ReadWriter for codec tests.
type pipeBuffer struct {
	bytes.Buffer
}

func TestCodec_RoundTrip(t *testing.T) {
	var buf pipeBuffer
	c := &codec{rw: &buf}

	require.NoError(t, c.writeMessage([]byte("sSELECT 1;")))

	got, err := c.readMessage()
	require.NoError(t, err)
	assert.Equal(t, "sSELECT 1;", string(got))
}

func TestCodec_HeaderEncoding(t *testing.T) {
	var buf pipeBuffer
	c := &codec{rw: &buf}

	require.NoError(t, c.writeMessage([]byte("hello")))

	raw := buf.Bytes()
	require.Len(t, raw, 2+5)
	header := binary.LittleEndian.Uint16(raw[:2])
	assert.Equal(t, uint16(5), header>>1, "length")
	assert.Equal(t, uint16(1), header&1, "last flag")
}

func TestCodec_EmptyMessage(t *testing.T) {
	var buf pipeBuffer
	c := &codec{rw: &buf}

	require.NoError(t, c.writeMessage(nil))
	require.Equal(t, 2, buf.Len(), "a bare last-block header")

	got, err := c.readMessage()
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCodec_MultiBlock(t *testing.T) {
	// Three full blocks plus a remainder forces block splitting.
	msg := strings.Repeat("x", maxBlockSize*3+17)

	var buf pipeBuffer
	c := &codec{rw: &buf}
	require.NoError(t, c.writeMessage([]byte(msg)))

	// First block header must not carry the last flag.
	header := binary.LittleEndian.Uint16(buf.Bytes()[:2])
	assert.Equal(t, uint16(maxBlockSize), header>>1)
	assert.Zero(t, header&1)

	got, err := c.readMessage()
	require.NoError(t, err)
	assert.Equal(t, msg, string(got))
}

func TestCodec_ExactBlockBoundary(t *testing.T) {
	// A payload of exactly maxBlockSize needs a trailing empty block
	// to carry the last flag.
	msg := strings.Repeat("y", maxBlockSize)

	var buf pipeBuffer
	c := &codec{rw: &buf}
	require.NoError(t, c.writeMessage([]byte(msg)))

	got, err := c.readMessage()
	require.NoError(t, err)
	assert.Equal(t, msg, string(got))
}

func TestCodec_EmptyMessageOverConnection(t *testing.T) {
	// The empty success prompt must complete against a synchronous
	// peer that reads exactly one message and nothing more.
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	done := make(chan error, 1)
	go func() {
		done <- (&codec{rw: client}).writeMessage(nil)
	}()

	got, err := (&codec{rw: server}).readMessage()
	require.NoError(t, err)
	assert.Empty(t, got)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("empty message write did not complete")
	}
}

func TestCodec_SnappyRoundTrip(t *testing.T) {
	var buf pipeBuffer
	c := &codec{rw: &buf, compression: compressionSnappy}

	msg := strings.Repeat("compressible ", 1000)
	require.NoError(t, c.writeMessage([]byte(msg)))

	got, err := c.readMessage()
	require.NoError(t, err)
	assert.Equal(t, msg, string(got))
}

func TestCodec_SnappyMultiBlock(t *testing.T) {
	// Spans several source blocks whose compressed sizes differ from
	// the 8190-byte chunks they frame.
	var msg strings.Builder
	for i := 0; msg.Len() < maxBlockSize*3+41; i++ {
		fmt.Fprintf(&msg, "row %d with some repeating payload text;", i)
	}

	var buf pipeBuffer
	c := &codec{rw: &buf, compression: compressionSnappy}
	require.NoError(t, c.writeMessage([]byte(msg.String())))

	got, err := c.readMessage()
	require.NoError(t, err)
	assert.Equal(t, msg.String(), string(got))
}

func TestCodec_ServerClosedConnection(t *testing.T) {
	var buf pipeBuffer
	c := &codec{rw: &buf}

	_, err := c.readMessage()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrOperational)
}
