package mapi

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/klauspost/compress/snappy"
)

// maxBlockSize is the largest payload of a single protocol v9 block:
// 8KiB minus the two header bytes.
const maxBlockSize = 1024*8 - 2

// compression selects the per-block codec negotiated at login.
type compression int

const (
	compressionNone compression = iota
	compressionSnappy
)

// codec reads and writes MAPI blocks. A message is split into blocks
// of at most maxBlockSize bytes, each preceded by a little-endian
// uint16 header encoding length<<1 | last.
type codec struct {
	rw          io.ReadWriter
	compression compression
}

// writeMessage frames msg into blocks and writes them out.
func (c *codec) writeMessage(msg []byte) error {
	pos := 0
	for {
		chunk := msg[pos:]
		if len(chunk) > maxBlockSize {
			chunk = chunk[:maxBlockSize]
		}
		last := uint16(0)
		if len(chunk) < maxBlockSize {
			last = 1
		}

		data := chunk
		if c.compression == compressionSnappy {
			data = snappy.Encode(nil, chunk)
		}

		var header [2]byte
		binary.LittleEndian.PutUint16(header[:], uint16(len(data))<<1|last)
		if _, err := c.rw.Write(header[:]); err != nil {
			return fmt.Errorf("write block header: %w", err)
		}
		// The empty last block is just its header. A zero-length write
		// blocks forever on a synchronous peer that stopped reading.
		if len(data) > 0 {
			if _, err := c.rw.Write(data); err != nil {
				return fmt.Errorf("write block: %w", err)
			}
		}

		// Advance by the source chunk, not the compressed length.
		pos += len(chunk)
		if last == 1 {
			return nil
		}
	}
}

// readMessage reads blocks until one is flagged last and returns the
// reassembled message.
func (c *codec) readMessage() ([]byte, error) {
	var result bytes.Buffer
	for {
		var header [2]byte
		if _, err := io.ReadFull(c.rw, header[:]); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return nil, fmt.Errorf("%w: server closed connection", ErrOperational)
			}
			return nil, fmt.Errorf("read block header: %w", err)
		}
		unpacked := binary.LittleEndian.Uint16(header[:])
		length := int(unpacked >> 1)
		last := unpacked&1 == 1

		if length > 0 {
			block := make([]byte, length)
			if _, err := io.ReadFull(c.rw, block); err != nil {
				return nil, fmt.Errorf("%w: server closed connection", ErrOperational)
			}
			if c.compression == compressionSnappy {
				decoded, err := snappy.Decode(nil, block)
				if err != nil {
					return nil, fmt.Errorf("decompress block: %w", err)
				}
				block = decoded
			}
			result.Write(block)
		}
		if last {
			return result.Bytes(), nil
		}
	}
}
