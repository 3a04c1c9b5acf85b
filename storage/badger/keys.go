package badger

import (
	"encoding/binary"
	"time"
)

// Key prefixes for different data types
const (
	textPrefix      = "txt"
	batchPrefix     = "bat"
	batchDatePrefix = "batd"
)

// makeTextKey generates a key for cached text by processed key.
func makeTextKey(key string) []byte {
	return []byte(textPrefix + ":" + key)
}

// makeBatchKey generates a key for a batch record by ID.
func makeBatchKey(id string) []byte {
	return []byte(batchPrefix + ":" + id)
}

// makeBatchDateKey generates a composite key for the start-time index.
// Format: prefix:timestamp:id
func makeBatchDateKey(startedAt time.Time, id string) []byte {
	prefix := []byte(batchDatePrefix + ":")
	buf := make([]byte, len(prefix)+8+len(id))
	offset := copy(buf, prefix)
	// BigEndian keeps lexicographic order equal to time order
	binary.BigEndian.PutUint64(buf[offset:], uint64(startedAt.UnixMicro()))
	offset += 8
	copy(buf[offset:], id)
	return buf
}

// batchDateIndexPrefix is the common prefix of all start-time index keys.
func batchDateIndexPrefix() []byte {
	return []byte(batchDatePrefix + ":")
}
