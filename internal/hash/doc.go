// Package hash provides CRC32-Castagnoli (CRC32C) checksums for snapshot
// integrity.
//
// For one-shot checksums:
//
//	checksum := hash.CRC32C(data)
//
// For streams, wrap the writer or reader and read the running sum once the
// payload has passed through:
//
//	w := hash.NewWriter(dst)
//	encodePayload(w)
//	binary.Write(dst, binary.LittleEndian, w.Sum32())
package hash
