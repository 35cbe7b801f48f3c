// Package wal implements an append-only key/value log with LSN tracking and CRC32 checksums.
package wal

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
)

// Record layout (24-byte header + payload + 4-byte trailer):
//
//	Magic (4B) | Type (1B) | Flags (1B) | Reserved (2B)
//	LSN (8B, uint64)
//	PayloadLen (4B, uint32)
//	HeaderCRC32 (4B) - checksum of bytes [0:20]
//	Payload (variable)
//	PayloadCRC32 (4B)
//
// A PUT payload is KeyLen (2B) + Key + Value.

const (
	// MagicBytes identifies a record ("KVLR")
	MagicBytes uint32 = 0x4B564C52

	// HeaderSize is the fixed size of the record header
	HeaderSize = 24

	// MaxPayloadSize limits individual record size (10MB)
	MaxPayloadSize = 10 * 1024 * 1024

	// MaxKeyLen limits key length
	MaxKeyLen = 65535 // uint16 max
)

// RecordType identifies the type of record
type RecordType uint8

const (
	RecordTypePut        RecordType = 0x01 // Replace the value of a key
	RecordTypeCheckpoint RecordType = 0x02 // Ends a compacted snapshot
)

func (r RecordType) String() string {
	switch r {
	case RecordTypePut:
		return "PUT"
	case RecordTypeCheckpoint:
		return "CHECKPOINT"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", r)
	}
}

// Record is a decoded log entry
type Record struct {
	Magic      uint32
	Type       RecordType
	Flags      uint8
	Reserved   uint16
	LSN        uint64
	PayloadLen uint32
	HeaderCRC  uint32
	Payload    []byte
	PayloadCRC uint32
}

// NewRecord creates a record with both checksums filled in
func NewRecord(recType RecordType, lsn uint64, payload []byte) (*Record, error) {
	if len(payload) > MaxPayloadSize {
		return nil, fmt.Errorf("payload too large: %d > %d", len(payload), MaxPayloadSize)
	}

	rec := &Record{
		Magic:      MagicBytes,
		Type:       recType,
		LSN:        lsn,
		PayloadLen: uint32(len(payload)),
		Payload:    payload,
	}
	rec.HeaderCRC = crc32.ChecksumIEEE(rec.headerBytes())
	rec.PayloadCRC = crc32.ChecksumIEEE(payload)

	return rec, nil
}

// headerBytes encodes the checksummed part of the header
func (r *Record) headerBytes() []byte {
	buf := make([]byte, 20)
	binary.LittleEndian.PutUint32(buf[0:4], r.Magic)
	buf[4] = byte(r.Type)
	buf[5] = r.Flags
	binary.LittleEndian.PutUint16(buf[6:8], r.Reserved)
	binary.LittleEndian.PutUint64(buf[8:16], r.LSN)
	binary.LittleEndian.PutUint32(buf[16:20], r.PayloadLen)
	return buf
}

// Encode serializes the record
func (r *Record) Encode() []byte {
	buf := make([]byte, r.TotalSize())
	copy(buf[0:20], r.headerBytes())
	binary.LittleEndian.PutUint32(buf[20:24], r.HeaderCRC)
	copy(buf[HeaderSize:], r.Payload)
	binary.LittleEndian.PutUint32(buf[HeaderSize+len(r.Payload):], r.PayloadCRC)
	return buf
}

// DecodeRecord deserializes and verifies a record
func DecodeRecord(data []byte) (*Record, error) {
	if len(data) < HeaderSize {
		return nil, fmt.Errorf("data too short for header: %d < %d", len(data), HeaderSize)
	}

	rec := &Record{
		Magic:      binary.LittleEndian.Uint32(data[0:4]),
		Type:       RecordType(data[4]),
		Flags:      data[5],
		Reserved:   binary.LittleEndian.Uint16(data[6:8]),
		LSN:        binary.LittleEndian.Uint64(data[8:16]),
		PayloadLen: binary.LittleEndian.Uint32(data[16:20]),
		HeaderCRC:  binary.LittleEndian.Uint32(data[20:24]),
	}

	if rec.Magic != MagicBytes {
		return nil, fmt.Errorf("invalid magic: expected 0x%X, got 0x%X", MagicBytes, rec.Magic)
	}
	if expected := crc32.ChecksumIEEE(data[0:20]); rec.HeaderCRC != expected {
		return nil, fmt.Errorf("header CRC mismatch: expected 0x%X, got 0x%X", expected, rec.HeaderCRC)
	}
	if rec.PayloadLen > MaxPayloadSize {
		return nil, fmt.Errorf("payload too large: %d", rec.PayloadLen)
	}

	total := rec.TotalSize()
	if len(data) < total {
		return nil, fmt.Errorf("data too short for payload: %d < %d", len(data), total)
	}

	rec.Payload = make([]byte, rec.PayloadLen)
	copy(rec.Payload, data[HeaderSize:HeaderSize+int(rec.PayloadLen)])
	rec.PayloadCRC = binary.LittleEndian.Uint32(data[HeaderSize+int(rec.PayloadLen) : total])

	if expected := crc32.ChecksumIEEE(rec.Payload); rec.PayloadCRC != expected {
		return nil, fmt.Errorf("payload CRC mismatch: expected 0x%X, got 0x%X", expected, rec.PayloadCRC)
	}

	return rec, nil
}

// TotalSize returns the encoded size of the record
func (r *Record) TotalSize() int {
	return HeaderSize + int(r.PayloadLen) + 4
}

// EncodePutPayload serializes a key and its value
func EncodePutPayload(key string, value []byte) ([]byte, error) {
	if key == "" {
		return nil, fmt.Errorf("key is required")
	}
	if len(key) > MaxKeyLen {
		return nil, fmt.Errorf("key too long: %d > %d", len(key), MaxKeyLen)
	}

	buf := make([]byte, 2+len(key)+len(value))
	binary.LittleEndian.PutUint16(buf[0:2], uint16(len(key)))
	copy(buf[2:], key)
	copy(buf[2+len(key):], value)
	return buf, nil
}

// DecodePutPayload splits a PUT payload into key and value
func DecodePutPayload(data []byte) (string, []byte, error) {
	if len(data) < 2 {
		return "", nil, fmt.Errorf("put payload too short: %d", len(data))
	}

	keyLen := int(binary.LittleEndian.Uint16(data[0:2]))
	if len(data) < 2+keyLen {
		return "", nil, fmt.Errorf("put payload truncated: key needs %d bytes, have %d", keyLen, len(data)-2)
	}

	key := string(data[2 : 2+keyLen])
	value := make([]byte, len(data)-2-keyLen)
	copy(value, data[2+keyLen:])
	return key, value, nil
}

// EncodeCheckpointPayload stores the number of keys in a snapshot
func EncodeCheckpointPayload(keys uint64) []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, keys)
	return buf
}

// DecodeCheckpointPayload reads a checkpoint payload
func DecodeCheckpointPayload(data []byte) (uint64, error) {
	if len(data) < 8 {
		return 0, fmt.Errorf("checkpoint payload too short: %d", len(data))
	}
	return binary.LittleEndian.Uint64(data), nil
}
