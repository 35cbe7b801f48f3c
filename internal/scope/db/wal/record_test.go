package wal

import (
	"bytes"
	"testing"
)

func TestNewRecord(t *testing.T) {
	payload := []byte("test payload")
	rec, err := NewRecord(RecordTypePut, 1, payload)
	if err != nil {
		t.Fatalf("failed to create record: %v", err)
	}

	if rec.Magic != MagicBytes {
		t.Errorf("magic mismatch: expected 0x%X, got 0x%X", MagicBytes, rec.Magic)
	}
	if rec.Type != RecordTypePut {
		t.Errorf("type mismatch: expected %v, got %v", RecordTypePut, rec.Type)
	}
	if rec.LSN != 1 {
		t.Errorf("LSN mismatch: expected 1, got %d", rec.LSN)
	}
	if rec.PayloadLen != uint32(len(payload)) {
		t.Errorf("payload length mismatch: expected %d, got %d", len(payload), rec.PayloadLen)
	}
}

func TestNewRecordTooLarge(t *testing.T) {
	_, err := NewRecord(RecordTypePut, 1, make([]byte, MaxPayloadSize+1))
	if err == nil {
		t.Error("expected error for oversized payload")
	}
}

func TestRecordEncodeDecode(t *testing.T) {
	payload := []byte("test payload data")
	original, err := NewRecord(RecordTypePut, 42, payload)
	if err != nil {
		t.Fatalf("failed to create record: %v", err)
	}

	encoded := original.Encode()
	if len(encoded) != original.TotalSize() {
		t.Errorf("encoded size mismatch: expected %d, got %d", original.TotalSize(), len(encoded))
	}

	decoded, err := DecodeRecord(encoded)
	if err != nil {
		t.Fatalf("failed to decode record: %v", err)
	}

	if decoded.Type != original.Type {
		t.Errorf("type mismatch: expected %v, got %v", original.Type, decoded.Type)
	}
	if decoded.LSN != original.LSN {
		t.Errorf("LSN mismatch: expected %d, got %d", original.LSN, decoded.LSN)
	}
	if !bytes.Equal(decoded.Payload, original.Payload) {
		t.Errorf("payload mismatch: expected %q, got %q", original.Payload, decoded.Payload)
	}
}

func TestRecordCRCValidation(t *testing.T) {
	rec, err := NewRecord(RecordTypePut, 1, []byte("test payload"))
	if err != nil {
		t.Fatalf("failed to create record: %v", err)
	}
	encoded := rec.Encode()

	tests := []struct {
		name   string
		offset int
	}{
		{"corrupt magic", 0},
		{"corrupt LSN", 10},
		{"corrupt payload", HeaderSize + 2},
		{"corrupt payload CRC", len(encoded) - 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			corrupted := make([]byte, len(encoded))
			copy(corrupted, encoded)
			corrupted[tt.offset] ^= 0xFF

			if _, err := DecodeRecord(corrupted); err == nil {
				t.Error("expected decode error")
			}
		})
	}

	if _, err := DecodeRecord(encoded[:HeaderSize-1]); err == nil {
		t.Error("expected error for short header")
	}
	if _, err := DecodeRecord(encoded[:len(encoded)-2]); err == nil {
		t.Error("expected error for truncated payload")
	}
}

func TestPutPayloadEncodeDecode(t *testing.T) {
	value := []byte(`{"q1":{"myAnswer":"A","updatedAt":"2025-01-01T00:00:00.000Z"}}`)
	payload, err := EncodePutPayload("myAnswers_v1", value)
	if err != nil {
		t.Fatalf("failed to encode: %v", err)
	}

	key, got, err := DecodePutPayload(payload)
	if err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if key != "myAnswers_v1" {
		t.Errorf("key mismatch: got %q", key)
	}
	if !bytes.Equal(got, value) {
		t.Errorf("value mismatch: got %q", got)
	}

	// empty value is allowed
	payload, _ = EncodePutPayload("k", nil)
	key, got, err = DecodePutPayload(payload)
	if err != nil || key != "k" || len(got) != 0 {
		t.Errorf("unexpected decode of empty value: %q %q %v", key, got, err)
	}
}

func TestPutPayloadErrors(t *testing.T) {
	if _, err := EncodePutPayload("", []byte("v")); err == nil {
		t.Error("expected error for empty key")
	}
	if _, _, err := DecodePutPayload([]byte{1}); err == nil {
		t.Error("expected error for short payload")
	}
	if _, _, err := DecodePutPayload([]byte{10, 0, 'a'}); err == nil {
		t.Error("expected error for truncated key")
	}
}

func TestCheckpointPayload(t *testing.T) {
	n, err := DecodeCheckpointPayload(EncodeCheckpointPayload(17))
	if err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if n != 17 {
		t.Errorf("expected 17, got %d", n)
	}
	if _, err := DecodeCheckpointPayload([]byte{1, 2}); err == nil {
		t.Error("expected error for short payload")
	}
}

func TestRecordTypeString(t *testing.T) {
	tests := []struct {
		recType  RecordType
		expected string
	}{
		{RecordTypePut, "PUT"},
		{RecordTypeCheckpoint, "CHECKPOINT"},
		{RecordType(99), "UNKNOWN(99)"},
	}

	for _, tt := range tests {
		if got := tt.recType.String(); got != tt.expected {
			t.Errorf("expected %s, got %s", tt.expected, got)
		}
	}
}
