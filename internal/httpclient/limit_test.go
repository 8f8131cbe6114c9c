package httpclient

import (
	"bytes"
	"strings"
	"testing"
)

func TestReadAllWithLimitWithinLimit(t *testing.T) {
	payload := []byte("hello")
	got, err := ReadAllWithLimit(bytes.NewReader(payload), int64(len(payload)))
	if err != nil {
		t.Fatalf("ReadAllWithLimit: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("unexpected payload: %q", got)
	}
}

func TestReadAllWithLimitExceeded(t *testing.T) {
	_, err := ReadAllWithLimit(strings.NewReader("too much data"), 4)
	if err == nil {
		t.Fatal("expected error for oversized body")
	}
	if !IsResponseTooLarge(err) {
		t.Fatalf("expected ResponseTooLargeError, got %v", err)
	}
}

func TestReadAllWithLimitZeroMeansUnlimited(t *testing.T) {
	payload := strings.Repeat("a", 4096)
	got, err := ReadAllWithLimit(strings.NewReader(payload), 0)
	if err != nil {
		t.Fatalf("ReadAllWithLimit: %v", err)
	}
	if len(got) != len(payload) {
		t.Fatalf("expected full read, got %d bytes", len(got))
	}
}
