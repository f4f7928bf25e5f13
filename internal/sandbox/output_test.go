package sandbox

import (
	"strings"
	"testing"
)

func TestLimitedBuffer_CapsOutput(t *testing.T) {
	lb := newLimitedBuffer(10)

	n, err := lb.Write([]byte("0123456789abcdef"))
	if err != nil {
		t.Fatalf("expected write to succeed, got: %v", err)
	}
	// The writer pretends the whole chunk landed so the process never sees
	// a short write.
	if n != 16 {
		t.Fatalf("expected reported write of 16 bytes, got %d", n)
	}
	if lb.String() != "0123456789" {
		t.Fatalf("expected capped content, got %q", lb.String())
	}
	if !lb.Exceeded() {
		t.Fatalf("expected exceeded flag set")
	}
}

func TestLimitedBuffer_UnderLimit(t *testing.T) {
	lb := newLimitedBuffer(64)
	if _, err := lb.Write([]byte("hello")); err != nil {
		t.Fatalf("expected write to succeed, got: %v", err)
	}
	if lb.String() != "hello" || lb.Exceeded() {
		t.Fatalf("expected content intact under the limit, got %q exceeded=%v", lb.String(), lb.Exceeded())
	}
}

func TestLimitedBuffer_DropsAfterLimit(t *testing.T) {
	lb := newLimitedBuffer(4)
	if _, err := lb.Write([]byte(strings.Repeat("x", 4))); err != nil {
		t.Fatalf("expected write to succeed, got: %v", err)
	}
	if _, err := lb.Write([]byte("more")); err != nil {
		t.Fatalf("expected write past the limit to succeed, got: %v", err)
	}
	if lb.String() != "xxxx" {
		t.Fatalf("expected later writes dropped, got %q", lb.String())
	}
	if !lb.Exceeded() {
		t.Fatalf("expected exceeded flag set")
	}
}
