package auth

import (
	"errors"
	"testing"
)

func TestVerifyAgainstHash(t *testing.T) {
	hash, err := Hash("shift-secret")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	g := New(hash)
	if g.Open() {
		t.Fatal("gate with hash reported open")
	}
	if err := g.Verify("shift-secret"); err != nil {
		t.Fatalf("correct password rejected: %v", err)
	}
	if err := g.Verify("wrong"); !errors.Is(err, ErrWrongPassword) {
		t.Fatalf("wrong password error = %v, want ErrWrongPassword", err)
	}
}

func TestEmptyHashIsOpenGate(t *testing.T) {
	g := New("")
	if !g.Open() {
		t.Fatal("empty hash should be open")
	}
	if err := g.Verify("anything"); err != nil {
		t.Fatalf("open gate rejected password: %v", err)
	}
}
