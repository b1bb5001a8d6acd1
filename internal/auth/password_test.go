package auth

import (
	"strings"
	"testing"
)

func TestHashAndVerify(t *testing.T) {
	ps := NewPasswordServiceForTest(4)

	hash, err := ps.Hash("correct horse battery staple")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if hash == "correct horse battery staple" {
		t.Fatal("Hash() returned the plaintext")
	}

	if err := ps.Verify(hash, "correct horse battery staple"); err != nil {
		t.Errorf("Verify() with correct password: %v", err)
	}
	if err := ps.Verify(hash, "wrong"); err == nil {
		t.Error("Verify() should fail for the wrong password")
	}
}

func TestHash_RejectsOverlongPassword(t *testing.T) {
	ps := NewPasswordServiceForTest(4)
	if _, err := ps.Hash(strings.Repeat("x", 73)); err == nil {
		t.Fatal("Hash() should reject passwords over 72 bytes")
	}
}

func TestHash_SaltsDiffer(t *testing.T) {
	ps := NewPasswordServiceForTest(4)
	h1, _ := ps.Hash("same")
	h2, _ := ps.Hash("same")
	if h1 == h2 {
		t.Error("two hashes of the same password should differ (random salt)")
	}
}
