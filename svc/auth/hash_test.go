package auth

import (
	"strings"
	"testing"
)

func newTestHasher(t *testing.T) *Hasher {
	t.Helper()
	h, err := NewHasher(4)
	if err != nil {
		t.Fatal(err)
	}
	if err := h.Start(2); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(h.Stop)
	return h
}

func TestNewHasherRejectsBadCost(t *testing.T) {
	if _, err := NewHasher(2); err == nil {
		t.Error("cost below bcrypt minimum accepted")
	}
	if _, err := NewHasher(40); err == nil {
		t.Error("cost above bcrypt maximum accepted")
	}
}

func TestHashRequiresStart(t *testing.T) {
	h, err := NewHasher(4)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := h.Hash("password", "salt"); err == nil {
		t.Error("Hash before Start should fail")
	}
}

func TestHashVerifyRoundTrip(t *testing.T) {
	h := newTestHasher(t)
	salt, err := GenerateSalt()
	if err != nil {
		t.Fatal(err)
	}
	digest, err := h.Hash("my password", salt)
	if err != nil {
		t.Fatal(err)
	}
	if !h.Verify("my password", salt, digest) {
		t.Error("correct password rejected")
	}
	if h.Verify("wrong password", salt, digest) {
		t.Error("wrong password accepted")
	}
	if h.Verify("my password", "wrong salt", digest) {
		t.Error("wrong salt accepted")
	}
}

func TestHashRejectsEmptyAndOversized(t *testing.T) {
	h := newTestHasher(t)
	if _, err := h.Hash("", "salt"); err == nil {
		t.Error("empty password accepted")
	}
	long := strings.Repeat("x", maxPasswordLength+1)
	if _, err := h.Hash(long, "salt"); err == nil {
		t.Error("oversized password accepted")
	}
	if h.Verify(long, "salt", dummyHash) {
		t.Error("oversized password verified")
	}
}

func TestHashLongPassphrase(t *testing.T) {
	h := newTestHasher(t)
	salt, err := GenerateSalt()
	if err != nil {
		t.Fatal(err)
	}
	// bcrypt alone caps input at 72 bytes; the HMAC compression step must
	// keep passphrases up to the declared maximum working.
	for _, n := range []int{64, 100, maxPasswordLength} {
		password := strings.Repeat("p", n)
		digest, err := h.Hash(password, salt)
		if err != nil {
			t.Fatalf("Hash failed for %d-byte password: %v", n, err)
		}
		if !h.Verify(password, salt, digest) {
			t.Errorf("%d-byte password rejected on verify", n)
		}
		if h.Verify(password[:n-1]+"q", salt, digest) {
			t.Errorf("%d-byte password: trailing byte is not significant", n)
		}
	}
}

func TestGenerateSaltUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		salt, err := GenerateSalt()
		if err != nil {
			t.Fatal(err)
		}
		if salt == "" {
			t.Fatal("empty salt")
		}
		if seen[salt] {
			t.Fatalf("salt repeated after %d draws", i)
		}
		seen[salt] = true
	}
}

func TestSameSaltDifferentPasswords(t *testing.T) {
	h := newTestHasher(t)
	salt, _ := GenerateSalt()
	a, err := h.Hash("password one", salt)
	if err != nil {
		t.Fatal(err)
	}
	b, err := h.Hash("password two", salt)
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Error("different passwords produced identical digests")
	}
}
