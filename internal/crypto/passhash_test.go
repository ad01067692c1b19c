package crypto

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestRandBytes_LengthAndUniqueness(t *testing.T) {
	t.Parallel()

	const n = 64
	a, err := RandBytes(n)
	if err != nil {
		t.Fatalf("RandBytes: %v", err)
	}
	if len(a) != n {
		t.Fatalf("len=%d, want=%d", len(a), n)
	}
	b, err := RandBytes(n)
	if err != nil {
		t.Fatalf("RandBytes(2): %v", err)
	}
	if bytes.Equal(a, b) {
		t.Fatalf("two subsequent RandBytes(%d) are equal, looks non-random", n)
	}
}

func TestHashPassword_EncodedAndSalted(t *testing.T) {
	t.Parallel()

	h1, err := HashPassword("p@ssw0rd")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !strings.HasPrefix(h1, "$argon2id$v=19$m=65536,t=3,p=1$") {
		t.Fatalf("unexpected encoding: %s", h1)
	}
	h2, err := HashPassword("p@ssw0rd")
	if err != nil {
		t.Fatalf("HashPassword(2): %v", err)
	}
	if h1 == h2 {
		t.Fatalf("same password hashed twice must differ by salt")
	}
}

func TestVerifyPassword(t *testing.T) {
	t.Parallel()

	enc, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}

	ok, err := VerifyPassword("correct horse battery staple", enc)
	if err != nil || !ok {
		t.Fatalf("VerifyPassword: expected true, got %v (%v)", ok, err)
	}
	ok, err = VerifyPassword("wrong", enc)
	if err != nil || ok {
		t.Fatalf("VerifyPassword: expected false for wrong password, got %v (%v)", ok, err)
	}
	ok, err = VerifyPassword("", enc)
	if err != nil || ok {
		t.Fatalf("VerifyPassword: expected false for empty password, got %v (%v)", ok, err)
	}
}

func TestVerifyPassword_Malformed(t *testing.T) {
	t.Parallel()

	for _, enc := range []string{
		"",
		"plain",
		"$bcrypt$v=19$m=1,t=1,p=1$c2FsdA$a2V5",
		"$argon2id$v=18$m=65536,t=3,p=1$c2FsdA$a2V5",
		"$argon2id$v=19$m=x,t=3,p=1$c2FsdA$a2V5",
		"$argon2id$v=19$m=65536,t=3,p=1$!!!$a2V5",
		"$argon2id$v=19$m=65536,t=3,p=1$c2FsdA$",
	} {
		if _, err := VerifyPassword("pw", enc); !errors.Is(err, ErrMalformedHash) {
			t.Fatalf("VerifyPassword(%q): want ErrMalformedHash, got %v", enc, err)
		}
	}
}

func TestDummyHash_ValidAndStable(t *testing.T) {
	t.Parallel()

	h := DummyHash()
	if h != DummyHash() {
		t.Fatalf("DummyHash must be stable")
	}
	ok, err := VerifyPassword("correct-horse", h)
	if err != nil {
		t.Fatalf("VerifyPassword(dummy): %v", err)
	}
	if ok {
		t.Fatalf("dummy hash must not match an ordinary password")
	}
}
