package envelope

import (
	"bytes"
	"errors"
	"testing"
)

// Small Argon2 parameters keep the tests fast; production uses DefaultParams.
var testParams = Params{Time: 1, MemoryKiB: 64, Threads: 1}

func TestSealOpenRoundTrip(t *testing.T) {
	plaintext := []byte("this is a secret snapshot")

	sealed, err := Seal(plaintext, "correct-horse", testParams)
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	opened, err := Open(sealed, "correct-horse", testParams)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if !bytes.Equal(opened, plaintext) {
		t.Fatalf("round trip mismatch: got %q", opened)
	}
}

func TestOpenWrongPassword(t *testing.T) {
	sealed, err := Seal([]byte("data"), "correct-horse", testParams)
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	_, err = Open(sealed, "wrong", testParams)
	if !errors.Is(err, ErrAuthentication) {
		t.Fatalf("expected ErrAuthentication, got %v", err)
	}
}

func TestSealFreshSaltAndNonce(t *testing.T) {
	plaintext := []byte("identical input")

	first, err := Seal(plaintext, "pw", testParams)
	if err != nil {
		t.Fatalf("seal first: %v", err)
	}
	second, err := Seal(plaintext, "pw", testParams)
	if err != nil {
		t.Fatalf("seal second: %v", err)
	}
	if bytes.Equal(first, second) {
		t.Fatalf("two seals of the same plaintext must differ")
	}

	for _, sealed := range [][]byte{first, second} {
		opened, err := Open(sealed, "pw", testParams)
		if err != nil {
			t.Fatalf("open: %v", err)
		}
		if !bytes.Equal(opened, plaintext) {
			t.Fatalf("round trip mismatch")
		}
	}
}

func TestOpenTamperDetection(t *testing.T) {
	sealed, err := Seal([]byte("tamper target"), "pw", testParams)
	if err != nil {
		t.Fatalf("seal: %v", err)
	}

	// Flip one byte in the salt, the nonce, and the ciphertext regions in
	// turn; every flip must fail authentication.
	offsets := []int{
		5,               // first salt byte
		5 + saltSize,    // first nonce byte
		headerSize,      // first ciphertext byte
		len(sealed) - 1, // last tag byte
	}
	for _, off := range offsets {
		corrupted := bytes.Clone(sealed)
		corrupted[off] ^= 0x01
		if _, err := Open(corrupted, "pw", testParams); !errors.Is(err, ErrAuthentication) {
			t.Fatalf("offset %d: expected ErrAuthentication, got %v", off, err)
		}
	}
}

func TestEmptyPlaintextRoundTrip(t *testing.T) {
	sealed, err := Seal(nil, "pw", testParams)
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	opened, err := Open(sealed, "pw", testParams)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if len(opened) != 0 {
		t.Fatalf("expected empty plaintext, got %d bytes", len(opened))
	}
}

func TestOpenMalformed(t *testing.T) {
	cases := map[string][]byte{
		"empty":     nil,
		"truncated": []byte("VELA"),
		"bad magic": append([]byte("NOPE"), make([]byte, headerSize)...),
	}
	for name, blob := range cases {
		if _, err := Open(blob, "pw", testParams); !errors.Is(err, ErrMalformed) {
			t.Fatalf("%s: expected ErrMalformed, got %v", name, err)
		}
	}

	sealed, err := Seal([]byte("x"), "pw", testParams)
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	sealed[4] = 99
	if _, err := Open(sealed, "pw", testParams); !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed for unknown version, got %v", err)
	}
}

func TestLargePlaintext(t *testing.T) {
	plaintext := bytes.Repeat([]byte{0x42}, 4<<20)

	sealed, err := Seal(plaintext, "pw", testParams)
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	opened, err := Open(sealed, "pw", testParams)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if !bytes.Equal(opened, plaintext) {
		t.Fatalf("large round trip mismatch")
	}
}
