// Package envelope provides password-based authenticated encryption for
// backup archives.
//
// A sealed envelope is a small binary container: magic, format version, a
// random Argon2id salt, a random AES-GCM nonce, and the ciphertext. The key
// is derived per operation and never cached. Opening fails identically for
// a wrong password and for a tampered container.
package envelope

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
)

var (
	// ErrAuthentication covers both a wrong password and a tampered
	// envelope. The two causes are indistinguishable on purpose.
	ErrAuthentication = errors.New("envelope authentication failed")

	// ErrMalformed is returned for containers too short or mislabeled to
	// be an envelope at all.
	ErrMalformed = errors.New("malformed envelope")
)

const (
	saltSize  = 16
	nonceSize = 12
	keySize   = 32

	formatVersion = 1
)

var magic = [4]byte{'V', 'E', 'L', 'A'}

const headerSize = len(magic) + 1 + saltSize + nonceSize

// Params tunes the Argon2id key derivation.
type Params struct {
	Time      uint32
	MemoryKiB uint32
	Threads   uint8
}

// DefaultParams returns the x/crypto recommended Argon2id settings.
func DefaultParams() Params {
	return Params{Time: 1, MemoryKiB: 64 * 1024, Threads: 4}
}

func (p Params) normalized() Params {
	if p.Time == 0 {
		p.Time = 1
	}
	if p.MemoryKiB == 0 {
		p.MemoryKiB = 64 * 1024
	}
	if p.Threads == 0 {
		p.Threads = 4
	}
	return p
}

// Seal encrypts plaintext under password with a fresh salt and nonce.
// Sealing the same plaintext twice yields different bytes.
func Seal(plaintext []byte, password string, params Params) ([]byte, error) {
	params = params.normalized()

	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}
	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	aead, err := newAEAD(password, salt, params)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, headerSize+len(plaintext)+aead.Overhead())
	out = append(out, magic[:]...)
	out = append(out, formatVersion)
	out = append(out, salt...)
	out = append(out, nonce...)
	return aead.Seal(out, nonce, plaintext, nil), nil
}

// Open decrypts a sealed envelope. It returns ErrMalformed when blob is not
// an envelope, and ErrAuthentication when the password is wrong or any byte
// of salt, nonce, or ciphertext was altered.
func Open(blob []byte, password string, params Params) ([]byte, error) {
	params = params.normalized()

	if len(blob) < headerSize {
		return nil, fmt.Errorf("%w: truncated", ErrMalformed)
	}
	if [4]byte(blob[:4]) != magic {
		return nil, fmt.Errorf("%w: bad magic", ErrMalformed)
	}
	if blob[4] != formatVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrMalformed, blob[4])
	}

	salt := blob[5 : 5+saltSize]
	nonce := blob[5+saltSize : headerSize]
	ciphertext := blob[headerSize:]

	aead, err := newAEAD(password, salt, params)
	if err != nil {
		return nil, err
	}

	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrAuthentication
	}
	return plaintext, nil
}

func newAEAD(password string, salt []byte, params Params) (cipher.AEAD, error) {
	key := argon2.IDKey([]byte(password), salt, params.Time, params.MemoryKiB, params.Threads, keySize)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("init gcm: %w", err)
	}
	return aead, nil
}
