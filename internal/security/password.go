package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"

	"github.com/Bryanb141518/api-profecional/internal/config"
)

var ErrInvalidHash = errors.New("invalid password hash")

type Argon2Params struct {
	Time    uint32
	Memory  uint32
	Threads uint8
	KeyLen  uint32
	SaltLen uint32
}

var DefaultArgon2Params = Argon2Params{
	Time:    3,
	Memory:  64 * 1024,
	Threads: 2,
	KeyLen:  32,
	SaltLen: 16,
}

// ParamsFromConfig overlays the configured cost settings on the defaults.
func ParamsFromConfig(cfg config.Argon2Config) Argon2Params {
	params := DefaultArgon2Params
	if cfg.Time > 0 {
		params.Time = cfg.Time
	}
	if cfg.Memory > 0 {
		params.Memory = cfg.Memory
	}
	if cfg.Threads > 0 {
		params.Threads = cfg.Threads
	}
	return params
}

// PasswordHasher turns plaintext passwords into salted one-way hashes.
type PasswordHasher interface {
	Hash(password string) ([]byte, error)
	Verify(password string, encodedHash []byte) (bool, error)
	DummyHash() []byte
}

type Argon2Hasher struct {
	params Argon2Params
	dummy  []byte
}

func NewArgon2Hasher(params Argon2Params) *Argon2Hasher {
	h := &Argon2Hasher{params: params}
	h.dummy = h.encode(make([]byte, params.SaltLen), make([]byte, params.KeyLen))
	return h
}

// DummyHash is a well formed hash with the hasher's own cost that matches no
// password. Login verifies against it when the email is unknown so both paths
// cost the same.
func (h *Argon2Hasher) DummyHash() []byte {
	return h.dummy
}

// Hash returns a PHC encoded argon2id hash:
// $argon2id$v=19$m=65536,t=3,p=2$<salt>$<hash>
func (h *Argon2Hasher) Hash(password string) ([]byte, error) {
	salt := make([]byte, h.params.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}

	hash := argon2.IDKey([]byte(password), salt, h.params.Time, h.params.Memory, h.params.Threads, h.params.KeyLen)
	return h.encode(salt, hash), nil
}

func (h *Argon2Hasher) encode(salt, hash []byte) []byte {
	return []byte(fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.params.Memory,
		h.params.Time,
		h.params.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	))
}

// Verify recomputes the hash with the parameters stored in encodedHash and
// compares in constant time.
func (h *Argon2Hasher) Verify(password string, encodedHash []byte) (bool, error) {
	parts := strings.Split(string(encodedHash), "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return false, ErrInvalidHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return false, ErrInvalidHash
	}

	var memory, time, threads uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		return false, fmt.Errorf("%w: %v", ErrInvalidHash, err)
	}
	if threads == 0 || threads > 255 {
		return false, ErrInvalidHash
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, fmt.Errorf("decode salt: %w", err)
	}

	hash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false, fmt.Errorf("decode hash: %w", err)
	}
	if len(hash) == 0 {
		return false, ErrInvalidHash
	}

	computed := argon2.IDKey([]byte(password), salt, time, memory, uint8(threads), uint32(len(hash)))

	return subtle.ConstantTimeCompare(hash, computed) == 1, nil
}
