package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/totymark/totymark/internal/common"
	"golang.org/x/crypto/argon2"
)

// ArgonParams tunes the argon2id cost. Stored hashes carry their own
// parameters, so changing these only affects newly hashed passwords.
type ArgonParams struct {
	Memory      uint32 // KiB
	Time        uint32 // iterations
	Parallelism uint8
	SaltLen     int
	KeyLen      uint32
}

var DefaultArgon = ArgonParams{
	Memory:      64 * 1024,
	Time:        3,
	Parallelism: 1,
	SaltLen:     16,
	KeyLen:      32,
}

// Hasher hashes and verifies passwords with argon2id.
type Hasher struct {
	params ArgonParams
	dummy  string
}

// NewHasher precomputes a dummy hash used to equalise the cost of logins for
// unknown usernames.
func NewHasher(p ArgonParams) (*Hasher, error) {
	h := &Hasher{params: p}
	dummy, err := h.Hash("totymark-dummy-password")
	if err != nil {
		return nil, err
	}
	h.dummy = dummy
	return h, nil
}

// Hash returns a PHC-style encoding:
//
//	$argon2id$v=19$m=65536,t=3,p=1$<b64 salt>$<b64 key>
func (h *Hasher) Hash(password string) (string, error) {
	p := h.params
	salt := make([]byte, p.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	key := argon2.IDKey([]byte(password), salt, p.Time, p.Memory, p.Parallelism, p.KeyLen)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, p.Memory, p.Time, p.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify reports whether password matches encoded. It returns
// common.ErrMalformedHash if encoded is not an argon2id hash this package can
// read.
func (h *Hasher) Verify(password, encoded string) (bool, error) {
	ph, err := decodeHash(encoded)
	if err != nil {
		return false, err
	}
	key := argon2.IDKey([]byte(password), ph.salt, ph.time, ph.memory, ph.parallelism, uint32(len(ph.key)))
	return subtle.ConstantTimeCompare(key, ph.key) == 1, nil
}

// VerifyDummy burns one verification against the dummy hash and always
// reports a mismatch.
func (h *Hasher) VerifyDummy(password string) bool {
	_, _ = h.Verify(password, h.dummy)
	return false
}

type parsedHash struct {
	memory      uint32
	time        uint32
	parallelism uint8
	salt        []byte
	key         []byte
}

func decodeHash(encoded string) (*parsedHash, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return nil, common.ErrMalformedHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return nil, common.ErrMalformedHash
	}

	ph := &parsedHash{}
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &ph.memory, &ph.time, &ph.parallelism); err != nil {
		return nil, common.ErrMalformedHash
	}
	if ph.memory == 0 || ph.time == 0 || ph.parallelism == 0 {
		return nil, common.ErrMalformedHash
	}

	var err error
	if ph.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil || len(ph.salt) == 0 {
		return nil, common.ErrMalformedHash
	}
	if ph.key, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil || len(ph.key) == 0 {
		return nil, common.ErrMalformedHash
	}
	return ph, nil
}
