package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/talkincode/toughledger/config"
	"golang.org/x/crypto/argon2"
)

// ErrMalformedHash is returned when an encoded credential cannot be parsed.
var ErrMalformedHash = errors.New("malformed password hash")

// PasswordHasher hashes credentials with argon2id.
type PasswordHasher struct {
	params config.ArgonConfig
}

func NewPasswordHasher(params config.ArgonConfig) *PasswordHasher {
	return &PasswordHasher{params: params}
}

// HashPassword returns $argon2id$v=19$m=<KiB>,t=<n>,p=<n>$<salt>$<hash>.
func (h *PasswordHasher) HashPassword(plain string) (string, error) {
	salt := make([]byte, h.params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", errors.Wrap(err, "generate salt")
	}
	key := argon2.IDKey([]byte(plain), salt, h.params.TimeCost, h.params.MemoryCost, h.params.Parallelism, h.params.HashLength)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.params.MemoryCost, h.params.TimeCost, h.params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// VerifyPassword re-derives the key with the parameters stored in encoded.
// A mismatch is (false, nil); an unparsable encoding is an error.
func (h *PasswordHasher) VerifyPassword(plain, encoded string) (bool, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return false, ErrMalformedHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return false, errors.Wrap(ErrMalformedHash, err.Error())
	}
	if version != argon2.Version {
		return false, errors.Wrapf(ErrMalformedHash, "unsupported version %d", version)
	}

	var memory, time uint32
	var threads uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		return false, errors.Wrap(ErrMalformedHash, err.Error())
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, errors.Wrap(ErrMalformedHash, err.Error())
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(want) == 0 {
		return false, ErrMalformedHash
	}

	got := argon2.IDKey([]byte(plain), salt, time, memory, threads, uint32(len(want)))
	return subtle.ConstantTimeCompare(got, want) == 1, nil
}
