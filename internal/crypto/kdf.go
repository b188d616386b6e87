package crypto

import (
	"crypto/sha256"

	"golang.org/x/crypto/pbkdf2"
)

// KeyDerivationIterations is the number of PBKDF2 iterations used by
// DeriveKey. Higher is slower but more resistant to brute force.
const KeyDerivationIterations = 100_000

// DeriveKey derives a 64-byte cryptor key from a passphrase and salt using
// PBKDF2-HMAC-SHA256. The derived key is never persisted; callers pass it
// straight to New. Use a unique, persisted salt per database file — a
// fixed salt defeats the purpose of per-file key derivation.
func DeriveKey(passphrase string, salt []byte) [KeySize]byte {
	raw := pbkdf2.Key([]byte(passphrase), salt, KeyDerivationIterations, KeySize, sha256.New)
	var key [KeySize]byte
	copy(key[:], raw)
	return key
}
