// Package extcrypto provides identifier and hashing functions for report
// expressions.
//
// MD5 and SHA-1 are provided for fingerprinting only and should NOT be used
// for security purposes.
package extcrypto

import (
	"context"
	"crypto/hmac"
	"crypto/md5" //nolint:gosec // fingerprinting only
	"crypto/sha1" //nolint:gosec // fingerprinting only
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"strings"

	"github.com/google/uuid"

	"github.com/sandrolain/gordl/pkg/ext/extutil"
	"github.com/sandrolain/gordl/pkg/functions"
)

// All returns all cryptographic function definitions.
func All() []functions.CustomFunctionDef {
	return []functions.CustomFunctionDef{
		NewGuid(),
		Hash(),
		HMAC(),
	}
}

// NewGuid returns the definition for NewGuid(): a random UUID string.
func NewGuid() functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name: "NewGuid",
		Fn: func(context.Context, ...any) (any, error) {
			id, err := uuid.NewRandom()
			if err != nil {
				return nil, fmt.Errorf("generate uuid: %w", err)
			}
			return id.String(), nil
		},
	}
}

// Hash returns the definition for Hash(str [, algorithm]).
// Supported algorithms: "md5", "sha1", "sha256" (default), "sha384",
// "sha512". Returns a lowercase hex-encoded digest.
func Hash() functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    "Hash",
		MinArgs: 1,
		MaxArgs: 2,
		Fn: func(_ context.Context, args ...any) (any, error) {
			algorithm := "sha256"
			if len(args) == 2 {
				algorithm = extutil.String(args[1])
			}
			newHash, err := hasher(algorithm)
			if err != nil {
				return nil, err
			}
			h := newHash()
			h.Write([]byte(extutil.String(args[0])))
			return hex.EncodeToString(h.Sum(nil)), nil
		},
	}
}

// HMAC returns the definition for HMAC(str, key [, algorithm]).
// Returns a lowercase hex-encoded HMAC, sha256 by default.
func HMAC() functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    "HMAC",
		MinArgs: 2,
		MaxArgs: 3,
		Fn: func(_ context.Context, args ...any) (any, error) {
			algorithm := "sha256"
			if len(args) == 3 {
				algorithm = extutil.String(args[2])
			}
			newHash, err := hasher(algorithm)
			if err != nil {
				return nil, err
			}
			mac := hmac.New(newHash, []byte(extutil.String(args[1])))
			mac.Write([]byte(extutil.String(args[0])))
			return hex.EncodeToString(mac.Sum(nil)), nil
		},
	}
}

func hasher(algorithm string) (func() hash.Hash, error) {
	switch strings.ToLower(algorithm) {
	case "md5":
		return md5.New, nil //nolint:gosec
	case "sha1":
		return sha1.New, nil //nolint:gosec
	case "sha256":
		return sha256.New, nil
	case "sha384":
		return sha512.New384, nil
	case "sha512":
		return sha512.New, nil
	default:
		return nil, fmt.Errorf("unsupported algorithm %q; use md5, sha1, sha256, sha384, or sha512", algorithm)
	}
}
