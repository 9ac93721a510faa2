package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainInstructionSet = "shank/instruction-set/v1"
	DomainVariant        = "shank/variant/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// InstructionSetHash computes the content-addressed hash of a compiled
// instruction set. Two builds of the same enum produce the same hash.
func InstructionSetHash(set *InstructionSet) (string, error) {
	obj, err := set.ToIR()
	if err != nil {
		return "", fmt.Errorf("InstructionSetHash: %w", err)
	}
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("InstructionSetHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainInstructionSet, canonical), nil
}

// VariantHash computes the content-addressed hash of a single variant.
func VariantHash(v InstructionVariant) (string, error) {
	obj, err := v.ToIR()
	if err != nil {
		return "", fmt.Errorf("VariantHash: %w", err)
	}
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("VariantHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainVariant, canonical), nil
}
