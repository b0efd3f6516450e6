package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content hashes. The version suffix allows the
// algorithm to change without colliding with stored hashes.
const (
	DomainInput  = "animsync/input/v1"
	DomainOutput = "animsync/output/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data). The null byte keeps
// the domain/data boundary unambiguous.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// CanonicalInput is the canonical encoding of a descriptor list.
func CanonicalInput(ds []Descriptor) ([]byte, error) {
	raw, err := MarshalDescriptors(ds)
	if err != nil {
		return nil, err
	}
	var generic []any
	if err := decodeGeneric(raw, &generic); err != nil {
		return nil, err
	}
	return MarshalCanonical(generic)
}

// InputHash identifies a descriptor list by content. Order matters: list
// position is part of the input.
func InputHash(ds []Descriptor) (string, error) {
	canonical, err := CanonicalInput(ds)
	if err != nil {
		return "", fmt.Errorf("InputHash: %w", err)
	}
	return hashWithDomain(DomainInput, canonical), nil
}

// OutputHash identifies a flattened output list by content.
func OutputHash(out []Flat) (string, error) {
	if out == nil {
		out = []Flat{}
	}
	canonical, err := CanonicalJSON(out)
	if err != nil {
		return "", fmt.Errorf("OutputHash: %w", err)
	}
	return hashWithDomain(DomainOutput, canonical), nil
}

// MustInputHash is like InputHash but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustInputHash(ds []Descriptor) string {
	h, err := InputHash(ds)
	if err != nil {
		panic(err)
	}
	return h
}

// MustOutputHash is like OutputHash but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustOutputHash(out []Flat) string {
	h, err := OutputHash(out)
	if err != nil {
		panic(err)
	}
	return h
}
