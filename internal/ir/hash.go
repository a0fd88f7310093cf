package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// DomainSnapshot is the domain prefix for workspace digests.
// The version suffix allows the encoding to change later.
const DomainSnapshot = "protoboard/snapshot/v1"

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Digest returns a content hash of a workspace snapshot.
//
// encoding/json writes map keys in sorted order and property payloads are
// emitted through MarshalCanonical, so structurally equal workspaces yield
// equal digests.
func Digest(ws *Workspace) (string, error) {
	data, err := json.Marshal(ws)
	if err != nil {
		return "", fmt.Errorf("Digest: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainSnapshot, data), nil
}

// MustDigest is like Digest but panics on error.
// Use only in tests or when the workspace is known to be valid.
func MustDigest(ws *Workspace) string {
	d, err := Digest(ws)
	if err != nil {
		panic(err)
	}
	return d
}
