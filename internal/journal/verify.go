package journal

import (
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
)

// VerifyChain recomputes each entry hash and link to detect tampering.
func (j *Journal) VerifyChain() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	for i, e := range j.entries {
		h, err := e.ComputeHash()
		if err != nil {
			return fmt.Errorf("compute hash for index %d: %w", e.Index, err)
		}
		if h != e.Hash {
			return fmt.Errorf("hash mismatch at index %d", e.Index)
		}
		if i > 0 && e.PrevHash != j.entries[i-1].Hash {
			return fmt.Errorf("prevHash mismatch at index %d", e.Index)
		}
		if e.Index != i {
			return fmt.Errorf("index mismatch: expected %d, got %d", i, e.Index)
		}
	}
	return nil
}

// VerifySignatures checks each entry's signature against its embedded
// public key. Chain verification is separate; run both for a full audit.
func (j *Journal) VerifySignatures() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	for _, e := range j.entries {
		pubBytes, err := hex.DecodeString(e.PubKey)
		if err != nil {
			return fmt.Errorf("decode pubkey at index %d: %w", e.Index, err)
		}
		if len(pubBytes) != ed25519.PublicKeySize {
			return fmt.Errorf("invalid pubkey size at index %d", e.Index)
		}
		sig, err := hex.DecodeString(e.Signature)
		if err != nil {
			return fmt.Errorf("decode signature at index %d: %w", e.Index, err)
		}
		if !ed25519.Verify(ed25519.PublicKey(pubBytes), []byte(e.Hash), sig) {
			return fmt.Errorf("bad signature at index %d", e.Index)
		}
	}
	return nil
}
