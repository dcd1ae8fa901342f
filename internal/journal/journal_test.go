package journal

import (
	"os"
	"path/filepath"
	"testing"
)

func tempCapture(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "S1.stderr")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write capture: %v", err)
	}
	return path
}

func TestNewEntryAndHash(t *testing.T) {
	capture := tempCapture(t, "worker chatter")
	captureHash, err := HashFile(capture)
	if err != nil {
		t.Fatalf("failed to hash capture: %v", err)
	}

	entry, err := NewEntry(0, "run-1", "pairwise", "S1", "/opt/workers/pairwise", 0, capture, captureHash, "")
	if err != nil {
		t.Fatalf("failed to create entry: %v", err)
	}

	h, err := entry.ComputeHash()
	if err != nil {
		t.Fatalf("failed to recompute hash: %v", err)
	}
	if h != entry.Hash {
		t.Errorf("hash mismatch: got %s, want %s", entry.Hash, h)
	}
}

func TestJournalAppendAndVerify(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.jsonl")
	j, err := Open(path)
	if err != nil {
		t.Fatalf("failed to open journal: %v", err)
	}

	pub, priv, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("failed to generate keys: %v", err)
	}

	c1 := tempCapture(t, "sample one output")
	h1, _ := HashFile(c1)
	e1, _ := NewEntry(0, "run-1", "pairwise", "S1", "pairwise", 0, c1, h1, "")
	if err := j.Append(e1, priv, pub); err != nil {
		t.Fatalf("failed to append entry 1: %v", err)
	}

	c2 := tempCapture(t, "sample two output")
	h2, _ := HashFile(c2)
	e2, _ := NewEntry(1, "run-1", "pairwise", "S2", "pairwise", 1, c2, h2, e1.Hash)
	if err := j.Append(e2, priv, pub); err != nil {
		t.Fatalf("failed to append entry 2: %v", err)
	}

	if err := j.VerifyChain(); err != nil {
		t.Errorf("chain verification failed: %v", err)
	}
	if err := j.VerifySignatures(); err != nil {
		t.Errorf("signature verification failed: %v", err)
	}
}

func TestJournalRejectsBrokenLink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.jsonl")
	j, _ := Open(path)
	pub, priv, _ := GenerateKeyPair()

	e1, _ := NewEntry(0, "run-1", "plot", "S1", "plot", 0, "", "", "")
	if err := j.Append(e1, priv, pub); err != nil {
		t.Fatalf("append failed: %v", err)
	}

	e2, _ := NewEntry(1, "run-1", "plot", "S2", "plot", 0, "", "", "not-the-tail-hash")
	if err := j.Append(e2, priv, pub); err == nil {
		t.Error("expected append to reject a broken prevHash link")
	}
}

func TestTamperingDetection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.jsonl")
	j, _ := Open(path)
	pub, priv, _ := GenerateKeyPair()

	capture := tempCapture(t, "secure output")
	h, _ := HashFile(capture)
	e, _ := NewEntry(0, "run-1", "treeindex", "S1", "treeindex", 0, capture, h, "")
	if err := j.Append(e, priv, pub); err != nil {
		t.Fatalf("append failed: %v", err)
	}

	j.Entries()[0].CaptureHash = "fakehash"

	if err := j.VerifyChain(); err == nil {
		t.Error("expected verification failure after tampering")
	}
}

func TestJournalPersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.jsonl")
	j, _ := Open(path)
	pub, priv, _ := GenerateKeyPair()

	e, _ := NewEntry(0, "run-1", "pairwise", "S1", "pairwise", 0, "", "", "")
	if err := j.Append(e, priv, pub); err != nil {
		t.Fatalf("append failed: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("failed to reopen journal: %v", err)
	}
	if len(reopened.Entries()) != 1 {
		t.Fatalf("entries = %d, want 1", len(reopened.Entries()))
	}
	if err := reopened.VerifyChain(); err != nil {
		t.Errorf("reloaded journal verification failed: %v", err)
	}
	if err := reopened.VerifySignatures(); err != nil {
		t.Errorf("reloaded signature verification failed: %v", err)
	}
}

func TestEnsureKeyPairRoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "keys")

	pub1, priv1, err := EnsureKeyPair(dir)
	if err != nil {
		t.Fatalf("first ensure failed: %v", err)
	}
	pub2, priv2, err := EnsureKeyPair(dir)
	if err != nil {
		t.Fatalf("second ensure failed: %v", err)
	}

	if !pub1.Equal(pub2) {
		t.Error("public key changed between loads")
	}
	if !priv1.Equal(priv2) {
		t.Error("private key changed between loads")
	}
}
