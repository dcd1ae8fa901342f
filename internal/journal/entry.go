package journal

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// Entry is a tamper-evident record of one job outcome within a pipeline run.
// Entries chain through PrevHash; the capture hash ties the record to the
// worker output that was on disk when the job finished.
type Entry struct {
	Index       int    `json:"index"`
	Timestamp   string `json:"timestamp"`
	RunID       string `json:"runId"`
	Stage       string `json:"stage"`
	Sample      string `json:"sample"`
	Program     string `json:"program"`
	ExitCode    int    `json:"exitCode"`
	CapturePath string `json:"capturePath,omitempty"`
	CaptureHash string `json:"captureHash,omitempty"`
	PrevHash    string `json:"prevHash"`
	Hash        string `json:"hash"`
	Signature   string `json:"signature,omitempty"`
	PubKey      string `json:"pubKey,omitempty"`
}

// canonicalData returns the JSON bytes the entry hash is computed over.
// Hash, Signature and PubKey are intentionally excluded.
func (e *Entry) canonicalData() ([]byte, error) {
	view := struct {
		Index       int    `json:"index"`
		Timestamp   string `json:"timestamp"`
		RunID       string `json:"runId"`
		Stage       string `json:"stage"`
		Sample      string `json:"sample"`
		Program     string `json:"program"`
		ExitCode    int    `json:"exitCode"`
		CapturePath string `json:"capturePath"`
		CaptureHash string `json:"captureHash"`
		PrevHash    string `json:"prevHash"`
	}{
		Index:       e.Index,
		Timestamp:   e.Timestamp,
		RunID:       e.RunID,
		Stage:       e.Stage,
		Sample:      e.Sample,
		Program:     e.Program,
		ExitCode:    e.ExitCode,
		CapturePath: e.CapturePath,
		CaptureHash: e.CaptureHash,
		PrevHash:    e.PrevHash,
	}
	return json.Marshal(view)
}

// ComputeHash calculates SHA-256 over canonicalData.
func (e *Entry) ComputeHash() (string, error) {
	data, err := e.canonicalData()
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// NewEntry constructs an entry and computes its hash (no signature yet).
func NewEntry(index int, runID, stage, sample, program string, exitCode int, capturePath, captureHash, prevHash string) (*Entry, error) {
	entry := &Entry{
		Index:       index,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		RunID:       runID,
		Stage:       stage,
		Sample:      sample,
		Program:     program,
		ExitCode:    exitCode,
		CapturePath: capturePath,
		CaptureHash: captureHash,
		PrevHash:    prevHash,
	}

	h, err := entry.ComputeHash()
	if err != nil {
		return nil, fmt.Errorf("compute entry hash: %w", err)
	}
	entry.Hash = h
	return entry, nil
}
