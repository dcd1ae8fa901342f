package main

import (
	"fmt"
	"os"

	"phylopipe/internal/journal"
)

func usage() {
	fmt.Println("Usage: phylopipe-journal <inspect|verify> <journal.jsonl>")
	os.Exit(1)
}

func main() {
	if len(os.Args) < 3 {
		usage()
	}

	cmd := os.Args[1]
	path := os.Args[2]

	j, err := journal.Open(path)
	if err != nil {
		fmt.Printf("Failed to open journal: %v\n", err)
		os.Exit(1)
	}

	switch cmd {

	case "inspect":
		for _, e := range j.Entries() {
			fmt.Printf("Index=%d Run=%s Stage=%s Sample=%s Exit=%d Hash=%s\n",
				e.Index, e.RunID, e.Stage, e.Sample, e.ExitCode, e.Hash[:16])
		}

	case "verify":
		if err := j.VerifyChain(); err != nil {
			fmt.Printf("❌ Chain verification FAILED: %v\n", err)
			os.Exit(1)
		}
		if err := j.VerifySignatures(); err != nil {
			fmt.Printf("❌ Signature verification FAILED: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("✅ Journal verification OK")

	default:
		fmt.Println("Unknown command:", cmd)
		usage()
	}
}
