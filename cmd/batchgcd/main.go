// Command batchgcd runs the disk-backed batch-GCD engine over one or
// more CSV files of RSA moduli, reporting compromised and duplicate
// moduli. CSV parsing, flag handling, and the final classification
// loop live here as external collaborators around the engine/classify
// library split, not inside the core itself.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/fvial/rsabatchgcd/bignum"
	"github.com/fvial/rsabatchgcd/classify"
	"github.com/fvial/rsabatchgcd/engine"
)

var (
	workDir       = flag.String("workdir", "", "writable scratch directory for the level store (required)")
	workers       = flag.Int("workers", 0, "worker pool size (default: runtime.NumCPU())")
	spillBytes    = flag.Int64("spill-bytes", 0, "remainder-tree level spill threshold in bytes (0 = always spill)")
	base10        = flag.Bool("base10", false, "moduli in the input CSV are base 10 (default: base 16)")
	compromised   = flag.String("compromised", "compromised.csv", "output path for compromised moduli")
	duplicatesOut = flag.String("duplicates", "duplicates.csv", "output path for duplicate moduli")
)

func main() {
	log.SetOutput(os.Stderr)
	flag.Parse()

	if len(flag.Args()) == 0 {
		log.Fatal("No files specified")
	}
	if *workDir == "" {
		log.Fatal("-workdir is required")
	}

	base := 16
	if *base10 {
		base = 10
	}

	var ids []string
	var moduli []*bignum.Int
	for _, filename := range flag.Args() {
		log.Print("Loading moduli from ", filename)
		var err error
		ids, moduli, err = loadCSV(filename, base, ids, moduli)
		if err != nil {
			log.Fatal(err)
		}
	}
	log.Printf("Loaded %d moduli", len(moduli))

	cfg := engine.Config{
		WorkDir:    *workDir,
		Workers:    *workers,
		SpillBytes: *spillBytes,
	}

	log.Print("Executing Part A/B/C...")
	start := time.Now()
	result, err := engine.Run(cfg, moduli)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("Engine finished in %s", time.Since(start))

	report, err := classify.Classify(ids, moduli, result, *compromised, *duplicatesOut)
	if err != nil {
		log.Fatal(err)
	}

	if report.FalsePositives > 0 {
		log.Fatalf("%d false positives: core invariant violated, this is a bug", report.FalsePositives)
	}

	fmt.Println("---- Results ----")
	fmt.Println("Amount of target moduli:      ", report.Total)
	fmt.Println("Amount of duplicates:         ", len(report.Duplicates))
	fmt.Println("Amount of compromised moduli: ", len(report.Compromised))
	fmt.Println("False positives:              ", report.FalsePositives)
	fmt.Println()
	fmt.Println("See results in", report.CompromisedPath, "and", report.DuplicatesPath)
	log.Print("Finished.")
}

// loadCSV appends the <id>,<modulus> lines of filename to ids/moduli.
// It does not deduplicate by modulus text: exact duplicates are a
// finding the classifier must surface, not noise to filter at load
// time.
func loadCSV(filename string, base int, ids []string, moduli []*bignum.Int) ([]string, []*bignum.Int, error) {
	fp, err := os.Open(filename)
	if err != nil {
		return nil, nil, err
	}
	defer fp.Close()

	scanner := bufio.NewScanner(fp)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if line == "" {
			continue
		}
		fields := strings.SplitN(line, ",", 2)
		if len(fields) != 2 {
			return nil, nil, fmt.Errorf("%s:%d: expected <id>,<modulus>, got %q", filename, lineNo, line)
		}
		m, err := bignum.Parse(fields[1], base)
		if err != nil {
			return nil, nil, fmt.Errorf("%s:%d: %w", filename, lineNo, err)
		}
		ids = append(ids, fields[0])
		moduli = append(moduli, m)
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, err
	}
	return ids, moduli, nil
}
