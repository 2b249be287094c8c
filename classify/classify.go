// Package classify interprets a batch-GCD result vector against the
// input moduli and writes compromised.csv and duplicates.csv.
package classify

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fvial/rsabatchgcd/bignum"
	"github.com/fvial/rsabatchgcd/engine"
)

// Compromised is one factored modulus: N = P * Q.
type Compromised struct {
	ID string
	N  *bignum.Int
	P  *bignum.Int
	Q  *bignum.Int
}

// CSV renders one compromised.csv line: id,p,q.
func (c Compromised) CSV() string {
	return fmt.Sprintf("%s,%s,%s", c.ID, c.P, c.Q)
}

// Report summarizes one classification run.
type Report struct {
	Total          int
	Compromised    []Compromised
	Duplicates     []string // IDs
	FalsePositives int

	CompromisedPath string
	DuplicatesPath  string
}

// ErrFalsePositive marks G_i == 0 or G_i not dividing N_i, a condition
// that should never arise from a correct run of the core. Classify
// does not fail the run on this condition itself. It counts it;
// callers that want a hard failure should treat
// Report.FalsePositives > 0 as fatal themselves (cmd/batchgcd does).
var ErrFalsePositive = fmt.Errorf("classify: false positive")

// Classify interprets result.G against ids/moduli and writes
// compromisedPath/duplicatesPath:
//
//   - G_i == 1: N_i shares no factor with any other input (this is
//     also what a single-input run produces, since there is nothing
//     else to share a factor with).
//   - 1 < G_i < N_i and G_i | N_i: N_i is compromised.
//   - G_i == N_i: N_i is a duplicate.
//   - otherwise: a false positive / sanity-check failure.
func Classify(ids []string, moduli []*bignum.Int, result *engine.Result, compromisedPath, duplicatesPath string) (*Report, error) {
	if len(ids) != len(moduli) || len(moduli) != len(result.G) {
		return nil, fmt.Errorf("classify: mismatched lengths: ids=%d moduli=%d G=%d", len(ids), len(moduli), len(result.G))
	}

	report := &Report{
		Total:           len(moduli),
		CompromisedPath: compromisedPath,
		DuplicatesPath:  duplicatesPath,
	}

	for i, g := range result.G {
		n := moduli[i]
		switch {
		case g.IsOne():
			continue
		case g.IsZero() || !g.Divides(n):
			report.FalsePositives++
		case g.Cmp(n) == 0:
			report.Duplicates = append(report.Duplicates, ids[i])
		default:
			q := n.Quo(g)
			report.Compromised = append(report.Compromised, Compromised{
				ID: ids[i], N: n, P: g, Q: q,
			})
		}
	}

	if err := writeLines(compromisedPath, compromisedLines(report.Compromised)); err != nil {
		return nil, err
	}
	if err := writeLines(duplicatesPath, report.Duplicates); err != nil {
		return nil, err
	}

	return report, nil
}

func compromisedLines(cs []Compromised) []string {
	lines := make([]string, len(cs))
	for i, c := range cs {
		lines[i] = c.CSV()
	}
	return lines
}

func writeLines(path string, lines []string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("classify: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("classify: %w", err)
	}
	defer f.Close()
	for _, line := range lines {
		if _, err := fmt.Fprintln(f, line); err != nil {
			return fmt.Errorf("classify: %w", err)
		}
	}
	return nil
}
