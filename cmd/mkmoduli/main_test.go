package main

import (
	"fmt"
	"sync"
	"testing"

	"github.com/fvial/rsabatchgcd/bignum"
	"github.com/fvial/rsabatchgcd/classify"
	"github.com/fvial/rsabatchgcd/engine"
	"github.com/stretchr/testify/require"
)

// genModuli's prime generation uses crypto/rand and cannot be seeded,
// but its duplicate-pairing decision is driven purely by index
// (i % *dupeprob == 1), so the shared-factor rate it produces is
// deterministic for a fixed numModuli/dupeprob pair. Two consecutive
// trigger indices always alternate between stashing a prime and
// consuming it, so k triggers produce k/2 shared-factor pairs.
func TestGenModuliRoundTrip(t *testing.T) {
	origBits, origProb := *bits, *dupeprob
	*bits = 128
	*dupeprob = 5
	defer func() {
		*bits = origBits
		*dupeprob = origProb
	}()

	const n = 20
	ch := make(chan record, n)
	var wg sync.WaitGroup
	var nextID int64
	wg.Add(1)
	genModuli(n, &nextID, ch, &wg)
	wg.Wait()
	close(ch)

	var ids []string
	var moduli []*bignum.Int
	for rec := range ch {
		ids = append(ids, fmt.Sprintf("m%d", rec.id))
		moduli = append(moduli, bignum.FromBytes(rec.modulus.Bytes()))
	}
	require.Len(t, moduli, n)

	res, err := engine.Run(engine.Config{WorkDir: t.TempDir(), Workers: 2}, moduli)
	require.NoError(t, err)

	dir := t.TempDir()
	report, err := classify.Classify(ids, moduli, res, dir+"/compromised.csv", dir+"/duplicates.csv")
	require.NoError(t, err)

	triggers := 0
	for i := 0; i < n; i++ {
		if i%(*dupeprob) == 1 {
			triggers++
		}
	}
	wantPairs := triggers / 2

	require.Zero(t, report.FalsePositives)
	require.Empty(t, report.Duplicates)
	require.Len(t, report.Compromised, wantPairs*2)
}
