package pool_test

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/fvial/rsabatchgcd/pool"
	"github.com/stretchr/testify/require"
)

func TestRunLevelVisitsEverySlot(t *testing.T) {
	p := pool.New(4)
	const n = 97 // deliberately not a multiple of the worker count
	var seen [n]atomic.Bool

	err := p.RunLevel(n, func(i int) error {
		seen[i].Store(true)
		return nil
	})
	require.NoError(t, err)
	for i := range seen {
		require.Truef(t, seen[i].Load(), "slot %d was not visited", i)
	}
}

func TestRunLevelDrainsAfterFirstError(t *testing.T) {
	p := pool.New(4)
	const n = 50
	var ran atomic.Int64
	wantErr := errors.New("boom")

	err := p.RunLevel(n, func(i int) error {
		ran.Add(1)
		if i == 10 {
			return wantErr
		}
		return nil
	})
	require.ErrorIs(t, err, wantErr)
	require.EqualValues(t, n, ran.Load(), "every scheduled task should still run")
}

func TestNewDefaultsWorkers(t *testing.T) {
	p := pool.New(0)
	require.Greater(t, p.Workers(), 0)
}

func TestRunLevelEmpty(t *testing.T) {
	p := pool.New(2)
	err := p.RunLevel(0, func(i int) error {
		t.Fatal("task should not run for an empty level")
		return nil
	})
	require.NoError(t, err)
}
