package application

import (
	"sync"

	"github.com/stash-network/stash-daemon/internal/core/domain"
)

// contractLocker serializes build/validate operations per contract id.
// Both read and mutate the seal-closure index, so two consignments racing
// to close the same seal must never run concurrently; operations on
// different contracts proceed fully in parallel.
type contractLocker struct {
	mtx   sync.Mutex
	locks map[domain.ContractID]*sync.Mutex
}

func newContractLocker() *contractLocker {
	return &contractLocker{locks: make(map[domain.ContractID]*sync.Mutex)}
}

// lock acquires the per-contract mutex and returns its release function.
func (l *contractLocker) lock(id domain.ContractID) func() {
	l.mtx.Lock()
	m, ok := l.locks[id]
	if !ok {
		m = &sync.Mutex{}
		l.locks[id] = m
	}
	l.mtx.Unlock()

	m.Lock()
	return m.Unlock
}
