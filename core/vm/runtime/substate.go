package runtime

import (
	"bytes"
	"slices"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/eth2030/meteredvm/core/types"
	"github.com/eth2030/meteredvm/core/vm"
)

// Substate collects the side effects of a frame that only become final if
// the frame succeeds. A successful frame accrues its substate into its
// parent's; a failed frame's substate is dropped.
type Substate struct {
	logs         []types.Log
	suicides     mapset.Set[types.Address]
	sstoreClears uint64
	created      []types.Address
}

// NewSubstate returns an empty substate.
func NewSubstate() *Substate {
	return &Substate{suicides: mapset.NewThreadUnsafeSet[types.Address]()}
}

// Accrue merges child into s.
func (s *Substate) Accrue(child *Substate) {
	s.logs = append(s.logs, child.logs...)
	s.suicides = s.suicides.Union(child.suicides)
	s.sstoreClears += child.sstoreClears
	s.created = append(s.created, child.created...)
}

// Refund is the gas refund earned by cleared storage slots and suicides,
// before the cap applied at the end of the transaction.
func (s *Substate) Refund(schedule *vm.Schedule) uint64 {
	return s.sstoreClears*schedule.SstoreRefundGas +
		uint64(s.suicides.Cardinality())*schedule.SuicideRefundGas
}

// Logs returns the logs emitted, in order.
func (s *Substate) Logs() []types.Log { return s.logs }

// Suicides returns the suicided addresses in byte order.
func (s *Substate) Suicides() []types.Address {
	addrs := s.suicides.ToSlice()
	slices.SortFunc(addrs, func(a, b types.Address) int { return bytes.Compare(a[:], b[:]) })
	return addrs
}

// SstoreClears is the number of storage slots cleared to zero.
func (s *Substate) SstoreClears() uint64 { return s.sstoreClears }

// Created returns the addresses of contracts created, in order.
func (s *Substate) Created() []types.Address { return s.created }
