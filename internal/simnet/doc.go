// Package simnet provides in-process implementations of the protocol's
// external collaborators: a store-backed token ledger, claim-token buckets,
// a lending pool, a money market and a fixed-rate price oracle.
//
// All token state lives in the multistore, so it is rolled back together
// with keeper state when a call fails. The app wiring, the scenario runner and
// the keeper tests run against these implementations.
package simnet

// StoreKey is the KV store key for simnet state.
const StoreKey = "simnet"

var (
	balancePrefix     = []byte{0x01}
	supplyPrefix      = []byte{0x02}
	claimTokenPrefix  = []byte{0x03}
	claimSupplyPrefix = []byte{0x04}
)
