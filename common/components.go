package common

const (
	// COMMITMENT_SYNC name to identify the commitment synchronizer component
	COMMITMENT_SYNC = "commitmentsync" //nolint:stylecheck
	// RPC name to identify the rpc component, it serves the tree kept by the commitment synchronizer
	RPC = "rpc"
)
