package rpc

import (
	"context"
	"math/big"

	"github.com/mystikonetwork/commitment-tree/commitmentsync"
)

// Treer is the read API of the commitment tree served over RPC
type Treer interface {
	GetRoot() *big.Int
	GetLeafCount() uint64
	GetPath(index uint64) (*commitmentsync.Proof, error)
	GetIndexOf(commitment *big.Int) int64
	GetCommitment(ctx context.Context, index uint64) (*commitmentsync.Commitment, error)
	GetLastProcessedBlock(ctx context.Context) (uint64, error)
}
