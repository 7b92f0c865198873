package rpc

import (
	"context"
	"fmt"
	"time"

	"github.com/0xPolygon/cdk-rpc/rpc"
	"github.com/mystikonetwork/commitment-tree/commitmentsync"
	"github.com/mystikonetwork/commitment-tree/log"
	"github.com/mystikonetwork/commitment-tree/merkle"
	"github.com/mystikonetwork/commitment-tree/rpc/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const (
	// TREE is the namespace of the tree service
	TREE      = "tree"
	meterName = "github.com/mystikonetwork/commitment-tree/rpc"

	zeroHex = "0x0"
)

// TreeEndpoints contains implementations for the "tree" RPC endpoints
type TreeEndpoints struct {
	logger      *log.Logger
	meter       metric.Meter
	readTimeout time.Duration
	tree        Treer
}

// NewTreeEndpoints returns TreeEndpoints
func NewTreeEndpoints(logger *log.Logger, readTimeout time.Duration, tree Treer) *TreeEndpoints {
	return &TreeEndpoints{
		logger:      logger,
		meter:       otel.Meter(meterName),
		readTimeout: readTimeout,
		tree:        tree,
	}
}

func (t *TreeEndpoints) count(ctx context.Context, name string) {
	c, merr := t.meter.Int64Counter(name)
	if merr != nil {
		t.logger.Warnf("failed to create %s counter: %s", name, merr)
		return
	}
	c.Add(ctx, 1)
}

// Root returns the current root of the commitment tree
func (t *TreeEndpoints) Root() (interface{}, rpc.Error) {
	t.count(context.Background(), "root")
	root, err := merkle.ElementToFixedHex(t.tree.GetRoot())
	if err != nil {
		return zeroHex, rpc.NewRPCError(rpc.DefaultErrorCode, fmt.Sprintf("failed to encode root, error: %s", err))
	}
	return root, nil
}

// LeafCount returns the amount of commitments included in the tree
func (t *TreeEndpoints) LeafCount() (interface{}, rpc.Error) {
	t.count(context.Background(), "leaf_count")
	return t.tree.GetLeafCount(), nil
}

// Path returns the authentication path of the leaf at index together with the current root.
// index may be equal to the leaf count, in which case the path proves the next insertion position
func (t *TreeEndpoints) Path(index uint64) (interface{}, rpc.Error) {
	t.count(context.Background(), "path")
	proof, err := t.tree.GetPath(index)
	if err != nil {
		return zeroHex, rpc.NewRPCError(rpc.DefaultErrorCode,
			fmt.Sprintf("failed to get path for index %d, error: %s", index, err))
	}
	res, err := types.NewProof(proof)
	if err != nil {
		return zeroHex, rpc.NewRPCError(rpc.DefaultErrorCode, fmt.Sprintf("failed to encode path, error: %s", err))
	}
	return res, nil
}

// IndexOf returns the leaf index of a commitment (hex or decimal) or -1 when it is not in the tree
func (t *TreeEndpoints) IndexOf(commitment string) (interface{}, rpc.Error) {
	t.count(context.Background(), "index_of")
	value, err := merkle.ParseElement(commitment)
	if err != nil {
		return merkle.NotFound, rpc.NewRPCError(rpc.DefaultErrorCode,
			fmt.Sprintf("invalid commitment %q, error: %s", commitment, err))
	}
	return t.tree.GetIndexOf(value), nil
}

// Commitment returns the stored commitment at leaf index and where it was emitted
func (t *TreeEndpoints) Commitment(index uint64) (interface{}, rpc.Error) {
	ctx, cancel := context.WithTimeout(context.Background(), t.readTimeout)
	defer cancel()
	t.count(ctx, "commitment")

	c, err := t.tree.GetCommitment(ctx, index)
	if commitmentsync.IsNotFound(err) {
		return zeroHex, rpc.NewRPCError(rpc.DefaultErrorCode, fmt.Sprintf("commitment %d not found", index))
	}
	if err != nil {
		return zeroHex, rpc.NewRPCError(rpc.DefaultErrorCode,
			fmt.Sprintf("failed to get commitment %d, error: %s", index, err))
	}
	res, err := types.NewCommitment(c)
	if err != nil {
		return zeroHex, rpc.NewRPCError(rpc.DefaultErrorCode, fmt.Sprintf("failed to encode commitment, error: %s", err))
	}
	return res, nil
}

// LastProcessedBlock returns the last block whose commitments are included in the tree
func (t *TreeEndpoints) LastProcessedBlock() (interface{}, rpc.Error) {
	ctx, cancel := context.WithTimeout(context.Background(), t.readTimeout)
	defer cancel()
	t.count(ctx, "last_processed_block")

	block, err := t.tree.GetLastProcessedBlock(ctx)
	if err != nil {
		return zeroHex, rpc.NewRPCError(rpc.DefaultErrorCode,
			fmt.Sprintf("failed to get last processed block, error: %s", err))
	}
	return block, nil
}
