package commitmentsync

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/mystikonetwork/commitment-tree/log"
	"github.com/mystikonetwork/commitment-tree/merkle"
)

// ErrInvalidLog is returned when a log carries no commitment value
var ErrInvalidLog = errors.New("invalid commitment log")

// EthClienter is the subset of an L1 client needed to fetch commitment logs
type EthClienter interface {
	ethereum.LogFilterer
	ethereum.BlockNumberReader
}

// Commitment is a leaf of the tree as emitted on chain
type Commitment struct {
	BlockNum   uint64      `meddler:"block_num"`
	BlockPos   uint64      `meddler:"block_pos"`
	LeafIndex  uint64      `meddler:"leaf_index"`
	Commitment *big.Int    `meddler:"commitment,bigint"`
	TxHash     common.Hash `meddler:"tx_hash,hash"`
}

type downloader struct {
	client             EthClienter
	addr               common.Address
	topic              common.Hash
	syncBlockChunkSize uint64
	log                *log.Logger
}

func newDownloader(
	client EthClienter,
	addr common.Address,
	eventSignature string,
	syncBlockChunkSize uint64,
	logger *log.Logger,
) (*downloader, error) {
	if syncBlockChunkSize == 0 {
		return nil, errors.New("SyncBlockChunkSize must be greater than 0")
	}
	if eventSignature == "" {
		eventSignature = DefaultEventSignature
	}
	return &downloader{
		client:             client,
		addr:               addr,
		topic:              crypto.Keccak256Hash([]byte(eventSignature)),
		syncBlockChunkSize: syncBlockChunkSize,
		log:                logger,
	}, nil
}

func (d *downloader) latestBlock(ctx context.Context) (uint64, error) {
	return d.client.BlockNumber(ctx)
}

// chunkEnd returns the last block of the chunk starting at fromBlock, capped at lastBlock
func (d *downloader) chunkEnd(fromBlock, lastBlock uint64) uint64 {
	toBlock := fromBlock + d.syncBlockChunkSize - 1
	if toBlock > lastBlock || toBlock < fromBlock {
		return lastBlock
	}
	return toBlock
}

// getCommitments returns the commitments emitted between fromBlock and toBlock (both included)
// ordered by block and position inside the block. LeafIndex is left unset.
func (d *downloader) getCommitments(ctx context.Context, fromBlock, toBlock uint64) ([]Commitment, error) {
	query := ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(fromBlock),
		ToBlock:   new(big.Int).SetUint64(toBlock),
		Addresses: []common.Address{d.addr},
		Topics:    [][]common.Hash{{d.topic}},
	}
	logs, err := d.client.FilterLogs(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error calling FilterLogs from %d to %d: %w", fromBlock, toBlock, err)
	}
	commitments := make([]Commitment, 0, len(logs))
	for _, l := range logs {
		if len(l.Topics) == 0 || l.Topics[0] != d.topic || l.Removed {
			continue
		}
		value, err := decodeCommitment(l)
		if err != nil {
			return nil, err
		}
		commitments = append(commitments, Commitment{
			BlockNum:   l.BlockNumber,
			BlockPos:   uint64(l.Index),
			Commitment: value,
			TxHash:     l.TxHash,
		})
	}
	sort.SliceStable(commitments, func(i, j int) bool {
		if commitments[i].BlockNum != commitments[j].BlockNum {
			return commitments[i].BlockNum < commitments[j].BlockNum
		}
		return commitments[i].BlockPos < commitments[j].BlockPos
	})
	d.log.Debugf("found %d commitments between blocks %d and %d", len(commitments), fromBlock, toBlock)
	return commitments, nil
}

// decodeCommitment reads the commitment from the first indexed argument of the event,
// or from the first word of the data when the argument is not indexed
func decodeCommitment(l types.Log) (*big.Int, error) {
	if len(l.Topics) > 1 {
		return merkle.ElementFromBytes(l.Topics[1].Bytes()), nil
	}
	if len(l.Data) >= common.HashLength {
		return merkle.ElementFromBytes(l.Data[:common.HashLength]), nil
	}
	return nil, fmt.Errorf("%w: tx %s index %d has neither topic nor data", ErrInvalidLog, l.TxHash.Hex(), l.Index)
}
