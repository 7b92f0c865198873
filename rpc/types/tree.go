package types

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/mystikonetwork/commitment-tree/commitmentsync"
	"github.com/mystikonetwork/commitment-tree/merkle"
)

// Proof is the JSON representation of an authentication path.
// Elements are encoded as 0x prefixed 32 bytes hex strings
type Proof struct {
	Root         string   `json:"root"`
	Index        uint64   `json:"index"`
	Leaf         string   `json:"leaf,omitempty"`
	PathElements []string `json:"pathElements"`
	PathIndices  []int    `json:"pathIndices"`
}

// Commitment is the JSON representation of a stored leaf
type Commitment struct {
	LeafIndex  uint64      `json:"leafIndex"`
	Commitment string      `json:"commitment"`
	BlockNum   uint64      `json:"blockNum"`
	BlockPos   uint64      `json:"blockPos"`
	TxHash     common.Hash `json:"txHash"`
}

// NewProof converts a synchronizer proof to its JSON form
func NewProof(p *commitmentsync.Proof) (*Proof, error) {
	root, err := merkle.ElementToFixedHex(p.Root)
	if err != nil {
		return nil, err
	}
	res := &Proof{
		Root:         root,
		Index:        p.Index,
		PathElements: make([]string, len(p.Path.Elements)),
		PathIndices:  make([]int, len(p.Path.Indices)),
	}
	if p.Leaf != nil {
		if res.Leaf, err = merkle.ElementToFixedHex(p.Leaf); err != nil {
			return nil, err
		}
	}
	for i, e := range p.Path.Elements {
		if res.PathElements[i], err = merkle.ElementToFixedHex(e); err != nil {
			return nil, err
		}
	}
	for i, idx := range p.Path.Indices {
		res.PathIndices[i] = int(idx)
	}
	return res, nil
}

// MerklePath decodes the path so it can be verified with merkle.VerifyPath
func (p *Proof) MerklePath() (*merkle.Path, error) {
	if len(p.PathElements) != len(p.PathIndices) {
		return nil, fmt.Errorf("%d path elements but %d path indices", len(p.PathElements), len(p.PathIndices))
	}
	path := &merkle.Path{
		Elements: make([]*big.Int, len(p.PathElements)),
		Indices:  make([]uint8, len(p.PathIndices)),
	}
	for i, s := range p.PathElements {
		e, err := merkle.ElementFromHex(s)
		if err != nil {
			return nil, fmt.Errorf("invalid path element %d: %w", i, err)
		}
		path.Elements[i] = e
	}
	for i, idx := range p.PathIndices {
		if idx != 0 && idx != 1 {
			return nil, fmt.Errorf("invalid path index %d: %d", i, idx)
		}
		path.Indices[i] = uint8(idx)
	}
	return path, nil
}

// NewCommitment converts a stored commitment to its JSON form
func NewCommitment(c *commitmentsync.Commitment) (*Commitment, error) {
	value, err := merkle.ElementToFixedHex(c.Commitment)
	if err != nil {
		return nil, err
	}
	return &Commitment{
		LeafIndex:  c.LeafIndex,
		Commitment: value,
		BlockNum:   c.BlockNum,
		BlockPos:   c.BlockPos,
		TxHash:     c.TxHash,
	}, nil
}
