package commitmentsync

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/mystikonetwork/commitment-tree/db"
	"github.com/mystikonetwork/commitment-tree/log"
	"github.com/mystikonetwork/commitment-tree/merkle"
)

const commitmentSyncID = "commitmentsync"

// Proof is the authentication path of a leaf together with the root it proves membership to
type Proof struct {
	Root  *big.Int
	Index uint64
	// Leaf is nil when Index equals the amount of leaves
	Leaf *big.Int
	Path *merkle.Path
}

// CommitmentSync keeps a tree of the commitments emitted by a contract. Commitments are
// persisted, so the tree is rebuilt from the DB on start up and only new blocks are queried
type CommitmentSync struct {
	cfg        Config
	processor  *processor
	downloader *downloader
	log        *log.Logger

	mu   sync.RWMutex
	tree *merkle.Tree
}

// New creates a CommitmentSync, running the DB migrations and loading the stored commitments into the tree
func New(ctx context.Context, cfg Config, client EthClienter, treeOpts ...merkle.Option) (*CommitmentSync, error) {
	logger := log.WithFields("syncer", commitmentSyncID)
	if cfg.WaitForNewBlocksPeriod.Duration <= 0 {
		return nil, errors.New("WaitForNewBlocksPeriod must be greater than 0")
	}
	dwn, err := newDownloader(client, cfg.ContractAddr, cfg.EventSignature, cfg.SyncBlockChunkSize, logger)
	if err != nil {
		return nil, err
	}
	p, err := newProcessor(cfg.DBPath, logger)
	if err != nil {
		return nil, err
	}
	stored, err := p.GetCommitments(ctx)
	if err != nil {
		p.close()
		return nil, fmt.Errorf("error loading stored commitments: %w", err)
	}
	opts := append([]merkle.Option{}, treeOpts...)
	opts = append(opts, merkle.WithLeafIndex())
	tree, err := merkle.New(commitmentValues(stored), opts...)
	if err != nil {
		p.close()
		return nil, err
	}
	logger.Infof("tree loaded with %d commitments, root %s", tree.Len(), tree.Root().String())
	return &CommitmentSync{
		cfg:        cfg,
		processor:  p,
		downloader: dwn,
		log:        logger,
		tree:       tree,
	}, nil
}

// Start syncs until ctx is done. It returns the first error found while syncing
func (s *CommitmentSync) Start(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.WaitForNewBlocksPeriod.Duration)
	defer ticker.Stop()
	for {
		if err := s.Sync(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		select {
		case <-ctx.Done():
			s.log.Info("context cancelled, stopping")
			return nil
		case <-ticker.C:
		}
	}
}

// Sync processes every block between the last processed one and the latest block of the client
func (s *CommitmentSync) Sync(ctx context.Context) error {
	fromBlock, err := s.nextBlock(ctx)
	if err != nil {
		return err
	}
	lastBlock, err := s.downloader.latestBlock(ctx)
	if err != nil {
		return fmt.Errorf("error getting latest block: %w", err)
	}
	for fromBlock <= lastBlock {
		toBlock := s.downloader.chunkEnd(fromBlock, lastBlock)
		if err := s.processRange(ctx, fromBlock, toBlock); err != nil {
			return err
		}
		fromBlock = toBlock + 1
	}
	return nil
}

func (s *CommitmentSync) nextBlock(ctx context.Context) (uint64, error) {
	last, ok, err := s.processor.GetLastProcessedBlock(ctx)
	if err != nil {
		return 0, err
	}
	if !ok || last < s.cfg.InitialBlockNum {
		return s.cfg.InitialBlockNum, nil
	}
	return last + 1, nil
}

// processRange stores the commitments of the range and appends them to the tree once the DB tx is committed
func (s *CommitmentSync) processRange(ctx context.Context, fromBlock, toBlock uint64) error {
	commitments, err := s.downloader.getCommitments(ctx, fromBlock, toBlock)
	if err != nil {
		return err
	}

	s.mu.RLock()
	nextLeaf, capacity := s.tree.Len(), s.tree.Capacity()
	s.mu.RUnlock()
	if nextLeaf+uint64(len(commitments)) > capacity {
		return fmt.Errorf("%w: %d commitments found between blocks %d and %d, %d leaves, capacity %d",
			merkle.ErrTreeFull, len(commitments), fromBlock, toBlock, nextLeaf, capacity)
	}

	blocks := []uint64{}
	byBlock := map[uint64][]Commitment{}
	values := make([]*big.Int, len(commitments))
	for i := range commitments {
		commitments[i].LeafIndex = nextLeaf + uint64(i)
		values[i] = commitments[i].Commitment
		num := commitments[i].BlockNum
		if _, ok := byBlock[num]; !ok {
			blocks = append(blocks, num)
		}
		byBlock[num] = append(byBlock[num], commitments[i])
	}
	if _, ok := byBlock[toBlock]; !ok {
		blocks = append(blocks, toBlock)
	}

	tx, err := db.NewTx(ctx, s.processor.db)
	if err != nil {
		return err
	}
	shouldRollback := true
	defer func() {
		if shouldRollback {
			if errRllbck := tx.Rollback(); errRllbck != nil {
				s.log.Errorf("error while rolling back tx %v", errRllbck)
			}
		}
	}()
	for _, num := range blocks {
		if err := s.processor.storeBlock(tx, num, byBlock[num]); err != nil {
			return fmt.Errorf("error storing block %d: %w", num, err)
		}
	}
	var treeErr error
	tx.AddCommitCallback(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		treeErr = s.tree.BulkInsert(values)
	})
	if err := tx.Commit(); err != nil {
		return err
	}
	shouldRollback = false
	if treeErr != nil {
		return fmt.Errorf("tree out of sync with the DB after block %d: %w", toBlock, treeErr)
	}
	if len(commitments) > 0 {
		s.log.Infof("added %d commitments from blocks %d to %d", len(commitments), fromBlock, toBlock)
	}
	return nil
}

// GetRoot returns the current root of the tree
func (s *CommitmentSync) GetRoot() *big.Int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tree.Root()
}

// GetLeafCount returns the amount of commitments in the tree
func (s *CommitmentSync) GetLeafCount() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tree.Len()
}

// GetIndexOf returns the leaf index of commitment or merkle.NotFound
func (s *CommitmentSync) GetIndexOf(commitment *big.Int) int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tree.IndexOf(commitment, nil)
}

// GetPath returns the proof of the leaf at index against the current root
func (s *CommitmentSync) GetPath(index uint64) (*Proof, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	path, err := s.tree.Path(index)
	if err != nil {
		return nil, err
	}
	proof := &Proof{
		Root:  s.tree.Root(),
		Index: index,
		Path:  path,
	}
	if index < s.tree.Len() {
		if proof.Leaf, err = s.tree.Leaf(index); err != nil {
			return nil, err
		}
	}
	return proof, nil
}

// GetCommitment returns the stored commitment at leaf index
func (s *CommitmentSync) GetCommitment(ctx context.Context, index uint64) (*Commitment, error) {
	return s.processor.GetCommitmentByIndex(ctx, index)
}

// GetLastProcessedBlock returns the last processed block, or zero when nothing has been synced
func (s *CommitmentSync) GetLastProcessedBlock(ctx context.Context) (uint64, error) {
	last, _, err := s.processor.GetLastProcessedBlock(ctx)
	return last, err
}

// Close releases the DB
func (s *CommitmentSync) Close() error {
	return s.processor.close()
}

// IsNotFound reports whether err means the requested commitment does not exist
func IsNotFound(err error) bool {
	return errors.Is(err, db.ErrNotFound)
}
