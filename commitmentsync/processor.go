package commitmentsync

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/big"

	"github.com/mattn/go-sqlite3"
	"github.com/mystikonetwork/commitment-tree/commitmentsync/migrations"
	"github.com/mystikonetwork/commitment-tree/db"
	"github.com/mystikonetwork/commitment-tree/log"
	"github.com/russross/meddler"
)

// ErrDuplicateCommitment is returned when a stored commitment already uses the same leaf index or log position
var ErrDuplicateCommitment = errors.New("duplicate commitment")

type processor struct {
	db  *sql.DB
	log *log.Logger
}

func newProcessor(dbPath string, logger *log.Logger) (*processor, error) {
	if err := migrations.RunMigrations(dbPath); err != nil {
		return nil, err
	}
	database, err := db.NewSQLiteDB(dbPath)
	if err != nil {
		return nil, err
	}
	return &processor{
		db:  database,
		log: logger,
	}, nil
}

// GetLastProcessedBlock returns the last processed block by the processor, including blocks
// that don't have events. ok is false when nothing has been processed yet
func (p *processor) GetLastProcessedBlock(ctx context.Context) (block uint64, ok bool, err error) {
	var lastProcessedBlock uint64
	row := p.db.QueryRowContext(ctx, "SELECT num FROM block ORDER BY num DESC LIMIT 1;")
	err = row.Scan(&lastProcessedBlock)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return lastProcessedBlock, true, nil
}

// GetCommitments returns every stored commitment ordered by leaf index
func (p *processor) GetCommitments(ctx context.Context) ([]*Commitment, error) {
	rows, err := p.db.QueryContext(ctx, "SELECT * FROM commitment ORDER BY leaf_index ASC;")
	if err != nil {
		return nil, err
	}
	commitments := []*Commitment{}
	if err := meddler.ScanAll(rows, &commitments); err != nil {
		return nil, err
	}
	for i, c := range commitments {
		if c.LeafIndex != uint64(i) {
			return nil, fmt.Errorf("gap in stored commitments: expected leaf %d, found %d", i, c.LeafIndex)
		}
	}
	return commitments, nil
}

// GetCommitmentByIndex returns the commitment stored at leafIndex or db.ErrNotFound
func (p *processor) GetCommitmentByIndex(ctx context.Context, leafIndex uint64) (*Commitment, error) {
	c := &Commitment{}
	err := meddler.QueryRow(p.db, c, "SELECT * FROM commitment WHERE leaf_index = $1;", leafIndex)
	if err != nil {
		return nil, db.ReturnErrNotFound(err)
	}
	return c, nil
}

// storeBlock marks blockNum as processed and stores its commitments. It does not commit tx
func (p *processor) storeBlock(tx db.Querier, blockNum uint64, commitments []Commitment) error {
	if _, err := tx.Exec("INSERT INTO block (num) VALUES ($1);", blockNum); err != nil {
		return err
	}
	for i := range commitments {
		if err := meddler.Insert(tx, "commitment", &commitments[i]); err != nil {
			if sqliteErr, ok := db.SQLiteErr(err); ok && sqliteErr.Code == sqlite3.ErrConstraint {
				return fmt.Errorf("%w: leaf %d at block %d position %d",
					ErrDuplicateCommitment, commitments[i].LeafIndex, blockNum, commitments[i].BlockPos)
			}
			return fmt.Errorf("error inserting commitment %d: %w", commitments[i].LeafIndex, err)
		}
	}
	if len(commitments) > 0 {
		p.log.Debugf("block %d stored with %d commitments", blockNum, len(commitments))
	}
	return nil
}

func (p *processor) close() error {
	return p.db.Close()
}

func commitmentValues(commitments []*Commitment) []*big.Int {
	values := make([]*big.Int, len(commitments))
	for i, c := range commitments {
		values[i] = c.Commitment
	}
	return values
}
