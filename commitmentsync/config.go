package commitmentsync

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/mystikonetwork/commitment-tree/config/types"
)

// DefaultEventSignature is the event used when EventSignature is empty
const DefaultEventSignature = "CommitmentIncluded(uint256)"

// Config is the configuration of the commitment synchronizer
type Config struct {
	// DBPath path of the DB
	DBPath string `mapstructure:"DBPath"`
	// URLRPC is the URL of the node emitting the commitment events
	URLRPC string `mapstructure:"URLRPC"`
	// ContractAddr is the address of the contract that emits the commitment events
	ContractAddr common.Address `mapstructure:"ContractAddr"`
	// EventSignature is the signature of the event carrying a commitment, its topic is the keccak256 of it
	EventSignature string `mapstructure:"EventSignature"`
	// InitialBlockNum is the first block that will be queried when starting the synchronization from scratch.
	// It should be a number equal or below the creation of the contract
	InitialBlockNum uint64 `mapstructure:"InitialBlockNum"`
	// SyncBlockChunkSize is the amount of blocks that will be queried to the client on each request
	SyncBlockChunkSize uint64 `mapstructure:"SyncBlockChunkSize"`
	// WaitForNewBlocksPeriod time that will be waited when the synchronizer has reached the latest block
	WaitForNewBlocksPeriod types.Duration `mapstructure:"WaitForNewBlocksPeriod"`
}
