package config

// DefaultMandatoryVars depend on the deployment, so they have no meaningful default
const DefaultMandatoryVars = `
# RPC URL of the chain where the commitments are emitted
L1URL = "http://localhost:8545"

# CommitmentContractAddr is the address of the contract emitting the commitment events
CommitmentContractAddr = "0x0000000000000000000000000000000000000000"

# CommitmentContractCreationBlock is the block where the contract was deployed
CommitmentContractCreationBlock = 0
`

// DefaultVars are not config fields, they are used to avoid repetition in config files
const DefaultVars = `
PathRWData = "/tmp/commitment-tree"
L1URLSyncChunkSize = 100
`

// DefaultValues is the default configuration
const DefaultValues = `
[Log]
Environment = "development" # "production" or "development"
Level = "info"
Outputs = ["stderr"]

[Tree]
MaxLevels = 20
ZeroElement = ""
Hasher = "poseidon"

[CommitmentSync]
DBPath = "{{PathRWData}}/commitmentsync.sqlite"
URLRPC = "{{L1URL}}"
ContractAddr = "{{CommitmentContractAddr}}"
EventSignature = "CommitmentIncluded(uint256)"
InitialBlockNum = {{CommitmentContractCreationBlock}}
SyncBlockChunkSize = {{L1URLSyncChunkSize}}
WaitForNewBlocksPeriod = "3s"

[RPC]
Host = "0.0.0.0"
Port = 5576
ReadTimeout = "2s"
WriteTimeout = "2s"
MaxRequestsPerIPAndSecond = 10
`
