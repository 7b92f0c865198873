package commitmentsync

import (
	"context"
	"math/big"
	"path"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	cfgTypes "github.com/mystikonetwork/commitment-tree/config/types"
	"github.com/mystikonetwork/commitment-tree/merkle"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	leaf1Hex = "0x12d7aafbf3d4c1852ad3634d69607fc9ea8028f2d5724fcf3b917e71fd2dbff6"
	leaf2Hex = "0x062c3655c709b4b58142b9b270f5a5b06b8df8921cbbb261a7729eae759e7ec3"
	leaf3Hex = "0x02d18bd99c2ce3d70411809537b64bfbbac5f51a7b7e2eeb8d84346162f9c707"

	threeLeavesRoot = "10254041194642220426314275741279894727412053938657566062675343387806484605596"
)

var (
	contractAddr    = common.HexToAddress("0x1234567890abcdef1234567890abcdef12345678")
	commitmentTopic = crypto.Keccak256Hash([]byte(DefaultEventSignature))
)

type ethClientMock struct {
	mock.Mock
}

func (m *ethClientMock) FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	args := m.Called(ctx, q)
	logs, _ := args.Get(0).([]types.Log)
	return logs, args.Error(1)
}

func (m *ethClientMock) SubscribeFilterLogs(
	ctx context.Context, q ethereum.FilterQuery, ch chan<- types.Log,
) (ethereum.Subscription, error) {
	args := m.Called(ctx, q, ch)
	sub, _ := args.Get(0).(ethereum.Subscription)
	return sub, args.Error(1)
}

func (m *ethClientMock) BlockNumber(ctx context.Context) (uint64, error) {
	args := m.Called(ctx)
	return args.Get(0).(uint64), args.Error(1)
}

func testConfig(t *testing.T) Config {
	t.Helper()
	return Config{
		DBPath:                 path.Join(t.TempDir(), "commitmentsync.sqlite"),
		ContractAddr:           contractAddr,
		InitialBlockNum:        0,
		SyncBlockChunkSize:     10,
		WaitForNewBlocksPeriod: cfgTypes.NewDuration(time.Millisecond),
	}
}

func indexedLog(blockNum uint64, index uint, value string) types.Log {
	return types.Log{
		Address:     contractAddr,
		Topics:      []common.Hash{commitmentTopic, common.HexToHash(value)},
		BlockNumber: blockNum,
		Index:       index,
		TxHash:      common.BigToHash(new(big.Int).SetUint64(blockNum*100 + uint64(index))),
	}
}

func dataLog(blockNum uint64, index uint, value string) types.Log {
	return types.Log{
		Address:     contractAddr,
		Topics:      []common.Hash{commitmentTopic},
		Data:        common.HexToHash(value).Bytes(),
		BlockNumber: blockNum,
		Index:       index,
		TxHash:      common.BigToHash(new(big.Int).SetUint64(blockNum*100 + uint64(index))),
	}
}

func mustHex(t *testing.T, s string) *big.Int {
	t.Helper()
	v, err := merkle.ElementFromHex(s)
	require.NoError(t, err)
	return v
}

func TestSyncAndReload(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	client := &ethClientMock{}
	client.On("BlockNumber", mock.Anything).Return(uint64(5), nil)
	client.On("FilterLogs", mock.Anything, mock.MatchedBy(func(q ethereum.FilterQuery) bool {
		return q.FromBlock.Uint64() == 0 && q.ToBlock.Uint64() == 5
	})).Return([]types.Log{
		indexedLog(2, 0, leaf1Hex),
		dataLog(3, 4, leaf3Hex),
		dataLog(3, 1, leaf2Hex),
		{Topics: []common.Hash{common.HexToHash("0x01"), common.HexToHash(leaf1Hex)}, BlockNumber: 4},
		{Topics: []common.Hash{commitmentTopic, common.HexToHash(leaf1Hex)}, BlockNumber: 4, Removed: true},
	}, nil).Once()

	s, err := New(ctx, cfg, client)
	require.NoError(t, err)
	require.Equal(t, uint64(0), s.GetLeafCount())
	require.NoError(t, s.Sync(ctx))

	root, ok := new(big.Int).SetString(threeLeavesRoot, 10)
	require.True(t, ok)
	require.Equal(t, root, s.GetRoot())
	require.Equal(t, uint64(3), s.GetLeafCount())
	require.Equal(t, int64(1), s.GetIndexOf(mustHex(t, leaf2Hex)))
	require.Equal(t, int64(2), s.GetIndexOf(mustHex(t, leaf3Hex)))
	require.Equal(t, merkle.NotFound, s.GetIndexOf(big.NewInt(1)))

	last, err := s.GetLastProcessedBlock(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(5), last)

	c, err := s.GetCommitment(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, uint64(3), c.BlockNum)
	require.Equal(t, uint64(1), c.BlockPos)
	require.Equal(t, mustHex(t, leaf2Hex), c.Commitment)
	require.Equal(t, common.BigToHash(big.NewInt(301)), c.TxHash)

	_, err = s.GetCommitment(ctx, 3)
	require.True(t, IsNotFound(err))

	proof, err := s.GetPath(1)
	require.NoError(t, err)
	require.Equal(t, root, proof.Root)
	require.Equal(t, mustHex(t, leaf2Hex), proof.Leaf)
	require.True(t, merkle.VerifyPath(merkle.DefaultHasher, proof.Root, proof.Leaf, proof.Path))

	proof, err = s.GetPath(3)
	require.NoError(t, err)
	require.Nil(t, proof.Leaf)
	_, err = s.GetPath(4)
	require.ErrorIs(t, err, merkle.ErrIndexOutOfBounds)

	// nothing new to query
	require.NoError(t, s.Sync(ctx))
	require.NoError(t, s.Close())

	reloaded, err := New(ctx, cfg, client)
	require.NoError(t, err)
	defer reloaded.Close()
	require.Equal(t, root, reloaded.GetRoot())
	require.Equal(t, uint64(3), reloaded.GetLeafCount())
	client.AssertExpectations(t)
}

func TestSyncInChunks(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	cfg.InitialBlockNum = 1
	cfg.SyncBlockChunkSize = 2
	client := &ethClientMock{}
	client.On("BlockNumber", mock.Anything).Return(uint64(5), nil)
	for _, r := range [][2]uint64{{1, 2}, {3, 4}, {5, 5}} {
		from, to := r[0], r[1]
		client.On("FilterLogs", mock.Anything, mock.MatchedBy(func(q ethereum.FilterQuery) bool {
			return q.FromBlock.Uint64() == from && q.ToBlock.Uint64() == to &&
				len(q.Addresses) == 1 && q.Addresses[0] == contractAddr &&
				q.Topics[0][0] == commitmentTopic
		})).Return([]types.Log{indexedLog(to, 0, leaf1Hex)}, nil).Once()
	}

	s, err := New(ctx, cfg, client, merkle.WithMaxLevels(3))
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.Sync(ctx))
	require.Equal(t, uint64(3), s.GetLeafCount())
	// duplicated commitments keep their first position
	require.Equal(t, int64(0), s.GetIndexOf(mustHex(t, leaf1Hex)))
	client.AssertExpectations(t)

	expected, err := merkle.New([]*big.Int{
		mustHex(t, leaf1Hex), mustHex(t, leaf1Hex), mustHex(t, leaf1Hex),
	}, merkle.WithMaxLevels(3))
	require.NoError(t, err)
	require.Equal(t, expected.Root(), s.GetRoot())
}

func TestSyncTreeFull(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	client := &ethClientMock{}
	client.On("BlockNumber", mock.Anything).Return(uint64(3), nil)
	client.On("FilterLogs", mock.Anything, mock.Anything).Return([]types.Log{
		indexedLog(1, 0, leaf1Hex),
		indexedLog(2, 0, leaf2Hex),
		indexedLog(3, 0, leaf3Hex),
	}, nil)

	s, err := New(ctx, cfg, client, merkle.WithMaxLevels(1))
	require.NoError(t, err)
	defer s.Close()
	emptyRoot := s.GetRoot()
	require.ErrorIs(t, s.Sync(ctx), merkle.ErrTreeFull)
	require.Equal(t, uint64(0), s.GetLeafCount())
	require.Equal(t, emptyRoot, s.GetRoot())
	last, err := s.GetLastProcessedBlock(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(0), last)
}

func TestSyncClientError(t *testing.T) {
	ctx := context.Background()
	client := &ethClientMock{}
	client.On("BlockNumber", mock.Anything).Return(uint64(0), ethereum.NotFound)

	s, err := New(ctx, testConfig(t), client)
	require.NoError(t, err)
	defer s.Close()
	require.ErrorIs(t, s.Sync(ctx), ethereum.NotFound)
}

func TestStartStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	client := &ethClientMock{}
	client.On("BlockNumber", mock.Anything).Return(uint64(0), nil)
	client.On("FilterLogs", mock.Anything, mock.Anything).Return([]types.Log{indexedLog(0, 0, leaf1Hex)}, nil).Once()

	s, err := New(ctx, testConfig(t), client)
	require.NoError(t, err)
	defer s.Close()
	done := make(chan error)
	go func() {
		done <- s.Start(ctx)
	}()
	require.Eventually(t, func() bool {
		return s.GetLeafCount() == 1
	}, time.Second, time.Millisecond)
	cancel()
	require.NoError(t, <-done)
}

func TestNewInvalidConfig(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	cfg.SyncBlockChunkSize = 0
	_, err := New(ctx, cfg, &ethClientMock{})
	require.Error(t, err)

	cfg = testConfig(t)
	cfg.WaitForNewBlocksPeriod = cfgTypes.NewDuration(0)
	_, err = New(ctx, cfg, &ethClientMock{})
	require.Error(t, err)

	_, err = New(ctx, testConfig(t), &ethClientMock{}, merkle.WithMaxLevels(0))
	require.ErrorIs(t, err, merkle.ErrInvalidLevels)
}
