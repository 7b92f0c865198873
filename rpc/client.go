package rpc

import (
	"encoding/json"
	"fmt"

	"github.com/0xPolygon/cdk-rpc/rpc"
	"github.com/mystikonetwork/commitment-tree/rpc/types"
)

// ClientInterface is the interface that defines the implementation of all the endpoints
type ClientInterface interface {
	Root() (string, error)
	LeafCount() (uint64, error)
	Path(index uint64) (*types.Proof, error)
	IndexOf(commitment string) (int64, error)
	Commitment(index uint64) (*types.Commitment, error)
	LastProcessedBlock() (uint64, error)
}

// Client wraps all the available endpoints of the tree service
type Client struct {
	url string
}

// NewClient returns a client ready to be used
func NewClient(url string) *Client {
	return &Client{
		url: url,
	}
}

func (c *Client) call(result interface{}, method string, params ...interface{}) error {
	response, err := rpc.JSONRPCCall(c.url, method, params...)
	if err != nil {
		return err
	}
	if response.Error != nil {
		return fmt.Errorf("%v %v", response.Error.Code, response.Error.Message)
	}
	return json.Unmarshal(response.Result, result)
}

// Root returns the current root as a 0x prefixed 32 bytes hex string
func (c *Client) Root() (string, error) {
	var result string
	return result, c.call(&result, "tree_root")
}

func (c *Client) LeafCount() (uint64, error) {
	var result uint64
	return result, c.call(&result, "tree_leafCount")
}

// Path returns the authentication path of the leaf at index
func (c *Client) Path(index uint64) (*types.Proof, error) {
	var result types.Proof
	return &result, c.call(&result, "tree_path", index)
}

// IndexOf returns the leaf index of commitment or -1
func (c *Client) IndexOf(commitment string) (int64, error) {
	var result int64
	return result, c.call(&result, "tree_indexOf", commitment)
}

func (c *Client) Commitment(index uint64) (*types.Commitment, error) {
	var result types.Commitment
	return &result, c.call(&result, "tree_commitment", index)
}

func (c *Client) LastProcessedBlock() (uint64, error) {
	var result uint64
	return result, c.call(&result, "tree_lastProcessedBlock")
}
