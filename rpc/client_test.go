package rpc

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

type jsonRPCRequest struct {
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

func newTestServer(t *testing.T, results map[string]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req jsonRPCRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		w.Header().Set("Content-Type", "application/json")
		result, ok := results[req.Method]
		if !ok {
			fmt.Fprintf(w, `{"jsonrpc":"2.0","id":1,"error":{"code":-32601,"message":"method %s not found"}}`, req.Method)
			return
		}
		fmt.Fprintf(w, `{"jsonrpc":"2.0","id":1,"result":%s}`, result)
	}))
}

func TestClient(t *testing.T) {
	root := "0x00000000000000000000000000000000000000000000000000000000000000ff"
	srv := newTestServer(t, map[string]string{
		"tree_root":               `"` + root + `"`,
		"tree_leafCount":          `3`,
		"tree_indexOf":            `-1`,
		"tree_lastProcessedBlock": `42`,
		"tree_path": `{"root":"` + root + `","index":1,"leaf":"0x02",` +
			`"pathElements":["0x01","0x03"],"pathIndices":[1,0]}`,
	})
	defer srv.Close()
	c := NewClient(srv.URL)

	r, err := c.Root()
	require.NoError(t, err)
	require.Equal(t, root, r)

	count, err := c.LeafCount()
	require.NoError(t, err)
	require.Equal(t, uint64(3), count)

	index, err := c.IndexOf("0x10")
	require.NoError(t, err)
	require.Equal(t, int64(-1), index)

	block, err := c.LastProcessedBlock()
	require.NoError(t, err)
	require.Equal(t, uint64(42), block)

	proof, err := c.Path(1)
	require.NoError(t, err)
	require.Equal(t, uint64(1), proof.Index)
	path, err := proof.MerklePath()
	require.NoError(t, err)
	require.Equal(t, []uint8{1, 0}, path.Indices)
	require.Equal(t, int64(3), path.Elements[1].Int64())

	_, err = c.Commitment(0)
	require.Error(t, err)
	require.Contains(t, err.Error(), "not found")
}
