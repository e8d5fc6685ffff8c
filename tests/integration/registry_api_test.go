package integration

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-registry/tests/testutil"
)

func TestRegistryWorkflow(t *testing.T) {
	// Setup test server
	server := testutil.SetupTestServer()
	defer server.Close()

	// 1. Initialize the registry
	info := testutil.InitializeRegistry(t, server.URL, "alice", "oracle-v1")
	assert.Equal(t, "alice", info.Admin)
	assert.Equal(t, "oracle-v1", info.OracleReference)
	assert.Equal(t, uint64(1), info.NextID)

	// 2. A second initialization is rejected
	resp := testutil.AttemptInitializeRegistry(t, server.URL, "mallory", "oracle-evil")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	apiErr := testutil.DecodeError(t, resp)
	assert.Equal(t, "already_initialized", apiErr.Code)

	// 3. Register content as bob
	first := testutil.RegisterContent(t, server.URL, "bob", "sha256:aaaa")
	assert.Equal(t, uint64(1), first.ID)
	assert.Equal(t, "bob", first.Owner)

	second := testutil.RegisterContent(t, server.URL, "bob", "sha256:bbbb")
	assert.Equal(t, uint64(2), second.ID)

	// 4. Resolve by hash and fetch by ID
	resolved := testutil.ResolveContent(t, server.URL, "sha256:aaaa")
	assert.Equal(t, first.ID, resolved.ID)

	fetched := testutil.GetContent(t, server.URL, second.ID)
	assert.Equal(t, "sha256:bbbb", fetched.Hash)

	// 5. Re-registering a known hash is rejected, even for another caller
	resp = testutil.AttemptRegisterContent(t, server.URL, "carol", "sha256:aaaa")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	apiErr = testutil.DecodeError(t, resp)
	assert.Equal(t, "duplicate_content", apiErr.Code)

	// 6. Transfer ownership to eve
	transferred := testutil.TransferOwnership(t, server.URL, "bob", first.ID, "eve")
	assert.Equal(t, "eve", transferred.Owner)

	// 7. The previous owner can no longer transfer
	resp = testutil.AttemptTransferOwnership(t, server.URL, "bob", first.ID, "frank")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	apiErr = testutil.DecodeError(t, resp)
	assert.Equal(t, "not_owner", apiErr.Code)

	// 8. Ownership listings reflect the transfer
	bobContents := testutil.ListContentByOwner(t, server.URL, "bob")
	require.Len(t, bobContents, 1)
	assert.Equal(t, second.ID, bobContents[0].ID)

	eveContents := testutil.ListContentByOwner(t, server.URL, "eve")
	require.Len(t, eveContents, 1)
	assert.Equal(t, first.ID, eveContents[0].ID)

	// 9. Only the admin can rotate the oracle reference
	resp = testutil.AttemptSetOracleReference(t, server.URL, "bob", "oracle-v2")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	testutil.SetOracleReference(t, server.URL, "alice", "oracle-v2")
	assert.Equal(t, "oracle-v2", testutil.GetOracleReference(t, server.URL))

	// 10. Registry counters account for every successful registration
	info = testutil.GetRegistryInfo(t, server.URL)
	assert.Equal(t, uint64(3), info.NextID)
	assert.Equal(t, int64(2), info.ContentCount)
}

func TestRegistryRequestValidation(t *testing.T) {
	// Setup test server
	server := testutil.SetupTestServer()
	defer server.Close()

	testutil.InitializeRegistry(t, server.URL, "alice", "")

	// Registration requires a caller identity
	resp := testutil.AttemptRegisterContent(t, server.URL, "", "sha256:aaaa")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	// Empty hashes are rejected before validation
	resp = testutil.AttemptRegisterContent(t, server.URL, "bob", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	apiErr := testutil.DecodeError(t, resp)
	assert.Equal(t, "empty_hash", apiErr.Code)

	// Content IDs must be positive integers
	getResp, err := http.Get(server.URL + "/contents/abc")
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, getResp.StatusCode)
	getResp.Body.Close()

	// Unknown content IDs map to 404
	getResp, err = http.Get(server.URL + "/contents/999")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, getResp.StatusCode)
	getResp.Body.Close()

	// A lookup needs either a hash or an owner
	getResp, err = http.Get(server.URL + "/contents")
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, getResp.StatusCode)
	getResp.Body.Close()

	// Transfers on missing content report not found, not ownership
	resp = testutil.AttemptTransferOwnership(t, server.URL, "bob", 42, "eve")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	apiErr = testutil.DecodeError(t, resp)
	assert.Equal(t, "content_not_found", apiErr.Code)
}
