package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-registry/pkg/simpleregistry/api"
)

// RegistryResponse represents the response from registry-level API endpoints
type RegistryResponse struct {
	Admin           string `json:"admin"`
	OracleReference string `json:"oracle_reference"`
	NextID          uint64 `json:"next_id"`
	ContentCount    int64  `json:"content_count"`
}

// ContentResponse represents the response from content-related API endpoints
type ContentResponse struct {
	ID    uint64 `json:"id"`
	Hash  string `json:"hash"`
	Owner string `json:"owner"`
}

// ErrorResponse represents an API error body
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// InitializeRegistry initializes the registry via the API
func InitializeRegistry(t *testing.T, serverURL, admin, oracleReference string) RegistryResponse {
	reqBody := map[string]string{
		"admin":            admin,
		"oracle_reference": oracleReference,
	}
	reqJSON, err := json.Marshal(reqBody)
	require.NoError(t, err)

	resp, err := http.Post(serverURL+"/registry", "application/json", bytes.NewBuffer(reqJSON))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var info RegistryResponse
	decodeBody(t, resp, &info)
	return info
}

// AttemptInitializeRegistry initializes the registry and returns the raw response
func AttemptInitializeRegistry(t *testing.T, serverURL, admin, oracleReference string) *http.Response {
	reqBody := map[string]string{
		"admin":            admin,
		"oracle_reference": oracleReference,
	}
	reqJSON, err := json.Marshal(reqBody)
	require.NoError(t, err)

	resp, err := http.Post(serverURL+"/registry", "application/json", bytes.NewBuffer(reqJSON))
	require.NoError(t, err)
	return resp
}

// GetRegistryInfo gets the registry state via the API
func GetRegistryInfo(t *testing.T, serverURL string) RegistryResponse {
	resp, err := http.Get(serverURL + "/registry")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var info RegistryResponse
	decodeBody(t, resp, &info)
	return info
}

// GetOracleReference gets the current oracle reference via the API
func GetOracleReference(t *testing.T, serverURL string) string {
	resp, err := http.Get(serverURL + "/registry/oracle")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		OracleReference string `json:"oracle_reference"`
	}
	decodeBody(t, resp, &body)
	return body.OracleReference
}

// SetOracleReference updates the oracle reference via the API as the given caller
func SetOracleReference(t *testing.T, serverURL, caller, reference string) {
	resp := AttemptSetOracleReference(t, serverURL, caller, reference)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

// AttemptSetOracleReference updates the oracle reference and returns the raw response
func AttemptSetOracleReference(t *testing.T, serverURL, caller, reference string) *http.Response {
	reqBody := map[string]string{"oracle_reference": reference}
	reqJSON, err := json.Marshal(reqBody)
	require.NoError(t, err)

	req, err := http.NewRequest("PUT", serverURL+"/registry/oracle", bytes.NewBuffer(reqJSON))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(api.CallerHeader, caller)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

// RegisterContent registers new content via the API as the given caller
func RegisterContent(t *testing.T, serverURL, caller, hash string) ContentResponse {
	resp := AttemptRegisterContent(t, serverURL, caller, hash)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var content ContentResponse
	decodeBody(t, resp, &content)
	return content
}

// AttemptRegisterContent registers content and returns the raw response
func AttemptRegisterContent(t *testing.T, serverURL, caller, hash string) *http.Response {
	reqBody := map[string]string{"hash": hash}
	reqJSON, err := json.Marshal(reqBody)
	require.NoError(t, err)

	req, err := http.NewRequest("POST", serverURL+"/contents", bytes.NewBuffer(reqJSON))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if caller != "" {
		req.Header.Set(api.CallerHeader, caller)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

// GetContent gets a content record by ID via the API
func GetContent(t *testing.T, serverURL string, id uint64) ContentResponse {
	resp, err := http.Get(serverURL + "/contents/" + strconv.FormatUint(id, 10))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var content ContentResponse
	decodeBody(t, resp, &content)
	return content
}

// ResolveContent looks up a content record by hash via the API
func ResolveContent(t *testing.T, serverURL, hash string) ContentResponse {
	resp, err := http.Get(serverURL + "/contents?hash=" + hash)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var content ContentResponse
	decodeBody(t, resp, &content)
	return content
}

// ListContentByOwner lists content owned by an identity via the API
func ListContentByOwner(t *testing.T, serverURL, owner string) []ContentResponse {
	resp, err := http.Get(serverURL + "/contents?owner=" + owner)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var contents []ContentResponse
	decodeBody(t, resp, &contents)
	return contents
}

// TransferOwnership transfers content to a new owner via the API as the given caller
func TransferOwnership(t *testing.T, serverURL, caller string, id uint64, newOwner string) ContentResponse {
	resp := AttemptTransferOwnership(t, serverURL, caller, id, newOwner)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var content ContentResponse
	decodeBody(t, resp, &content)
	return content
}

// AttemptTransferOwnership transfers content and returns the raw response
func AttemptTransferOwnership(t *testing.T, serverURL, caller string, id uint64, newOwner string) *http.Response {
	reqBody := map[string]string{"new_owner": newOwner}
	reqJSON, err := json.Marshal(reqBody)
	require.NoError(t, err)

	url := serverURL + "/contents/" + strconv.FormatUint(id, 10) + "/transfer"
	req, err := http.NewRequest("POST", url, bytes.NewBuffer(reqJSON))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if caller != "" {
		req.Header.Set(api.CallerHeader, caller)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

// DecodeError reads an error body from a non-2xx response
func DecodeError(t *testing.T, resp *http.Response) ErrorResponse {
	var apiErr ErrorResponse
	decodeBody(t, resp, &apiErr)
	return apiErr
}

func decodeBody(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	defer resp.Body.Close()

	err = json.Unmarshal(body, out)
	require.NoError(t, err)
}
