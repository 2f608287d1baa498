package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Envelope mirrors the API response shape with the data left raw for the
// caller to decode.
type Envelope struct {
	Error   bool            `json:"error"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// DecodeEnvelope reads and decodes the standard response envelope.
func DecodeEnvelope(t *testing.T, resp *http.Response) Envelope {
	t.Helper()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err, "failed to read response body")

	var env Envelope
	require.NoError(t, json.Unmarshal(body, &env), "failed to unmarshal envelope: %s", string(body))
	return env
}

// DecodeData decodes the envelope's data payload into v.
func DecodeData(t *testing.T, env Envelope, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(env.Data, v), "failed to unmarshal data: %s", string(env.Data))
}

// AssertErrorResponse verifies status code, error flag and message.
func AssertErrorResponse(t *testing.T, resp *http.Response, expectedStatus int, expectedMessage string) {
	t.Helper()

	assert.Equal(t, expectedStatus, resp.StatusCode, "unexpected status code")

	env := DecodeEnvelope(t, resp)
	assert.True(t, env.Error, "expected error envelope")
	assert.Equal(t, expectedMessage, env.Message, "error message mismatch")
}

// AssertSuccessResponse verifies a non-error envelope with the given message.
func AssertSuccessResponse(t *testing.T, resp *http.Response, expectedStatus int, expectedMessage string) Envelope {
	t.Helper()

	assert.Equal(t, expectedStatus, resp.StatusCode, "unexpected status code")

	env := DecodeEnvelope(t, resp)
	assert.False(t, env.Error, "expected success envelope")
	assert.Equal(t, expectedMessage, env.Message, "message mismatch")
	return env
}
