package emulation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGetMethodResponseSuccess(t *testing.T) {
	payload := `{
		"logs": "",
		"output": {
			"success": true,
			"stack": "te6cckEBAQEAAgAAAEysuc0=",
			"gas_used": "1000",
			"vm_exit_code": 0,
			"vm_log": "",
			"c7": "te6cckEBAQEAAgAAAEysuc0=",
			"missing_library": null
		}
	}`

	result, err := ParseGetMethodResponse([]byte(payload))
	require.NoError(t, err)
	require.True(t, result.Ok())
	require.NotNil(t, result.Success)
	assert.Nil(t, result.Failure)

	assert.Equal(t, "te6cckEBAQEAAgAAAEysuc0=", result.Success.Stack)
	assert.Equal(t, "1000", result.Success.GasUsed)
	assert.Equal(t, int32(0), result.Success.VMExitCode)
	assert.Equal(t, "", result.Success.VMLog)
	assert.Nil(t, result.Success.MissingLibrary)
}

func TestParseGetMethodResponseMissingLibrary(t *testing.T) {
	payload := `{
		"logs": "",
		"output": {
			"success": true,
			"stack": "q80=",
			"gas_used": "777",
			"vm_exit_code": 0,
			"vm_log": "",
			"c7": "q80=",
			"missing_library": "abcdef"
		}
	}`

	result, err := ParseGetMethodResponse([]byte(payload))
	require.NoError(t, err)
	require.NotNil(t, result.Success)
	require.NotNil(t, result.Success.MissingLibrary)
	assert.Equal(t, "abcdef", *result.Success.MissingLibrary)
}

func TestParseGetMethodResponseFailureOutcome(t *testing.T) {
	payload := `{
		"logs": "vm trace",
		"output": {"success": false, "error": "method not found"}
	}`

	result, err := ParseGetMethodResponse([]byte(payload))
	require.NoError(t, err)
	assert.False(t, result.Ok())
	require.NotNil(t, result.Failure)
	assert.Nil(t, result.Success)
	assert.Equal(t, "method not found", result.Failure.Error)
	assert.Equal(t, "vm trace", result.Logs)
}

func TestParseGetMethodResponseFailEnvelope(t *testing.T) {
	_, err := ParseGetMethodResponse([]byte(`{"fail": true, "message": "bad config"}`))
	require.Error(t, err)

	var failed *EngineFailedError
	require.ErrorAs(t, err, &failed)
	assert.Equal(t, "bad config", failed.Message)
	assert.Contains(t, err.Error(), "bad config")
}

func TestParseGetMethodResponseFailEnvelopeNoMessage(t *testing.T) {
	_, err := ParseGetMethodResponse([]byte(`{"fail": true}`))
	require.Error(t, err)

	var failed *EngineFailedError
	require.ErrorAs(t, err, &failed)
	assert.Equal(t, "engine reported failure without a message", failed.Error())
}

func TestParseGetMethodResponseInvalidJSON(t *testing.T) {
	_, err := ParseGetMethodResponse([]byte(`{"logs": `))
	require.Error(t, err)

	var parseErr *ResponseParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "get-method", parseErr.Operation)
}

func TestParseGetMethodResponseNoOutput(t *testing.T) {
	_, err := ParseGetMethodResponse([]byte(`{"logs": "x"}`))
	require.Error(t, err)

	var parseErr *ResponseParseError
	require.ErrorAs(t, err, &parseErr)
}

func TestParseTransactionResponseSuccess(t *testing.T) {
	payload := `{
		"logs": "",
		"output": {
			"success": true,
			"transaction": "te6cckEBAQEAAgAAAEysuc0=",
			"shard_account": "te6cckEBAQEAAgAAAEysuc0=",
			"vm_log": "",
			"c7": null,
			"actions": "te6cckEBAQEAAgAAAEysuc0="
		}
	}`

	result, err := ParseTransactionResponse([]byte(payload))
	require.NoError(t, err)
	require.True(t, result.Ok())
	require.NotNil(t, result.Success)

	assert.Equal(t, "te6cckEBAQEAAgAAAEysuc0=", result.Success.Transaction)
	assert.Equal(t, "te6cckEBAQEAAgAAAEysuc0=", result.Success.ShardAccount)
	assert.Nil(t, result.Success.C7)
	require.NotNil(t, result.Success.Actions)
	assert.Equal(t, "te6cckEBAQEAAgAAAEysuc0=", *result.Success.Actions)
}

func TestParseTransactionResponseFailureBeforeVM(t *testing.T) {
	payload := `{
		"logs": "",
		"output": {"success": false, "error": "cannot unpack shard account"}
	}`

	result, err := ParseTransactionResponse([]byte(payload))
	require.NoError(t, err)
	require.NotNil(t, result.Failure)
	assert.Equal(t, "cannot unpack shard account", result.Failure.Error)

	// No vm_log/vm_exit_code fields means the failure happened before the VM
	// ran; that must stay distinguishable from empty diagnostics.
	assert.Nil(t, result.Failure.VM)
}

func TestParseTransactionResponseFailureInVM(t *testing.T) {
	payload := `{
		"logs": "",
		"output": {
			"success": false,
			"error": "transaction aborted",
			"vm_log": "stack underflow at op 17",
			"vm_exit_code": -3
		}
	}`

	result, err := ParseTransactionResponse([]byte(payload))
	require.NoError(t, err)
	require.NotNil(t, result.Failure)
	require.NotNil(t, result.Failure.VM)
	assert.Equal(t, "stack underflow at op 17", result.Failure.VM.Log)
	assert.Equal(t, int32(-3), result.Failure.VM.ExitCode)
}

func TestParseTransactionResponseFailureExitCodeOnly(t *testing.T) {
	payload := `{
		"logs": "",
		"output": {"success": false, "error": "aborted", "vm_exit_code": 13}
	}`

	result, err := ParseTransactionResponse([]byte(payload))
	require.NoError(t, err)
	require.NotNil(t, result.Failure)
	require.NotNil(t, result.Failure.VM)
	assert.Equal(t, int32(13), result.Failure.VM.ExitCode)
	assert.Equal(t, "", result.Failure.VM.Log)
}

func TestParseTransactionResponseFailEnvelope(t *testing.T) {
	_, err := ParseTransactionResponse([]byte(`{"fail": true, "message": "bad config"}`))
	require.Error(t, err)

	var failed *EngineFailedError
	require.ErrorAs(t, err, &failed)
	assert.Equal(t, "bad config", failed.Message)
}

func TestParseVersionResponse(t *testing.T) {
	payload := `{
		"emulatorLibCommitHash": "8dca49a1",
		"emulatorLibCommitDate": "2024-02-13 14:11:17 +0300"
	}`

	v, err := ParseVersionResponse([]byte(payload))
	require.NoError(t, err)
	assert.Equal(t, "8dca49a1", v.CommitHash)
	assert.Equal(t, "2024-02-13 14:11:17 +0300", v.CommitDate)
}

func TestParseVersionResponseInvalid(t *testing.T) {
	_, err := ParseVersionResponse([]byte(`nope`))
	require.Error(t, err)

	var parseErr *ResponseParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "version", parseErr.Operation)
}
