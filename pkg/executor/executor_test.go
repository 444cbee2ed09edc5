package executor

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/tvmbox/emulator-host/pkg/emulation"
)

func newTestExecutor(t *testing.T) (*Executor, *fakeRuntime) {
	t.Helper()
	rt := newFakeRuntime()
	return New(rt, zaptest.NewLogger(t)), rt
}

func TestRunGetMethod(t *testing.T) {
	e, rt := newTestExecutor(t)

	var request, stack, config string
	var resultAddr uint32
	rt.funcs[emulation.FuncRunGetMethod] = func(args []uint64) (uint64, error) {
		require.Len(t, args, 3)
		request = rt.stringAt(uint32(args[0]))
		stack = rt.stringAt(uint32(args[1]))
		config = rt.stringAt(uint32(args[2]))
		resultAddr = rt.placeResult(`{
			"fail": false,
			"logs": "engine log line",
			"output": {
				"success": true,
				"stack": "te6RESULT",
				"gas_used": "1000",
				"vm_exit_code": 0,
				"vm_log": "execute SETCP 0",
				"c7": "te6C7",
				"missing_library": null
			}
		}`)
		return uint64(resultAddr), nil
	}

	result, err := e.RunGetMethod(context.Background(), &emulation.GetMethodParams{
		Code:      "te6CODE",
		Data:      "te6DATA",
		MethodID:  85143,
		Stack:     "te6STACK",
		Config:    "te6CONFIG",
		Libs:      "te6LIBS",
		Address:   "0:fcb91a3a3816d0f7b8c2c76108b8a9bc5a6b7a55bd79f8ab101c52db29232260",
		Unixtime:  1735689600,
		Balance:   "10000000000",
		RandSeed:  "3e7f0a",
		GasLimit:  "0",
		Verbosity: emulation.VerbosityFullLocationStack,
	})
	require.NoError(t, err)

	assert.Equal(t, "te6STACK", stack, "stack travels as its own buffer")
	assert.Equal(t, "te6CONFIG", config, "config travels as its own buffer")

	var envelope map[string]any
	require.NoError(t, json.Unmarshal([]byte(request), &envelope))
	assert.Equal(t, "te6CODE", envelope["code"])
	assert.Equal(t, "te6DATA", envelope["data"])
	assert.Equal(t, float64(85143), envelope["method_id"])
	assert.Equal(t, float64(3), envelope["verbosity"])
	assert.Equal(t, "10000000000", envelope["balance"])
	assert.Equal(t, "3e7f0a", envelope["rand_seed"])
	assert.Equal(t, "0", envelope["gas_limit"])
	assert.NotContains(t, envelope, "stack")
	assert.NotContains(t, envelope, "config")

	require.True(t, result.Ok())
	assert.Equal(t, "te6RESULT", result.Success.Stack)
	assert.Equal(t, "1000", result.Success.GasUsed)
	assert.Equal(t, int32(0), result.Success.VMExitCode)
	assert.Nil(t, result.Success.MissingLibrary)
	assert.Equal(t, "engine log line", result.Logs)

	assert.Contains(t, rt.frees, resultAddr, "result buffer must be released after reading")
}

func TestRunGetMethodEngineFailure(t *testing.T) {
	e, rt := newTestExecutor(t)

	rt.funcs[emulation.FuncRunGetMethod] = func(args []uint64) (uint64, error) {
		return uint64(rt.placeResult(`{"fail":true,"message":"bad config"}`)), nil
	}

	_, err := e.RunGetMethod(context.Background(), &emulation.GetMethodParams{
		Config: "te6BROKEN",
	})
	require.Error(t, err)

	var engineErr *emulation.EngineFailedError
	require.ErrorAs(t, err, &engineErr)
	assert.Equal(t, "bad config", engineErr.Message)
}

func TestRunGetMethodEmulationFailureIsData(t *testing.T) {
	e, rt := newTestExecutor(t)

	rt.funcs[emulation.FuncRunGetMethod] = func(args []uint64) (uint64, error) {
		return uint64(rt.placeResult(
			`{"fail":false,"logs":"","output":{"success":false,"error":"stack underflow"}}`,
		)), nil
	}

	result, err := e.RunGetMethod(context.Background(), &emulation.GetMethodParams{})
	require.NoError(t, err, "a well-formed unsuccessful outcome is data, not an error")
	require.False(t, result.Ok())
	assert.Equal(t, "stack underflow", result.Failure.Error)
}

func TestRunTransaction(t *testing.T) {
	e, rt := newTestExecutor(t)
	ctx := context.Background()

	rt.funcs[emulation.FuncCreateEmulator] = func(args []uint64) (uint64, error) {
		return 7, nil
	}
	rt.funcs[emulation.FuncDestroyEmulator] = func(args []uint64) (uint64, error) {
		return 0, nil
	}

	var libs, account, message, request string
	rt.funcs[emulation.FuncEmulate] = func(args []uint64) (uint64, error) {
		require.Len(t, args, 5)
		assert.Equal(t, uint64(7), args[0])
		libs = rt.stringAt(uint32(args[1]))
		account = rt.stringAt(uint32(args[2]))
		message = rt.stringAt(uint32(args[3]))
		request = rt.stringAt(uint32(args[4]))
		return uint64(rt.placeResult(`{
			"fail": false,
			"logs": "tx log",
			"output": {
				"success": true,
				"transaction": "te6TX",
				"shard_account": "te6ACC",
				"vm_log": "vm trace",
				"c7": null,
				"actions": "te6ACT"
			}
		}`)), nil
	}

	params := &emulation.TransactionParams{
		Config:       "te6CONFIG",
		Verbosity:    emulation.VerbosityFull,
		Libs:         "te6LIBS",
		ShardAccount: "te6SHARD",
		Message:      "te6MSG",
		LT:           "30000000",
		Utime:        1735689600,
		RandSeed:     "ab12",
		IgnoreChksig: true,
	}
	result, err := e.RunTransaction(ctx, params)
	require.NoError(t, err)

	assert.Equal(t, "te6LIBS", libs)
	assert.Equal(t, "te6SHARD", account)
	assert.Equal(t, "te6MSG", message)

	var envelope map[string]any
	require.NoError(t, json.Unmarshal([]byte(request), &envelope))
	assert.Equal(t, float64(1735689600), envelope["utime"])
	assert.Equal(t, "30000000", envelope["lt"])
	assert.Equal(t, "ab12", envelope["rand_seed"])
	assert.Equal(t, true, envelope["ignore_chksig"])
	assert.NotContains(t, envelope, "config", "config reaches the engine only at construction")

	require.True(t, result.Ok())
	assert.Equal(t, "te6TX", result.Success.Transaction)
	assert.Equal(t, "te6ACC", result.Success.ShardAccount)
	assert.Nil(t, result.Success.C7)
	require.NotNil(t, result.Success.Actions)
	assert.Equal(t, "te6ACT", *result.Success.Actions)

	// Same config and verbosity: the engine handle is reused.
	_, err = e.RunTransaction(ctx, params)
	require.NoError(t, err)
	names := callNames(rt)
	assert.Equal(t, 1, countOf(names, emulation.FuncCreateEmulator))
	assert.Zero(t, countOf(names, emulation.FuncDestroyEmulator))

	// New config: the stale handle is destroyed and a fresh one constructed.
	changed := *params
	changed.Config = "te6OTHER"
	_, err = e.RunTransaction(ctx, &changed)
	require.NoError(t, err)
	names = callNames(rt)
	assert.Equal(t, 2, countOf(names, emulation.FuncCreateEmulator))
	assert.Equal(t, 1, countOf(names, emulation.FuncDestroyEmulator))
}

func countOf(names []string, name string) int {
	n := 0
	for _, candidate := range names {
		if candidate == name {
			n++
		}
	}
	return n
}

func TestRunTransactionEmptyLibsPassesNull(t *testing.T) {
	e, rt := newTestExecutor(t)

	rt.funcs[emulation.FuncCreateEmulator] = func(args []uint64) (uint64, error) {
		return 9, nil
	}
	rt.funcs[emulation.FuncEmulate] = func(args []uint64) (uint64, error) {
		assert.Zero(t, args[1], "absent libraries cross as a null pointer")
		return uint64(rt.placeResult(
			`{"fail":false,"logs":"","output":{"success":false,"error":"account is frozen"}}`,
		)), nil
	}

	result, err := e.RunTransaction(context.Background(), &emulation.TransactionParams{
		Config:       "te6CONFIG",
		ShardAccount: "te6SHARD",
		Message:      "te6MSG",
	})
	require.NoError(t, err)
	require.False(t, result.Ok())
	assert.Equal(t, "account is frozen", result.Failure.Error)
	assert.Nil(t, result.Failure.VM, "failure before the VM ran carries no diagnostics")
}

func TestRunTransactionVMFailureDiagnostics(t *testing.T) {
	e, rt := newTestExecutor(t)

	rt.funcs[emulation.FuncCreateEmulator] = func(args []uint64) (uint64, error) {
		return 9, nil
	}
	rt.funcs[emulation.FuncEmulate] = func(args []uint64) (uint64, error) {
		return uint64(rt.placeResult(`{
			"fail": false,
			"logs": "",
			"output": {
				"success": false,
				"error": "transaction aborted",
				"vm_log": "handling OUT OF GAS",
				"vm_exit_code": -14
			}
		}`)), nil
	}

	result, err := e.RunTransaction(context.Background(), &emulation.TransactionParams{
		Config:  "te6CONFIG",
		Message: "te6MSG",
	})
	require.NoError(t, err)
	require.False(t, result.Ok())
	require.NotNil(t, result.Failure.VM)
	assert.Equal(t, "handling OUT OF GAS", result.Failure.VM.Log)
	assert.Equal(t, int32(-14), result.Failure.VM.ExitCode)
}

func TestVersion(t *testing.T) {
	e, rt := newTestExecutor(t)

	rt.funcs[emulation.FuncVersion] = func(args []uint64) (uint64, error) {
		require.Empty(t, args)
		return uint64(rt.placeResult(
			`{"emulatorLibCommitHash":"9cb8768","emulatorLibCommitDate":"2025-04-10 12:00:00"}`,
		)), nil
	}

	v, err := e.Version(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "9cb8768", v.CommitHash)
	assert.Equal(t, "2025-04-10 12:00:00", v.CommitDate)
}

func TestExtractFreesResultExactlyOnce(t *testing.T) {
	e, rt := newTestExecutor(t)

	addr := rt.placeResult("payload")
	got, err := e.extract(context.Background(), addr)
	require.NoError(t, err)
	assert.Equal(t, "payload", got)

	require.Len(t, rt.frees, 1)
	assert.Equal(t, addr, rt.frees[0])

	_, err = e.extract(context.Background(), addr)
	require.Error(t, err, "a result address is dead after extraction")
	var extractErr *ExtractError
	require.ErrorAs(t, err, &extractErr)
	assert.Equal(t, addr, extractErr.Address)
}
