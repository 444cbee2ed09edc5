package emulation

import (
	"encoding/json"
	"errors"
)

// envelope is the outermost shape of every emulation response. A response
// either fails as a whole (fail:true, a protocol error) or carries engine
// logs plus an outcome object whose shape depends on its success flag.
type envelope struct {
	Fail    bool            `json:"fail"`
	Message string          `json:"message"`
	Logs    string          `json:"logs"`
	Output  json.RawMessage `json:"output"`
}

// successProbe reads the union discriminant before committing to a shape.
type successProbe struct {
	Success bool `json:"success"`
}

// GetMethodResult is the outcome of a get-method call. Exactly one of
// Success and Failure is non-nil.
type GetMethodResult struct {
	Logs    string
	Success *GetMethodSuccess
	Failure *GetMethodFailure
}

// Ok reports whether the call produced a successful emulation outcome.
func (r *GetMethodResult) Ok() bool {
	return r.Success != nil
}

// GetMethodSuccess is the successful get-method outcome.
type GetMethodSuccess struct {
	Stack          string  `json:"stack"`    // base64 serialized result stack
	GasUsed        string  `json:"gas_used"` // decimal string
	VMExitCode     int32   `json:"vm_exit_code"`
	VMLog          string  `json:"vm_log"`
	C7             string  `json:"c7"` // base64
	MissingLibrary *string `json:"missing_library"`
}

// GetMethodFailure is a well-formed emulation failure, reported as data.
type GetMethodFailure struct {
	Error string `json:"error"`
}

// TransactionResult is the outcome of a transaction application. Exactly one
// of Success and Failure is non-nil.
type TransactionResult struct {
	Logs    string
	Success *TransactionSuccess
	Failure *TransactionFailure
}

// Ok reports whether the transaction was applied.
func (r *TransactionResult) Ok() bool {
	return r.Success != nil
}

// TransactionSuccess is the successful transaction outcome.
type TransactionSuccess struct {
	Transaction  string  `json:"transaction"`   // base64
	ShardAccount string  `json:"shard_account"` // base64
	VMLog        string  `json:"vm_log"`
	C7           *string `json:"c7"`      // base64, null when unavailable
	Actions      *string `json:"actions"` // base64, null when unavailable
}

// TransactionFailure is a well-formed transaction failure. VM is non-nil only
// when the engine reported VM diagnostics, i.e. the failure happened during
// VM execution; a nil VM means the transaction failed before the VM ran.
type TransactionFailure struct {
	Error string
	VM    *VMDiagnostics
}

// VMDiagnostics carries the VM log and exit code attached to in-VM failures.
type VMDiagnostics struct {
	Log      string
	ExitCode int32
}

// transactionFailureWire keeps the diagnostic fields as pointers so that
// "field absent" stays distinguishable from "field empty".
type transactionFailureWire struct {
	Error      string  `json:"error"`
	VMLog      *string `json:"vm_log"`
	VMExitCode *int32  `json:"vm_exit_code"`
}

// EngineVersion identifies the emulator build linked into the engine.
type EngineVersion struct {
	CommitHash string `json:"emulatorLibCommitHash"`
	CommitDate string `json:"emulatorLibCommitDate"`
}

// parseEnvelope decodes the outer response shape and surfaces protocol-level
// failure as an EngineFailedError.
func parseEnvelope(op string, data []byte) (*envelope, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, &ResponseParseError{Operation: op, Err: err}
	}
	if env.Fail {
		return nil, &EngineFailedError{Message: env.Message}
	}
	if len(env.Output) == 0 {
		return nil, &ResponseParseError{Operation: op, Err: errors.New("response has no output")}
	}
	return &env, nil
}

// ParseGetMethodResponse decodes the payload returned by run_get_method.
func ParseGetMethodResponse(data []byte) (*GetMethodResult, error) {
	const op = "get-method"

	env, err := parseEnvelope(op, data)
	if err != nil {
		return nil, err
	}

	var probe successProbe
	if err := json.Unmarshal(env.Output, &probe); err != nil {
		return nil, &ResponseParseError{Operation: op, Err: err}
	}

	result := &GetMethodResult{Logs: env.Logs}
	if probe.Success {
		var out GetMethodSuccess
		if err := json.Unmarshal(env.Output, &out); err != nil {
			return nil, &ResponseParseError{Operation: op, Err: err}
		}
		result.Success = &out
		return result, nil
	}

	var out GetMethodFailure
	if err := json.Unmarshal(env.Output, &out); err != nil {
		return nil, &ResponseParseError{Operation: op, Err: err}
	}
	result.Failure = &out
	return result, nil
}

// ParseTransactionResponse decodes the payload returned by emulate.
func ParseTransactionResponse(data []byte) (*TransactionResult, error) {
	const op = "transaction"

	env, err := parseEnvelope(op, data)
	if err != nil {
		return nil, err
	}

	var probe successProbe
	if err := json.Unmarshal(env.Output, &probe); err != nil {
		return nil, &ResponseParseError{Operation: op, Err: err}
	}

	result := &TransactionResult{Logs: env.Logs}
	if probe.Success {
		var out TransactionSuccess
		if err := json.Unmarshal(env.Output, &out); err != nil {
			return nil, &ResponseParseError{Operation: op, Err: err}
		}
		result.Success = &out
		return result, nil
	}

	var wire transactionFailureWire
	if err := json.Unmarshal(env.Output, &wire); err != nil {
		return nil, &ResponseParseError{Operation: op, Err: err}
	}

	failure := &TransactionFailure{Error: wire.Error}
	if wire.VMLog != nil || wire.VMExitCode != nil {
		diag := &VMDiagnostics{}
		if wire.VMLog != nil {
			diag.Log = *wire.VMLog
		}
		if wire.VMExitCode != nil {
			diag.ExitCode = *wire.VMExitCode
		}
		failure.VM = diag
	}
	result.Failure = failure
	return result, nil
}

// ParseVersionResponse decodes the payload returned by version.
func ParseVersionResponse(data []byte) (*EngineVersion, error) {
	var v EngineVersion
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, &ResponseParseError{Operation: "version", Err: err}
	}
	return &v, nil
}
