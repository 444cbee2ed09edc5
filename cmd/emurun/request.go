package main

import (
	"context"
	"fmt"

	"github.com/tvmbox/emulator-host/pkg/emulation"
	"github.com/tvmbox/emulator-host/pkg/executor"
)

// request is the operation envelope read from the -request document. Op
// selects the entry point; the remaining fields mirror the emulation
// parameter structs and only the ones the operation uses are consulted.
// Cell-shaped fields carry opaque base64 text.
type request struct {
	Op string `json:"op"` // run_get_method, run_transaction or version

	Config    string `json:"config"`
	Verbosity string `json:"verbosity"` // empty means short
	Libs      string `json:"libs"`
	Unixtime  int64  `json:"unixtime"`
	RandSeed  string `json:"rand_seed"`

	// run_get_method
	Code     string `json:"code"`
	Data     string `json:"data"`
	MethodID int32  `json:"method_id"`
	Stack    string `json:"stack"`
	Address  string `json:"address"`
	Balance  string `json:"balance"`
	GasLimit string `json:"gas_limit"`

	// run_transaction
	ShardAccount string `json:"shard_account"`
	Message      string `json:"message"`
	LT           string `json:"lt"`
	IgnoreChksig bool   `json:"ignore_chksig"`
}

// outcome is the JSON document written to stdout. Ok mirrors the engine's
// success flag; a false Ok is a well-formed emulation failure, not a process
// error.
type outcome struct {
	Ok     bool    `json:"ok"`
	Error  string  `json:"error,omitempty"`
	Logs   string  `json:"logs,omitempty"`
	Result any     `json:"result,omitempty"`
	VM     *vmInfo `json:"vm,omitempty"`
}

// vmInfo surfaces the diagnostics attached to in-VM transaction failures.
type vmInfo struct {
	Log      string `json:"vm_log"`
	ExitCode int32  `json:"vm_exit_code"`
}

func dispatch(ctx context.Context, exec *executor.Executor, req *request) (*outcome, error) {
	name := req.Verbosity
	if name == "" {
		name = "short"
	}

	switch req.Op {
	case "run_get_method":
		verbosity, err := emulation.ParseVerbosity(name)
		if err != nil {
			return nil, err
		}
		res, err := exec.RunGetMethod(ctx, &emulation.GetMethodParams{
			Code:      req.Code,
			Data:      req.Data,
			MethodID:  req.MethodID,
			Stack:     req.Stack,
			Config:    req.Config,
			Libs:      req.Libs,
			Address:   req.Address,
			Unixtime:  req.Unixtime,
			Balance:   req.Balance,
			RandSeed:  req.RandSeed,
			GasLimit:  req.GasLimit,
			Verbosity: verbosity,
		})
		if err != nil {
			return nil, err
		}
		if res.Ok() {
			return &outcome{Ok: true, Logs: res.Logs, Result: res.Success}, nil
		}
		return &outcome{Ok: false, Logs: res.Logs, Error: res.Failure.Error}, nil

	case "run_transaction":
		verbosity, err := emulation.ParseVerbosity(name)
		if err != nil {
			return nil, err
		}
		res, err := exec.RunTransaction(ctx, &emulation.TransactionParams{
			Config:       req.Config,
			Verbosity:    verbosity,
			Libs:         req.Libs,
			ShardAccount: req.ShardAccount,
			Message:      req.Message,
			LT:           req.LT,
			Utime:        req.Unixtime,
			RandSeed:     req.RandSeed,
			IgnoreChksig: req.IgnoreChksig,
		})
		if err != nil {
			return nil, err
		}
		if res.Ok() {
			return &outcome{Ok: true, Logs: res.Logs, Result: res.Success}, nil
		}
		out := &outcome{Ok: false, Logs: res.Logs, Error: res.Failure.Error}
		if res.Failure.VM != nil {
			out.VM = &vmInfo{Log: res.Failure.VM.Log, ExitCode: res.Failure.VM.ExitCode}
		}
		return out, nil

	case "version":
		v, err := exec.Version(ctx)
		if err != nil {
			return nil, err
		}
		return &outcome{Ok: true, Result: v}, nil

	default:
		return nil, fmt.Errorf("unknown operation %q", req.Op)
	}
}
