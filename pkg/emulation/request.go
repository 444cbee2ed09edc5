package emulation

import (
	"encoding/json"
)

// GetMethodParams describes one read-only contract method call.
// Cell-shaped inputs (code, data, stack, config, libs) are serialized
// elsewhere and arrive here as opaque base64 text; numeric blockchain
// quantities use the engine's string encodings (decimal for coin amounts
// and gas, hex for the random seed).
type GetMethodParams struct {
	Code     string // base64 contract code
	Data     string // base64 contract data
	MethodID int32
	Stack    string // base64 serialized stack, passed as its own buffer
	Config   string // base64 config, passed as its own buffer
	Libs     string // base64 library dict, may be empty
	Address  string
	Unixtime int64
	Balance  string // decimal string
	RandSeed string // hex string
	GasLimit string // decimal string

	Verbosity Verbosity
}

// getMethodRequest is the JSON envelope run_get_method expects.
// Stack and config travel as separate buffers, not in the envelope.
type getMethodRequest struct {
	Code      string `json:"code"`
	Data      string `json:"data"`
	Verbosity int    `json:"verbosity"`
	Libs      string `json:"libs"`
	Address   string `json:"address"`
	Unixtime  int64  `json:"unixtime"`
	Balance   string `json:"balance"`
	RandSeed  string `json:"rand_seed"`
	GasLimit  string `json:"gas_limit"`
	MethodID  int32  `json:"method_id"`
}

// RequestJSON renders the parameter envelope passed to run_get_method.
func (p *GetMethodParams) RequestJSON() (string, error) {
	b, err := json.Marshal(getMethodRequest{
		Code:      p.Code,
		Data:      p.Data,
		Verbosity: int(p.Verbosity),
		Libs:      p.Libs,
		Address:   p.Address,
		Unixtime:  p.Unixtime,
		Balance:   p.Balance,
		RandSeed:  p.RandSeed,
		GasLimit:  p.GasLimit,
		MethodID:  p.MethodID,
	})
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// TransactionParams describes one transaction application.
// Config and verbosity select the engine handle; the remaining fields are
// per-call inputs. An empty Libs means "no libraries" and is passed to the
// engine as a zero address rather than an empty buffer.
type TransactionParams struct {
	Config    string // base64 config, keys the engine handle cache
	Verbosity Verbosity

	Libs         string // base64 library dict, may be empty
	ShardAccount string // base64
	Message      string // base64
	LT           string // decimal string
	Utime        int64
	RandSeed     string // hex string
	IgnoreChksig bool
}

// transactionRequest is the JSON envelope emulate expects.
type transactionRequest struct {
	Utime        int64  `json:"utime"`
	LT           string `json:"lt"`
	RandSeed     string `json:"rand_seed"`
	IgnoreChksig bool   `json:"ignore_chksig"`
}

// RequestJSON renders the parameter envelope passed to emulate.
func (p *TransactionParams) RequestJSON() (string, error) {
	b, err := json.Marshal(transactionRequest{
		Utime:        p.Utime,
		LT:           p.LT,
		RandSeed:     p.RandSeed,
		IgnoreChksig: p.IgnoreChksig,
	})
	if err != nil {
		return "", err
	}
	return string(b), nil
}
