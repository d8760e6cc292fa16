// ABOUTME: JSON-RPC envelope type definitions
// ABOUTME: Outbound requests, inbound notifications/responses and error objects
package protocol

import (
	"encoding/json"
	"fmt"
)

// Version is sent in every request. The server parses it as a number, so it
// must go on the wire as 2.0 rather than "2.0".
const Version = json.Number("2.0")

// Request is an outbound command.
type Request struct {
	ID      int64       `json:"id"`
	JSONRPC json.Number `json:"jsonrpc"`
	Method  Method      `json:"method"`
	Params  any         `json:"params,omitempty"`
}

// NewRequest builds a request envelope for method.
func NewRequest(id int64, method Method, params any) Request {
	return Request{
		ID:      id,
		JSONRPC: Version,
		Method:  method,
		Params:  params,
	}
}

// Inbound is either a *Notification or a *Response.
type Inbound interface {
	inbound()
}

// Notification is an unsolicited server message.
type Notification struct {
	Method string
	Params json.RawMessage
}

// Response answers a prior request with the same ID.
type Response struct {
	ID     int64
	Result json.RawMessage
	Error  *RPCError
}

func (*Notification) inbound() {}
func (*Response) inbound()     {}

// ErrorCode is a JSON-RPC error code.
type ErrorCode int

const (
	CodeParse          ErrorCode = -32700
	CodeInvalidRequest ErrorCode = -32600
	CodeMethodNotFound ErrorCode = -32601
	CodeInvalidParams  ErrorCode = -32602
	CodeInternal       ErrorCode = -32603
	CodeNoStream       ErrorCode = -32000
	CodeNoControl      ErrorCode = -32001
	CodePlayerPoison   ErrorCode = -32002
)

func (c ErrorCode) String() string {
	switch c {
	case CodeParse:
		return "parse error"
	case CodeInvalidRequest:
		return "invalid request"
	case CodeMethodNotFound:
		return "method not found"
	case CodeInvalidParams:
		return "invalid params"
	case CodeInternal:
		return "internal error"
	case CodeNoStream:
		return "no stream"
	case CodeNoControl:
		return "no player to control"
	case CodePlayerPoison:
		return "player poisoned"
	}
	return fmt.Sprintf("code %d", int(c))
}

// RPCError is the error object carried by a failed response.
//
// The server serializes its code enum by variant name ("NoControl") rather
// than by number, so Code stays raw and Number() resolves both spellings.
type RPCError struct {
	Code    json.RawMessage `json:"code,omitempty"`
	Message string          `json:"message"`
	Data    string          `json:"data,omitempty"`
}

var codeNames = map[string]ErrorCode{
	"Parse":          CodeParse,
	"InvalidReq":     CodeInvalidRequest,
	"MethodNotFound": CodeMethodNotFound,
	"InvalidParam":   CodeInvalidParams,
	"Internal":       CodeInternal,
	"NoStream":       CodeNoStream,
	"NoControl":      CodeNoControl,
	"PlayerPoison":   CodePlayerPoison,
}

// Number returns the numeric error code, or 0 when it cannot be resolved.
func (e *RPCError) Number() ErrorCode {
	if e == nil || len(e.Code) == 0 {
		return 0
	}
	var n int
	if err := json.Unmarshal(e.Code, &n); err == nil {
		return ErrorCode(n)
	}
	var name string
	if err := json.Unmarshal(e.Code, &name); err == nil {
		return codeNames[name]
	}
	return 0
}

func (e *RPCError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Number().String()
	}
	if e.Data != "" {
		return fmt.Sprintf("rpc error %d: %s (%s)", int(e.Number()), msg, e.Data)
	}
	return fmt.Sprintf("rpc error %d: %s", int(e.Number()), msg)
}
