package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/valyala/fasthttp"
)

type Class string

const (
	// ClassTerminal stops the attempt loop and returns the error as is.
	ClassTerminal Class = "terminal"
	// ClassFailover advances the rotation and tries the next endpoint.
	ClassFailover Class = "failover"
)

type Decision struct {
	Class  Class
	Reason string
}

func (d Decision) IsFailover() bool {
	return d.Class == ClassFailover
}

// RPCError is an error payload returned by a node.
type RPCError struct {
	Code    string
	Number  int
	Message string
}

func (e *RPCError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("rpc error %s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("rpc error %s", e.Code)
}

// IsNotFound reports whether the node answered that the account does not exist.
func (e *RPCError) IsNotFound() bool {
	return e.Code == "actNotFound"
}

// HTTPStatusError is a non-200 HTTP answer from an endpoint.
type HTTPStatusError struct {
	Endpoint   string
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("http status %d from %s", e.StatusCode, e.Endpoint)
}

// Classify decides whether a failed attempt should rotate to the next
// endpoint. Only a cancelled caller and an unfunded account stop the loop;
// timeouts, transport failures and node error payloads all fail over.
func Classify(err error) Decision {
	if err == nil {
		return Decision{Class: ClassTerminal, Reason: "nil_error"}
	}

	if errors.Is(err, context.Canceled) {
		return Decision{Class: ClassTerminal, Reason: "context_canceled"}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return Decision{Class: ClassFailover, Reason: "context_deadline_exceeded"}
	}
	if errors.Is(err, fasthttp.ErrTimeout) || errors.Is(err, fasthttp.ErrDialTimeout) {
		return Decision{Class: ClassFailover, Reason: "attempt_timeout"}
	}

	var rpcErr *RPCError
	if errors.As(err, &rpcErr) {
		if rpcErr.IsNotFound() {
			return Decision{Class: ClassTerminal, Reason: "account_not_found"}
		}
		return Decision{Class: ClassFailover, Reason: "node_error_" + strings.ToLower(rpcErr.Code)}
	}

	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		return Decision{Class: ClassFailover, Reason: fmt.Sprintf("http_%d", statusErr.StatusCode)}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return Decision{Class: ClassFailover, Reason: "net_timeout"}
	}

	return Decision{Class: ClassFailover, Reason: "transport"}
}
