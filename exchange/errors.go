package exchange

import (
	"errors"
	"fmt"

	"github.com/adshao/go-binance/v2/common"

	"stratum/executor"
)

// Binance API error codes the adapter reacts to.
const (
	codeTooManyRequests    = -1003
	codeServerBusy         = -1004
	codeTimeout            = -1007
	codeDisconnected       = -1001
	codeTimestampDrift     = -1021
	codeUnknownOrder       = -2011
	codeOrderNotFound      = -2013
	codeInsufficientMargin = -2019
	codeBadAPIKeyFormat    = -2014
	codeInvalidAPIKey      = -2015
	codeBadSignature       = -1022
)

// classify wraps a raw client error as retryable or terminal. Transport
// failures and throttling are worth retrying; rejections carrying a
// business reason are not.
func classify(op string, err error) error {
	var apiErr *common.APIError
	if !errors.As(err, &apiErr) {
		// No structured code means the request may never have arrived.
		return executor.NewExecutionError(op, true, err)
	}
	switch apiErr.Code {
	case codeTooManyRequests, codeServerBusy, codeTimeout, codeDisconnected, codeTimestampDrift:
		return executor.NewExecutionError(op, true, err)
	case codeBadAPIKeyFormat, codeInvalidAPIKey, codeBadSignature:
		// Broken credentials affect every symbol, not just this request.
		return executor.NewExecutionError(op, false, fmt.Errorf("%w: %v", executor.ErrAuth, err))
	default:
		return executor.NewExecutionError(op, false, err)
	}
}

func retryable(op string, err error) error { return executor.NewExecutionError(op, true, err) }
func terminal(op string, err error) error  { return executor.NewExecutionError(op, false, err) }

func code(err error) int64 {
	var apiErr *common.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return 0
}
