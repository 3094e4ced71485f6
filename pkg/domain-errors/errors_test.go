package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasCode(t *testing.T) {
	base := New(CodeUnsupportedChain, "chain 1 is not configured")
	wrapped := fmt.Errorf("resolve: %w", base)

	assert.True(t, HasCode(wrapped, CodeUnsupportedChain))
	assert.False(t, HasCode(wrapped, CodeInternal))
	assert.False(t, HasCode(errors.New("plain"), CodeInternal))
}

func TestCodeOfDefaultsToInternal(t *testing.T) {
	assert.Equal(t, CodeInternal, CodeOf(errors.New("boom")))
	assert.Equal(t, CodeLedgerUnavailable, CodeOf(Wrap(errors.New("rpc down"), CodeLedgerUnavailable, "ledger call failed")))
}

func TestWrapUnwraps(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := Wrap(cause, CodeLedgerUnavailable, "ledger call failed")
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "ledger_unavailable")
}

func TestHTTPStatus(t *testing.T) {
	cases := map[Code]int{
		CodeBadRequest:        http.StatusBadRequest,
		CodeInvalidIdentifier: http.StatusBadRequest,
		CodeUnsupportedChain:  http.StatusBadRequest,
		CodeNotFound:          http.StatusNotFound,
		CodeLedgerUnavailable: http.StatusBadGateway,
		CodeTimeout:           http.StatusGatewayTimeout,
		CodeInternal:          http.StatusInternalServerError,
	}
	for code, status := range cases {
		assert.Equal(t, status, HTTPStatus(code), string(code))
	}
}
