package upstream

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Message(t *testing.T) {
	err := NewError(KindUnauthenticated, "username and token are required")
	assert.Equal(t, "username and token are required", err.Error())

	cause := errors.New("connection reset by peer")
	wrapped := &Error{Kind: KindTransport, Err: cause}
	assert.Equal(t, "TransportError: connection reset by peer", wrapped.Error())
	assert.ErrorIs(t, wrapped, cause)

	bare := &Error{Kind: KindUpstream}
	assert.Equal(t, "UpstreamError", bare.Error())
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected Kind
	}{
		{"nil", nil, ""},
		{"plain error", errors.New("boom"), ""},
		{"direct", Errorf(KindInvalidInput, "bad amount %q", "abc"), KindInvalidInput},
		{"wrapped", fmt.Errorf("withdraw: %w", NewError(KindParse, "bad json")), KindParse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, KindOf(tt.err))
		})
	}
}

func TestIsClientError(t *testing.T) {
	assert.True(t, IsClientError(NewError(KindUnauthenticated, "x")))
	assert.True(t, IsClientError(NewError(KindInvalidInput, "x")))
	assert.False(t, IsClientError(NewError(KindUpstream, "x")))
	assert.False(t, IsClientError(NewError(KindParse, "x")))
	assert.False(t, IsClientError(NewError(KindTransport, "x")))
	assert.False(t, IsClientError(errors.New("x")))
	assert.False(t, IsKind(nil, ""))
}
