package resilience

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"explicit", NewTransientError(errors.New("overloaded"), 503), true},
		{"wrapped", fmt.Errorf("call: %w", NewTransientError(errors.New("limited"), 429)), true},
		{"reset", fmt.Errorf("write tcp: %w", syscall.ECONNRESET), true},
		{"refused", fmt.Errorf("dial: %w", syscall.ECONNREFUSED), true},
		{"io timeout string", errors.New("read tcp 1.2.3.4: i/o timeout"), true},
		{"regular", errors.New("invalid input"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}

func TestIsTransientHTTPStatus(t *testing.T) {
	for _, code := range []int{408, 429, 500, 502, 503, 504} {
		assert.True(t, IsTransientHTTPStatus(code), code)
	}
	for _, code := range []int{200, 400, 401, 403, 404} {
		assert.False(t, IsTransientHTTPStatus(code), code)
	}
}

func TestCheckStatus(t *testing.T) {
	assert.NoError(t, CheckStatus("hunter", &http.Response{StatusCode: 200}, nil))

	err := CheckStatus("hunter", &http.Response{StatusCode: 429}, []byte("slow down"))
	assert.True(t, IsTransient(err))
	assert.Equal(t, 429, StatusCode(err))
	assert.Equal(t, "hunter: http 429: slow down", err.Error())

	err = CheckStatus("hunter", &http.Response{StatusCode: 401}, []byte(strings.Repeat("x", 500)))
	assert.False(t, IsTransient(err))
	assert.Equal(t, 401, StatusCode(err))
	assert.Len(t, err.Error(), len("hunter: http 401: ")+200)
}

func TestStatusCode_None(t *testing.T) {
	assert.Zero(t, StatusCode(errors.New("plain")))
}
