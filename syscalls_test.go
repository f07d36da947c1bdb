// SPDX-License-Identifier: GPL-3.0-or-later

package rawsock

import (
	"errors"
	"fmt"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSyscallError(t *testing.T) {
	isRefused := func(err error) bool {
		return errors.Is(err, syscall.ECONNREFUSED)
	}

	t.Run("nil error", func(t *testing.T) {
		assert.NoError(t, newSyscallError("connect", nil, isRefused))
	})

	t.Run("plain error", func(t *testing.T) {
		err := newSyscallError("connect", syscall.ECONNRESET, isRefused)

		var serr *os.SyscallError
		require.ErrorAs(t, err, &serr)
		assert.Equal(t, "connect", serr.Syscall)
		assert.ErrorIs(t, err, syscall.ECONNRESET)
		assert.NotErrorIs(t, err, ErrWouldBlock)
	})

	t.Run("would block", func(t *testing.T) {
		err := newSyscallError("connect", syscall.ECONNREFUSED, isRefused)

		assert.ErrorIs(t, err, ErrWouldBlock)
		assert.ErrorIs(t, err, syscall.ECONNREFUSED)
		var serr *os.SyscallError
		require.ErrorAs(t, err, &serr)
	})
}

func TestErrCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil", err: nil, want: 0},
		{name: "not an errno", err: errors.New("mocked error"), want: 0},
		{name: "bare errno", err: syscall.ECONNRESET, want: int(syscall.ECONNRESET)},
		{
			name: "wrapped errno",
			err:  fmt.Errorf("%w: %w", ErrWouldBlock, os.NewSyscallError("recv", syscall.ECONNRESET)),
			want: int(syscall.ECONNRESET),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ErrCode(tt.err))
		})
	}
}

func TestToleratingWouldBlock(t *testing.T) {
	other := errors.New("mocked error")

	assert.NoError(t, toleratingWouldBlock(nil))
	assert.NoError(t, toleratingWouldBlock(ErrWouldBlock))
	assert.NoError(t, toleratingWouldBlock(fmt.Errorf("%w: %w", ErrWouldBlock, other)))
	assert.ErrorIs(t, toleratingWouldBlock(other), other)
}

func TestPollMillis(t *testing.T) {
	assert.Equal(t, 0, pollMillis(-time.Second))
	assert.Equal(t, 0, pollMillis(0))
	assert.Equal(t, 1, pollMillis(time.Microsecond))
	assert.Equal(t, 1, pollMillis(time.Millisecond))
	assert.Equal(t, 250, pollMillis(250*time.Millisecond))
}

func TestInvalidHandle(t *testing.T) {
	assert.Equal(t, ^uintptr(0), uintptr(InvalidHandle))
}

func TestDefaultSyscalls(t *testing.T) {
	assert.NotNil(t, DefaultSyscalls())
	assert.Greater(t, MaxBacklog, 0)
}
