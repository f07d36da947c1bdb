// SPDX-License-Identifier: GPL-3.0-or-later

package rawsock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigDefaults(t *testing.T) {
	cfg := NewConfig()
	require.NotNil(t, cfg)

	assert.Equal(t, DefaultSyscalls(), cfg.Syscalls)
	assert.Equal(t, time.Millisecond, cfg.PollTimeout)
	assert.Equal(t, "", cfg.ErrClassifier.Classify(nil))
	assert.WithinDuration(t, time.Now(), cfg.TimeNow(), time.Minute)
}

// Sockets copy the configuration at construction time.
func TestConfigIsCopiedIntoSocket(t *testing.T) {
	fixed := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	cfg := NewConfig()
	cfg.Syscalls = newMinimalSyscalls()
	cfg.PollTimeout = 42 * time.Millisecond
	cfg.TimeNow = func() time.Time { return fixed }

	sock, err := NewSocket(cfg, NewAddress(testEndpoint), DefaultSLogger())
	require.NoError(t, err)

	cfg.PollTimeout = time.Hour
	assert.Equal(t, 42*time.Millisecond, sock.PollTimeout)
	assert.Equal(t, fixed, sock.TimeNow())
}
