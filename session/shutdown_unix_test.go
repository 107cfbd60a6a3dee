//go:build unix

package session_test

import (
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/srg/imuble/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShutdownNotifyOn(t *testing.T) {
	sd := session.NewShutdown(t.Context())
	stop := sd.NotifyOn(syscall.SIGUSR1)
	defer stop()

	p, err := os.FindProcess(os.Getpid())
	require.NoError(t, err)
	require.NoError(t, p.Signal(syscall.SIGUSR1))

	select {
	case <-sd.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("signal MUST fire the token")
	}
	assert.ErrorIs(t, sd.Cause(), session.ErrInterrupted)

	stop()
	stop()
}
