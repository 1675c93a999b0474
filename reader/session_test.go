package reader_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"badgekiosk/reader"
)

func newConnected(t *testing.T, dev reader.Device) *reader.Session {
	t.Helper()
	s := reader.NewSessionWith(reader.Config{}, func(reader.Config) (reader.Device, error) {
		return dev, nil
	})
	require.NoError(t, s.Connect())
	t.Cleanup(s.Disconnect)
	return s
}

func TestConnectDeviceUnavailable(t *testing.T) {
	s := reader.NewSessionWith(reader.Config{}, func(reader.Config) (reader.Device, error) {
		return nil, reader.ErrDeviceUnavailable
	})

	err := s.Connect()
	require.ErrorIs(t, err, reader.ErrDeviceUnavailable)

	st := s.Status()
	require.False(t, st.Connected)
	require.Equal(t, reader.Disconnected, st.State)
	require.NotEmpty(t, st.LastError)
}

func TestConnectOpenFailure(t *testing.T) {
	s := reader.NewSessionWith(reader.Config{}, func(reader.Config) (reader.Device, error) {
		return nil, reader.ErrConnectionFailed
	})

	require.ErrorIs(t, s.Connect(), reader.ErrConnectionFailed)
	require.False(t, s.Status().Connected)
}

func TestConnectTwiceIsNoop(t *testing.T) {
	dev := reader.NewScriptedDevice()
	s := newConnected(t, dev)

	require.NoError(t, s.Connect())
	s.Disconnect()
	require.Equal(t, 1, dev.CloseCount())
}

func TestReadCardReassemblesSplitReports(t *testing.T) {
	dev := reader.NewScriptedDevice(
		reader.ScriptStep{Data: []byte("12345")},
		reader.ScriptStep{Data: []byte("67890\r")},
	)
	s := newConnected(t, dev)

	tok, ok := s.ReadCard(time.Second)
	require.True(t, ok)
	require.Equal(t, "1234567890", tok)
}

func TestDuplicateScanSuppressed(t *testing.T) {
	dev := reader.NewScriptedDevice(
		reader.ScriptStep{Data: []byte("CARD123\r")},
		reader.ScriptStep{Data: []byte("CARD123\r")},
	)
	s := newConnected(t, dev)

	tok, ok := s.ReadCard(time.Second)
	require.True(t, ok)
	require.Equal(t, "CARD123", tok)

	// Give the polling goroutine time to chew through the repeat.
	time.Sleep(50 * time.Millisecond)
	_, ok = s.TryReadCard()
	require.False(t, ok, "repeat within the suppression window must not be enqueued")
}

func TestPollingHaltsAfterConsecutiveErrors(t *testing.T) {
	readErr := errors.New("device gone")
	dev := reader.NewScriptedDevice(
		reader.ScriptStep{Err: readErr},
		reader.ScriptStep{Err: readErr},
		reader.ScriptStep{Err: readErr},
	)
	s := newConnected(t, dev)

	require.Eventually(t, func() bool {
		return s.Status().State == reader.Error
	}, time.Second, 10*time.Millisecond)
	require.False(t, s.Status().Connected)
	require.Contains(t, s.Status().LastError, "device gone")
}

func TestSuccessfulReadResetsErrorCounter(t *testing.T) {
	readErr := errors.New("transient")
	dev := reader.NewScriptedDevice(
		reader.ScriptStep{Err: readErr},
		reader.ScriptStep{Err: readErr},
		reader.ScriptStep{Data: []byte("BADGE99\r")},
		reader.ScriptStep{Err: readErr},
		reader.ScriptStep{Err: readErr},
	)
	s := newConnected(t, dev)

	tok, ok := s.ReadCard(time.Second)
	require.True(t, ok)
	require.Equal(t, "BADGE99", tok)

	time.Sleep(50 * time.Millisecond)
	require.Equal(t, reader.Connected, s.Status().State,
		"two fresh errors after a good read must not halt the loop")
}

func TestQuietReadResetsErrorCounter(t *testing.T) {
	readErr := errors.New("transient")
	dev := reader.NewScriptedDevice(
		reader.ScriptStep{Err: readErr},
		reader.ScriptStep{Err: readErr},
		reader.ScriptStep{}, // nothing scanned, but the read came back clean
		reader.ScriptStep{Err: readErr},
		reader.ScriptStep{Err: readErr},
		reader.ScriptStep{Data: []byte("BADGE42\r")},
	)
	s := newConnected(t, dev)

	tok, ok := s.ReadCard(time.Second)
	require.True(t, ok, "four errors split by a quiet read must not halt the loop")
	require.Equal(t, "BADGE42", tok)
	require.Equal(t, reader.Connected, s.Status().State)
}

func TestDisconnectDuringConnectWins(t *testing.T) {
	dev := reader.NewScriptedDevice()
	opening := make(chan struct{})
	release := make(chan struct{})
	s := reader.NewSessionWith(reader.Config{}, func(reader.Config) (reader.Device, error) {
		close(opening)
		<-release
		return dev, nil
	})

	connected := make(chan error, 1)
	go func() { connected <- s.Connect() }()
	<-opening

	s.Disconnect()
	close(release)
	require.NoError(t, <-connected)

	st := s.Status()
	require.False(t, st.Connected)
	require.Equal(t, reader.Disconnected, st.State)
	require.Equal(t, 1, dev.CloseCount(), "device opened after the disconnect must be closed again")

	_, ok := s.TryReadCard()
	require.False(t, ok, "no polling goroutine may be running")
}

func TestDisconnectIdempotent(t *testing.T) {
	dev := reader.NewScriptedDevice()
	s := newConnected(t, dev)

	s.Disconnect()
	require.False(t, s.Status().Connected)

	s.Disconnect()
	require.False(t, s.Status().Connected)
	require.Equal(t, 1, dev.CloseCount())
}

func TestDisconnectWithoutConnect(t *testing.T) {
	s := reader.NewSessionWith(reader.Config{}, func(reader.Config) (reader.Device, error) {
		return reader.NewScriptedDevice(), nil
	})

	s.Disconnect()
	require.Equal(t, reader.Disconnected, s.Status().State)
}

func TestStartMonitoringDeliversTokens(t *testing.T) {
	dev := reader.NewScriptedDevice(
		reader.ScriptStep{Data: []byte("WORKER01\n")},
	)
	s := newConnected(t, dev)

	got := make(chan string, 1)
	s.StartMonitoring(func(tok string) { got <- tok }, nil)
	require.True(t, s.Status().Monitoring)

	select {
	case tok := <-got:
		require.Equal(t, "WORKER01", tok)
	case <-time.After(time.Second):
		t.Fatal("card token never reached the callback")
	}

	s.StopMonitoring()
	require.False(t, s.Status().Monitoring)
}

func TestStatusCallbackOnHalt(t *testing.T) {
	dev := reader.NewScriptedDevice()
	s := newConnected(t, dev)

	statuses := make(chan reader.Status, 1)
	s.StartMonitoring(nil, func(st reader.Status) { statuses <- st })

	dev.Append(
		reader.ScriptStep{Err: errors.New("unplugged")},
		reader.ScriptStep{Err: errors.New("unplugged")},
		reader.ScriptStep{Err: errors.New("unplugged")},
	)

	select {
	case st := <-statuses:
		require.Equal(t, reader.Error, st.State)
	case <-time.After(time.Second):
		t.Fatal("status callback never fired")
	}
}
