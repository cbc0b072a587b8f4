package capture

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

var errSocketClosed = errors.New("fake socket closed")

type fakeSocket struct {
	frames   [][]byte
	pktTypes []uint8
	i        int
	closed   bool
	stopCh   chan struct{}
}

func newFakeSocket(frames [][]byte, pktTypes []uint8) *fakeSocket {
	return &fakeSocket{frames: frames, pktTypes: pktTypes, stopCh: make(chan struct{})}
}

func (f *fakeSocket) Recv(buf []byte) (int, uint8, error) {
	if f.i >= len(f.frames) {
		// Block until Close unblocks us, like a real blocking Recvfrom
		// would once the underlying fd is closed out from under it.
		<-f.stopCh
		return 0, 0, errSocketClosed
	}
	n := copy(buf, f.frames[f.i])
	pt := f.pktTypes[f.i]
	f.i++
	return n, pt, nil
}

func (f *fakeSocket) Close() error {
	f.closed = true
	close(f.stopCh)
	return nil
}

type timeoutThenFrameSocket struct {
	timeouts int
	frame    []byte
	pktType  uint8
	served   bool
	stopCh   chan struct{}
	closed   bool
}

func (f *timeoutThenFrameSocket) Recv(buf []byte) (int, uint8, error) {
	if f.timeouts > 0 {
		f.timeouts--
		return 0, 0, unix.EAGAIN
	}
	if !f.served {
		f.served = true
		n := copy(buf, f.frame)
		return n, f.pktType, nil
	}
	<-f.stopCh
	return 0, 0, errSocketClosed
}

func (f *timeoutThenFrameSocket) Close() error {
	f.closed = true
	close(f.stopCh)
	return nil
}

func TestReader_SurvivesRecvTimeoutsWithoutDroppingFrames(t *testing.T) {
	frame := buildTCPFrame(t, "192.168.1.10", "93.184.216.34", 51000, 443)
	sock := &timeoutThenFrameSocket{timeouts: 3, frame: frame, pktType: unix.PACKET_OUTGOING, stopCh: make(chan struct{})}
	queue := NewQueue(8)
	r := &Reader{sock: sock, queue: queue, done: make(chan struct{})}

	go r.Run()

	require.Eventually(t, func() bool { return queue.Len() == 1 }, time.Second, time.Millisecond)
	r.Stop()
	assert.True(t, sock.closed)
}

func TestReader_DecodesAndQueues(t *testing.T) {
	frame := buildTCPFrame(t, "192.168.1.10", "93.184.216.34", 51000, 443)
	sock := newFakeSocket([][]byte{frame}, []uint8{unix.PACKET_OUTGOING})
	queue := NewQueue(8)
	r := &Reader{sock: sock, queue: queue, done: make(chan struct{})}

	go r.Run()

	require.Eventually(t, func() bool { return queue.Len() == 1 }, time.Second, time.Millisecond)
	r.Stop()

	assert.True(t, sock.closed)
	got := queue.Drain(0)
	require.Len(t, got, 1)
	assert.Equal(t, 51000, got[0].SrcPort)
}
