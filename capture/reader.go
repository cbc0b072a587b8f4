// Package capture owns the only code in this sensor that talks to the
// kernel's packet path: an AF_PACKET/SOCK_RAW socket (not libpcap — see
// SPEC_FULL.md §4.1) decoded with gopacket/layers, feeding a bounded,
// drop-oldest Queue the Controller drains on its own schedule.
//
// Grounded on the teacher's pcap package for the wrapper-interface/done-
// channel shape (pcap/pcap.go's pcapWrapper + capturePackets), adapted
// from libpcap's BlockForever handle to a raw socket's blocking Recvfrom.
package capture

import (
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"

	"github.com/sifis-home/aud-sensor/telemetry"
)

// Reader reads frames from one interface, decodes them, and pushes
// whatever decodeFrame accepts onto Queue. Call Run in its own goroutine;
// Stop unblocks it.
type Reader struct {
	sock  rawSocket
	queue *Queue
	done  chan struct{}
}

// NewReader opens a raw socket on ifaceName and returns a Reader that
// will push decoded packets onto queue once Run is called.
func NewReader(ifaceName string, queue *Queue) (*Reader, error) {
	sock, err := newAFPacketSocket(ifaceName)
	if err != nil {
		return nil, err
	}
	return &Reader{sock: sock, queue: queue, done: make(chan struct{})}, nil
}

// Run reads and decodes frames until Stop is called. It never returns an
// error: a bad Recvfrom is rate-limit logged and skipped, since one
// malformed frame must never take down the capture loop. The socket's
// SO_RCVTIMEO means an idle interface still wakes this loop periodically
// to re-check done, so Stop completes within about recvTimeout.
func (r *Reader) Run() {
	buf := make([]byte, defaultSnapLen)
	for {
		select {
		case <-r.done:
			return
		default:
		}

		n, pktType, err := r.sock.Recv(buf)
		if err != nil {
			select {
			case <-r.done:
				return
			default:
			}
			if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EWOULDBLOCK) {
				continue
			}
			telemetry.RateLimitError("capture.recv", errors.Wrap(err, "AF_PACKET recvfrom"))
			continue
		}

		pkt, ok := decodeFrame(buf[:n], pktType, time.Now())
		if !ok {
			continue
		}
		r.queue.Push(pkt)
	}
}

// Stop signals Run to return and closes the underlying socket.
func (r *Reader) Stop() {
	close(r.done)
	r.sock.Close()
}
