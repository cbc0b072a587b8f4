package capture

import (
	"net"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// recvTimeout bounds how long a single Recvfrom blocks on an idle
// interface, so Reader.Stop's done channel is checked at least this often.
const recvTimeout = 200 * time.Millisecond

// rawSocket is the thin boundary around the AF_PACKET syscalls, mirroring
// the teacher's pcapWrapper interface (pcap/pcap.go): production code
// talks to the kernel through afPacketSocket, tests talk to a fake.
type rawSocket interface {
	Recv(buf []byte) (n int, pktType uint8, err error)
	Close() error
}

type afPacketSocket struct {
	fd int
}

// defaultSnapLen mirrors the teacher's pcap snap length default (the same
// one tcpdump uses) rather than trying to size buffers to the interface
// MTU.
const defaultSnapLen = 262144

// newAFPacketSocket opens an AF_PACKET/SOCK_RAW socket bound to the given
// interface, capturing every ethertype (ETH_P_ALL) so the decoder alone
// decides what's interesting.
func newAFPacketSocket(ifaceName string) (*afPacketSocket, error) {
	ifi, err := net.InterfaceByName(ifaceName)
	if err != nil {
		return nil, errors.Wrapf(err, "no network interface named %s", ifaceName)
	}

	fd, err := unix.Socket(unix.AF_PACKET, unix.SOCK_RAW, int(htons(unix.ETH_P_ALL)))
	if err != nil {
		return nil, errors.Wrap(err, "failed to open AF_PACKET socket (needs CAP_NET_RAW)")
	}

	addr := &unix.SockaddrLinklayer{
		Protocol: htons(unix.ETH_P_ALL),
		Ifindex:  ifi.Index,
	}
	if err := unix.Bind(fd, addr); err != nil {
		unix.Close(fd)
		return nil, errors.Wrapf(err, "failed to bind AF_PACKET socket to %s", ifaceName)
	}

	// A short SO_RCVTIMEO turns a blocking Recvfrom into a poll: Run wakes
	// every recvTimeout even on an idle interface and can notice Stop
	// without waiting on the kernel to unblock a closed fd.
	timeout := unix.NsecToTimeval(recvTimeout.Nanoseconds())
	if err := unix.SetsockoptTimeval(fd, unix.SOL_SOCKET, unix.SO_RCVTIMEO, &timeout); err != nil {
		unix.Close(fd)
		return nil, errors.Wrap(err, "failed to set SO_RCVTIMEO on AF_PACKET socket")
	}

	return &afPacketSocket{fd: fd}, nil
}

func (s *afPacketSocket) Recv(buf []byte) (int, uint8, error) {
	n, from, err := unix.Recvfrom(s.fd, buf, 0)
	if err != nil {
		return 0, 0, err
	}
	var pktType uint8
	if sll, ok := from.(*unix.SockaddrLinklayer); ok {
		pktType = sll.Pkttype
	}
	return n, pktType, nil
}

func (s *afPacketSocket) Close() error {
	return unix.Close(s.fd)
}

func htons(i uint16) uint16 {
	return (i<<8)&0xff00 | i>>8
}
