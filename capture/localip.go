package capture

import (
	"net"

	"github.com/pkg/errors"
)

// PrimaryLocalIP returns the local IP address the kernel would route
// outbound traffic from by default. Unlike the teacher's
// getEligibleInterfaces (apidump/net.go), which enumerates every up
// interface's full address set because it needs a BPF filter per
// interface, this sensor only needs to answer "is this host the source
// or the destination of a packet", so a single UDP-dial probe (no
// packets are actually sent; dialing UDP just asks the kernel to pick a
// route) is enough.
func PrimaryLocalIP() (net.IP, error) {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return nil, errors.Wrap(err, "failed to determine primary local IP")
	}
	defer conn.Close()

	addr, ok := conn.LocalAddr().(*net.UDPAddr)
	if !ok {
		return nil, errors.Errorf("unexpected local address type %T", conn.LocalAddr())
	}
	return addr.IP, nil
}
