package transport

import (
	"context"
	"errors"
	"io"
	"net"
	"time"
)

// checkProxyTimeout bounds the whole SOCKS5 probe.
const checkProxyTimeout = 2 * time.Second

// SOCKS5 protocol constants
const (
	socks5Version       = 0x05
	socks5AuthNone      = 0x00
	socks5CmdConnect    = 0x01
	socks5AddrTypeDomID = 0x03

	// socks5ProbeHost is a reserved name that never resolves. The probe only
	// needs the proxy to answer the CONNECT, not to succeed.
	socks5ProbeHost = "politecrawl-probe.invalid"
)

// CheckProxy verifies that address speaks unauthenticated SOCKS5 by running
// the greeting and a CONNECT request. Any CONNECT reply, success or failure,
// counts as a working proxy.
func CheckProxy(ctx context.Context, address string) ProxyStatus {
	ctx, cancel := context.WithTimeout(ctx, checkProxyTimeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", address)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return ProxyStatusTimeout
		}
		return ProxyStatusCannotConnect
	}
	defer conn.Close()

	deadline, _ := ctx.Deadline()
	if err := conn.SetDeadline(deadline); err != nil {
		return ProxyStatusCannotConnect
	}

	// Greeting: version, one method, no auth.
	if _, err := conn.Write([]byte{socks5Version, 0x01, socks5AuthNone}); err != nil {
		return ProxyStatusCannotConnect
	}
	reply := make([]byte, 2)
	if _, err := io.ReadFull(conn, reply); err != nil {
		return readFailure(err)
	}
	if reply[0] != socks5Version || reply[1] != socks5AuthNone {
		return ProxyStatusWrongType
	}

	req := []byte{socks5Version, socks5CmdConnect, 0x00, socks5AddrTypeDomID, byte(len(socks5ProbeHost))}
	req = append(req, socks5ProbeHost...)
	req = append(req, 0x00, 80)
	if _, err := conn.Write(req); err != nil {
		return ProxyStatusCannotConnect
	}

	// version, reply code, reserved, address type
	header := make([]byte, 4)
	if _, err := io.ReadFull(conn, header); err != nil {
		return readFailure(err)
	}
	if header[0] != socks5Version {
		return ProxyStatusWrongType
	}
	return ProxyStatusOK
}

func readFailure(err error) ProxyStatus {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ProxyStatusTimeout
	}
	return ProxyStatusWrongType
}
