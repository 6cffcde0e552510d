// Copyright 2026 The Turbo Translate Authors
// SPDX-License-Identifier: Apache-2.0

package probe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"
	"golang.org/x/net/ipv6"
	"golang.org/x/sys/unix"
)

// ErrNoICMPSocket is returned when the process may open neither kind
// of ICMP socket.
var ErrNoICMPSocket = errors.New("not permitted to open an ICMP socket " +
	"(grant CAP_NET_RAW, widen net.ipv4.ping_group_range, or use the tcp probe)")

// ICMP probes with a single echo request.
//
// It first tries an unprivileged datagram socket (Linux, when the
// process group is inside net.ipv4.ping_group_range) and falls back to
// a raw socket, which needs CAP_NET_RAW.
type ICMP struct {
	Timeout time.Duration
}

// family holds the per-IP-version constants for an echo exchange.
type family struct {
	datagramNetwork string
	rawNetwork      string
	listenAddress   string
	protocol        int
	request         icmp.Type
	reply           icmp.Type
}

var (
	familyIPv4 = family{
		datagramNetwork: "udp4",
		rawNetwork:      "ip4:icmp",
		listenAddress:   "0.0.0.0",
		protocol:        1,
		request:         ipv4.ICMPTypeEcho,
		reply:           ipv4.ICMPTypeEchoReply,
	}
	familyIPv6 = family{
		datagramNetwork: "udp6",
		rawNetwork:      "ip6:ipv6-icmp",
		listenAddress:   "::",
		protocol:        58,
		request:         ipv6.ICMPTypeEchoRequest,
		reply:           ipv6.ICMPTypeEchoReply,
	}
)

// echoPayload marks our requests so stray replies are ignored.
var echoPayload = []byte("turbo-deploy preflight")

// Probe sends one echo request to host and waits up to Timeout for the
// reply.
func (p *ICMP) Probe(ctx context.Context, host string) error {
	ctx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	ip, err := resolve(ctx, host)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", host, err)
	}
	fam := familyIPv4
	if ip.To4() == nil {
		fam = familyIPv6
	}

	connection, datagram, err := listen(fam)
	if err != nil {
		return fmt.Errorf("icmp probe: %w", err)
	}
	defer connection.Close()

	deadline, _ := ctx.Deadline()
	if err := connection.SetDeadline(deadline); err != nil {
		return fmt.Errorf("icmp probe: %w", err)
	}

	var destination net.Addr = &net.IPAddr{IP: ip}
	if datagram {
		destination = &net.UDPAddr{IP: ip}
	}

	sequence := int(time.Now().UnixNano() & 0xffff)
	message := icmp.Message{
		Type: fam.request,
		Body: &icmp.Echo{
			ID:   os.Getpid() & 0xffff,
			Seq:  sequence,
			Data: echoPayload,
		},
	}
	request, err := message.Marshal(nil)
	if err != nil {
		return fmt.Errorf("icmp probe: encoding echo: %w", err)
	}
	if _, err := connection.WriteTo(request, destination); err != nil {
		return fmt.Errorf("icmp probe: sending echo: %w", err)
	}

	buffer := make([]byte, 1500)
	for {
		count, peer, err := connection.ReadFrom(buffer)
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				return fmt.Errorf("icmp probe: no echo reply from %s within %s", ip, p.Timeout)
			}
			return fmt.Errorf("icmp probe: %w", err)
		}
		if !samePeer(peer, ip) {
			continue
		}
		reply, err := icmp.ParseMessage(fam.protocol, buffer[:count])
		if err != nil || reply.Type != fam.reply {
			continue
		}
		// Datagram sockets rewrite the identifier, so match on the
		// sequence number alone.
		if echo, ok := reply.Body.(*icmp.Echo); ok && echo.Seq == sequence {
			return nil
		}
	}
}

// listen opens an ICMP socket for fam. The boolean reports whether the
// socket is an unprivileged datagram socket.
func listen(fam family) (*icmp.PacketConn, bool, error) {
	connection, datagramErr := icmp.ListenPacket(fam.datagramNetwork, fam.listenAddress)
	if datagramErr == nil {
		return connection, true, nil
	}
	connection, rawErr := icmp.ListenPacket(fam.rawNetwork, fam.listenAddress)
	if rawErr == nil {
		return connection, false, nil
	}
	if permissionDenied(datagramErr) && permissionDenied(rawErr) {
		return nil, false, ErrNoICMPSocket
	}
	return nil, false, fmt.Errorf("opening ICMP socket (datagram: %v; raw: %v)", datagramErr, rawErr)
}

func permissionDenied(err error) bool {
	return errors.Is(err, unix.EPERM) || errors.Is(err, unix.EACCES)
}

func samePeer(peer net.Addr, ip net.IP) bool {
	switch address := peer.(type) {
	case *net.UDPAddr:
		return address.IP.Equal(ip)
	case *net.IPAddr:
		return address.IP.Equal(ip)
	}
	return false
}
