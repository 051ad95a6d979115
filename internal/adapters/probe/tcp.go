package probe

import (
	"context"
	"fmt"
	"net"
	"time"
)

const DefaultTimeout = 2 * time.Second

// TCP checks that something accepts connections on the resolver port.
type TCP struct {
	Address string
	Timeout time.Duration
}

// NewTCP returns a probe for address, or nil if address is empty.
func NewTCP(address string, timeout time.Duration) *TCP {
	if address == "" {
		return nil
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &TCP{Address: address, Timeout: timeout}
}

// Probe dials Address and closes the connection straight away.
func (p *TCP) Probe(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", p.Address)
	if err != nil {
		return fmt.Errorf("resolver unreachable at %s: %w", p.Address, err)
	}
	return conn.Close()
}
