// Package resolve looks up host names against one explicit DNS server and
// dials the resulting addresses. It lets the plugin reach the Graphite
// backend without going through the system resolver.
package resolve

import (
	"context"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"github.com/miekg/dns"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultTimeout is the default DNS query timeout.
	DefaultTimeout = 3 * time.Second

	defaultPort = "53"
)

// Resolver queries A and AAAA records from a single server.
type Resolver struct {
	server  string // host:port of the DNS server
	timeout time.Duration
	client  *dns.Client
	dialer  *net.Dialer
	logger  *logrus.Logger
}

// Option is a functional option for configuring a Resolver.
type Option func(*Resolver) error

// WithTimeout sets the DNS query timeout.
func WithTimeout(d time.Duration) Option {
	return func(r *Resolver) error {
		if d <= 0 {
			return fmt.Errorf("timeout must be positive, got %v", d)
		}
		r.timeout = d
		return nil
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *logrus.Logger) Option {
	return func(r *Resolver) error {
		if l == nil {
			return fmt.Errorf("logger must not be nil")
		}
		r.logger = l
		return nil
	}
}

// New creates a Resolver for the given server. A server without a port
// uses port 53.
func New(server string, opts ...Option) (*Resolver, error) {
	server = strings.TrimSpace(server)
	if server == "" {
		return nil, fmt.Errorf("resolve: server must not be empty")
	}
	if _, _, err := net.SplitHostPort(server); err != nil {
		server = net.JoinHostPort(strings.Trim(server, "[]"), defaultPort)
	}

	r := &Resolver{
		server:  server,
		timeout: DefaultTimeout,
	}

	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, fmt.Errorf("resolve: %w", err)
		}
	}

	if r.logger == nil {
		r.logger = logrus.New()
		r.logger.SetOutput(io.Discard)
	}

	r.client = &dns.Client{
		Timeout: r.timeout,
	}
	r.dialer = &net.Dialer{}

	return r, nil
}

// Server returns the host:port queried.
func (r *Resolver) Server() string {
	return r.server
}

// Lookup returns the addresses of host. A records are preferred; AAAA
// records are asked for only when there are none. An IP literal is
// returned as is.
func (r *Resolver) Lookup(ctx context.Context, host string) ([]net.IP, error) {
	if ip := net.ParseIP(host); ip != nil {
		return []net.IP{ip}, nil
	}

	var lastErr error
	for _, qtype := range []uint16{dns.TypeA, dns.TypeAAAA} {
		ips, err := r.query(ctx, host, qtype)
		if err != nil {
			lastErr = err
			continue
		}
		if len(ips) > 0 {
			return ips, nil
		}
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, fmt.Errorf("resolve %s: no A or AAAA records from %s", host, r.server)
}

func (r *Resolver) query(ctx context.Context, host string, qtype uint16) ([]net.IP, error) {
	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(host), qtype)
	msg.RecursionDesired = true

	resp, rtt, err := r.client.ExchangeContext(ctx, msg, r.server)
	if err != nil {
		return nil, fmt.Errorf("resolve %s %s: %w", qtypeName(qtype), host, err)
	}
	if resp.Rcode != dns.RcodeSuccess {
		return nil, fmt.Errorf("resolve %s %s: rcode %s", qtypeName(qtype), host, dns.RcodeToString[resp.Rcode])
	}

	ips := addresses(resp.Answer, qtype)
	r.logger.Debugf("Resolved %s %s via %s in %v: %v", qtypeName(qtype), host, r.server, rtt, ips)
	return ips, nil
}

// addresses extracts the IPs of the requested type from an answer section.
// CNAME records are followed implicitly since recursive servers include
// the target records in the same answer.
func addresses(rrs []dns.RR, qtype uint16) []net.IP {
	var ips []net.IP
	for _, rr := range rrs {
		switch qtype {
		case dns.TypeA:
			if a, ok := rr.(*dns.A); ok {
				ips = append(ips, a.A)
			}
		case dns.TypeAAAA:
			if aaaa, ok := rr.(*dns.AAAA); ok {
				ips = append(ips, aaaa.AAAA)
			}
		}
	}
	return ips
}

// DialContext resolves the host part of addr with Lookup and dials the
// returned addresses in order until one connects. It has the signature of
// net.Dialer.DialContext so it can back an http.Transport.
func (r *Resolver) DialContext(ctx context.Context, network, addr string) (net.Conn, error) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, fmt.Errorf("resolve: invalid address %q: %w", addr, err)
	}

	ips, err := r.Lookup(ctx, host)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for _, ip := range ips {
		target := net.JoinHostPort(ip.String(), port)
		conn, err := r.dialer.DialContext(ctx, network, target)
		if err != nil {
			r.logger.Debugf("Dial %s (%s) failed: %v", target, host, err)
			lastErr = err
			continue
		}
		return conn, nil
	}
	return nil, fmt.Errorf("resolve: dial %s: %w", addr, lastErr)
}

// qtypeName returns a human-readable record type name for error messages.
func qtypeName(qtype uint16) string {
	switch qtype {
	case dns.TypeA:
		return "A"
	case dns.TypeAAAA:
		return "AAAA"
	default:
		return fmt.Sprintf("TYPE%d", qtype)
	}
}
