package radio

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/enbility/zeroconf/v3"
)

// MDNSConfig configures the mDNS advertiser and scanner.
type MDNSConfig struct {
	// Interface restricts advertising to one network interface.
	// Empty string means all interfaces.
	Interface string

	// TTL is the DNS record TTL.
	// Default: 120 seconds.
	TTL time.Duration

	// Port is announced in the SRV record (default: DefaultPort).
	Port int

	// Logger is the optional logger for debug output.
	Logger *slog.Logger

	// Register publishes a service. Nil uses zeroconf.Register.
	Register RegisterFunc
}

// DefaultMDNSConfig returns the default mDNS configuration.
func DefaultMDNSConfig() MDNSConfig {
	return MDNSConfig{
		TTL:  120 * time.Second,
		Port: DefaultPort,
	}
}

// Service is a registered mDNS service.
type Service interface {
	SetText(text []string)
	Shutdown()
}

// RegisterFunc publishes an mDNS service.
type RegisterFunc func(instance, service, domain string, port int, text []string, ifaces []net.Interface, opts ...zeroconf.ServerOption) (Service, error)

func zeroconfRegister(instance, service, domain string, port int, text []string, ifaces []net.Interface, opts ...zeroconf.ServerOption) (Service, error) {
	server, err := zeroconf.Register(instance, service, domain, port, text, ifaces, opts...)
	if err != nil {
		return nil, err
	}
	return server, nil
}

// MDNSAdvertiser implements Advertiser over mDNS-SD using zeroconf.
type MDNSAdvertiser struct {
	config MDNSConfig

	mu      sync.Mutex
	server  Service
	payload Payload
	battery uint8
}

// NewMDNSAdvertiser creates a new mDNS advertiser.
func NewMDNSAdvertiser(config MDNSConfig) *MDNSAdvertiser {
	if config.Port == 0 {
		config.Port = DefaultPort
	}
	if config.Register == nil {
		config.Register = zeroconfRegister
	}
	return &MDNSAdvertiser{config: config}
}

// getInterfaces returns the network interfaces to use for advertising.
// Returns nil to use all interfaces.
func (a *MDNSAdvertiser) getInterfaces() ([]net.Interface, error) {
	if a.config.Interface == "" {
		return nil, nil
	}
	iface, err := net.InterfaceByName(a.config.Interface)
	if err != nil {
		return nil, err
	}
	return []net.Interface{*iface}, nil
}

// Start registers the tag service. A running advertisement is replaced.
func (a *MDNSAdvertiser) Start(ctx context.Context, payload Payload) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
	}

	ifaces, err := a.getInterfaces()
	if err != nil {
		return fmt.Errorf("%w: interface %s: %v", ErrTransport, a.config.Interface, err)
	}

	var opts []zeroconf.ServerOption
	if a.config.TTL > 0 {
		opts = append(opts, zeroconf.TTL(uint32(a.config.TTL.Seconds())))
	}

	text := TXTRecordsToStrings(EncodeTXT(payload, a.battery))
	server, err := a.config.Register(
		payload.InstanceName(),
		ServiceType,
		Domain,
		a.config.Port,
		text,
		ifaces,
		opts...,
	)
	if err != nil {
		return fmt.Errorf("%w: register %s: %v", ErrTransport, payload.InstanceName(), err)
	}

	a.server = server
	a.payload = payload
	a.debug("advertising started", "instance", payload.InstanceName(), "battery", a.battery)
	return nil
}

// Stop shuts the service down.
func (a *MDNSAdvertiser) Stop() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
		a.debug("advertising stopped", "instance", a.payload.InstanceName())
	}
	return nil
}

// SetBatteryLevel updates the battery level, refreshing the TXT records of
// a running advertisement.
func (a *MDNSAdvertiser) SetBatteryLevel(percent uint8) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.battery = min(percent, 100)
	if a.server != nil {
		a.server.SetText(TXTRecordsToStrings(EncodeTXT(a.payload, a.battery)))
	}
}

// Advertising reports whether a service is registered.
func (a *MDNSAdvertiser) Advertising() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.server != nil
}

func (a *MDNSAdvertiser) debug(msg string, args ...any) {
	if a.config.Logger != nil {
		a.config.Logger.Debug(msg, args...)
	}
}

// Sighting is one tag observed by a Scanner.
type Sighting struct {
	InstanceName string
	Host         string
	Port         uint16
	Addresses    []string
	Payload      Payload
	Battery      uint8
}

// Scanner browses for advertising tags.
type Scanner struct {
	config MDNSConfig
}

// NewScanner creates a scanner.
func NewScanner(config MDNSConfig) *Scanner {
	return &Scanner{config: config}
}

// Scan reports tags until ctx is cancelled. Each instance is reported
// once per Scan.
func (s *Scanner) Scan(ctx context.Context) (<-chan Sighting, error) {
	out := make(chan Sighting)
	entries := make(chan *zeroconf.ServiceEntry)
	removed := make(chan *zeroconf.ServiceEntry)

	var opts []zeroconf.ClientOption
	if s.config.Interface != "" {
		iface, err := net.InterfaceByName(s.config.Interface)
		if err != nil {
			return nil, fmt.Errorf("%w: interface %s: %v", ErrTransport, s.config.Interface, err)
		}
		opts = append(opts, zeroconf.SelectIfaces([]net.Interface{*iface}))
	}

	go func() {
		defer close(out)

		seen := make(map[string]bool)
		for {
			select {
			case entry, ok := <-entries:
				if !ok {
					return
				}
				sighting, ok := entryToSighting(entry)
				if !ok || seen[sighting.InstanceName] {
					continue
				}
				seen[sighting.InstanceName] = true
				select {
				case out <- sighting:
				case <-ctx.Done():
					return
				}

			case entry, ok := <-removed:
				if !ok {
					removed = nil
					continue
				}
				delete(seen, entry.Instance)

			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		if err := zeroconf.Browse(ctx, ServiceType, Domain, entries, removed, opts...); err != nil && s.config.Logger != nil {
			s.config.Logger.Warn("mdns browse failed", "error", err)
		}
	}()

	return out, nil
}

// entryToSighting converts a zeroconf entry to a Sighting.
func entryToSighting(entry *zeroconf.ServiceEntry) (Sighting, bool) {
	payload, battery, err := DecodeTXT(StringsToTXTRecords(entry.Text))
	if err != nil {
		return Sighting{}, false
	}

	addrs := make([]string, 0, len(entry.AddrIPv4)+len(entry.AddrIPv6))
	for _, ip := range entry.AddrIPv4 {
		addrs = append(addrs, ip.String())
	}
	for _, ip := range entry.AddrIPv6 {
		addrs = append(addrs, ip.String())
	}

	return Sighting{
		InstanceName: entry.Instance,
		Host:         entry.HostName,
		Port:         uint16(entry.Port),
		Addresses:    addrs,
		Payload:      payload,
		Battery:      battery,
	}, true
}

var _ Advertiser = (*MDNSAdvertiser)(nil)
