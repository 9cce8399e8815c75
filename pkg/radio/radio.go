// Package radio broadcasts the tag's presence.
//
// An Advertiser starts and stops the broadcast for one advertise window per
// wake cycle. The payload carries the tag name, its service UUID and the
// last battery level. MDNSAdvertiser broadcasts over mDNS-SD on the host;
// LogAdvertiser only logs, for running without a network.
package radio

import (
	"context"
	"errors"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Errors.
var (
	// ErrTransport indicates the broadcast could not be started.
	ErrTransport = errors.New("radio transport failure")

	// ErrInvalidPayload indicates the payload cannot be advertised.
	ErrInvalidPayload = errors.New("invalid advertising payload")
)

// Service naming.
const (
	// ServiceType is the mDNS-SD service type of an asset tag.
	ServiceType = "_assettag._udp"

	// Domain is the mDNS domain.
	Domain = "local."

	// DefaultPort is the port announced in the SRV record.
	DefaultPort = 5683

	// DefaultName is advertised when the tag has no name.
	DefaultName = "asset-tag"

	// MaxInstanceNameLen bounds the instance name.
	MaxInstanceNameLen = 63
)

// Payload describes what is advertised.
type Payload struct {
	// Name is the advertised device name.
	Name string

	// ServiceUUID identifies the attribute service offered by the tag.
	ServiceUUID uuid.UUID

	// TagID identifies this tag instance.
	TagID uuid.UUID

	// Version is the firmware version.
	Version string
}

// InstanceName returns the advertised instance name, bounded to
// MaxInstanceNameLen bytes without splitting a character and defaulting to
// DefaultName.
func (p Payload) InstanceName() string {
	name := p.Name
	if name == "" {
		name = DefaultName
	}
	if len(name) > MaxInstanceNameLen {
		n := MaxInstanceNameLen
		for n > 0 && !utf8.RuneStart(name[n]) {
			n--
		}
		name = name[:n]
	}
	return name
}

// Advertiser is the broadcast transport.
type Advertiser interface {
	// Start begins advertising payload. Failures wrap ErrTransport.
	Start(ctx context.Context, payload Payload) error

	// Stop ends advertising. Stopping an idle advertiser is a no-op.
	Stop() error

	// SetBatteryLevel sets the battery level (0-100) carried by the
	// advertisement. Values above 100 are clamped.
	SetBatteryLevel(percent uint8)
}
