package radio

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/enbility/zeroconf/v3"
	"github.com/google/uuid"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testPayload = Payload{
	Name:        "Pallet 7",
	ServiceUUID: uuid.MustParse("96f062c4-b99e-4141-9439-c4f9db977899"),
	TagID:       uuid.MustParse("0f8fad5b-d9cb-469f-a165-70867728950e"),
	Version:     "1.4.0",
}

func TestTXTRecordsGolden(t *testing.T) {
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)

	lines := TXTRecordsToStrings(EncodeTXT(testPayload, 87))
	g.Assert(t, "txt_records", []byte(strings.Join(lines, "\n")+"\n"))

	lines = TXTRecordsToStrings(EncodeTXT(Payload{}, 0))
	g.Assert(t, "txt_records_minimal", []byte(strings.Join(lines, "\n")+"\n"))
}

func TestTXTRoundTrip(t *testing.T) {
	txt := StringsToTXTRecords(TXTRecordsToStrings(EncodeTXT(testPayload, 250)))

	p, bat, err := DecodeTXT(txt)
	require.NoError(t, err)
	assert.Equal(t, testPayload, p)
	assert.Equal(t, uint8(100), bat, "battery is clamped")
}

func TestDecodeTXTErrors(t *testing.T) {
	tests := []struct {
		name string
		txt  TXTRecordMap
	}{
		{"MissingBattery", TXTRecordMap{TXTKeyName: "x"}},
		{"BatteryOutOfRange", TXTRecordMap{TXTKeyBattery: "101"}},
		{"BatteryNotNumber", TXTRecordMap{TXTKeyBattery: "full"}},
		{"BadService", TXTRecordMap{TXTKeyBattery: "1", TXTKeyService: "nope"}},
		{"BadTagID", TXTRecordMap{TXTKeyBattery: "1", TXTKeyTagID: "nope"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := DecodeTXT(tt.txt)
			assert.ErrorIs(t, err, ErrInvalidPayload)
		})
	}
}

func TestStringsToTXTRecords(t *testing.T) {
	txt := StringsToTXTRecords([]string{"a=1", "flag", "=skip", "b=x=y"})
	assert.Equal(t, TXTRecordMap{"a": "1", "flag": "", "b": "x=y"}, txt)
}

func TestInstanceName(t *testing.T) {
	assert.Equal(t, DefaultName, Payload{}.InstanceName())
	long := strings.Repeat("x", 100)
	assert.Len(t, Payload{Name: long}.InstanceName(), MaxInstanceNameLen)

	// "é" takes bytes 62 and 63; the cut backs off to byte 62.
	name := Payload{Name: strings.Repeat("x", 62) + "é"}.InstanceName()
	assert.True(t, utf8.ValidString(name))
	assert.Equal(t, strings.Repeat("x", 62), name)

	name = Payload{Name: strings.Repeat("ü", 40)}.InstanceName()
	assert.True(t, utf8.ValidString(name))
	assert.Equal(t, strings.Repeat("ü", 31), name)
}

// fakeService records what the advertiser publishes.
type fakeService struct {
	mu       sync.Mutex
	text     []string
	shutdown bool
}

func (f *fakeService) SetText(text []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.text = text
}

func (f *fakeService) Shutdown() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.shutdown = true
}

type registration struct {
	instance, service, domain string
	port                      int
	text                      []string
	svc                       *fakeService
}

func fakeRegister(regs *[]*registration, err error) RegisterFunc {
	return func(instance, service, domain string, port int, text []string, _ []net.Interface, _ ...zeroconf.ServerOption) (Service, error) {
		if err != nil {
			return nil, err
		}
		r := &registration{instance: instance, service: service, domain: domain, port: port, text: text, svc: &fakeService{}}
		*regs = append(*regs, r)
		return r.svc, nil
	}
}

func TestMDNSAdvertiserStartStop(t *testing.T) {
	var regs []*registration
	a := NewMDNSAdvertiser(MDNSConfig{Register: fakeRegister(&regs, nil)})

	a.SetBatteryLevel(87)
	require.NoError(t, a.Start(context.Background(), testPayload))
	require.Len(t, regs, 1)
	assert.True(t, a.Advertising())

	r := regs[0]
	assert.Equal(t, "Pallet 7", r.instance)
	assert.Equal(t, ServiceType, r.service)
	assert.Equal(t, Domain, r.domain)
	assert.Equal(t, DefaultPort, r.port)
	assert.Contains(t, r.text, "bat=87")

	require.NoError(t, a.Stop())
	assert.True(t, r.svc.shutdown)
	assert.False(t, a.Advertising())

	// Stopping again is a no-op.
	require.NoError(t, a.Stop())
}

func TestMDNSAdvertiserRestartReplaces(t *testing.T) {
	var regs []*registration
	a := NewMDNSAdvertiser(MDNSConfig{Register: fakeRegister(&regs, nil)})

	require.NoError(t, a.Start(context.Background(), testPayload))
	require.NoError(t, a.Start(context.Background(), Payload{Name: "renamed"}))
	require.Len(t, regs, 2)
	assert.True(t, regs[0].svc.shutdown)
	assert.False(t, regs[1].svc.shutdown)
	assert.Equal(t, "renamed", regs[1].instance)
}

func TestMDNSAdvertiserBatteryUpdatesText(t *testing.T) {
	var regs []*registration
	a := NewMDNSAdvertiser(MDNSConfig{Register: fakeRegister(&regs, nil)})
	require.NoError(t, a.Start(context.Background(), testPayload))

	a.SetBatteryLevel(42)
	assert.Contains(t, regs[0].svc.text, "bat=42")
}

func TestMDNSAdvertiserFailures(t *testing.T) {
	var regs []*registration
	a := NewMDNSAdvertiser(MDNSConfig{Register: fakeRegister(&regs, errors.New("no multicast"))})
	err := a.Start(context.Background(), testPayload)
	assert.ErrorIs(t, err, ErrTransport)
	assert.False(t, a.Advertising())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	a = NewMDNSAdvertiser(MDNSConfig{Register: fakeRegister(&regs, nil)})
	assert.ErrorIs(t, a.Start(ctx, testPayload), ErrTransport)

	a = NewMDNSAdvertiser(MDNSConfig{Interface: "does-not-exist0", Register: fakeRegister(&regs, nil)})
	assert.ErrorIs(t, a.Start(context.Background(), testPayload), ErrTransport)
	assert.Empty(t, regs)
}

func TestEntryToSighting(t *testing.T) {
	entry := &zeroconf.ServiceEntry{
		HostName: "tag.local.",
		Port:     DefaultPort,
		Text:     TXTRecordsToStrings(EncodeTXT(testPayload, 55)),
		AddrIPv4: []net.IP{net.ParseIP("192.168.1.20")},
	}
	entry.Instance = "Pallet 7"

	s, ok := entryToSighting(entry)
	require.True(t, ok)
	assert.Equal(t, "Pallet 7", s.InstanceName)
	assert.Equal(t, uint8(55), s.Battery)
	assert.Equal(t, testPayload.TagID, s.Payload.TagID)
	assert.Equal(t, []string{"192.168.1.20"}, s.Addresses)

	entry.Text = []string{"n=other"}
	_, ok = entryToSighting(entry)
	assert.False(t, ok)
}

func TestLogAdvertiser(t *testing.T) {
	var buf bytes.Buffer
	a := NewLogAdvertiser(slog.New(slog.NewTextHandler(&buf, nil)))

	a.SetBatteryLevel(120)
	require.NoError(t, a.Start(context.Background(), testPayload))
	advertising, p, bat, starts := a.Snapshot()
	assert.True(t, advertising)
	assert.Equal(t, testPayload, p)
	assert.Equal(t, uint8(100), bat)
	assert.Equal(t, 1, starts)

	require.NoError(t, a.Stop())
	advertising, _, _, _ = a.Snapshot()
	assert.False(t, advertising)

	out := buf.String()
	assert.Contains(t, out, "Start advertising")
	assert.Contains(t, out, "Stop advertising")
	assert.Contains(t, out, "name=\"Pallet 7\"")
}
