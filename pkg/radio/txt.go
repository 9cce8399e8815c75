package radio

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// TXT record keys.
const (
	TXTKeyName    = "n"
	TXTKeyService = "svc"
	TXTKeyTagID   = "id"
	TXTKeyBattery = "bat"
	TXTKeyVersion = "ver"
)

// TXTRecordMap is a map of TXT record key-value pairs.
type TXTRecordMap map[string]string

// EncodeTXT creates TXT records for an advertisement.
func EncodeTXT(p Payload, battery uint8) TXTRecordMap {
	txt := TXTRecordMap{
		TXTKeyName:    p.InstanceName(),
		TXTKeyBattery: strconv.FormatUint(uint64(min(battery, 100)), 10),
	}
	if p.ServiceUUID != uuid.Nil {
		txt[TXTKeyService] = p.ServiceUUID.String()
	}
	if p.TagID != uuid.Nil {
		txt[TXTKeyTagID] = p.TagID.String()
	}
	if p.Version != "" {
		txt[TXTKeyVersion] = p.Version
	}
	return txt
}

// DecodeTXT parses TXT records back into a payload and battery level.
func DecodeTXT(txt TXTRecordMap) (Payload, uint8, error) {
	var p Payload
	p.Name = txt[TXTKeyName]
	p.Version = txt[TXTKeyVersion]

	if s, ok := txt[TXTKeyService]; ok {
		id, err := uuid.Parse(s)
		if err != nil {
			return Payload{}, 0, fmt.Errorf("%w: %s: %v", ErrInvalidPayload, TXTKeyService, err)
		}
		p.ServiceUUID = id
	}
	if s, ok := txt[TXTKeyTagID]; ok {
		id, err := uuid.Parse(s)
		if err != nil {
			return Payload{}, 0, fmt.Errorf("%w: %s: %v", ErrInvalidPayload, TXTKeyTagID, err)
		}
		p.TagID = id
	}

	s, ok := txt[TXTKeyBattery]
	if !ok {
		return p, 0, fmt.Errorf("%w: missing %s", ErrInvalidPayload, TXTKeyBattery)
	}
	bat, err := strconv.ParseUint(s, 10, 8)
	if err != nil || bat > 100 {
		return Payload{}, 0, fmt.Errorf("%w: %s=%q", ErrInvalidPayload, TXTKeyBattery, s)
	}
	return p, uint8(bat), nil
}

// TXTRecordsToStrings converts a TXTRecordMap to "key=value" strings,
// sorted by key.
func TXTRecordsToStrings(txt TXTRecordMap) []string {
	keys := make([]string, 0, len(txt))
	for k := range txt {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	result := make([]string, 0, len(txt))
	for _, k := range keys {
		result = append(result, k+"="+txt[k])
	}
	return result
}

// StringsToTXTRecords parses "key=value" strings into a TXTRecordMap.
func StringsToTXTRecords(strs []string) TXTRecordMap {
	txt := make(TXTRecordMap)
	for _, s := range strs {
		k, v, found := strings.Cut(s, "=")
		if k == "" {
			continue
		}
		if !found {
			v = ""
		}
		txt[k] = v
	}
	return txt
}
