package gatt

import (
	"github.com/google/uuid"

	"github.com/asset-tag/tag-go/pkg/store"
)

// Service and characteristic UUIDs of the asset tag service.
var (
	ServiceUUID = uuid.MustParse("96f062c4-b99e-4141-9439-c4f9db977899")
	ValueUUID   = uuid.MustParse("856d27bf-b8e1-4109-bf61-5733f4e1b299")
	ErrorUUID   = uuid.MustParse("08aefe30-27c5-4d34-9936-d4cc6188ee99")
	VersionUUID = uuid.MustParse("4cc69818-27c5-4d34-9936-d4cc6188ee99")
	DataUUID    = uuid.MustParse("9787a554-76cc-4d02-99bb-aa7d5a4f4a99")
)

// Characteristic names, also used as store keys.
const (
	CharValue   = "value"
	CharError   = "error"
	CharVersion = "version"
	CharData    = "data"
)

// Storage paths of the persisted characteristics.
const (
	ValuePath = "ass_value"
	DataPath  = "ass_data"
)

// VersionCapacity bounds the version string.
const VersionCapacity = 32

// Characteristic describes one attribute of the service.
type Characteristic struct {
	Name   string
	UUID   uuid.UUID
	Access Access

	// Buffer declares the backing store buffer.
	Buffer store.BufferSpec
}

// Characteristics returns the asset tag service table in declaration order.
func Characteristics() []Characteristic {
	return []Characteristic{
		{
			Name:   CharValue,
			UUID:   ValueUUID,
			Access: AccessReadWrite,
			Buffer: store.BufferSpec{Key: CharValue, Path: ValuePath, Capacity: store.DefaultCapacity},
		},
		{
			Name:   CharError,
			UUID:   ErrorUUID,
			Access: AccessReadOnly,
			Buffer: store.BufferSpec{Key: CharError, Capacity: store.DefaultCapacity},
		},
		{
			Name:   CharVersion,
			UUID:   VersionUUID,
			Access: AccessReadOnly,
			Buffer: store.BufferSpec{Key: CharVersion, Capacity: VersionCapacity},
		},
		{
			Name:   CharData,
			UUID:   DataUUID,
			Access: AccessReadWrite,
			Buffer: store.BufferSpec{Key: CharData, Path: DataPath, Capacity: store.DefaultCapacity},
		},
	}
}

// BufferSpecs returns the store buffers backing chars.
func BufferSpecs(chars []Characteristic) []store.BufferSpec {
	specs := make([]store.BufferSpec, 0, len(chars))
	for _, c := range chars {
		specs = append(specs, c.Buffer)
	}
	return specs
}
