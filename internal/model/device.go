package model

import (
	"time"
)

// Device statuses.
const (
	DeviceStatusOffline         = "offline"
	DeviceStatusActive          = "active"
	DeviceStatusPlanned         = "planned"
	DeviceStatusStaged          = "staged"
	DeviceStatusFailed          = "failed"
	DeviceStatusInventory       = "inventory"
	DeviceStatusDecommissioning = "decommissioning"
)

// IP address statuses.
const (
	AddressStatusActive     = "active"
	AddressStatusReserved   = "reserved"
	AddressStatusDeprecated = "deprecated"
	AddressStatusDHCP       = "dhcp"
	AddressStatusSLAAC      = "slaac"
)

// Device represents a tracked device with its interfaces and tags
type Device struct {
	ID          string      `json:"id" toml:"id"`
	Name        string      `json:"name" toml:"name"`
	Status      string      `json:"status" toml:"status"`
	Description string      `json:"description,omitempty" toml:"description,omitempty"`
	Tags        []string    `json:"tags" toml:"tags"` // tag slugs
	Interfaces  []Interface `json:"interfaces" toml:"interfaces"`
	CreatedAt   time.Time   `json:"created_at" toml:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at" toml:"updated_at"`
}

// Interface is a network interface belonging to exactly one device
type Interface struct {
	ID        string      `json:"id" toml:"id"`
	Name      string      `json:"name" toml:"name"`
	Addresses []IPAddress `json:"addresses" toml:"addresses"`
}

// IPAddress is an address assigned to an interface
type IPAddress struct {
	ID      string `json:"id" toml:"id"`
	Address string `json:"address" toml:"address"` // with prefix length, e.g. "203.0.113.5/24"
	Status  string `json:"status" toml:"status"`
}

// HasTag reports whether the device carries the tag slug.
func (d *Device) HasTag(slug string) bool {
	for _, t := range d.Tags {
		if t == slug {
			return true
		}
	}
	return false
}

// Ref returns the short reference used in job results.
func (d *Device) Ref() DeviceRef {
	return DeviceRef{ID: d.ID, Name: d.Name}
}

// DeviceFilter holds filter criteria for listing devices
type DeviceFilter struct {
	Status string   // Exact status match, empty for all
	Tags   []string // Filter by tag slugs (OR logic)
}

// ValidDeviceStatus reports whether s is a known device status.
func ValidDeviceStatus(s string) bool {
	switch s {
	case DeviceStatusOffline, DeviceStatusActive, DeviceStatusPlanned, DeviceStatusStaged,
		DeviceStatusFailed, DeviceStatusInventory, DeviceStatusDecommissioning:
		return true
	}
	return false
}

// ValidAddressStatus reports whether s is a known address status.
func ValidAddressStatus(s string) bool {
	switch s {
	case AddressStatusActive, AddressStatusReserved, AddressStatusDeprecated,
		AddressStatusDHCP, AddressStatusSLAAC:
		return true
	}
	return false
}
