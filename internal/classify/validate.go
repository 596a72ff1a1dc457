package classify

import (
	"errors"
	"fmt"

	"github.com/martinsuchenak/edgetag/internal/model"
)

var ErrInvalidDevice = errors.New("invalid device")

// ValidateDevice checks a device before it is stored. An empty device
// status defaults to active.
func ValidateDevice(device *model.Device) error {
	if device.Status == "" {
		device.Status = model.DeviceStatusActive
	}
	if !model.ValidDeviceStatus(device.Status) {
		return fmt.Errorf("%w: invalid status: %s", ErrInvalidDevice, device.Status)
	}
	return ValidateInterfaces(device.Interfaces)
}

// ValidateInterfaces rejects interface sets a tagging run could not
// classify. Empty address statuses default to active.
func ValidateInterfaces(interfaces []model.Interface) error {
	seen := map[string]bool{}
	for i := range interfaces {
		iface := &interfaces[i]
		if iface.Name == "" {
			return fmt.Errorf("%w: interface name is required", ErrInvalidDevice)
		}
		if seen[iface.Name] {
			return fmt.Errorf("%w: duplicate interface: %s", ErrInvalidDevice, iface.Name)
		}
		seen[iface.Name] = true

		for j := range iface.Addresses {
			addr := &iface.Addresses[j]
			if _, err := ParseInterface(addr.Address); err != nil {
				return fmt.Errorf("invalid IP address on %s: %w", iface.Name, err)
			}
			if addr.Status == "" {
				addr.Status = model.AddressStatusActive
			}
			if !model.ValidAddressStatus(addr.Status) {
				return fmt.Errorf("%w: invalid address status on %s: %s", ErrInvalidDevice, iface.Name, addr.Status)
			}
		}
	}
	return nil
}
