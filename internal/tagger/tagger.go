// Package tagger applies a tag to devices that expose a public IPv4 address.
package tagger

import (
	"context"
	"fmt"

	"github.com/martinsuchenak/edgetag/internal/classify"
	"github.com/martinsuchenak/edgetag/internal/model"
)

// DeviceSaver persists a device after its tag set changed.
type DeviceSaver interface {
	UpdateDevice(ctx context.Context, device *model.Device) error
}

// JobLog receives the messages shown to the operator for a run.
type JobLog interface {
	Success(object, message string)
	Info(object, message string)
}

// Tagger scans device interfaces and tags public-facing devices.
type Tagger struct {
	saver      DeviceSaver
	log        JobLog
	classifier *classify.Classifier
}

// New creates a Tagger. A nil classifier uses the default exclusion set.
func New(saver DeviceSaver, log JobLog, classifier *classify.Classifier) *Tagger {
	if classifier == nil {
		classifier = classify.New()
	}
	return &Tagger{
		saver:      saver,
		log:        log,
		classifier: classifier,
	}
}

// TagIfHasPublic tags device when one of its non-deprecated addresses is
// public. It returns the device when it was tagged and nil when nothing
// changed, either because no public address exists or because the tag was
// already present. Scanning stops at the first public address.
func (t *Tagger) TagIfHasPublic(ctx context.Context, device *model.Device, tag model.Tag) (*model.Device, error) {
	addr, err := t.firstPublic(device)
	if err != nil {
		return nil, fmt.Errorf("classifying addresses of %s: %w", device.Name, err)
	}
	if addr == nil {
		return nil, nil
	}

	if device.HasTag(tag.Slug) {
		t.log.Info(device.Name, fmt.Sprintf("%s has public IP %s but already tagged, doing nothing", device.Name, addr.Address))
		return nil, nil
	}

	device.Tags = append(device.Tags, tag.Slug)
	if err := t.saver.UpdateDevice(ctx, device); err != nil {
		return nil, fmt.Errorf("saving %s: %w", device.Name, err)
	}

	t.log.Success(device.Name, fmt.Sprintf("%s has public IP %s, tagged %s", device.Name, addr.Address, tag))
	return device, nil
}

// Run calls TagIfHasPublic for every device and returns the newly tagged
// ones in input order. The first error aborts the run.
func (t *Tagger) Run(ctx context.Context, devices []model.Device, tag model.Tag) ([]model.Device, error) {
	var tagged []model.Device
	for i := range devices {
		d, err := t.TagIfHasPublic(ctx, &devices[i], tag)
		if err != nil {
			return tagged, err
		}
		if d != nil {
			tagged = append(tagged, *d)
		}
	}
	return tagged, nil
}

// firstPublic returns the first public, non-deprecated address across all
// interfaces, or nil when there is none.
func (t *Tagger) firstPublic(device *model.Device) (*model.IPAddress, error) {
	for i := range device.Interfaces {
		iface := &device.Interfaces[i]
		for j := range iface.Addresses {
			addr := &iface.Addresses[j]
			if addr.Status == model.AddressStatusDeprecated {
				continue
			}
			public, err := t.classifier.IsPublic(addr.Address)
			if err != nil {
				return nil, err
			}
			if public {
				return addr, nil
			}
		}
	}
	return nil, nil
}
