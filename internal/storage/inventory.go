package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/martinsuchenak/edgetag/internal/classify"
	"github.com/martinsuchenak/edgetag/internal/log"
	"github.com/martinsuchenak/edgetag/internal/model"
)

// Document is the portable inventory file layout
type Document struct {
	Tags    []model.Tag    `json:"tags" toml:"tags"`
	Devices []model.Device `json:"devices" toml:"devices"`
}

// ImportStats counts what an import changed
type ImportStats struct {
	TagsCreated    int `json:"tags_created"`
	TagsSkipped    int `json:"tags_skipped"`
	DevicesCreated int `json:"devices_created"`
	DevicesSkipped int `json:"devices_skipped"`
}

// ImportInventory reads a document and creates the tags and devices that do
// not exist yet. Existing entries, matched by slug or name, are skipped.
// New devices are validated like API input. The import is all-or-nothing.
func ImportInventory(ctx context.Context, store Storage, r io.Reader, format string) (*ImportStats, error) {
	var doc Document
	if err := decode(r, format, &doc); err != nil {
		return nil, fmt.Errorf("decoding inventory: %w", err)
	}

	stats := &ImportStats{}
	err := store.Atomic(ctx, true, func(inv Inventory) error {
		for i := range doc.Tags {
			tag := doc.Tags[i]
			lookup := tag.Slug
			if lookup == "" {
				lookup = tag.Name
			}
			if _, err := inv.GetTag(ctx, lookup); err == nil {
				stats.TagsSkipped++
				continue
			} else if !errors.Is(err, ErrTagNotFound) {
				return err
			}

			tag.ID = ""
			if err := inv.CreateTag(ctx, &tag); err != nil {
				return fmt.Errorf("importing tag %s: %w", tag.Name, err)
			}
			stats.TagsCreated++
		}

		for i := range doc.Devices {
			device := doc.Devices[i]
			if _, err := inv.GetDevice(ctx, device.Name); err == nil {
				log.Debug("Skipping existing device", "name", device.Name)
				stats.DevicesSkipped++
				continue
			} else if !errors.Is(err, ErrDeviceNotFound) {
				return err
			}

			if err := classify.ValidateDevice(&device); err != nil {
				return fmt.Errorf("importing device %s: %w", device.Name, err)
			}
			clearIDs(&device)
			if err := inv.CreateDevice(ctx, &device); err != nil {
				return fmt.Errorf("importing device %s: %w", device.Name, err)
			}
			stats.DevicesCreated++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info("Inventory imported",
		"tags_created", stats.TagsCreated, "tags_skipped", stats.TagsSkipped,
		"devices_created", stats.DevicesCreated, "devices_skipped", stats.DevicesSkipped)
	return stats, nil
}

// ExportInventory writes all tags and devices as a document
func ExportInventory(ctx context.Context, store Inventory, w io.Writer, format string) error {
	tags, err := store.ListTags(ctx)
	if err != nil {
		return err
	}
	devices, err := store.ListDevices(ctx, nil)
	if err != nil {
		return err
	}

	return encode(w, format, Document{Tags: tags, Devices: devices})
}

// clearIDs drops IDs so imported rows get fresh ones
func clearIDs(device *model.Device) {
	device.ID = ""
	for i := range device.Interfaces {
		device.Interfaces[i].ID = ""
		for j := range device.Interfaces[i].Addresses {
			device.Interfaces[i].Addresses[j].ID = ""
		}
	}
}
