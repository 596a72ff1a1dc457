package storage

import (
	"context"
	"errors"

	"github.com/martinsuchenak/edgetag/internal/model"
)

var (
	ErrDeviceNotFound = errors.New("device not found")
	ErrTagNotFound    = errors.New("tag not found")
	ErrJobNotFound    = errors.New("job not found")
	ErrInvalidID      = errors.New("invalid ID")
	ErrDuplicate      = errors.New("already exists")
)

// DeviceStorage defines device persistence
type DeviceStorage interface {
	ListDevices(ctx context.Context, filter *model.DeviceFilter) ([]model.Device, error)
	GetDevice(ctx context.Context, id string) (*model.Device, error)
	CreateDevice(ctx context.Context, device *model.Device) error
	UpdateDevice(ctx context.Context, device *model.Device) error
	DeleteDevice(ctx context.Context, id string) error
	SetDeviceInterfaces(ctx context.Context, deviceID string, interfaces []model.Interface) error
}

// TagStorage defines tag persistence
type TagStorage interface {
	ListTags(ctx context.Context) ([]model.Tag, error)
	GetTag(ctx context.Context, id string) (*model.Tag, error)
	CreateTag(ctx context.Context, tag *model.Tag) error
	DeleteTag(ctx context.Context, id string) error
}

// JobStorage defines job result persistence
type JobStorage interface {
	CreateJob(ctx context.Context, job *model.Job) error
	UpdateJob(ctx context.Context, job *model.Job) error
	GetJob(ctx context.Context, id string) (*model.Job, error)
	ListJobs(ctx context.Context, limit int) ([]model.Job, error)
}

// Inventory is the device and tag store a job works against
type Inventory interface {
	DeviceStorage
	TagStorage
}

// Storage is the full store
type Storage interface {
	Inventory
	JobStorage

	// Atomic runs fn inside a transaction. Changes are committed only when
	// commit is true and fn returns nil.
	Atomic(ctx context.Context, commit bool, fn func(Inventory) error) error
	Close() error
}
