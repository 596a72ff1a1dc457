package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/martinsuchenak/edgetag/internal/model"
)

//go:embed schema.sql
var schemaFS embed.FS

// querier is satisfied by both *sql.DB and *sql.Tx
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLiteStorage implements Storage with SQLite backend
type SQLiteStorage struct {
	mu   sync.RWMutex
	db   *sql.DB
	q    querier
	path string
	inTx bool
}

var _ Storage = (*SQLiteStorage)(nil)

// NewSQLiteStorage creates a new SQLite-based storage in dataDir
func NewSQLiteStorage(dataDir string) (*SQLiteStorage, error) {
	// Ensure data directory exists
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, err
	}

	dbPath := filepath.Join(dataDir, "edgetag.db")

	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	// SQLite works best with a single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ss := &SQLiteStorage{
		db:   db,
		q:    db,
		path: dbPath,
	}

	if err := ss.migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	return ss, nil
}

// Close closes the database connection
func (ss *SQLiteStorage) Close() error {
	if ss.inTx {
		return nil
	}
	return ss.db.Close()
}

// GetDatabasePath returns the database file path
func (ss *SQLiteStorage) GetDatabasePath() string {
	return ss.path
}

// Atomic runs fn against a transaction-bound view of the store
func (ss *SQLiteStorage) Atomic(ctx context.Context, commit bool, fn func(Inventory) error) error {
	if ss.inTx {
		return fn(ss)
	}

	ss.mu.Lock()
	defer ss.mu.Unlock()

	tx, err := ss.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(ss.bind(tx)); err != nil {
		return err
	}

	if !commit {
		return tx.Rollback()
	}
	return tx.Commit()
}

// bind returns a store whose queries run on tx
func (ss *SQLiteStorage) bind(tx *sql.Tx) *SQLiteStorage {
	return &SQLiteStorage{db: ss.db, q: tx, path: ss.path, inTx: true}
}

// withTx runs fn in a transaction, or directly when already inside one
func (ss *SQLiteStorage) withTx(ctx context.Context, fn func(q querier) error) error {
	if ss.inTx {
		return fn(ss.q)
	}

	tx, err := ss.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func (ss *SQLiteStorage) rlock() func() {
	if ss.inTx {
		return func() {}
	}
	ss.mu.RLock()
	return ss.mu.RUnlock
}

func (ss *SQLiteStorage) lock() func() {
	if ss.inTx {
		return func() {}
	}
	ss.mu.Lock()
	return ss.mu.Unlock
}

// ListDevices returns devices with interfaces and addresses loaded
func (ss *SQLiteStorage) ListDevices(ctx context.Context, filter *model.DeviceFilter) ([]model.Device, error) {
	defer ss.rlock()()

	query := `SELECT id, name, status, description, created_at, updated_at FROM devices`
	var args []any
	if filter != nil && filter.Status != "" {
		query += ` WHERE status = ?`
		args = append(args, filter.Status)
	}
	query += ` ORDER BY name`

	devices, err := ss.queryDevices(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	for i := range devices {
		if err := ss.loadDeviceRelations(ctx, &devices[i]); err != nil {
			return nil, err
		}
	}

	if filter != nil && len(filter.Tags) > 0 {
		devices = filterByTags(devices, filter.Tags)
	}

	return devices, nil
}

// GetDevice retrieves a device by ID or name
func (ss *SQLiteStorage) GetDevice(ctx context.Context, id string) (*model.Device, error) {
	defer ss.rlock()()
	return ss.getDevice(ctx, id)
}

func (ss *SQLiteStorage) getDevice(ctx context.Context, id string) (*model.Device, error) {
	devices, err := ss.queryDevices(ctx, `
		SELECT id, name, status, description, created_at, updated_at
		FROM devices
		WHERE id = ? OR LOWER(name) = LOWER(?)
		ORDER BY id = ? DESC
		LIMIT 1
	`, id, id, id)
	if err != nil {
		return nil, err
	}
	if len(devices) == 0 {
		return nil, ErrDeviceNotFound
	}

	device := &devices[0]
	if err := ss.loadDeviceRelations(ctx, device); err != nil {
		return nil, err
	}
	return device, nil
}

// CreateDevice adds a new device with its interfaces, addresses and tags
func (ss *SQLiteStorage) CreateDevice(ctx context.Context, device *model.Device) error {
	defer ss.lock()()

	if strings.TrimSpace(device.Name) == "" {
		return fmt.Errorf("%w: device name is required", ErrInvalidID)
	}
	if device.ID == "" {
		device.ID = newID()
	}
	if device.Status == "" {
		device.Status = model.DeviceStatusActive
	}

	now := time.Now()
	device.CreatedAt = now
	device.UpdatedAt = now

	return ss.withTx(ctx, func(q querier) error {
		_, err := q.ExecContext(ctx, `
			INSERT INTO devices (id, name, status, description, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, device.ID, device.Name, device.Status, device.Description, device.CreatedAt, device.UpdatedAt)
		if err != nil {
			return mapConstraintError("inserting device", err)
		}

		if err := insertInterfaces(ctx, q, device.ID, device.Interfaces); err != nil {
			return err
		}
		return insertDeviceTags(ctx, q, device.ID, device.Tags)
	})
}

// UpdateDevice updates device fields and replaces its tag set. Interfaces
// are left untouched; see SetDeviceInterfaces.
func (ss *SQLiteStorage) UpdateDevice(ctx context.Context, device *model.Device) error {
	defer ss.lock()()

	if device.ID == "" {
		return ErrInvalidID
	}

	device.UpdatedAt = time.Now()

	return ss.withTx(ctx, func(q querier) error {
		result, err := q.ExecContext(ctx, `
			UPDATE devices
			SET name = ?, status = ?, description = ?, updated_at = ?
			WHERE id = ?
		`, device.Name, device.Status, device.Description, device.UpdatedAt, device.ID)
		if err != nil {
			return mapConstraintError("updating device", err)
		}

		rows, _ := result.RowsAffected()
		if rows == 0 {
			return ErrDeviceNotFound
		}

		// Delete and reinsert tags
		if _, err := q.ExecContext(ctx, "DELETE FROM device_tags WHERE device_id = ?", device.ID); err != nil {
			return fmt.Errorf("deleting old tags: %w", err)
		}
		return insertDeviceTags(ctx, q, device.ID, device.Tags)
	})
}

// DeleteDevice removes a device by ID or name
func (ss *SQLiteStorage) DeleteDevice(ctx context.Context, id string) error {
	defer ss.lock()()

	result, err := ss.q.ExecContext(ctx, "DELETE FROM devices WHERE id = ? OR LOWER(name) = LOWER(?)", id, id)
	if err != nil {
		return fmt.Errorf("deleting device: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrDeviceNotFound
	}

	return nil
}

// SetDeviceInterfaces replaces all interfaces and addresses of a device
func (ss *SQLiteStorage) SetDeviceInterfaces(ctx context.Context, deviceID string, interfaces []model.Interface) error {
	defer ss.lock()()

	return ss.withTx(ctx, func(q querier) error {
		var exists bool
		if err := q.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM devices WHERE id = ?)", deviceID).Scan(&exists); err != nil {
			return fmt.Errorf("checking device existence: %w", err)
		}
		if !exists {
			return ErrDeviceNotFound
		}

		if _, err := q.ExecContext(ctx, "DELETE FROM interfaces WHERE device_id = ?", deviceID); err != nil {
			return fmt.Errorf("deleting old interfaces: %w", err)
		}
		if err := insertInterfaces(ctx, q, deviceID, interfaces); err != nil {
			return err
		}

		_, err := q.ExecContext(ctx, "UPDATE devices SET updated_at = ? WHERE id = ?", time.Now(), deviceID)
		return err
	})
}

// Helper functions

func (ss *SQLiteStorage) queryDevices(ctx context.Context, query string, args ...any) ([]model.Device, error) {
	rows, err := ss.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying devices: %w", err)
	}
	defer rows.Close()

	var devices []model.Device
	for rows.Next() {
		var d model.Device
		if err := rows.Scan(&d.ID, &d.Name, &d.Status, &d.Description, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning device: %w", err)
		}
		devices = append(devices, d)
	}

	return devices, rows.Err()
}

func (ss *SQLiteStorage) loadDeviceRelations(ctx context.Context, device *model.Device) error {
	if err := ss.loadDeviceTags(ctx, device); err != nil {
		return err
	}
	return ss.loadDeviceInterfaces(ctx, device)
}

func (ss *SQLiteStorage) loadDeviceTags(ctx context.Context, device *model.Device) error {
	rows, err := ss.q.QueryContext(ctx, `
		SELECT t.slug
		FROM device_tags dt
		INNER JOIN tags t ON t.id = dt.tag_id
		WHERE dt.device_id = ?
		ORDER BY t.slug
	`, device.ID)
	if err != nil {
		return fmt.Errorf("querying tags: %w", err)
	}
	defer rows.Close()

	tags := []string{}
	for rows.Next() {
		var slug string
		if err := rows.Scan(&slug); err != nil {
			return err
		}
		tags = append(tags, slug)
	}

	device.Tags = tags
	return rows.Err()
}

// loadDeviceInterfaces keeps insertion order for interfaces and addresses
func (ss *SQLiteStorage) loadDeviceInterfaces(ctx context.Context, device *model.Device) error {
	rows, err := ss.q.QueryContext(ctx, "SELECT id, name FROM interfaces WHERE device_id = ? ORDER BY rowid", device.ID)
	if err != nil {
		return fmt.Errorf("querying interfaces: %w", err)
	}

	interfaces := []model.Interface{}
	for rows.Next() {
		var iface model.Interface
		if err := rows.Scan(&iface.ID, &iface.Name); err != nil {
			rows.Close()
			return err
		}
		interfaces = append(interfaces, iface)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for i := range interfaces {
		addrs, err := ss.loadInterfaceAddresses(ctx, interfaces[i].ID)
		if err != nil {
			return err
		}
		interfaces[i].Addresses = addrs
	}

	device.Interfaces = interfaces
	return nil
}

func (ss *SQLiteStorage) loadInterfaceAddresses(ctx context.Context, interfaceID string) ([]model.IPAddress, error) {
	rows, err := ss.q.QueryContext(ctx, "SELECT id, address, status FROM ip_addresses WHERE interface_id = ? ORDER BY rowid", interfaceID)
	if err != nil {
		return nil, fmt.Errorf("querying addresses: %w", err)
	}
	defer rows.Close()

	addrs := []model.IPAddress{}
	for rows.Next() {
		var a model.IPAddress
		if err := rows.Scan(&a.ID, &a.Address, &a.Status); err != nil {
			return nil, err
		}
		addrs = append(addrs, a)
	}
	return addrs, rows.Err()
}

// insertInterfaces assigns missing IDs in place so callers see them
func insertInterfaces(ctx context.Context, q querier, deviceID string, interfaces []model.Interface) error {
	for i := range interfaces {
		iface := &interfaces[i]
		if iface.ID == "" {
			iface.ID = newID()
		}
		_, err := q.ExecContext(ctx, `INSERT INTO interfaces (id, device_id, name) VALUES (?, ?, ?)`,
			iface.ID, deviceID, iface.Name)
		if err != nil {
			return mapConstraintError("inserting interface "+iface.Name, err)
		}

		for j := range iface.Addresses {
			addr := &iface.Addresses[j]
			if addr.ID == "" {
				addr.ID = newID()
			}
			if addr.Status == "" {
				addr.Status = model.AddressStatusActive
			}
			_, err := q.ExecContext(ctx, `INSERT INTO ip_addresses (id, interface_id, address, status) VALUES (?, ?, ?, ?)`,
				addr.ID, iface.ID, addr.Address, addr.Status)
			if err != nil {
				return mapConstraintError("inserting address "+addr.Address, err)
			}
		}
	}
	return nil
}

func insertDeviceTags(ctx context.Context, q querier, deviceID string, slugs []string) error {
	for _, slug := range slugs {
		var tagID string
		err := q.QueryRowContext(ctx, "SELECT id FROM tags WHERE slug = ?", slug).Scan(&tagID)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %s", ErrTagNotFound, slug)
		}
		if err != nil {
			return fmt.Errorf("resolving tag %s: %w", slug, err)
		}

		if _, err := q.ExecContext(ctx, `INSERT OR IGNORE INTO device_tags (device_id, tag_id) VALUES (?, ?)`, deviceID, tagID); err != nil {
			return fmt.Errorf("inserting tag: %w", err)
		}
	}
	return nil
}

func filterByTags(devices []model.Device, tags []string) []model.Device {
	filtered := []model.Device{}

	for _, device := range devices {
		for _, filterTag := range tags {
			if device.HasTag(filterTag) {
				filtered = append(filtered, device)
				break
			}
		}
	}

	return filtered
}

// mapConstraintError turns unique constraint violations into ErrDuplicate
func mapConstraintError(op string, err error) error {
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return fmt.Errorf("%s: %w", op, ErrDuplicate)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// newID generates a time-ordered UUIDv7
func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}
