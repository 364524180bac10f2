package remo

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// User is a Nature Remo account attached to a device.
type User struct {
	ID        string `json:"id"`
	Nickname  string `json:"nickname"`
	Superuser bool   `json:"superuser"`
}

// LatestEventValue is the newest sample of a single channel.
type LatestEventValue struct {
	CreatedAt string  `json:"created_at"`
	Val       float64 `json:"val"`
}

// Timestamp returns CreatedAt as a UTC instant.
func (v LatestEventValue) Timestamp() (time.Time, error) {
	t, err := time.Parse(time.RFC3339, v.CreatedAt)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// DeviceRecord is the state of one device as reported by the Remo cloud.
// Records are built by NewDeviceRecord or ParseDeviceRecord and must not be
// modified afterwards; the reading accessors rely on that.
type DeviceRecord struct {
	ID              string `json:"id"`
	SerialNumber    string `json:"serial_number"`
	FirmwareVersion string `json:"firmware_version"`
	Name            string `json:"name"`
	BTMACAddress    string `json:"bt_mac_address"`
	MACAddress      string `json:"mac_address"`
	CreatedAt       string `json:"created_at"`
	UpdatedAt       string `json:"updated_at"`

	TemperatureOffset float64 `json:"temperature_offset"`
	HumidityOffset    float64 `json:"humidity_offset"`

	// Users is nil when the payload omitted it or sent null, and an empty
	// slice when it sent [].
	Users []User `json:"users"`

	NewestEvents map[Channel]LatestEventValue `json:"newest_events"`

	Online bool `json:"online"`
}

// HasUsers reports whether the payload carried a non-null users list.
func (d *DeviceRecord) HasUsers() bool {
	return d.Users != nil
}

type userPayload struct {
	ID        *string  `json:"id" validate:"required"`
	Nickname  *string  `json:"nickname" validate:"required"`
	Superuser *laxBool `json:"superuser" validate:"required"`
}

type eventPayload struct {
	CreatedAt *string   `json:"created_at" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	Val       *laxFloat `json:"val" validate:"required"`
}

// devicePayload keeps users and events undecoded so that every element is
// decoded on its own and errors can name the offending key or index.
type devicePayload struct {
	ID              *string `json:"id" validate:"required"`
	SerialNumber    *string `json:"serial_number" validate:"required"`
	FirmwareVersion *string `json:"firmware_version" validate:"required"`
	Name            *string `json:"name" validate:"required"`
	BTMACAddress    *string `json:"bt_mac_address" validate:"required"`
	MACAddress      *string `json:"mac_address" validate:"required"`
	CreatedAt       *string `json:"created_at" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	UpdatedAt       *string `json:"updated_at" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`

	TemperatureOffset *laxFloat `json:"temperature_offset" validate:"required"`
	HumidityOffset    *laxFloat `json:"humidity_offset" validate:"required"`

	Users        []json.RawMessage          `json:"users"`
	NewestEvents map[string]json.RawMessage `json:"newest_events" validate:"required"`

	Online *laxBool `json:"online" validate:"required"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// NewDeviceRecord validates an untyped payload, typically a decoded JSON
// object, and returns the typed record. Unknown keys are ignored.
func NewDeviceRecord(raw map[string]any) (*DeviceRecord, error) {
	if raw == nil {
		return nil, &SchemaValidationError{Field: rootField, Expected: "object", Reason: "missing"}
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, &SchemaValidationError{Field: rootField, Expected: "object", Reason: err.Error()}
	}
	return ParseDeviceRecord(data)
}

// ParseDeviceRecord validates a JSON document and returns the typed record.
// Either the whole record is valid or a *SchemaValidationError is returned.
//
// Numbers and booleans are also accepted in their string form ("18.7",
// "true"); strings are never converted from other types.
func ParseDeviceRecord(data []byte) (*DeviceRecord, error) {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil, &SchemaValidationError{Field: rootField, Expected: "object", Reason: "missing"}
	}
	var p devicePayload
	if err := decode(data, &p, ""); err != nil {
		return nil, err
	}

	d := &DeviceRecord{
		ID:                *p.ID,
		SerialNumber:      *p.SerialNumber,
		FirmwareVersion:   *p.FirmwareVersion,
		Name:              *p.Name,
		BTMACAddress:      *p.BTMACAddress,
		MACAddress:        *p.MACAddress,
		CreatedAt:         *p.CreatedAt,
		UpdatedAt:         *p.UpdatedAt,
		TemperatureOffset: float64(*p.TemperatureOffset),
		HumidityOffset:    float64(*p.HumidityOffset),
		NewestEvents:      make(map[Channel]LatestEventValue, len(p.NewestEvents)),
		Online:            bool(*p.Online),
	}

	if p.Users != nil {
		d.Users = make([]User, len(p.Users))
		for i, raw := range p.Users {
			var u userPayload
			if err := decode(raw, &u, fmt.Sprintf("users[%d]", i)); err != nil {
				return nil, err
			}
			d.Users[i] = User{ID: *u.ID, Nickname: *u.Nickname, Superuser: bool(*u.Superuser)}
		}
	}

	// sorted so the reported error does not depend on map order
	keys := make([]string, 0, len(p.NewestEvents))
	for k := range p.NewestEvents {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		var ev eventPayload
		if err := decode(p.NewestEvents[k], &ev, fmt.Sprintf("newest_events[%s]", k)); err != nil {
			return nil, err
		}
		d.NewestEvents[Channel(k)] = LatestEventValue{CreatedAt: *ev.CreatedAt, Val: float64(*ev.Val)}
	}

	return d, nil
}

// ParseDevices validates a JSON array of device records, the shape returned
// by GET /1/devices. A single invalid element fails the whole array.
func ParseDevices(data []byte) ([]*DeviceRecord, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, decodeError(err, "array")
	}
	devices := make([]*DeviceRecord, 0, len(raw))
	for i, r := range raw {
		d, err := ParseDeviceRecord(r)
		if err != nil {
			var sErr *SchemaValidationError
			if errors.As(err, &sErr) {
				sErr.Field = prefixField(fmt.Sprintf("[%d]", i), sErr.Field)
			}
			return nil, err
		}
		devices = append(devices, d)
	}
	return devices, nil
}

const rootField = "(root)"

// decode unmarshals and validates one JSON object into v. Error fields are
// reported below prefix.
func decode(data []byte, v any, prefix string) error {
	if err := json.Unmarshal(data, v); err != nil {
		e := decodeError(err, "object")
		e.Field = prefixField(prefix, e.Field)
		return e
	}
	if err := validate.Struct(v); err != nil {
		e := fieldError(err)
		e.Field = prefixField(prefix, e.Field)
		return e
	}
	return nil
}

func decodeError(err error, expected string) *SchemaValidationError {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		field := typeErr.Field
		if field == "" {
			field = rootField
		}
		return &SchemaValidationError{
			Field:    field,
			Expected: jsonType(typeErr.Type),
			Reason:   "wrong type " + typeErr.Value,
		}
	}
	return &SchemaValidationError{Field: rootField, Expected: expected, Reason: "malformed JSON: " + err.Error()}
}

func fieldError(err error) *SchemaValidationError {
	var vErrs validator.ValidationErrors
	if !errors.As(err, &vErrs) || len(vErrs) == 0 {
		return &SchemaValidationError{Field: rootField, Expected: "object", Reason: err.Error()}
	}
	fe := vErrs[0]

	field := fe.Namespace()
	if i := strings.IndexByte(field, '.'); i >= 0 {
		field = field[i+1:]
	}

	reason := "missing"
	if fe.Tag() == "datetime" {
		reason = fmt.Sprintf("invalid timestamp %v", fe.Value())
	}
	return &SchemaValidationError{Field: field, Expected: jsonType(fe.Type()), Reason: reason}
}

func jsonType(t reflect.Type) string {
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == nil {
		return "value"
	}
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Bool:
		return "boolean"
	case reflect.Float32, reflect.Float64,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "number"
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.Map, reflect.Struct:
		return "object"
	}
	return t.String()
}

func prefixField(prefix, field string) string {
	switch {
	case prefix == "":
		return field
	case field == rootField:
		return prefix
	case strings.HasPrefix(field, "["):
		return prefix + field
	}
	return prefix + "." + field
}
