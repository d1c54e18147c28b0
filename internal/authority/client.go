package authority

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/example/rfsched/internal/rpc"
	"github.com/example/rfsched/internal/schedule"
)

// TimeLayout is the authority's wire format for timestamps, interpreted in
// local wall-clock time.
const TimeLayout = "2006-01-02 15:04:05"

// Function names exposed by the authority.
const (
	fnCreateAccount     = "ACC:create_acc"
	fnLogin             = "ACC:login_acc"
	fnGetDevices        = "ACC:get_dev"
	fnGetReservations   = "ACC:get_res"
	fnReserveDevice     = "ACC:res_dev"
	fnCancelReservation = "ACC:cancel_res"
	fnGetPermissions    = "ACC:get_perms"
)

// ErrMalformedRecord means a response record did not decode: wrong field
// count, unparseable field, or a missing expected key. It is a data-integrity
// failure, distinct from transport failures and authority-reported errors.
var ErrMalformedRecord = errors.New("malformed record")

// Account identifies the acting user. The authority keeps no client session,
// so credentials travel with every call. Scheduling code treats the account
// as read-only shared context.
type Account struct {
	Username string
	Password string
}

// Client wraps the remote procedure channel with the authority's operations.
// It holds no state beyond the channel; every result is decoded fresh.
type Client struct {
	rpc rpc.Caller
	log *zap.Logger
}

func New(caller rpc.Caller, log *zap.Logger) *Client {
	return &Client{rpc: caller, log: log}
}

func (c *Client) creds(acct Account) map[string]string {
	return map[string]string{"un": acct.Username, "pw": acct.Password}
}

// Register creates a new account.
func (c *Client) Register(ctx context.Context, acct Account, email string) error {
	args := c.creds(acct)
	args["email"] = email
	res, err := c.rpc.Call(ctx, fnCreateAccount, args)
	if err != nil {
		return err
	}
	return res.Err()
}

// Login verifies the account's credentials against the authority.
func (c *Client) Login(ctx context.Context, acct Account) error {
	res, err := c.rpc.Call(ctx, fnLogin, c.creds(acct))
	if err != nil {
		return err
	}
	return res.Err()
}

// Devices fetches the current device catalog, sorted ascending by id.
// Catalog records are keyed by device id with the device name as value.
func (c *Client) Devices(ctx context.Context, acct Account) ([]schedule.Device, error) {
	res, err := c.rpc.Call(ctx, fnGetDevices, c.creds(acct))
	if err != nil {
		return nil, err
	}
	if err := res.Err(); err != nil {
		return nil, err
	}
	records := res.Records()
	devices := make([]schedule.Device, 0, len(records))
	for key, name := range records {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: device id %q", ErrMalformedRecord, key)
		}
		devices = append(devices, schedule.Device{ID: id, Name: name})
	}
	sort.Slice(devices, func(i, j int) bool { return devices[i].ID < devices[j].ID })
	c.log.Debug("fetched device catalog", zap.Int("devices", len(devices)))
	return devices, nil
}

// Reservations fetches the full reservation snapshot visible to the account.
// Records are keyed by the authority's internal reservation key; the returned
// slice is sorted by that key so identical snapshots decode identically.
func (c *Client) Reservations(ctx context.Context, acct Account) ([]schedule.Reservation, error) {
	res, err := c.rpc.Call(ctx, fnGetReservations, c.creds(acct))
	if err != nil {
		return nil, err
	}
	if err := res.Err(); err != nil {
		return nil, err
	}
	records := res.Records()
	keys := make([]string, 0, len(records))
	for key := range records {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	reservations := make([]schedule.Reservation, 0, len(keys))
	for _, key := range keys {
		r, err := decodeReservation(key, records[key])
		if err != nil {
			return nil, err
		}
		reservations = append(reservations, r)
	}
	c.log.Debug("fetched reservation snapshot", zap.Int("reservations", len(reservations)))
	return reservations, nil
}

// decodeReservation splits one comma-joined record into its four fields:
// owner, device id, start, end. Any other field count fails outright rather
// than truncating.
func decodeReservation(key, record string) (schedule.Reservation, error) {
	parts := strings.Split(record, ",")
	if len(parts) != 4 {
		return schedule.Reservation{}, fmt.Errorf("%w: want 4 fields, got %d", ErrMalformedRecord, len(parts))
	}
	deviceID, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return schedule.Reservation{}, fmt.Errorf("%w: device id %q", ErrMalformedRecord, parts[1])
	}
	start, err := time.ParseInLocation(TimeLayout, parts[2], time.Local)
	if err != nil {
		return schedule.Reservation{}, fmt.Errorf("%w: start time %q", ErrMalformedRecord, parts[2])
	}
	end, err := time.ParseInLocation(TimeLayout, parts[3], time.Local)
	if err != nil {
		return schedule.Reservation{}, fmt.Errorf("%w: end time %q", ErrMalformedRecord, parts[3])
	}
	return schedule.Reservation{
		Owner:       parts[0],
		DeviceID:    deviceID,
		Start:       start,
		End:         end,
		InternalKey: key,
	}, nil
}

// Reserve requests an exclusive hold on a device for [start, end) and returns
// the one-time access token. The token is not retained server side; losing it
// is unrecoverable. An authority-reported conflict comes back as an error,
// never inferred. The call is not retried: a lost response could mean the
// reservation was actually created.
func (c *Client) Reserve(ctx context.Context, acct Account, deviceID int64, start, end time.Time) (string, error) {
	if !start.Before(end) {
		return "", fmt.Errorf("%w: start %s is not before end %s",
			schedule.ErrInvalidRange, start.Format(TimeLayout), end.Format(TimeLayout))
	}
	args := c.creds(acct)
	args["id"] = strconv.FormatInt(deviceID, 10)
	args["start"] = start.Format(TimeLayout)
	args["end"] = end.Format(TimeLayout)

	res, err := c.rpc.Call(ctx, fnReserveDevice, args)
	if err != nil {
		return "", err
	}
	if err := res.Err(); err != nil {
		return "", err
	}
	token, ok := res.Ack()
	if !ok || token == "" {
		return "", fmt.Errorf("%w: reservation response carried no token", ErrMalformedRecord)
	}
	return token, nil
}

// Cancel revokes the reservation behind the authority's internal key,
// resolved by the caller through a cancellation index built in the same
// interaction. Success requires the confirmation marker; both outcomes are
// terminal.
func (c *Client) Cancel(ctx context.Context, acct Account, internalKey string) error {
	args := c.creds(acct)
	args["res_id"] = internalKey
	res, err := c.rpc.Call(ctx, fnCancelReservation, args)
	if err != nil {
		return err
	}
	if err := res.Err(); err != nil {
		return err
	}
	if !res.Acked() {
		return fmt.Errorf("%w: cancellation was not confirmed", ErrMalformedRecord)
	}
	return nil
}

// Permissions describes the account's reservation limits as reported by the
// authority.
type Permissions struct {
	Level   string
	Details string
}

// Permissions fetches the account's permission level.
func (c *Client) Permissions(ctx context.Context, acct Account) (Permissions, error) {
	res, err := c.rpc.Call(ctx, fnGetPermissions, c.creds(acct))
	if err != nil {
		return Permissions{}, err
	}
	if err := res.Err(); err != nil {
		return Permissions{}, err
	}
	level, ok := res.Ack()
	if !ok {
		return Permissions{}, fmt.Errorf("%w: permissions response carried no level", ErrMalformedRecord)
	}
	return Permissions{Level: level, Details: res["details"]}, nil
}
