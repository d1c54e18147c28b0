package console

import (
	"bufio"
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/example/rfsched/internal/authority"
	"github.com/example/rfsched/internal/schedule"
)

type fakeAuthority struct {
	devices  []schedule.Device
	snapshot []schedule.Reservation

	reserveToken  string
	reserveErr    error
	reservedDev   int64
	reservedStart time.Time
	reservedEnd   time.Time

	canceledKey string
	cancelErr   error

	loginErr    error
	registerErr error
}

func (f *fakeAuthority) Register(ctx context.Context, acct authority.Account, email string) error {
	return f.registerErr
}

func (f *fakeAuthority) Login(ctx context.Context, acct authority.Account) error {
	return f.loginErr
}

func (f *fakeAuthority) Devices(ctx context.Context, acct authority.Account) ([]schedule.Device, error) {
	return f.devices, nil
}

func (f *fakeAuthority) Reservations(ctx context.Context, acct authority.Account) ([]schedule.Reservation, error) {
	return f.snapshot, nil
}

func (f *fakeAuthority) Reserve(ctx context.Context, acct authority.Account, deviceID int64, start, end time.Time) (string, error) {
	f.reservedDev = deviceID
	f.reservedStart = start
	f.reservedEnd = end
	return f.reserveToken, f.reserveErr
}

func (f *fakeAuthority) Cancel(ctx context.Context, acct authority.Account, internalKey string) error {
	f.canceledKey = internalKey
	return f.cancelErr
}

func (f *fakeAuthority) Permissions(ctx context.Context, acct authority.Account) (authority.Permissions, error) {
	return authority.Permissions{Level: "Normal User"}, nil
}

func testDate() time.Time {
	return time.Date(2025, time.March, 10, 0, 0, 0, 0, time.Local)
}

func newTestConsole(auth Authority, input string, now time.Time) (*Console, *bytes.Buffer) {
	out := &bytes.Buffer{}
	c := New(auth, 2, zap.NewNop())
	c.in = bufio.NewReader(strings.NewReader(input))
	c.out = out
	c.clock = clockwork.NewFakeClockAt(now)
	c.readPassword = func(prompt string) (string, error) { return c.readLine(prompt) }
	c.acct = authority.Account{Username: "alice", Password: "pw"}
	return c, out
}

func TestCancelInteractive(t *testing.T) {
	date := testDate()
	auth := &fakeAuthority{
		snapshot: []schedule.Reservation{
			{Owner: "alice", DeviceID: 2, Start: date.Add(9 * time.Hour), End: date.Add(10 * time.Hour), InternalKey: "k-b"},
			{Owner: "bob", DeviceID: 1, Start: date.Add(9 * time.Hour), End: date.Add(10 * time.Hour), InternalKey: "k-x"},
			{Owner: "alice", DeviceID: 1, Start: date.Add(14 * time.Hour), End: date.Add(15 * time.Hour), InternalKey: "k-a"},
		},
	}
	c, out := newTestConsole(auth, "0\ny\n", date)

	require.NoError(t, c.CancelInteractive(context.Background()))
	// id 0 is device 1 (lowest device id), alice's only entry on it.
	assert.Equal(t, "k-a", auth.canceledKey)
	assert.Contains(t, out.String(), "Reservation canceled.")
	assert.NotContains(t, out.String(), "k-a", "internal keys are never shown")
}

func TestCancelInteractive_StaleID(t *testing.T) {
	date := testDate()
	auth := &fakeAuthority{
		snapshot: []schedule.Reservation{
			{Owner: "alice", DeviceID: 1, Start: date.Add(9 * time.Hour), End: date.Add(10 * time.Hour), InternalKey: "k-a"},
		},
	}
	c, _ := newTestConsole(auth, "7\n", date)

	err := c.CancelInteractive(context.Background())
	assert.ErrorIs(t, err, schedule.ErrStaleIndex)
	assert.Empty(t, auth.canceledKey)
}

func TestCancelInteractive_NonNumericAborts(t *testing.T) {
	date := testDate()
	auth := &fakeAuthority{
		snapshot: []schedule.Reservation{
			{Owner: "alice", DeviceID: 1, Start: date.Add(9 * time.Hour), End: date.Add(10 * time.Hour), InternalKey: "k-a"},
		},
	}
	c, out := newTestConsole(auth, "nope\n", date)

	require.NoError(t, c.CancelInteractive(context.Background()))
	assert.Empty(t, auth.canceledKey)
	assert.Contains(t, out.String(), "Aborted.")
}

func TestCancelInteractive_DeclinedConfirmation(t *testing.T) {
	date := testDate()
	auth := &fakeAuthority{
		snapshot: []schedule.Reservation{
			{Owner: "alice", DeviceID: 1, Start: date.Add(9 * time.Hour), End: date.Add(10 * time.Hour), InternalKey: "k-a"},
		},
	}
	c, out := newTestConsole(auth, "0\nn\n", date)

	require.NoError(t, c.CancelInteractive(context.Background()))
	assert.Empty(t, auth.canceledKey)
	assert.Contains(t, out.String(), "Aborted.")
}

func TestBookInteractive(t *testing.T) {
	date := testDate()
	auth := &fakeAuthority{
		devices: []schedule.Device{{ID: 1, Name: "sdr-a"}, {ID: 2, Name: "sdr-b"}},
		snapshot: []schedule.Reservation{
			{Owner: "bob", DeviceID: 1, Start: date.Add(8 * time.Hour), End: date.Add(9 * time.Hour), InternalKey: "k-x"},
		},
		reserveToken: "token-xyz",
	}
	// Clock at 08:00: first free slot is [08:00,09:00), where only device 2 is free.
	c, out := newTestConsole(auth, "1\n", date.Add(8*time.Hour))

	require.NoError(t, c.BookInteractive(context.Background(), date, 0, 24))

	assert.Equal(t, int64(2), auth.reservedDev)
	assert.True(t, auth.reservedStart.Equal(date.Add(8*time.Hour)))
	assert.True(t, auth.reservedEnd.Equal(date.Add(9*time.Hour)))
	assert.Contains(t, out.String(), "token-xyz")
	assert.Contains(t, out.String(), "WARNING")
}

func TestBookInteractive_SelectionOutOfRange(t *testing.T) {
	date := testDate()
	auth := &fakeAuthority{devices: []schedule.Device{{ID: 1}}}
	c, _ := newTestConsole(auth, "99\n", date)

	err := c.BookInteractive(context.Background(), date, 0, 24)
	assert.ErrorIs(t, err, schedule.ErrSelectionOutOfRange)
	assert.Zero(t, auth.reservedDev, "no reservation submitted for a rejected selection")
}

func TestBookInteractive_NoFreeSlots(t *testing.T) {
	date := testDate()
	// Clock already past the whole range.
	auth := &fakeAuthority{devices: []schedule.Device{{ID: 1}}}
	c, out := newTestConsole(auth, "", date.Add(13*time.Hour))

	require.NoError(t, c.BookInteractive(context.Background(), date, 9, 12))
	assert.Contains(t, out.String(), "No available time slots")
}

func TestListReservations_MineOnly(t *testing.T) {
	date := testDate()
	auth := &fakeAuthority{
		snapshot: []schedule.Reservation{
			{Owner: "alice", DeviceID: 2, Start: date.Add(9 * time.Hour), End: date.Add(10 * time.Hour)},
			{Owner: "bob", DeviceID: 1, Start: date.Add(9 * time.Hour), End: date.Add(10 * time.Hour)},
		},
	}
	c, out := newTestConsole(auth, "", date)

	require.NoError(t, c.ListReservations(context.Background(), true))
	assert.Contains(t, out.String(), "alice")
	assert.NotContains(t, out.String(), "bob")
}

func TestRun_FailedCommandKeepsSessionAlive(t *testing.T) {
	date := testDate()
	auth := &fakeAuthority{
		snapshot: []schedule.Reservation{
			{Owner: "alice", DeviceID: 1, Start: date.Add(9 * time.Hour), End: date.Add(10 * time.Hour), InternalKey: "k-a"},
		},
	}
	// Stale cancellation id fails the command; the loop must continue to the
	// next command and exit cleanly.
	c, out := newTestConsole(auth, "cancelres\n9\ngetdev\nexit\n", date)

	require.NoError(t, c.Run(context.Background()))
	assert.Contains(t, out.String(), "Error:")
	assert.Contains(t, out.String(), "No devices found.")
}

func TestAuthenticate_Login(t *testing.T) {
	auth := &fakeAuthority{}
	c, _ := newTestConsole(auth, "l\ncarol\npw2\n", testDate())
	c.acct = authority.Account{}

	require.NoError(t, c.Authenticate(context.Background()))
	assert.Equal(t, "carol", c.Account().Username)
}

func TestAuthenticate_RegisterPasswordMismatch(t *testing.T) {
	auth := &fakeAuthority{}
	// First attempt mismatches, second succeeds.
	input := "r\ncarol\npw\nother\nr\ncarol\npw\npw\ncarol@example.com\n"
	c, out := newTestConsole(auth, input, testDate())
	c.acct = authority.Account{}

	require.NoError(t, c.Authenticate(context.Background()))
	assert.Contains(t, out.String(), "Passwords do not match")
	assert.Equal(t, "carol", c.Account().Username)
}

func TestParseHelpers(t *testing.T) {
	_, err := ParseDate("2025-03-10")
	assert.NoError(t, err)
	_, err = ParseDate("March 10")
	assert.ErrorIs(t, err, schedule.ErrInvalidInput)

	ts, err := ParseTimestamp("2025-03-10 09:30")
	require.NoError(t, err)
	assert.Equal(t, 30, ts.Minute())
	_, err = ParseTimestamp("09:30")
	assert.ErrorIs(t, err, schedule.ErrInvalidInput)

	id, err := ParseDeviceID(" 42 ")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
	_, err = ParseDeviceID("forty-two")
	assert.ErrorIs(t, err, schedule.ErrInvalidInput)
}
