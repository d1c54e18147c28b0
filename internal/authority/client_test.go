package authority

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/example/rfsched/internal/rpc"
	"github.com/example/rfsched/internal/schedule"
)

type fakeCaller struct {
	fn   string
	args map[string]string
	res  rpc.Response
	err  error
}

func (f *fakeCaller) Call(ctx context.Context, fn string, args map[string]string) (rpc.Response, error) {
	f.fn = fn
	f.args = args
	return f.res, f.err
}

func newTestClient(res rpc.Response, err error) (*Client, *fakeCaller) {
	caller := &fakeCaller{res: res, err: err}
	return New(caller, zap.NewNop()), caller
}

var acct = Account{Username: "alice", Password: "secret"}

func TestDevices(t *testing.T) {
	c, caller := newTestClient(rpc.Response{"2": "sdr-b", "10": "sdr-c", "1": "sdr-a"}, nil)

	devices, err := c.Devices(context.Background(), acct)
	require.NoError(t, err)

	assert.Equal(t, "ACC:get_dev", caller.fn)
	assert.Equal(t, map[string]string{"un": "alice", "pw": "secret"}, caller.args)
	require.Equal(t, []schedule.Device{
		{ID: 1, Name: "sdr-a"},
		{ID: 2, Name: "sdr-b"},
		{ID: 10, Name: "sdr-c"},
	}, devices)
}

func TestDevices_MalformedID(t *testing.T) {
	c, _ := newTestClient(rpc.Response{"not-a-number": "sdr-a"}, nil)
	_, err := c.Devices(context.Background(), acct)
	assert.ErrorIs(t, err, ErrMalformedRecord)
}

func TestDevices_AuthorityError(t *testing.T) {
	c, _ := newTestClient(rpc.Response{"ace": "permission denied"}, nil)
	_, err := c.Devices(context.Background(), acct)

	var authErr *rpc.AuthorityError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "permission denied", authErr.Message)
}

func TestReservations(t *testing.T) {
	c, caller := newTestClient(rpc.Response{
		"r-2": "bob,3,2025-03-10 09:00:00,2025-03-10 10:00:00",
		"r-1": "alice,1,2025-03-10 14:00:00,2025-03-10 16:00:00",
	}, nil)

	got, err := c.Reservations(context.Background(), acct)
	require.NoError(t, err)
	assert.Equal(t, "ACC:get_res", caller.fn)

	require.Len(t, got, 2)
	// Sorted by internal key for a deterministic snapshot order.
	assert.Equal(t, "r-1", got[0].InternalKey)
	assert.Equal(t, "alice", got[0].Owner)
	assert.Equal(t, int64(1), got[0].DeviceID)
	assert.Equal(t, time.Date(2025, time.March, 10, 14, 0, 0, 0, time.Local), got[0].Start)
	assert.Equal(t, time.Date(2025, time.March, 10, 16, 0, 0, 0, time.Local), got[0].End)
	assert.Equal(t, "r-2", got[1].InternalKey)
}

func TestReservations_MalformedRecords(t *testing.T) {
	for _, tc := range []struct {
		name   string
		record string
	}{
		{"too few fields", "bob,3,2025-03-10 09:00:00"},
		{"too many fields", "bob,3,2025-03-10 09:00:00,2025-03-10 10:00:00,extra"},
		{"bad device id", "bob,three,2025-03-10 09:00:00,2025-03-10 10:00:00"},
		{"bad start", "bob,3,yesterday,2025-03-10 10:00:00"},
		{"bad end", "bob,3,2025-03-10 09:00:00,tomorrow"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			c, _ := newTestClient(rpc.Response{"r-1": tc.record}, nil)
			_, err := c.Reservations(context.Background(), acct)
			assert.ErrorIs(t, err, ErrMalformedRecord)
		})
	}
}

func TestReserve(t *testing.T) {
	c, caller := newTestClient(rpc.Response{"UC": "token-123"}, nil)

	start := time.Date(2025, time.March, 10, 9, 0, 0, 0, time.Local)
	token, err := c.Reserve(context.Background(), acct, 3, start, start.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, "token-123", token)

	assert.Equal(t, "ACC:res_dev", caller.fn)
	assert.Equal(t, "3", caller.args["id"])
	assert.Equal(t, "2025-03-10 09:00:00", caller.args["start"])
	assert.Equal(t, "2025-03-10 10:00:00", caller.args["end"])
}

func TestReserve_RejectsInvertedInterval(t *testing.T) {
	c, caller := newTestClient(rpc.Response{}, nil)

	start := time.Date(2025, time.March, 10, 9, 0, 0, 0, time.Local)
	_, err := c.Reserve(context.Background(), acct, 3, start, start)
	assert.ErrorIs(t, err, schedule.ErrInvalidRange)
	assert.Empty(t, caller.fn, "no network call for invalid input")
}

func TestReserve_AuthorityConflict(t *testing.T) {
	c, _ := newTestClient(rpc.Response{"ace": "device 3 is already reserved in that window"}, nil)

	start := time.Date(2025, time.March, 10, 9, 0, 0, 0, time.Local)
	token, err := c.Reserve(context.Background(), acct, 3, start, start.Add(time.Hour))
	assert.Empty(t, token)

	var authErr *rpc.AuthorityError
	require.ErrorAs(t, err, &authErr)
	assert.Contains(t, authErr.Message, "already reserved")
}

func TestReserve_MissingToken(t *testing.T) {
	c, _ := newTestClient(rpc.Response{}, nil)

	start := time.Date(2025, time.March, 10, 9, 0, 0, 0, time.Local)
	_, err := c.Reserve(context.Background(), acct, 3, start, start.Add(time.Hour))
	assert.ErrorIs(t, err, ErrMalformedRecord)
}

func TestReserve_TransportError(t *testing.T) {
	c, _ := newTestClient(nil, rpc.ErrTransport)

	start := time.Date(2025, time.March, 10, 9, 0, 0, 0, time.Local)
	_, err := c.Reserve(context.Background(), acct, 3, start, start.Add(time.Hour))
	assert.ErrorIs(t, err, rpc.ErrTransport)
}

func TestCancel(t *testing.T) {
	c, caller := newTestClient(rpc.Response{"UC": "ok"}, nil)

	err := c.Cancel(context.Background(), acct, "r-42")
	require.NoError(t, err)
	assert.Equal(t, "ACC:cancel_res", caller.fn)
	assert.Equal(t, "r-42", caller.args["res_id"])
}

func TestCancel_NotConfirmed(t *testing.T) {
	c, _ := newTestClient(rpc.Response{}, nil)
	err := c.Cancel(context.Background(), acct, "r-42")
	assert.ErrorIs(t, err, ErrMalformedRecord)
}

func TestCancel_AuthorityError(t *testing.T) {
	c, _ := newTestClient(rpc.Response{"ace": "no such reservation"}, nil)
	err := c.Cancel(context.Background(), acct, "r-42")

	var authErr *rpc.AuthorityError
	assert.ErrorAs(t, err, &authErr)
}

func TestLogin(t *testing.T) {
	c, caller := newTestClient(rpc.Response{"UC": "welcome"}, nil)
	require.NoError(t, c.Login(context.Background(), acct))
	assert.Equal(t, "ACC:login_acc", caller.fn)

	c, _ = newTestClient(rpc.Response{"ace": "invalid credentials"}, nil)
	err := c.Login(context.Background(), acct)
	var authErr *rpc.AuthorityError
	assert.ErrorAs(t, err, &authErr)
}

func TestRegister(t *testing.T) {
	c, caller := newTestClient(rpc.Response{"UC": "created"}, nil)
	require.NoError(t, c.Register(context.Background(), acct, "alice@example.com"))
	assert.Equal(t, "ACC:create_acc", caller.fn)
	assert.Equal(t, "alice@example.com", caller.args["email"])
}

func TestPermissions(t *testing.T) {
	c, _ := newTestClient(rpc.Response{"UC": "Power User", "details": "max 3 reservations"}, nil)
	perms, err := c.Permissions(context.Background(), acct)
	require.NoError(t, err)
	assert.Equal(t, "Power User", perms.Level)
	assert.Equal(t, "max 3 reservations", perms.Details)

	c, _ = newTestClient(rpc.Response{}, nil)
	_, err = c.Permissions(context.Background(), acct)
	assert.ErrorIs(t, err, ErrMalformedRecord)
}

func TestErrorsAreDistinct(t *testing.T) {
	assert.False(t, errors.Is(rpc.ErrTransport, ErrMalformedRecord))
}
