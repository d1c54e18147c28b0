// Package console implements the interactive control loop. One user command
// runs at a time; a failed command reports one message and never terminates
// the session.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/example/rfsched/internal/authority"
	"github.com/example/rfsched/internal/schedule"
)

// Authority is the subset of the authority client the console drives.
type Authority interface {
	Register(ctx context.Context, acct authority.Account, email string) error
	Login(ctx context.Context, acct authority.Account) error
	Devices(ctx context.Context, acct authority.Account) ([]schedule.Device, error)
	Reservations(ctx context.Context, acct authority.Account) ([]schedule.Reservation, error)
	Reserve(ctx context.Context, acct authority.Account, deviceID int64, start, end time.Time) (string, error)
	Cancel(ctx context.Context, acct authority.Account, internalKey string) error
	Permissions(ctx context.Context, acct authority.Account) (authority.Permissions, error)
}

// PromptLayout is the timestamp format users type, minute granularity.
const PromptLayout = "2006-01-02 15:04"

// DateLayout is the calendar-date format users type.
const DateLayout = "2006-01-02"

type Console struct {
	auth       Authority
	clock      clockwork.Clock
	log        *zap.Logger
	in         *bufio.Reader
	out        io.Writer
	acct       authority.Account
	maxWorkers int

	// Overridable for tests and non-terminal stdin.
	readPassword func(prompt string) (string, error)
}

func New(auth Authority, maxWorkers int, log *zap.Logger) *Console {
	c := &Console{
		auth:       auth,
		clock:      clockwork.NewRealClock(),
		log:        log,
		in:         bufio.NewReader(os.Stdin),
		out:        os.Stdout,
		maxWorkers: maxWorkers,
	}
	c.readPassword = c.promptPassword
	return c
}

// SetAccount installs pre-authenticated credentials, skipping the login flow.
func (c *Console) SetAccount(acct authority.Account) { c.acct = acct }

// Account returns the acting account.
func (c *Console) Account() authority.Account { return c.acct }

// LoginAs verifies the credentials against the authority and installs them.
func (c *Console) LoginAs(ctx context.Context, acct authority.Account) error {
	if err := c.auth.Login(ctx, acct); err != nil {
		return err
	}
	c.acct = acct
	return nil
}

// Run authenticates and then processes commands until exit or EOF.
func (c *Console) Run(ctx context.Context) error {
	fmt.Fprintln(c.out, "Welcome to the device reservation console.")
	if c.acct.Username == "" {
		if err := c.Authenticate(ctx); err != nil {
			return err
		}
	}
	c.log.Debug("session started", zap.String("user", c.acct.Username))
	fmt.Fprintln(c.out, "Type 'help' for available commands.")
	for {
		fmt.Fprintf(c.out, "%s@rfsched> ", c.acct.Username)
		line, err := c.in.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(c.out)
				return nil
			}
			return err
		}
		cmd := strings.TrimSpace(line)
		switch cmd {
		case "":
			continue
		case "exit", "quit":
			return nil
		}
		if err := c.dispatch(ctx, cmd); err != nil {
			// Recover every failure at the command boundary.
			fmt.Fprintf(c.out, "Error: %v\n", err)
		}
	}
}

func (c *Console) dispatch(ctx context.Context, cmd string) error {
	switch cmd {
	case "help", "h":
		c.help()
		return nil
	case "clear":
		fmt.Fprint(c.out, "\033[H\033[2J")
		return nil
	case "getdev":
		return c.ListDevices(ctx)
	case "getres":
		return c.ListReservations(ctx, false)
	case "myres":
		return c.ListReservations(ctx, true)
	case "resdev":
		return c.bookPrompt(ctx)
	case "reserve":
		return c.reservePrompt(ctx)
	case "cancelres":
		return c.CancelInteractive(ctx)
	case "perms":
		return c.ShowPermissions(ctx)
	default:
		fmt.Fprintf(c.out, "Unknown command: %s\n", cmd)
		return nil
	}
}

func (c *Console) help() {
	fmt.Fprintln(c.out, "Commands:")
	fmt.Fprintln(c.out, "  getdev     - list devices")
	fmt.Fprintln(c.out, "  getres     - list all reservations")
	fmt.Fprintln(c.out, "  myres      - list my reservations")
	fmt.Fprintln(c.out, "  resdev     - reserve via free-slot search")
	fmt.Fprintln(c.out, "  reserve    - reserve an explicit device and time")
	fmt.Fprintln(c.out, "  cancelres  - cancel one of my reservations")
	fmt.Fprintln(c.out, "  perms      - show my permission level")
	fmt.Fprintln(c.out, "  clear      - clear the terminal")
	fmt.Fprintln(c.out, "  help       - show this help")
	fmt.Fprintln(c.out, "  exit       - quit")
}

// Authenticate prompts for login or registration until one succeeds.
func (c *Console) Authenticate(ctx context.Context) error {
	for {
		choice, err := c.readLine("Please login or register to continue (l/r): ")
		if err != nil {
			return err
		}
		var acct authority.Account
		acct.Username, err = c.readLine("Username: ")
		if err != nil {
			return err
		}
		acct.Password, err = c.readPassword("Password (hidden): ")
		if err != nil {
			return err
		}

		if strings.TrimSpace(choice) == "r" {
			confirm, err := c.readPassword("Confirm password: ")
			if err != nil {
				return err
			}
			if confirm != acct.Password {
				fmt.Fprintln(c.out, "Passwords do not match. Try again.")
				continue
			}
			email, err := c.readLine("Email: ")
			if err != nil {
				return err
			}
			if err := c.auth.Register(ctx, acct, email); err != nil {
				fmt.Fprintf(c.out, "Registration failed: %v\n", err)
				continue
			}
		} else if err := c.auth.Login(ctx, acct); err != nil {
			fmt.Fprintf(c.out, "Invalid login: %v\n", err)
			continue
		}

		c.acct = acct
		return nil
	}
}

// ListDevices prints the device catalog.
func (c *Console) ListDevices(ctx context.Context) error {
	devices, err := c.auth.Devices(ctx, c.acct)
	if err != nil {
		return err
	}
	if len(devices) == 0 {
		fmt.Fprintln(c.out, "No devices found.")
		return nil
	}
	fmt.Fprintln(c.out, "Devices:")
	for _, d := range devices {
		fmt.Fprintf(c.out, "  device %d  %s\n", d.ID, d.Name)
	}
	return nil
}

// ListReservations prints the reservation snapshot ordered by device id then
// start time, optionally restricted to the acting account.
func (c *Console) ListReservations(ctx context.Context, mineOnly bool) error {
	snapshot, err := c.auth.Reservations(ctx, c.acct)
	if err != nil {
		return err
	}
	var shown []schedule.Reservation
	for _, r := range snapshot {
		if mineOnly && r.Owner != c.acct.Username {
			continue
		}
		shown = append(shown, r)
	}
	if len(shown) == 0 {
		fmt.Fprintln(c.out, "No reservations found.")
		return nil
	}
	sort.SliceStable(shown, func(i, j int) bool {
		if shown[i].DeviceID != shown[j].DeviceID {
			return shown[i].DeviceID < shown[j].DeviceID
		}
		return shown[i].Start.Before(shown[j].Start)
	})
	if mineOnly {
		fmt.Fprintf(c.out, "Reservations under %s:\n", c.acct.Username)
	} else {
		fmt.Fprintln(c.out, "Reservations:")
	}
	for _, r := range shown {
		fmt.Fprintf(c.out, "  device %d  %s -> %s  (%s)\n",
			r.DeviceID, r.Start.Format(authority.TimeLayout), r.End.Format(authority.TimeLayout), r.Owner)
	}
	return nil
}

// CancelInteractive lists the acting account's reservations with ephemeral
// ids and cancels the chosen one. The ids are valid only for this listing.
func (c *Console) CancelInteractive(ctx context.Context) error {
	snapshot, err := c.auth.Reservations(ctx, c.acct)
	if err != nil {
		return err
	}
	ix := schedule.BuildCancelIndex(snapshot, c.acct.Username)
	if len(ix.Entries) == 0 {
		fmt.Fprintln(c.out, "No reservations found.")
		return nil
	}
	fmt.Fprintf(c.out, "Reservations under %s:\n", c.acct.Username)
	for i, r := range ix.Entries {
		fmt.Fprintf(c.out, "  id %d  device %d  %s -> %s\n",
			i, r.DeviceID, r.Start.Format(authority.TimeLayout), r.End.Format(authority.TimeLayout))
	}

	input, err := c.readLine("Enter the id of the reservation to cancel (anything else aborts): ")
	if err != nil {
		return err
	}
	res, rerr := ix.Resolve(input)
	if rerr != nil {
		if errors.Is(rerr, schedule.ErrInvalidInput) {
			fmt.Fprintln(c.out, "Aborted.")
			return nil
		}
		return rerr
	}

	confirm, err := c.readLine(fmt.Sprintf("Cancel device %d  %s -> %s? (y/n): ",
		res.DeviceID, res.Start.Format(authority.TimeLayout), res.End.Format(authority.TimeLayout)))
	if err != nil {
		return err
	}
	if strings.TrimSpace(confirm) != "y" {
		fmt.Fprintln(c.out, "Aborted.")
		return nil
	}
	if err := c.auth.Cancel(ctx, c.acct, res.InternalKey); err != nil {
		return err
	}
	fmt.Fprintln(c.out, "Reservation canceled.")
	return nil
}

// BookInteractive shows the aggregated free slots for date and reserves the
// chosen one on the smallest free device.
func (c *Console) BookInteractive(ctx context.Context, date time.Time, startHour, endHour int) error {
	devices, err := c.auth.Devices(ctx, c.acct)
	if err != nil {
		return err
	}
	snapshot, err := c.auth.Reservations(ctx, c.acct)
	if err != nil {
		return err
	}
	agg := schedule.Aggregator{Clock: c.clock, MaxWorkers: c.maxWorkers}
	avail, err := agg.Aggregate(ctx, devices, snapshot, date, startHour, endHour)
	if err != nil {
		return err
	}
	if len(avail) == 0 {
		fmt.Fprintln(c.out, "No available time slots for any device on that day.")
		return nil
	}

	fmt.Fprintln(c.out, "Available time slots (aggregated across devices):")
	for i, entry := range avail {
		fmt.Fprintf(c.out, "  %d: %s - %s  (%d device(s) free)\n",
			i+1, entry.Slot.Start.Format("15:04"), entry.Slot.End.Format("15:04"), len(entry.Devices))
	}
	input, err := c.readLine("Select a slot by number: ")
	if err != nil {
		return err
	}
	slot, deviceID, err := schedule.ChooseSlot(avail, input)
	if err != nil {
		return err
	}
	return c.ReserveExplicit(ctx, deviceID, slot.Start, slot.End)
}

// ReserveExplicit submits one reservation and prints the one-time token. The
// availability shown beforehand was advisory; the authority may still report
// a conflict here, and that error is surfaced as is.
func (c *Console) ReserveExplicit(ctx context.Context, deviceID int64, start, end time.Time) error {
	token, err := c.auth.Reserve(ctx, c.acct, deviceID, start, end)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Reservation successful on device %d.\n", deviceID)
	fmt.Fprintf(c.out, "Token: %s\n", token)
	fmt.Fprintln(c.out, "WARNING: store this token now. The authority does not keep it and it cannot be retrieved again.")
	return nil
}

// ShowPermissions prints the account's permission level.
func (c *Console) ShowPermissions(ctx context.Context) error {
	perms, err := c.auth.Permissions(ctx, c.acct)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Permission level: %s\n", perms.Level)
	if perms.Details != "" {
		fmt.Fprintln(c.out, perms.Details)
	}
	return nil
}

func (c *Console) bookPrompt(ctx context.Context) error {
	input, err := c.readLine("Enter the date for reservation (YYYY-MM-DD): ")
	if err != nil {
		return err
	}
	date, err := ParseDate(input)
	if err != nil {
		return err
	}
	return c.BookInteractive(ctx, date, 0, 24)
}

func (c *Console) reservePrompt(ctx context.Context) error {
	idInput, err := c.readLine("Enter the device id to reserve: ")
	if err != nil {
		return err
	}
	deviceID, err := ParseDeviceID(idInput)
	if err != nil {
		return err
	}
	startInput, err := c.readLine("Reserve start time (YYYY-MM-DD HH:MM): ")
	if err != nil {
		return err
	}
	start, err := ParseTimestamp(startInput)
	if err != nil {
		return err
	}
	endInput, err := c.readLine("Reserve end time (YYYY-MM-DD HH:MM): ")
	if err != nil {
		return err
	}
	end, err := ParseTimestamp(endInput)
	if err != nil {
		return err
	}
	return c.ReserveExplicit(ctx, deviceID, start, end)
}

func (c *Console) readLine(prompt string) (string, error) {
	if prompt != "" {
		fmt.Fprint(c.out, prompt)
	}
	line, err := c.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (c *Console) promptPassword(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return c.readLine(prompt)
	}
	fmt.Fprint(c.out, prompt)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(c.out)
	return string(b), err
}
