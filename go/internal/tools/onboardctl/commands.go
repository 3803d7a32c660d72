package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/reckman-cloud/employee-admin-app/go/clients"
	"github.com/reckman-cloud/employee-admin-app/go/internal/api"
	"github.com/reckman-cloud/employee-admin-app/go/internal/drafts"
	"github.com/reckman-cloud/employee-admin-app/go/internal/health"
	"github.com/reckman-cloud/employee-admin-app/go/internal/i18n"
	"github.com/reckman-cloud/employee-admin-app/go/internal/ledger"
	"github.com/reckman-cloud/employee-admin-app/go/internal/models"
	"github.com/reckman-cloud/employee-admin-app/go/internal/submission"
)

type cli struct {
	out        io.Writer
	drafts     *drafts.App
	api        *apiClient
	serverURL  string
	principal  *api.Principal
	translator *i18n.Translator
	httpClient *http.Client
}

type command func(ctx context.Context, args []string) error

func (c *cli) commands() map[string]command {
	return map[string]command{
		"add":      c.add,
		"list":     c.list,
		"rm":       c.remove,
		"clear":    c.clear,
		"export":   c.export,
		"submit":   c.submit,
		"offboard": c.offboard,
		"health":   c.health,
		"ledger":   c.ledger,
	}
}

func (c *cli) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("missing command")
	}
	cmd, ok := c.commands()[args[0]]
	if !ok {
		return fmt.Errorf("unknown command %q", args[0])
	}
	return cmd(ctx, args[1:])
}

func (c *cli) add(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("add", flag.ContinueOnError)
	fs.SetOutput(c.out)
	var req drafts.SaveRequest
	var start string
	var partTime bool
	fs.StringVar(&req.ID, "id", "", "edit the draft with this id")
	fs.StringVar(&req.FirstName, "first", "", "first name")
	fs.StringVar(&req.LastName, "last", "", "last name")
	fs.StringVar(&req.Title, "title", "", "job title")
	fs.StringVar(&req.Department, "dept", "", "department")
	fs.StringVar(&req.BusinessUnit, "bu", "", "business unit")
	fs.StringVar(&req.ManagerID, "manager-id", "", "manager directory id")
	fs.StringVar(&req.ManagerUPN, "manager-upn", "", "manager principal name")
	fs.StringVar(&req.ManagerName, "manager-name", "", "manager display name")
	fs.StringVar(&start, "start", "", "start date")
	fs.BoolVar(&partTime, "part-time", false, "not full time")
	if err := fs.Parse(args); err != nil {
		return err
	}
	fullTime := !partTime
	req.FullTime = &fullTime
	if start != "" {
		req.StartDate = &start
	}

	entry, err := c.drafts.Save(ctx, req)
	var verr *drafts.ValidationError
	if errors.As(err, &verr) {
		for _, f := range verr.Fields {
			fmt.Fprintf(c.out, "  %s %s\n", f.Field, f.Message)
		}
		return errors.New("draft not saved")
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "saved %s\n", entry.ID)
	return nil
}

func (c *cli) list(ctx context.Context, _ []string) error {
	entries, err := c.drafts.List(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tTITLE\tDEPARTMENT\tMANAGER\tSAVED")
	for _, e := range entries {
		manager := e.ManagerName
		if manager == "" {
			manager = e.ManagerID
		}
		fmt.Fprintf(tw, "%s\t%s %s\t%s\t%s\t%s\t%s\n",
			e.ID, e.FirstName, e.LastName, e.Title, e.Department, manager,
			e.Meta.SavedAt.Local().Format(time.DateTime))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	pending, err := c.drafts.UnsubmittedCount(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out, c.translator.Plural(ctx, "DraftsUnsubmitted", pending, nil))
	return nil
}

func (c *cli) remove(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("rm needs at least one id")
	}
	for _, id := range args {
		if err := c.drafts.Delete(ctx, id); err != nil {
			return err
		}
		fmt.Fprintf(c.out, "removed %s\n", id)
	}
	return nil
}

func (c *cli) clear(ctx context.Context, _ []string) error {
	return c.drafts.Clear(ctx)
}

// export prints the payloads a submission would carry, without contacting the server.
func (c *cli) export(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	fs.SetOutput(c.out)
	formatStart := fs.Bool("format-start-date", false, "render start dates as Jan02,2006")
	if err := fs.Parse(args); err != nil {
		return err
	}

	entries, err := c.drafts.List(ctx)
	if err != nil {
		return err
	}
	normalizer := submission.NewNormalizer(nil, *formatStart)
	payloads := make([]models.EntryPayload, len(entries))
	for i, e := range entries {
		payloads[i] = normalizer.Normalize(e, i)
	}

	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(payloads)
}

// submit sends every draft and drops exactly the accepted ones.
func (c *cli) submit(ctx context.Context, _ []string) error {
	entries, err := c.drafts.List(ctx)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(c.out, c.translator.T(ctx, "SubmitNothing", nil))
		return nil
	}

	resp, err := c.api.SubmitAll(ctx, entries)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out, resp.Message)
	for _, f := range resp.Failed {
		if f.Reason != "" {
			fmt.Fprintf(c.out, "  failed %s: %s\n", f.ID, f.Reason)
		} else {
			fmt.Fprintf(c.out, "  failed %s\n", f.ID)
		}
	}

	res, err := c.drafts.Reconcile(ctx, resp.AcceptedIDs())
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out, c.translator.Plural(ctx, "DraftsRemoved", res.Removed, nil))
	if len(resp.Failed) > 0 {
		return fmt.Errorf("%d drafts need a retry", len(resp.Failed))
	}
	return nil
}

func (c *cli) offboard(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("offboard", flag.ContinueOnError)
	fs.SetOutput(c.out)
	employee := fs.String("employee", "", "employee to terminate")
	managerID := fs.String("manager-id", "", "manager directory id")
	managerUPN := fs.String("manager-upn", "", "manager principal name")
	managerName := fs.String("manager-name", "", "manager display name")
	notes := fs.String("notes", "", "free-form notes")
	if err := fs.Parse(args); err != nil {
		return err
	}

	req := submission.OffboardRequest{
		Employee:    strings.TrimSpace(*employee),
		ManagerID:   nonEmpty(*managerID),
		ManagerUPN:  nonEmpty(*managerUPN),
		ManagerName: nonEmpty(*managerName),
		Notes:       nonEmpty(*notes),
	}
	if req.Employee == "" {
		return submission.ErrEmployeeRequired
	}

	res, err := c.api.Offboard(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out, c.translator.T(ctx, "OffboardQueued", map[string]any{"MessageID": res.MessageID}))
	return nil
}

// health checks once, or with -watch keeps polling and prints every change until interrupted.
func (c *cli) health(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("health", flag.ContinueOnError)
	fs.SetOutput(c.out)
	watch := fs.Bool("watch", false, "keep polling")
	interval := fs.Duration("interval", health.DefaultInterval, "poll interval with -watch")
	if err := fs.Parse(args); err != nil {
		return err
	}

	base := clients.NewBaseClient(c.serverURL)
	base.SetTimeout(health.DefaultTimeout)
	if c.principal != nil {
		base.SetHeader(api.PrincipalHeader, api.EncodePrincipal(*c.principal))
	}
	probe := health.NewProbe(health.NewHTTPChecker(base), health.ProbeConfig{
		Interval:     *interval,
		Connectivity: health.InterfaceConnectivity,
		Visible:      *watch,
	})

	if !*watch {
		status := probe.Check(ctx)
		c.printStatus(ctx, status)
		if status.State != health.StateOK {
			return fmt.Errorf("queue is %s", status.State)
		}
		return nil
	}

	updates, unsubscribe := probe.Subscribe()
	defer unsubscribe()
	go probe.Run(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case status := <-updates:
			c.printStatus(ctx, status)
		}
	}
}

var stateMessages = map[health.State]string{
	health.StateChecking: "HealthChecking",
	health.StateOK:       "HealthOK",
	health.StateDegraded: "HealthDegraded",
	health.StateError:    "HealthError",
	health.StateOffline:  "HealthOffline",
}

func (c *cli) printStatus(ctx context.Context, s health.Status) {
	line := c.translator.T(ctx, stateMessages[s.State], nil)
	if s.Snapshot != nil {
		if s.Snapshot.ApproximateMessageCount != nil {
			line += fmt.Sprintf(" (%d queued)", *s.Snapshot.ApproximateMessageCount)
		}
		if s.Snapshot.Reason != nil {
			line += ": " + *s.Snapshot.Reason
		}
	} else if s.Detail != "" {
		line += ": " + s.Detail
	}
	fmt.Fprintln(c.out, line)
}

func (c *cli) ledger(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("ledger", flag.ContinueOnError)
	fs.SetOutput(c.out)
	typ := fs.String("type", "", "envelope type")
	id := fs.String("id", "", "envelope id")
	failed := fs.Bool("failed", false, "only failed attempts")
	limit := fs.Int("limit", ledger.DefaultLimit, "maximum records")
	if err := fs.Parse(args); err != nil {
		return err
	}

	header := http.Header{}
	if c.principal != nil {
		header.Set(api.PrincipalHeader, api.EncodePrincipal(*c.principal))
	}
	client := ledger.NewClient(c.httpClient, c.serverURL)
	records, err := client.ListSubmissions(ctx, ledger.Filter{
		EnvelopeType: nonEmpty(*typ),
		EnvelopeID:   nonEmpty(*id),
		OnlyFailed:   *failed,
		Limit:        *limit,
	}, header)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SUBMITTED\tTYPE\tID\tRESULT")
	for _, r := range records {
		result := "accepted"
		if !r.Accepted {
			result = "failed"
			if r.Error != nil {
				result += ": " + *r.Error
			}
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			r.SubmittedAt.Local().Format(time.DateTime), r.EnvelopeType, r.EnvelopeID, result)
	}
	return tw.Flush()
}

func nonEmpty(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
