// ABOUTME: Gmail importer that records real exchanges as lead contact
// ABOUTME: Matches counterparties to existing leads by email and logs each message once
package sync

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"google.golang.org/api/gmail/v1"

	"github.com/harperreed/leadengine/db"
	"github.com/harperreed/leadengine/models"
)

const gmailService = "gmail"

// LeadToucher is the slice of the lead service the importer writes through.
type LeadToucher interface {
	ListLeads(ctx context.Context) ([]models.Lead, error)
	LogContact(ctx context.Context, id uuid.UUID, at time.Time) (models.Lead, error)
}

// Result counts what one import run did.
type Result struct {
	Scanned  int
	Filtered int
	Skipped  int
	Matched  int
	Touched  map[uuid.UUID]time.Time
}

type Importer struct {
	db           *sql.DB
	leads        LeadToucher
	source       MessageSource
	logger       *log.Logger
	lookbackDays int
	now          func() time.Time
}

type ImporterOption func(*Importer)

func WithLogger(l *log.Logger) ImporterOption {
	return func(i *Importer) { i.logger = l }
}

func WithLookbackDays(days int) ImporterOption {
	return func(i *Importer) {
		if days > 0 {
			i.lookbackDays = days
		}
	}
}

func WithNow(now func() time.Time) ImporterOption {
	return func(i *Importer) { i.now = now }
}

func NewImporter(database *sql.DB, leads LeadToucher, source MessageSource, opts ...ImporterOption) *Importer {
	imp := &Importer{
		db:           database,
		leads:        leads,
		source:       source,
		logger:       log.New(io.Discard),
		lookbackDays: 30,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(imp)
	}
	return imp
}

// Import scans high-signal mail and logs contact on matching leads. An
// initial import ignores the stored cursor and reaches back the full lookback
// window. Leads are never created.
func (imp *Importer) Import(ctx context.Context, initial bool) (Result, error) {
	res := Result{Touched: make(map[uuid.UUID]time.Time)}

	if err := db.UpdateSyncStatus(ctx, imp.db, gmailService, db.SyncStatusSyncing, nil); err != nil {
		return res, err
	}

	res, historyID, err := imp.run(ctx, initial, res)
	if err != nil {
		msg := err.Error()
		if statusErr := db.UpdateSyncStatus(ctx, imp.db, gmailService, db.SyncStatusError, &msg); statusErr != nil {
			imp.logger.Warn("failed to record sync error", "err", statusErr)
		}
		return res, err
	}

	if err := db.CompleteSync(ctx, imp.db, gmailService, strconv.FormatUint(historyID, 10), imp.now()); err != nil {
		return res, err
	}
	imp.logger.Info("gmail import finished",
		"scanned", res.Scanned, "filtered", res.Filtered, "skipped", res.Skipped, "matched", res.Matched)
	return res, nil
}

func (imp *Importer) run(ctx context.Context, initial bool, res Result) (Result, uint64, error) {
	userEmail, historyID, err := imp.source.Profile(ctx)
	if err != nil {
		return res, 0, err
	}

	since, err := imp.since(ctx, initial)
	if err != nil {
		return res, 0, err
	}

	leads, err := imp.leads.ListLeads(ctx)
	if err != nil {
		return res, 0, fmt.Errorf("failed to list leads: %w", err)
	}
	matcher := NewLeadMatcher(leads)
	if matcher.Len() == 0 {
		imp.logger.Info("no leads with email addresses; nothing to match")
		return res, historyID, nil
	}

	query := BuildHighSignalQuery(since)
	imp.logger.Debug("searching gmail", "query", query)

	err = imp.source.Messages(ctx, query, func(msg *gmail.Message) error {
		return imp.processMessage(ctx, msg, userEmail, matcher, &res)
	})
	if err != nil {
		return res, 0, fmt.Errorf("failed to read messages: %w", err)
	}
	return res, historyID, nil
}

func (imp *Importer) since(ctx context.Context, initial bool) (time.Time, error) {
	window := imp.now().AddDate(0, 0, -imp.lookbackDays)
	if initial {
		return window, nil
	}
	state, err := db.GetSyncState(ctx, imp.db, gmailService)
	if err != nil {
		return time.Time{}, err
	}
	if state == nil || state.LastSyncTime == nil {
		return window, nil
	}
	return *state.LastSyncTime, nil
}

// processMessage logs contact on every lead the message was exchanged with.
// Each message and lead pair is applied once, so a partly applied message
// picks up the remaining leads on the next run.
func (imp *Importer) processMessage(ctx context.Context, msg *gmail.Message, userEmail string, matcher *LeadMatcher, res *Result) error {
	res.Scanned++

	if ok, reason := IsHighSignalEmail(msg, userEmail); !ok {
		res.Filtered++
		imp.logger.Debug("filtered message", "id", msg.Id, "reason", reason)
		return nil
	}

	headers := parseHeaders(msg.Payload)
	at := parseEmailDate(headers["Date"], msg.InternalDate)
	if at.IsZero() {
		at = imp.now()
	}

	var matched, applied int
	seen := make(map[uuid.UUID]struct{})
	for _, addr := range counterparties(headers, userEmail) {
		lead, ok := matcher.FindMatch(addr)
		if !ok {
			continue
		}
		if _, dup := seen[lead.ID]; dup {
			continue
		}
		seen[lead.ID] = struct{}{}
		matched++

		done, err := db.SyncLogExists(ctx, imp.db, gmailService, msg.Id, lead.ID)
		if err != nil {
			return err
		}
		if done {
			continue
		}

		if _, err := imp.leads.LogContact(ctx, lead.ID, at); err != nil {
			return fmt.Errorf("failed to log contact for %s: %w", lead.ID, err)
		}
		if err := db.RecordSyncLog(ctx, imp.db, gmailService, msg.Id, lead.ID); err != nil {
			return err
		}
		applied++
		res.Matched++
		if prev, ok := res.Touched[lead.ID]; !ok || at.After(prev) {
			res.Touched[lead.ID] = at
		}
		imp.logger.Debug("logged contact from email", "lead", lead.Name, "at", at)
	}

	if matched > 0 && applied == 0 {
		res.Skipped++
	}
	return nil
}
