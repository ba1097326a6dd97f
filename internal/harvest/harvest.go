package harvest

import (
	"context"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	"call-harvester-go/internal/bitrix"
	"call-harvester-go/internal/config"
	"call-harvester-go/internal/logger"
	"call-harvester-go/internal/resolver"
	"call-harvester-go/internal/types"
)

// ActivityAPI is the slice of the CRM client the harvester drives.
type ActivityAPI interface {
	ListActivities(q bitrix.ActivityQuery) ([]types.ActivityRecord, error)
	FetchManagers() types.ManagerDirectory
}

// AudioResolver turns one activity into audio, or not.
type AudioResolver interface {
	Resolve(act types.ActivityRecord) resolver.Resolution
}

// Sink receives each qualifying call exactly once. Idempotency is the sink's
// concern.
type Sink interface {
	HandleCall(ctx context.Context, call types.CallRecord, tenantID string) (bool, error)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ctx context.Context, call types.CallRecord, tenantID string) (bool, error)

func (f SinkFunc) HandleCall(ctx context.Context, call types.CallRecord, tenantID string) (bool, error) {
	return f(ctx, call, tenantID)
}

// Params selects which calls one run covers.
type Params struct {
	DateFrom       string // local date, "2006-01-02"
	DateTo         string
	ResponsibleIDs []string
	CallType       string // "", "incoming", "outgoing"
	MinDuration    *int
	MaxDuration    *int
}

// Harvester pages through the activity log and fans each page out under a
// run-wide concurrency cap.
type Harvester struct {
	api    ActivityAPI
	chain  AudioResolver
	sink   Sink
	tenant config.Tenant
	sem    *semaphore.Weighted
	log    *logrus.Entry
}

func New(api ActivityAPI, chain AudioResolver, sink Sink, tenant config.Tenant) *Harvester {
	limit := tenant.MaxConcurrentCalls
	if limit <= 0 {
		limit = config.DefaultMaxConcurrentCalls
	}
	return &Harvester{
		api:    api,
		chain:  chain,
		sink:   sink,
		tenant: tenant,
		sem:    semaphore.NewWeighted(int64(limit)),
		log:    logger.New().WithRun(tenant.ID).WithField("module", "harvest"),
	}
}

type outcome struct {
	handedOff bool
	summary   *types.CallSummary
}

// Run fetches pages sequentially and processes each page's activities
// concurrently, returning the count of calls handed off and a summary row per
// call that reached hand-off. Errors terminate pagination but never the
// accumulated result.
func (h *Harvester) Run(ctx context.Context, p Params) (int, []types.CallSummary) {
	log := h.log.WithFields(logrus.Fields{
		"date_from": p.DateFrom,
		"date_to":   p.DateTo,
	})
	dateFrom, dateTo, err := BitrixDateRange(p.DateFrom, p.DateTo, h.tenant.TZOffsetHours)
	if err != nil {
		log.WithError(err).Error("bad date range")
		return 0, nil
	}
	log.WithFields(logrus.Fields{"utc_from": dateFrom, "utc_to": dateTo}).Info("starting harvest")

	// built before any activity task runs, read-only afterwards
	managers := h.api.FetchManagers()
	filter := DurationFilter{Min: p.MinDuration, Max: p.MaxDuration}
	direction := directionCode(p.CallType)

	processed := 0
	var summaries []types.CallSummary
	start := 0
	for {
		page, err := h.api.ListActivities(bitrix.ActivityQuery{
			Start:          start,
			DateFrom:       dateFrom,
			DateTo:         dateTo,
			ResponsibleIDs: p.ResponsibleIDs,
			Direction:      direction,
		})
		if err != nil {
			log.WithError(err).Error("activity page fetch failed, stopping pagination")
			break
		}
		log.WithFields(logrus.Fields{"offset": start, "count": len(page)}).Info("fetched activity page")
		if len(page) == 0 {
			break
		}

		outcomes := make(chan outcome, len(page))
		var wg sync.WaitGroup
		for _, act := range page {
			wg.Add(1)
			go func(act types.ActivityRecord) {
				defer wg.Done()
				if err := h.sem.Acquire(ctx, 1); err != nil {
					outcomes <- outcome{}
					return
				}
				defer h.sem.Release(1)
				outcomes <- h.processActivity(ctx, act, managers, filter)
			}(act)
		}
		wg.Wait()
		close(outcomes)
		for o := range outcomes {
			if o.summary != nil {
				summaries = append(summaries, *o.summary)
			}
			if o.handedOff {
				processed++
			}
		}

		start += len(page)
		if len(page) < bitrix.PageSize {
			break
		}
	}
	log.WithField("processed", processed).Info("harvest complete")
	return processed, summaries
}

// processActivity runs one activity through resolution, filtering and
// hand-off. Every failure is absorbed here so siblings keep running.
func (h *Harvester) processActivity(ctx context.Context, act types.ActivityRecord, managers types.ManagerDirectory, filter DurationFilter) (o outcome) {
	log := h.log.WithField("call_id", act.ID)
	defer func() {
		if r := recover(); r != nil {
			log.WithField("panic", r).Error("activity processing panicked")
			o = outcome{}
		}
	}()
	log.WithFields(logrus.Fields{
		"start_time": act.StartTime,
		"end_time":   act.EndTime,
	}).Debug("processing activity")

	res := h.chain.Resolve(act)
	if !res.Resolved() {
		return outcome{}
	}

	duration := ResolveDuration(res.Duration, act.StartTime, act.EndTime, log)
	if !filter.Accept(duration) {
		log.WithField("duration", duration).Info("call skipped by duration filter")
		return outcome{}
	}

	callDate, callTime := splitCallTimestamp(act.StartTime)
	manager := managers[act.ResponsibleID]
	if manager == "" {
		manager = "Unknown manager"
	}
	call := types.CallRecord{
		AudioData:    res.Audio,
		CallID:       act.ID,
		CallType:     callLabel(act.Direction),
		CallDuration: duration,
		CallDate:     callDate,
		CallTime:     callTime,
		ManagerName:  manager,
		EntityLink:   bitrix.EntityLink(h.tenant.WebhookURL, act.OwnerTypeID, act.OwnerID),
	}
	summary := &types.CallSummary{
		CallID:     call.CallID,
		CallType:   call.CallType,
		Duration:   call.CallDuration,
		Date:       call.CallDate,
		Time:       call.CallTime,
		Manager:    call.ManagerName,
		EntityLink: call.EntityLink,
	}

	ok, err := h.sink.HandleCall(ctx, call, h.tenant.ID)
	if err != nil {
		log.WithError(err).Error("call hand-off failed")
		return outcome{summary: summary}
	}
	summary.HandedOff = ok
	return outcome{handedOff: ok, summary: summary}
}

func directionCode(callType string) string {
	switch callType {
	case "incoming":
		return "1"
	case "outgoing":
		return "2"
	}
	return ""
}

func callLabel(direction string) string {
	if direction == "1" {
		return "Incoming"
	}
	return "Outgoing"
}

// splitCallTimestamp splits an activity timestamp into display date and time.
// Handles both ISO ("2024-01-10T12:30:00+03:00") and space-separated forms.
func splitCallTimestamp(startTime string) (string, string) {
	switch {
	case strings.Contains(startTime, "T"):
		parts := strings.SplitN(startTime, "T", 2)
		clock := parts[1]
		if i := strings.IndexAny(clock, "+Z"); i >= 0 {
			clock = clock[:i]
		}
		return parts[0], clock
	case strings.Contains(startTime, " "):
		fields := strings.Fields(startTime)
		switch {
		case len(fields) > 1:
			return fields[0], fields[1]
		case len(fields) == 1:
			return fields[0], ""
		}
		return startTime, ""
	}
	return startTime, ""
}
