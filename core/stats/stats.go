package stats

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/KushalGupta-07/Smart-Admission-System/core"
)

// ApplicationsTable is the change feed table the aggregator listens to.
const ApplicationsTable = "application"

type (
	// Record is the part of an application the summary is computed from.
	Record struct {
		Status    string    `db:"status"`
		CreatedAt time.Time `db:"created_at"`
	}

	Source interface {
		QueryStatusRecords(ctx context.Context) ([]Record, error)
	}

	Summary struct {
		Total             int       `json:"total"`
		Draft             int       `json:"draft"`
		Submitted         int       `json:"submitted"`
		UnderReview       int       `json:"underReview"`
		Approved          int       `json:"approved"`
		Rejected          int       `json:"rejected"`
		TodayApplications int       `json:"todayApplications"`
		WeekApplications  int       `json:"weekApplications"`
		LastUpdated       time.Time `json:"lastUpdated"`
	}
)

// Compute counts records per status & per creation window. "Today" starts at
// local midnight of now; the week starts 7 days before that.
func Compute(records []Record, now time.Time) Summary {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	weekAgo := today.AddDate(0, 0, -7)

	sum := Summary{Total: len(records), LastUpdated: now}
	for _, r := range records {
		switch r.Status {
		case "draft":
			sum.Draft++
		case "submitted":
			sum.Submitted++
		case "under_review":
			sum.UnderReview++
		case "approved":
			sum.Approved++
		case "rejected":
			sum.Rejected++
		}
		if !r.CreatedAt.Before(today) {
			sum.TodayApplications++
		}
		if !r.CreatedAt.Before(weekAgo) {
			sum.WeekApplications++
		}
	}
	return sum
}

// Aggregator keeps a Summary of all applications up to date with the change feed.
type Aggregator struct {
	source Source
	feed   core.ChangeFeed
	logger core.Logger
	loc    *time.Location

	fetchMu sync.Mutex // serializes refetches

	mu      sync.RWMutex
	summary Summary
	subs    map[int]chan Summary
	nextSub int
	cancel  func()
}

func NewAggregator(source Source, feed core.ChangeFeed, logger core.Logger, loc *time.Location) *Aggregator {
	if loc == nil {
		loc = time.Local
	}
	return &Aggregator{
		source: source,
		feed:   feed,
		logger: logger,
		loc:    loc,
		subs:   make(map[int]chan Summary),
	}
}

// Start fetches the initial summary and recomputes it on every application change.
func (agg *Aggregator) Start(ctx context.Context) error {
	if err := agg.Refetch(ctx); err != nil {
		return err
	}
	cancel, err := agg.feed.Subscribe(ctx, ApplicationsTable, core.OpAll, func(core.ChangeEvent) {
		if err := agg.Refetch(ctx); err != nil {
			agg.logger.Error("refetching stats", err)
		}
	})
	if err != nil {
		return errors.Wrap(err, "subscribing to application changes")
	}
	agg.mu.Lock()
	agg.cancel = cancel
	agg.mu.Unlock()
	return nil
}

// Stop unsubscribes from the feed and closes every subscription.
func (agg *Aggregator) Stop() {
	agg.mu.Lock()
	defer agg.mu.Unlock()
	if agg.cancel != nil {
		agg.cancel()
		agg.cancel = nil
	}
	for id, ch := range agg.subs {
		close(ch)
		delete(agg.subs, id)
	}
}

// Refetch recomputes the summary from a full fetch.
func (agg *Aggregator) Refetch(ctx context.Context) error {
	agg.fetchMu.Lock()
	defer agg.fetchMu.Unlock()

	records, err := agg.source.QueryStatusRecords(ctx)
	if err != nil {
		return errors.Wrap(err, "querying application statuses")
	}
	sum := Compute(records, core.NowFunc().In(agg.loc))

	agg.mu.Lock()
	defer agg.mu.Unlock()
	agg.summary = sum
	for _, ch := range agg.subs {
		publish(ch, sum)
	}
	return nil
}

func (agg *Aggregator) Summary() Summary {
	agg.mu.RLock()
	defer agg.mu.RUnlock()
	return agg.summary
}

func (agg *Aggregator) LastUpdated() time.Time {
	return agg.Summary().LastUpdated
}

// Subscribe returns a channel receiving the current summary then every new one.
// Slow readers only get the latest summary.
func (agg *Aggregator) Subscribe() (<-chan Summary, func()) {
	agg.mu.Lock()
	defer agg.mu.Unlock()

	ch := make(chan Summary, 1)
	ch <- agg.summary
	id := agg.nextSub
	agg.nextSub++
	agg.subs[id] = ch

	return ch, func() {
		agg.mu.Lock()
		defer agg.mu.Unlock()
		if _, ok := agg.subs[id]; ok {
			close(ch)
			delete(agg.subs, id)
		}
	}
}

// publish replaces any unread summary in ch with sum.
func publish(ch chan Summary, sum Summary) {
	select {
	case <-ch:
	default:
	}
	ch <- sum
}
