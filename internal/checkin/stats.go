package checkin

import (
	"context"
	"time"

	"github.com/iliyamo/event-checkin/internal/model"
)

// uncategorized groups participants without a category in Stats.ByCategory.
const uncategorized = "uncategorized"

// StatusCounts counts records per status.
type StatusCounts struct {
	CheckedIn  int `json:"checkedIn"`
	CheckedOut int `json:"checkedOut"`
	NoShow     int `json:"noShow"`
	Cancelled  int `json:"cancelled"`
	Pending    int `json:"pending"`
}

// BadgeCounts splits attended participants by whether their badge was printed.
type BadgeCounts struct {
	Printed    int `json:"printed"`
	NotPrinted int `json:"notPrinted"`
}

// Stats is a point-in-time snapshot of an event's check-in state.
type Stats struct {
	EventRef string `json:"eventRef"`
	// Total is the expected roster size, not the number of records.
	Total int `json:"total"`
	StatusCounts
	CheckinRate    int                     `json:"checkinRate"`
	NoShowRate     int                     `json:"noShowRate"`
	ByMethod       map[model.Method]int    `json:"byMethod"`
	ByBadgePrinted BadgeCounts             `json:"byBadgePrinted"`
	ByCategory     map[string]StatusCounts `json:"byCategory"`
	GeneratedAt    time.Time               `json:"generatedAt"`
}

// Aggregator derives Stats from the store and the roster.  It only reads.
type Aggregator struct {
	store  Store
	roster Roster
	now    func() time.Time
}

func NewAggregator(store Store, roster Roster, clock func() time.Time) *Aggregator {
	if clock == nil {
		clock = time.Now
	}
	return &Aggregator{store: store, roster: roster, now: clock}
}

// StatsFor aggregates the current records of eventRef.
func (a *Aggregator) StatsFor(ctx context.Context, eventRef string) (Stats, error) {
	if eventRef == "" {
		return Stats{}, ErrInvalidRef
	}
	if _, err := a.roster.Event(ctx, eventRef); err != nil {
		return Stats{}, err
	}
	expected, err := a.roster.ExpectedCount(ctx, eventRef)
	if err != nil {
		return Stats{}, err
	}
	participants, err := a.roster.ListParticipants(ctx, eventRef)
	if err != nil {
		return Stats{}, err
	}
	records, err := a.store.ListByEvent(ctx, eventRef)
	if err != nil {
		return Stats{}, err
	}

	category := make(map[string]string, len(participants))
	for _, p := range participants {
		c := p.Category
		if c == "" {
			c = uncategorized
		}
		category[p.Ref] = c
	}

	st := Stats{
		EventRef:    eventRef,
		Total:       expected,
		ByMethod:    map[model.Method]int{},
		ByCategory:  map[string]StatusCounts{},
		GeneratedAt: a.now().UTC(),
	}
	seen := make(map[string]bool, len(records))
	for _, r := range records {
		c, ok := category[r.ParticipantRef]
		if !ok {
			// participant left the roster; its record no longer counts
			continue
		}
		seen[r.ParticipantRef] = true
		bucket := st.ByCategory[c]
		count(&st.StatusCounts, r.Status)
		count(&bucket, r.Status)
		st.ByCategory[c] = bucket

		if r.Status.Attended() {
			if r.Method != "" {
				st.ByMethod[r.Method]++
			}
			if r.BadgePrinted {
				st.ByBadgePrinted.Printed++
			} else {
				st.ByBadgePrinted.NotPrinted++
			}
		}
	}
	for ref, c := range category {
		if seen[ref] {
			continue
		}
		bucket := st.ByCategory[c]
		bucket.Pending++
		st.ByCategory[c] = bucket
		st.Pending++
	}

	st.CheckinRate = percent(st.CheckedIn+st.CheckedOut, expected)
	st.NoShowRate = percent(st.NoShow, expected)
	return st, nil
}

func count(c *StatusCounts, s model.Status) {
	switch s {
	case model.StatusCheckedIn:
		c.CheckedIn++
	case model.StatusCheckedOut:
		c.CheckedOut++
	case model.StatusNoShow:
		c.NoShow++
	case model.StatusCancelled:
		c.Cancelled++
	default:
		c.Pending++
	}
}

// percent returns n/total as an integer percentage rounded half up, and 0
// for an empty roster.
func percent(n, total int) int {
	if total <= 0 {
		return 0
	}
	return (n*200 + total) / (total * 2)
}
