package service

import (
	"context"
	"testing"
	"time"

	"github.com/DukeRupert/relance/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCadenceGenerator_Plan(t *testing.T) {
	paris, err := time.LoadLocation("Europe/Paris")
	require.NoError(t, err)

	tests := []struct {
		name     string
		holidays []string
		sentAt   time.Time
		loc      *time.Location
		want     []time.Time
	}{
		{
			name:   "tuesday send, no weekend crossings",
			sentAt: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
			loc:    time.UTC,
			want: []time.Time{
				time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC),
				time.Date(2026, 3, 13, 9, 0, 0, 0, time.UTC),
				time.Date(2026, 3, 17, 9, 0, 0, 0, time.UTC),
				time.Date(2026, 3, 24, 9, 0, 0, 0, time.UTC),
			},
		},
		{
			name:     "thursday send rolls over weekend and holiday in local time",
			holidays: []string{"2026-03-16"},
			sentAt:   time.Date(2026, 3, 12, 15, 0, 0, 0, paris),
			loc:      paris,
			want: []time.Time{
				time.Date(2026, 3, 13, 15, 0, 0, 0, paris).UTC(),
				time.Date(2026, 3, 17, 15, 0, 0, 0, paris).UTC(),
				time.Date(2026, 3, 19, 15, 0, 0, 0, paris).UTC(),
				time.Date(2026, 3, 26, 15, 0, 0, 0, paris).UTC(),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewCadenceGenerator(mustCalendar(tt.holidays...))
			planned := g.Plan(tt.sentAt, tt.loc)
			require.Len(t, planned, 4)

			for i, p := range planned {
				assert.Equal(t, domain.CadenceSchedule[i].Type, p.Type)
				assert.Equal(t, domain.CadenceSchedule[i].Priority, p.Priority)
				assert.True(t, tt.want[i].Equal(p.ScheduledFor), "step %s: want %s got %s", p.Type, tt.want[i], p.ScheduledFor)
			}
		})
	}
}

func TestCadenceGenerator_Regenerate(t *testing.T) {
	q := newFakeQuerier()
	g := NewCadenceGenerator(mustCalendar())
	orgID, quoteID, otherQuote := uuid.New(), uuid.New(), uuid.New()
	sentAt := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	_, err := g.Generate(context.Background(), q, orgID, quoteID, sentAt, time.UTC)
	require.NoError(t, err)
	_, err = g.Generate(context.Background(), q, orgID, otherQuote, sentAt, time.UTC)
	require.NoError(t, err)

	q.events[1].Status = "sent"
	q.events[2].Status = "claimed"

	cancelled, events, err := g.Regenerate(context.Background(), q, orgID, quoteID, sentAt.Add(72*time.Hour), time.UTC)
	require.NoError(t, err)

	assert.Equal(t, int64(3), cancelled)
	assert.Len(t, events, 4)
	assert.Len(t, q.eventsByStatus(quoteID, "scheduled"), 4)
	assert.Len(t, q.eventsByStatus(quoteID, "sent"), 1)
	assert.Len(t, q.eventsByStatus(otherQuote, "scheduled"), 4, "other quotes are untouched")
	for _, ev := range events {
		assert.True(t, ev.ScheduledFor.After(sentAt.Add(72*time.Hour)))
	}
}
