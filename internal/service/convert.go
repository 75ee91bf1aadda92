package service

import (
	"database/sql"
	"time"

	"github.com/DukeRupert/relance/internal/domain"
	"github.com/DukeRupert/relance/internal/repository"
)

// toNullTime converts a time to sql.NullTime, treating the zero time as null.
func toNullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}

// fromNullTime converts sql.NullTime to *time.Time.
func fromNullTime(nt sql.NullTime) *time.Time {
	if nt.Valid {
		t := nt.Time
		return &t
	}
	return nil
}

// fromNullInt32 converts sql.NullInt32 to *int.
func fromNullInt32(ni sql.NullInt32) *int {
	if ni.Valid {
		v := int(ni.Int32)
		return &v
	}
	return nil
}

// toNullString converts a string to sql.NullString, treating "" as null.
func toNullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// fromNullString converts sql.NullString to string.
func fromNullString(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

func repoCadenceEventToDomain(e repository.CadenceEvent) domain.CadenceEvent {
	return domain.CadenceEvent{
		ID:             e.ID,
		OrganizationID: e.OrganizationID,
		QuoteID:        e.QuoteID,
		Type:           domain.CadenceEventType(e.EventType),
		ScheduledFor:   e.ScheduledFor,
		Status:         domain.CadenceEventStatus(e.Status),
		Priority:       e.Priority,
	}
}
