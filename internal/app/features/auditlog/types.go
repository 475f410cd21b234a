// internal/app/features/auditlog/types.go
package auditlog

import (
	"time"

	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/store/audit"
	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/system/paging"
)

// listItem is one audit event as returned by the API.
type listItem struct {
	ID            string            `json:"id"`
	Timestamp     time.Time         `json:"timestamp"`
	Category      string            `json:"category"`
	EventType     string            `json:"event_type"`
	ActorID       string            `json:"actor_id,omitempty"`
	ActorName     string            `json:"actor_name,omitempty"`
	Subject       string            `json:"subject,omitempty"`
	IP            string            `json:"ip,omitempty"`
	Success       bool              `json:"success"`
	FailureReason string            `json:"failure_reason,omitempty"`
	Details       map[string]string `json:"details,omitempty"`
}

func toItem(e audit.Event) listItem {
	return listItem{
		ID:            e.ID.Hex(),
		Timestamp:     e.Timestamp,
		Category:      e.Category,
		EventType:     e.EventType,
		ActorID:       e.ActorID,
		ActorName:     e.ActorName,
		Subject:       e.Subject,
		IP:            e.IP,
		Success:       e.Success,
		FailureReason: e.FailureReason,
		Details:       e.Details,
	}
}

type listData struct {
	Items []listItem  `json:"items"`
	Page  paging.Info `json:"page"`
}

// eventTypesByCategory lists the event types a filter may name.
var eventTypesByCategory = map[string][]string{
	audit.CategorySession: {
		audit.EventSignInSuccess,
		audit.EventSignInWrongPasscode,
		audit.EventSignInNotCommand,
		audit.EventSignInRateLimited,
		audit.EventSignOut,
	},
	audit.CategoryRoster: {
		audit.EventMemberCreated,
		audit.EventMemberUpdated,
		audit.EventMemberActivated,
		audit.EventMemberDeactivated,
		audit.EventFixedRosterEdited,
	},
	audit.CategorySchedule: {
		audit.EventScheduleGenerated,
		audit.EventScheduleRegenerated,
		audit.EventScheduleOverride,
	},
	audit.CategoryAttendance: {
		audit.EventPresenceSet,
		audit.EventPresenceCleared,
	},
}

// validFilter reports whether category and eventType name known values and
// agree with each other. Empty means "any".
func validFilter(category, eventType string) bool {
	if category != "" {
		types, ok := eventTypesByCategory[category]
		if !ok {
			return false
		}
		if eventType == "" {
			return true
		}
		for _, t := range types {
			if t == eventType {
				return true
			}
		}
		return false
	}
	if eventType == "" {
		return true
	}
	for _, types := range eventTypesByCategory {
		for _, t := range types {
			if t == eventType {
				return true
			}
		}
	}
	return false
}
