// internal/app/features/auditlog/list.go
package auditlog

import (
	"net/http"
	"strings"
	"time"

	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/store/audit"
	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/system/paging"
	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/system/response"
	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// ServeList handles GET /audit. Filters: category, event_type, subject,
// actor_id, start_date, end_date (YYYY-MM-DD, UTC), page, limit.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	category := strings.TrimSpace(q.Get("category"))
	eventType := strings.TrimSpace(q.Get("event_type"))
	if !validFilter(category, eventType) {
		response.BadRequest(w, "unknown category or event_type")
		return
	}

	page := paging.ParsePage(r)
	limit := paging.ParseLimit(r)
	filter := audit.QueryFilter{
		Category:  category,
		EventType: eventType,
		Subject:   strings.TrimSpace(q.Get("subject")),
		ActorID:   strings.TrimSpace(q.Get("actor_id")),
		Limit:     int64(limit),
		Offset:    paging.Offset(page, limit),
	}
	if s := strings.TrimSpace(q.Get("start_date")); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			response.BadRequest(w, "start_date must be YYYY-MM-DD")
			return
		}
		filter.StartTime = &t
	}
	if s := strings.TrimSpace(q.Get("end_date")); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			response.BadRequest(w, "end_date must be YYYY-MM-DD")
			return
		}
		// End of day
		endOfDay := t.Add(24*time.Hour - time.Nanosecond)
		filter.EndTime = &endOfDay
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "audit log list")
	defer cancel()

	events, err := h.Store.Query(ctx, filter)
	if err != nil {
		h.ErrLog.Write(w, r, "audit.list", err)
		return
	}
	total, err := h.Store.CountByFilter(ctx, filter)
	if err != nil {
		h.ErrLog.Write(w, r, "audit.count", err)
		return
	}

	items := make([]listItem, 0, len(events))
	for _, e := range events {
		items = append(items, toItem(e))
	}
	h.Log.Debug("audit log listed", zap.Int("shown", len(items)), zap.Int64("total", total))
	response.OK(w, listData{Items: items, Page: paging.NewInfo(page, limit, total)})
}
