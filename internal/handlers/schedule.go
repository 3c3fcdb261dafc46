package handlers

import (
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"yogastudio/internal/models"
	"yogastudio/internal/schedule"
	"yogastudio/internal/services"
)

const (
	defaultScheduleSpan = 7 * 24 * time.Hour
	maxScheduleSpan     = 62 * 24 * time.Hour
)

// sessionView is one expanded class occurrence
type sessionView struct {
	GroupID   string          `json:"group_id"`
	GroupName string          `json:"group_name"`
	Level     models.Level    `json:"level"`
	StartsAt  time.Time       `json:"starts_at"`
	EndsAt    *time.Time      `json:"ends_at,omitempty"`
	Location  models.Location `json:"location"`
}

// Schedule lists upcoming sessions of every active group
func (h *Handler) Schedule(c *gin.Context) {
	from, to, err := scheduleWindow(c, time.Now().UTC())
	if err != nil {
		h.handleError(c, "Invalid window", err)
		return
	}

	groups, err := h.store.Groups.ListSchedulable(c.Request.Context())
	if err != nil {
		h.handleError(c, "Failed to load schedule", err)
		return
	}

	sessions := []sessionView{}
	for i := range groups {
		occ, err := schedule.Expand(groups[i].Schedule, from, to)
		if err != nil {
			h.log.Warn("skipping group with invalid schedule", zap.String("group_id", groups[i].ID), zap.Error(err))
			continue
		}
		sessions = append(sessions, sessionViews(&groups[i], occ)...)
	}
	sort.SliceStable(sessions, func(i, j int) bool { return sessions[i].StartsAt.Before(sessions[j].StartsAt) })

	c.JSON(http.StatusOK, gin.H{"from": from, "to": to, "sessions": sessions})
}

// GroupSchedule lists upcoming sessions of one group
func (h *Handler) GroupSchedule(c *gin.Context) {
	from, to, err := scheduleWindow(c, time.Now().UTC())
	if err != nil {
		h.handleError(c, "Invalid window", err)
		return
	}

	group, err := h.store.Groups.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleError(c, "Failed to load group", err)
		return
	}
	occ, err := schedule.Expand(group.Schedule, from, to)
	if err != nil {
		h.handleError(c, "Invalid schedule", fmt.Errorf("%w: %v", services.ErrValidation, err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"from": from, "to": to, "sessions": sessionViews(group, occ)})
}

func sessionViews(group *models.Group, occurrences []time.Time) []sessionView {
	length := schedule.Duration(group.Schedule)
	views := make([]sessionView, 0, len(occurrences))
	for _, occ := range occurrences {
		v := sessionView{
			GroupID:   group.ID,
			GroupName: group.Name,
			Level:     group.Level,
			StartsAt:  occ,
			Location:  group.Location,
		}
		if length > 0 {
			end := occ.Add(length)
			v.EndsAt = &end
		}
		views = append(views, v)
	}
	return views
}

// scheduleWindow reads from/to (RFC3339 or YYYY-MM-DD, UTC) and bounds the span
func scheduleWindow(c *gin.Context, now time.Time) (time.Time, time.Time, error) {
	from := now
	if raw := c.Query("from"); raw != "" {
		t, err := parseInstant(raw)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: from must be RFC3339 or YYYY-MM-DD", services.ErrValidation)
		}
		from = t
	}

	to := from.Add(defaultScheduleSpan)
	if raw := c.Query("to"); raw != "" {
		t, err := parseInstant(raw)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: to must be RFC3339 or YYYY-MM-DD", services.ErrValidation)
		}
		to = t
	}

	if !from.Before(to) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: from must be before to", services.ErrValidation)
	}
	if to.Sub(from) > maxScheduleSpan {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: window may span at most 62 days", services.ErrValidation)
	}
	return from, to, nil
}

func parseInstant(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	return time.Parse(models.DateLayout, raw)
}
