// Package analytics keeps an in-memory view of console activity: a ring buffer
// of recent audit entries plus per-resource and per-user counters.
package analytics

import (
	"net/http"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ehr/hospital-console/internal/platform/middleware"
)

const defaultCapacity = 1000

// ResourceSummary breaks down console calls against one entity route.
type ResourceSummary struct {
	Resource string `json:"resource"`
	Reads    int64  `json:"reads"`
	Creates  int64  `json:"creates"`
	Updates  int64  `json:"updates"`
	Deletes  int64  `json:"deletes"`
	Errors   int64  `json:"errors"`
	Total    int64  `json:"total"`
}

type UserSummary struct {
	UserID   string    `json:"user_id"`
	Role     string    `json:"role"`
	Requests int64     `json:"requests"`
	LastSeen time.Time `json:"last_seen"`
}

type Overview struct {
	TotalRequests int64              `json:"total_requests"`
	TotalErrors   int64              `json:"total_errors"`
	ErrorRate     float64            `json:"error_rate"`
	Resources     []*ResourceSummary `json:"resources"`
	Users         []*UserSummary     `json:"users"`
}

// UsageTracker is safe for concurrent use. It satisfies
// middleware.AuditRecorder.
type UsageTracker struct {
	mu        sync.RWMutex
	entries   []middleware.AuditEntry
	capacity  int
	writePos  int
	full      bool
	resources map[string]*ResourceSummary
	users     map[string]*UserSummary
	total     int64
	errors    int64
}

func NewUsageTracker(capacity int) *UsageTracker {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &UsageTracker{
		entries:   make([]middleware.AuditEntry, 0, capacity),
		capacity:  capacity,
		resources: make(map[string]*ResourceSummary),
		users:     make(map[string]*UserSummary),
	}
}

func (ut *UsageTracker) RecordAccess(e middleware.AuditEntry) error {
	ut.mu.Lock()
	defer ut.mu.Unlock()

	if ut.full {
		ut.entries[ut.writePos] = e
	} else {
		ut.entries = append(ut.entries, e)
	}
	ut.writePos++
	if ut.writePos >= ut.capacity {
		ut.writePos = 0
		ut.full = true
	}

	failed := e.StatusCode >= http.StatusBadRequest
	ut.total++
	if failed {
		ut.errors++
	}

	if e.Resource != "" {
		rs, ok := ut.resources[e.Resource]
		if !ok {
			rs = &ResourceSummary{Resource: e.Resource}
			ut.resources[e.Resource] = rs
		}
		rs.Total++
		if failed {
			rs.Errors++
		}
		switch e.Action {
		case middleware.ActionRead:
			rs.Reads++
		case middleware.ActionCreate:
			rs.Creates++
		case middleware.ActionUpdate, middleware.ActionReactivate, middleware.ActionChangePassword:
			rs.Updates++
		case middleware.ActionDelete, middleware.ActionPurge:
			rs.Deletes++
		}
	}

	if e.UserID != "" {
		us, ok := ut.users[e.UserID]
		if !ok {
			us = &UserSummary{UserID: e.UserID}
			ut.users[e.UserID] = us
		}
		us.Requests++
		us.Role = e.Role
		if e.Timestamp.After(us.LastSeen) {
			us.LastSeen = e.Timestamp
		}
	}
	return nil
}

// Recent returns up to n entries, newest first.
func (ut *UsageTracker) Recent(n int) []middleware.AuditEntry {
	ut.mu.RLock()
	defer ut.mu.RUnlock()

	size := len(ut.entries)
	if n <= 0 || n > size {
		n = size
	}
	out := make([]middleware.AuditEntry, 0, n)
	// writePos-1 is the newest slot once the buffer has wrapped.
	pos := ut.writePos - 1
	if !ut.full {
		pos = size - 1
	}
	for i := 0; i < n; i++ {
		if pos < 0 {
			pos = size - 1
		}
		out = append(out, ut.entries[pos])
		pos--
	}
	return out
}

func (ut *UsageTracker) Overview() *Overview {
	ut.mu.RLock()
	defer ut.mu.RUnlock()

	o := &Overview{
		TotalRequests: ut.total,
		TotalErrors:   ut.errors,
		Resources:     make([]*ResourceSummary, 0, len(ut.resources)),
		Users:         make([]*UserSummary, 0, len(ut.users)),
	}
	if ut.total > 0 {
		o.ErrorRate = float64(ut.errors) / float64(ut.total)
	}
	for _, rs := range ut.resources {
		c := *rs
		o.Resources = append(o.Resources, &c)
	}
	sort.Slice(o.Resources, func(i, j int) bool {
		if o.Resources[i].Total != o.Resources[j].Total {
			return o.Resources[i].Total > o.Resources[j].Total
		}
		return o.Resources[i].Resource < o.Resources[j].Resource
	})
	for _, us := range ut.users {
		c := *us
		o.Users = append(o.Users, &c)
	}
	sort.Slice(o.Users, func(i, j int) bool { return o.Users[i].UserID < o.Users[j].UserID })
	return o
}

// UsageHandler serves the tracker over HTTP.
type UsageHandler struct {
	tracker *UsageTracker
}

func NewUsageHandler(tracker *UsageTracker) *UsageHandler {
	return &UsageHandler{tracker: tracker}
}

// RegisterRoutes mounts GET "" (overview) and GET /recent?limit=n on g.
func (h *UsageHandler) RegisterRoutes(g *echo.Group) {
	g.GET("", h.HandleOverview)
	g.GET("/recent", h.HandleRecent)
}

func (h *UsageHandler) HandleOverview(c echo.Context) error {
	return c.JSON(http.StatusOK, h.tracker.Overview())
}

func (h *UsageHandler) HandleRecent(c echo.Context) error {
	limit, err := strconv.Atoi(c.QueryParam("limit"))
	if err != nil || limit <= 0 {
		limit = 50
	}
	return c.JSON(http.StatusOK, h.tracker.Recent(limit))
}
