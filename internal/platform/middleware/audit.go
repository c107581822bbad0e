package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// AuditEntry records who touched which console resource.
type AuditEntry struct {
	UserID     string
	Role       string
	Resource   string
	ResourceID string
	Action     string // one of the Action* constants
	Method     string
	Path       string
	IPAddress  string
	RequestID  string
	StatusCode int
	Timestamp  time.Time
}

// Audit actions. Sub-action routes get their own action instead of the one
// their HTTP method implies.
const (
	ActionRead           = "read"
	ActionCreate         = "create"
	ActionUpdate         = "update"
	ActionDelete         = "delete"
	ActionReactivate     = "reactivate"
	ActionPurge          = "purge"
	ActionChangePassword = "change-password"
)

// subActions maps /<resource>/:id/<sub> write routes to their action.
var subActions = map[string]string{
	"reactivate":      ActionReactivate,
	"purge":           ActionPurge,
	"toggle-status":   ActionUpdate,
	"change-password": ActionChangePassword,
}

// collectionViews are /<resource>/<view>/... read routes whose second segment
// is not a record id.
var collectionViews = map[string]bool{
	"activos": true,
	"buscar":  true,
	"email":   true,
	"stats":   true,
}

// AuditRecorder persists audit entries in addition to the structured log.
type AuditRecorder interface {
	RecordAccess(entry AuditEntry) error
}

type AuditRecorderFunc func(entry AuditEntry) error

func (f AuditRecorderFunc) RecordAccess(entry AuditEntry) error {
	return f(entry)
}

// ActorFunc reports the user behind a request.
type ActorFunc func(c echo.Context) (userID, role string)

// Audit logs every /api/v1/ request after it completes.
func Audit(logger zerolog.Logger, actor ActorFunc, recorders ...AuditRecorder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if !strings.HasPrefix(req.URL.Path, "/api/v1/") {
				return next(c)
			}

			err := next(c)

			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}
			resource, id, sub := splitResourcePath(req.URL.Path)
			entry := AuditEntry{
				Resource:   resource,
				ResourceID: id,
				Action:     resolveAction(req.Method, sub),
				Method:     req.Method,
				Path:       req.URL.Path,
				IPAddress:  c.RealIP(),
				RequestID:  requestID(c),
				StatusCode: status,
				Timestamp:  time.Now().UTC(),
			}
			if actor != nil {
				entry.UserID, entry.Role = actor(c)
			}

			for _, r := range recorders {
				if r == nil {
					continue
				}
				if recErr := r.RecordAccess(entry); recErr != nil {
					logger.Error().Err(recErr).Str("request_id", entry.RequestID).Msg("failed to record audit entry")
				}
			}

			logger.Info().
				Str("type", "audit").
				Str("request_id", entry.RequestID).
				Str("user_id", entry.UserID).
				Str("role", entry.Role).
				Str("resource", entry.Resource).
				Str("resource_id", entry.ResourceID).
				Str("action", entry.Action).
				Int("status", entry.StatusCode).
				Str("remote_ip", entry.IPAddress).
				Msg("resource_access")

			return err
		}
	}
}

func methodAction(method string) string {
	switch method {
	case http.MethodPost:
		return ActionCreate
	case http.MethodPut, http.MethodPatch:
		return ActionUpdate
	case http.MethodDelete:
		return ActionDelete
	default:
		return ActionRead
	}
}

func resolveAction(method, sub string) string {
	action := methodAction(method)
	if action == ActionRead || sub == "" {
		return action
	}
	if a, ok := subActions[sub]; ok {
		return a
	}
	return action
}

// splitResourcePath turns /api/v1/pacientes/42/reactivate into
// ("pacientes", "42", "reactivate") and /api/v1/pacientes/email/x into
// ("pacientes", "", "email").
func splitResourcePath(path string) (resource, id, sub string) {
	rest := strings.Trim(strings.TrimPrefix(path, "/api/v1/"), "/")
	if rest == "" {
		return "unknown", "", ""
	}
	parts := strings.SplitN(rest, "/", 4)
	resource = parts[0]
	if len(parts) == 1 {
		return resource, "", ""
	}
	if collectionViews[parts[1]] {
		return resource, "", parts[1]
	}
	id = parts[1]
	if len(parts) > 2 {
		sub = parts[2]
	}
	return resource, id, sub
}
