package resource

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ehr/hospital-console/internal/platform/apiclient"
	"github.com/ehr/hospital-console/internal/platform/validate"
)

// HTTPError translates a service error into the response the console returns.
// Backend statuses are preserved; an unreachable backend becomes 502.
func HTTPError(err error) error {
	var verrs validate.Errors
	if errors.As(err, &verrs) {
		return echo.NewHTTPError(http.StatusBadRequest, map[string]any{
			"message": "validation failed",
			"fields":  verrs,
		})
	}

	var apiErr *apiclient.Error
	if errors.As(err, &apiErr) {
		msg := apiclient.Describe("", apiErr)
		switch {
		case apiErr.Kind == apiclient.KindTransport:
			return echo.NewHTTPError(http.StatusBadGateway, msg)
		case apiErr.Kind == apiclient.KindValidation:
			return echo.NewHTTPError(apiErr.Status, map[string]any{
				"message": msg,
				"fields":  apiErr.Fields,
			})
		case apiErr.Status > 0:
			return echo.NewHTTPError(apiErr.Status, msg)
		}
	}

	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}
