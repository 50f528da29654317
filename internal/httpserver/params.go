package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type page struct {
	Skip   int
	Limit  int
	Search string
}

func bindPage(c echo.Context) (page, error) {
	var p page
	err := echo.QueryParamsBinder(c).
		Int("skip", &p.Skip).
		Int("limit", &p.Limit).
		String("search", &p.Search).
		BindError()
	if err != nil {
		return page{}, echo.NewHTTPError(http.StatusBadRequest, "invalid query parameters")
	}
	return p, nil
}

func bindBody(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	return nil
}
