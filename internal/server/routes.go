package server

import (
	"storefront/internal/handler"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo, pageH *handler.PageHandler, cartH *handler.CartHandler, eventsH *handler.EventsHandler) {
	pageH.RegisterRoutes(e)
	cartH.RegisterRoutes(e)
	eventsH.RegisterRoutes(e)
}
