package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"github.com/samirrijal/tzmonths/internal/core/domain"
	"github.com/samirrijal/tzmonths/internal/core/usecases"
	"github.com/samirrijal/tzmonths/internal/pkg/logging"
)

// MonthsHandler returns the UTC instants of local month starts between
// from and to at lon/lat.
func MonthsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		q := domain.NewMonthsQuery(
			query(c, "lon"),
			query(c, "lat"),
			query(c, "from"),
			query(c, "to"),
		)

		res, err := deps.Months.Handle(c.UserContext(), q)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(res)
	}
}

// TimeZoneHandler returns the IANA zone at lat/lon.
func TimeZoneHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		pt, err := usecases.ParseCoordinate(query(c, "lat"), query(c, "lon"))
		if err != nil {
			return errBadRequest(c, "Invalid parameters")
		}

		zone, err := deps.Zones.Resolve(c.UserContext(), pt.Lat, pt.Lon)
		if err != nil {
			logging.FromContext(c.UserContext()).Error("error getting time zone", "lat", pt.Lat, "lon", pt.Lon, "error", err)
			return newError(c, fiber.StatusInternalServerError, "Unable to get time zone")
		}
		return c.JSON(fiber.Map{"timeZone": zone})
	}
}

// query copies a query parameter out of fasthttp's reusable buffer.
func query(c *fiber.Ctx, key string) string {
	return utils.CopyString(c.Query(key))
}
