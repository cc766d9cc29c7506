package line

import "github.com/gofiber/fiber/v2"

// RegisterRoutes exposes server-side line resolution for clients that
// cannot run the classifier locally.
func RegisterRoutes(r fiber.Router, resolver *Resolver) {
	r.Get("/resolve", func(c *fiber.Ctx) error {
		lat := c.QueryFloat("lat")
		lng := c.QueryFloat("lng")

		label, ok := resolver.Resolve(lat, lng)
		if !ok {
			return fiber.NewError(fiber.StatusNotFound, "no line covers this position")
		}
		return c.JSON(fiber.Map{
			"line":   label,
			"roomId": Slug(label),
		})
	})
}
