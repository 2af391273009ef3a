// Package rayid tags every request with a ray id.
package rayid

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Header carries the ray id in requests and responses.
const Header = "X-Ray-ID"

// LocalsKey is where the ray id is stored on the Fiber context.
const LocalsKey = "ray_id"

// New returns a middleware that reuses the caller's ray id or creates one.
func New() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(Header)
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		c.Locals(LocalsKey, id)
		c.Set(Header, id)
		return c.Next()
	}
}
