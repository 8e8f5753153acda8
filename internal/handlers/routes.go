package handlers

import "github.com/gofiber/fiber/v2"

// AuthRequirement says whether a route needs a valid bearer token.
type AuthRequirement int

const (
	Public AuthRequirement = iota
	Authenticated
)

// Route is one row of the API routing table. Ownership of a task is checked
// by the task service against the same read it mutates, never here.
type Route struct {
	Method  string
	Path    string
	Auth    AuthRequirement
	Handler fiber.Handler
}

// Mount registers routes on router. The auth gate is attached per route so
// requests that match no row still fall through to the 404/405 handling.
func Mount(router fiber.Router, authRequired fiber.Handler, routes []Route) {
	for _, r := range routes {
		handlers := []fiber.Handler{r.Handler}
		if r.Auth == Authenticated {
			handlers = []fiber.Handler{authRequired, r.Handler}
		}
		router.Add(r.Method, r.Path, handlers...)
	}
}
