package server

import (
	"net/http"

	"github.com/dimitrije/coachlink-api/internal/handlers"
	authmw "github.com/dimitrije/coachlink-api/internal/middleware"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/m1z23r/drift/pkg/middleware"
)

type Handlers struct {
	Users         *handlers.UserHandler
	Invitations   *handlers.InvitationHandler
	Relationships *handlers.RelationshipHandler
	// Events is optional.
	Events *handlers.EventHandler
}

type Options struct {
	Production bool
	Tokens     authmw.TokenValidator
	// RateLimit guards the invitation code routes. Nil disables throttling.
	RateLimit drift.HandlerFunc
}

// NewRouter mounts the API under /api/v1.
func NewRouter(h Handlers, opts Options) http.Handler {
	app := drift.New()

	if opts.Production {
		app.SetMode(drift.ReleaseMode)
	} else {
		app.SetMode(drift.DebugMode)
	}

	app.Use(middleware.Recovery())
	app.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		MaxAge:       86400,
	}))
	app.Use(middleware.BodyParser())

	api := app.Group("/api/v1")

	api.Get("/health", func(c *drift.Context) {
		_ = c.JSON(200, map[string]string{"status": "ok"})
	})

	protected := api.Group("")
	protected.Use(authmw.Auth(opts.Tokens))

	protected.Get("/users/me", h.Users.GetMe)
	protected.Patch("/users/me", h.Users.UpdateMe)

	protected.Post("/invitations", h.Invitations.Create)
	protected.Get("/invitations", h.Invitations.List)
	protected.Get("/invitations/:id", h.Invitations.Get)
	protected.Delete("/invitations/:id", h.Invitations.Revoke)

	codes := protected.Group("/invitation-codes")
	if opts.RateLimit != nil {
		codes.Use(opts.RateLimit)
	}
	codes.Get("/:code", h.Invitations.Validate)
	codes.Post("/:code/accept", h.Invitations.Accept)

	protected.Get("/relationships", h.Relationships.List)
	protected.Post("/relationships", h.Relationships.Connect)
	protected.Delete("/relationships/:id", h.Relationships.Remove)

	if h.Events != nil {
		protected.Get("/events", h.Events.Connect)
	}

	return app
}
