package api

import (
	"ZapDesk/internal/config"
	"ZapDesk/internal/http-server/handlers/compose"
	"ZapDesk/internal/http-server/handlers/conversation"
	"ZapDesk/internal/http-server/handlers/errors"
	"ZapDesk/internal/http-server/handlers/instance"
	"ZapDesk/internal/http-server/handlers/message"
	"ZapDesk/internal/http-server/handlers/rule"
	"ZapDesk/internal/http-server/handlers/team"
	"ZapDesk/internal/http-server/handlers/webhook"
	"ZapDesk/internal/http-server/middleware/authenticate"
	"ZapDesk/internal/http-server/middleware/timeout"
	"ZapDesk/internal/lib/sl"
	"ZapDesk/internal/ws"
	"fmt"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"log/slog"
	"net"
	"net/http"
)

type Server struct {
	conf       *config.Config
	httpServer *http.Server
	log        *slog.Logger
}

// Deps bundles everything the HTTP surface serves.
type Deps struct {
	Auth interface {
		authenticate.Authenticate
		ws.Authenticator
		team.Core
	}
	Chat interface {
		conversation.Core
		message.Sender
	}
	Messaging interface {
		conversation.Annotator
		message.Core
	}
	Assignment interface {
		conversation.Assigner
		rule.Core
	}
	Insights  conversation.Insights
	Composer  compose.Core
	Instances instance.Core
	Contacts  instance.Hygiene
	Monitor   instance.Tester
	Ingest    webhook.Core
	Hub       *ws.Hub
}

func New(conf *config.Config, log *slog.Logger, deps Deps) error {

	server := Server{
		conf: conf,
		log:  log.With(sl.Module("api.server")),
	}

	router := chi.NewRouter()
	router.Use(timeout.Timeout(30))
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(render.SetContentType(render.ContentTypeJSON))

	router.NotFound(errors.NotFound(log))
	router.MethodNotAllowed(errors.NotAllowed(log))

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, map[string]string{"status": "ok"})
	})
	router.Handle("/metrics", promhttp.Handler())
	router.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWs(deps.Hub, deps.Auth, log, w, r)
	})
	// Provider callbacks authenticate with the instance api key, not a
	// console bearer token, so they live outside the auth group.
	router.Post("/webhook/{instanceID}", webhook.Receive(log, deps.Ingest))

	router.Route("/api/v1", func(v1 chi.Router) {
		v1.Use(authenticate.New(log, deps.Auth))

		v1.Route("/conversations", func(r chi.Router) {
			r.Get("/", conversation.List(log, deps.Chat))
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/messages", conversation.Messages(log, deps.Chat))
				// Sends route through the chat session layer so the open
				// thread stages and reconciles the optimistic placeholder.
				r.Post("/messages", message.Send(log, deps.Chat))
				r.Patch("/messages/{messageID}", message.Edit(log, deps.Messaging))
				r.Get("/messages/{messageID}/history", message.History(log, deps.Messaging))
				r.Post("/messages/{messageID}/reactions", message.React(log, deps.Messaging))
				r.Get("/reactions", message.Reactions(log, deps.Messaging))

				r.Post("/assign", conversation.Assign(log, deps.Assignment))
				// Transfer is an assign over an existing assignee; the
				// service records the kind from current state.
				r.Post("/transfer", conversation.Assign(log, deps.Assignment))
				r.Post("/unassign", conversation.Unassign(log, deps.Assignment))
				r.Get("/assignments", conversation.AssignmentHistory(log, deps.Assignment))

				r.Post("/status", conversation.SetStatus(log, deps.Messaging))
				r.Get("/export", conversation.Export(log, deps.Messaging))

				r.Post("/notes", conversation.AddNote(log, deps.Messaging))
				r.Get("/notes", conversation.ListNotes(log, deps.Messaging))
				r.Patch("/notes/{noteID}", conversation.PinNote(log, deps.Messaging))
				r.Delete("/notes/{noteID}", conversation.DeleteNote(log, deps.Messaging))
				r.Patch("/contact-notes", conversation.ContactNotes(log, deps.Messaging))

				r.Post("/categorize", conversation.Categorize(log, deps.Insights))
				r.Post("/summaries", conversation.Summarize(log, deps.Insights))
				r.Get("/summaries", conversation.Summaries(log, deps.Insights))
			})
		})

		v1.Route("/compose", func(r chi.Router) {
			r.Post("/", compose.ComposeReply(log, deps.Composer))
		})

		v1.Route("/instances", func(r chi.Router) {
			r.Get("/", instance.List(log, deps.Instances))
			r.Post("/", instance.Create(log, deps.Instances))
			r.Get("/{id}/status", instance.Status(log, deps.Instances))
			r.Post("/{id}/test", instance.Test(log, deps.Monitor))
			r.Post("/{id}/fix-contact-names", instance.FixNames(log, deps.Contacts))
		})

		v1.Route("/rules", func(r chi.Router) {
			r.Get("/", rule.List(log, deps.Assignment))
			r.Post("/", rule.Create(log, deps.Assignment))
			r.Post("/{id}/activate", rule.SetActive(log, deps.Assignment))
			r.Post("/{id}/route", rule.Route(log, deps.Assignment))
			r.Delete("/{id}", rule.Delete(log, deps.Assignment))
		})

		v1.Route("/team", func(r chi.Router) {
			r.Get("/", team.List(log, deps.Auth))
			r.Post("/signup", team.Signup(log, deps.Auth))
			r.Post("/invite", team.Invite(log, deps.Auth))
		})
	})

	httpLog := slog.NewLogLogger(log.Handler(), slog.LevelError)
	server.httpServer = &http.Server{
		Handler:  router,
		ErrorLog: httpLog,
	}

	serverAddress := fmt.Sprintf("%s:%s", conf.Listen.BindIP, conf.Listen.Port)
	listener, err := net.Listen("tcp", serverAddress)
	if err != nil {
		return err
	}

	server.log.Info("starting api server", slog.String("address", serverAddress))

	return server.httpServer.Serve(listener)
}
