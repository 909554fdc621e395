package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/databounty/warden/cmd/bot/monitoring"
	"github.com/databounty/warden/pkg/logging"
	"github.com/databounty/warden/pkg/request"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

const (
	// PathMetrics is the path for the metrics endpoint.
	PathMetrics = "/metrics"

	// PathHealth is the path for the health endpoint.
	PathHealth = "/health"
)

// commandController resolves an interaction to the processor that should handle it.
type commandController func(a IApp, i *discordgo.InteractionCreate) (commandProcessor, error)

// commandProcessor is the processor for an interaction.
type commandProcessor func(a IApp, i *discordgo.InteractionCreate) error

type Controller func(w http.ResponseWriter, r *http.Request)

func middlewareHttp(handler Controller, a IApp) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := time.Now().UTC()
		cw := request.NewClientWriter(w)

		// Recover from any panics that occur in the handler.
		defer func() {
			if rec := recover(); rec != nil {
				a.Log().Error("Panic in handler",
					slog.String(logging.KeyError, fmt.Sprintf("%v", rec)),
					slog.String("stack", string(debug.Stack())),
				)
				cw.WriteHeader(http.StatusInternalServerError)
				if err := json.NewEncoder(cw).Encode(request.NewMessage(request.ErrInternalServer.Error())); err != nil {
					a.Log().Error("Error encoding response", slog.String(logging.KeyError, err.Error()))
				}
			}
		}()

		var path string
		route := mux.CurrentRoute(r)
		if route != nil { // The route may be nil if the request is not routed.
			var err error
			path, err = route.GetPathTemplate()
			if err != nil {
				// An error here is only returned if the route does not define a path.
				a.Log().Error("Error getting path template", slog.String(logging.KeyError, err.Error()))
				path = r.URL.Path // If the route does not define a path, use the URL path.
			}
		} else {
			path = r.URL.Path // If the route is nil, use the URL path.
		}

		defer func() {
			// Run the deferred function after the request has been handled, as the status code will not be available until then.
			monitoring.HttpTotalRequests.WithLabelValues(path, r.Method, fmt.Sprintf("%d", cw.StatusCode())).Inc()
			monitoring.HttpRequestDuration.WithLabelValues(path, r.Method, fmt.Sprintf("%d", cw.StatusCode())).Observe(time.Since(now).Seconds())
		}()

		handler(cw, r)
	}
}

// interactionHandler dispatches interactions to the registered controllers. Slash commands
// go through a controller that resolves the sub command; buttons and modals are keyed
// directly by their custom ID.
func interactionHandler(
	a IApp,
	slashControllers map[string]commandController,
	buttonControllers map[string]commandProcessor,
	modalControllers map[string]commandProcessor,
) func(s *discordgo.Session, i *discordgo.InteractionCreate) {
	return func(_ *discordgo.Session, i *discordgo.InteractionCreate) {
		// Each interaction gets a correlation ID so that all logs for one interaction can
		// be tied together.
		l := a.Log().With(slog.String(logging.KeyInteraction, uuid.New().String()))

		switch i.Type {
		case discordgo.InteractionApplicationCommand:
			name := i.ApplicationCommandData().Name
			l.Debug("Handling slash command " + name)

			controller, ok := slashControllers[name]
			if !ok {
				l.Error("No controller found for command", slog.String("command", name))
				respondInteractionError(a, i, l)
				return
			}

			processor, err := controller(a, i)
			if err != nil {
				l.Error(fmt.Sprintf("Error getting processor for command %s", name),
					slog.String(logging.KeyError, err.Error()))
				respondInteractionError(a, i, l)
				return
			} else if processor == nil {
				// The controller handled the interaction itself.
				return
			}

			if err := processor(a, i); err != nil {
				l.Error(fmt.Sprintf("Error processing command %s", name),
					slog.String(logging.KeyError, err.Error()))
				respondInteractionError(a, i, l)
				return
			}
		case discordgo.InteractionMessageComponent:
			id := i.MessageComponentData().CustomID
			l.Debug("Handling component interaction " + id)

			processor, ok := buttonControllers[id]
			if !ok {
				l.Error("No controller found for component", slog.String("component", id))
				respondInteractionError(a, i, l)
				return
			}

			if err := processor(a, i); err != nil {
				l.Error(fmt.Sprintf("Error processing component %s", id),
					slog.String(logging.KeyError, err.Error()))
				respondInteractionError(a, i, l)
				return
			}
		case discordgo.InteractionModalSubmit:
			id := i.ModalSubmitData().CustomID
			l.Debug("Handling modal submission " + id)

			processor, ok := modalControllers[id]
			if !ok {
				l.Error("No controller found for modal", slog.String("modal", id))
				respondInteractionError(a, i, l)
				return
			}

			if err := processor(a, i); err != nil {
				l.Error(fmt.Sprintf("Error processing modal %s", id),
					slog.String(logging.KeyError, err.Error()))
				respondInteractionError(a, i, l)
				return
			}
		default:
			l.Warn("Unhandled interaction type", slog.String("type", i.Type.String()))
		}
	}
}

func respondInteractionError(a IApp, i *discordgo.InteractionCreate, l *slog.Logger) {
	if err := respondError(a, i); err != nil {
		l.Error("Error responding to interaction", slog.String(logging.KeyError, err.Error()))
	}
}
