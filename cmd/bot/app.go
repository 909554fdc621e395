package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/databounty/warden/cmd/bot/config"
	"github.com/databounty/warden/cmd/bot/monitoring"
	"github.com/databounty/warden/pkg/dataaccess"
	"github.com/databounty/warden/pkg/gateway"
	"github.com/databounty/warden/pkg/logging"
	"github.com/databounty/warden/pkg/registration"
	"github.com/databounty/warden/pkg/request"
	"github.com/databounty/warden/pkg/selector"
	"github.com/databounty/warden/pkg/sessions"
	"github.com/databounty/warden/pkg/tickets"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// IApp is the interface for the application.
type IApp interface {
	// Session returns the discord session.
	Session() *discordgo.Session

	// Log returns the logger.
	Log() *slog.Logger

	// Store returns the config store.
	Store() dataaccess.ConfigStore

	// Gateway returns the platform gateway.
	Gateway() gateway.Gateway

	// Tickets returns the ticket lifecycle manager.
	Tickets() *tickets.Manager

	// Selector returns the reaction role engine.
	Selector() *selector.Engine

	// Sessions returns the conversation session manager.
	Sessions() *sessions.Manager

	// Registration returns the registration manager.
	Registration() *registration.Manager
}

type App struct {
	// l is the logger.
	l *slog.Logger

	// r is the router for the application.
	r *mux.Router

	// svr is the server for the application.
	svr *http.Server

	// s is the discord session.
	s *discordgo.Session

	// store is the config store.
	store dataaccess.ConfigStore

	// gw is the platform gateway.
	gw gateway.Gateway

	// ticketMgr is the ticket lifecycle manager.
	ticketMgr *tickets.Manager

	// selectorEngine is the reaction role engine.
	selectorEngine *selector.Engine

	// sessionMgr is the conversation session manager.
	sessionMgr *sessions.Manager

	// registrationMgr is the registration manager.
	registrationMgr *registration.Manager

	// eventNotifier is the channel for notifying of events.
	eventNotifier chan any
}

// NewApp creates a new instance of App.
func NewApp(l *slog.Logger, r *mux.Router) *App {
	return &App{
		l: l,
		r: r,
	}
}

func (a *App) Run() error {
	// The store is the single source of truth for all persisted state.
	if config.MongoUri != "" {
		a.store = dataaccess.NewMongoStore(a.l)
	} else {
		a.store = dataaccess.NewFileStore(config.ConfigPath, a.l)
	}

	// Register bot.
	if err := a.RegisterBot(); err != nil {
		return fmt.Errorf("error registering bot: %w", err)
	}

	a.gw = gateway.NewDiscord(a.s)
	a.sessionMgr = sessions.NewManager(a.gw, a.l)
	a.selectorEngine = selector.NewEngine(a.store, a.gw, a.sessionMgr, a.l)
	a.ticketMgr = tickets.NewManager(a.store, a.gw, config.ApplicationId, a.l)
	a.registrationMgr = registration.NewManager(a.store, a.gw, a.l)

	a.s.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		a.l.Info(fmt.Sprintf("Logged in as %s#%s", r.User.Username, r.User.Discriminator))
	})

	if err := a.RegisterDiscordHandlers(); err != nil {
		return fmt.Errorf("error registering discord handlers: %w", err)
	}

	// Start event listener.
	go a.eventListener()

	// Open websocket.
	if err := a.s.Open(); err != nil {
		return fmt.Errorf("error opening connection to Discord: %w", err)
	}

	// Register slash commands.
	if err := a.registerSlashCommands(); err != nil {
		return fmt.Errorf("error registering slash commands: %w", err)
	}

	a.l.Info("Bot is now running.")

	a.generateServer()
	a.setupRoutes()
	a.runServer()

	// Register listener for shutdown signal.
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)

	// Process shutdown signal.
	for sig := range c {
		a.l.Info("Received shutdown signal", slog.String("signal", sig.String()))
		if err := a.ShutdownHook(); err != nil {
			a.l.Error("Error shutting down application", slog.String(logging.KeyError, err.Error()))
		}
		os.Exit(0)
	}
	return nil
}

func (a *App) ShutdownHook() error {
	// Reset the total number of guilds to 0.
	monitoring.TotalDiscordGuilds.Set(0)

	// Unregister slash commands.
	if err := a.unregisterSlashCommands(); err != nil {
		return fmt.Errorf("error unregistering slash commands: %w", err)
	}

	// Close the connection to Discord.
	if err := a.s.Close(); err != nil {
		return fmt.Errorf("error closing connection to Discord: %w", err)
	}
	return nil
}

func (a *App) RegisterBot() error {
	// Default the number of guilds to 0.
	monitoring.TotalDiscordGuilds.Set(0)

	dg, err := discordgo.New("Bot " + config.BotToken)
	if err != nil {
		return fmt.Errorf("error creating Discord session: %w", err)
	}

	dg.Identify.Intents = discordgo.MakeIntent(discordgo.IntentsAll)

	if a.eventNotifier == nil {
		// Create event notifier. This is used to observe events. It is buffered to prevent blocking.
		a.eventNotifier = make(chan any, 100)
	}

	dg.SetEventNotifier(a.eventNotifier)

	a.s = dg
	return nil
}

func (a *App) runServer() {
	go func() {
		a.l.Info("Starting monitoring server")
		if err := a.svr.ListenAndServe(); err != nil {
			a.l.Error("Error starting monitoring server", slog.String(logging.KeyError, err.Error()))
			a.l.Warn("Monitoring server will not be available")
		}
	}()
}

func (a *App) setupRoutes() {
	// PathMetrics is the path for metrics.
	a.r.HandleFunc(PathMetrics, promhttp.Handler().ServeHTTP).Methods(http.MethodGet)

	// PathHealth is the path for health check.
	a.r.HandleFunc(PathHealth, middlewareHttp(a.healthCheck(), a)).Methods(http.MethodGet)

	// NotFoundHandler is the handler for 404.
	a.r.NotFoundHandler = request.NotFoundHandler(a.l)

	// MethodNotAllowedHandler is the handler for 405.
	a.r.MethodNotAllowedHandler = request.MethodNotAllowedHandler(a.l)
}

func (a *App) generateServer() {
	a.svr = &http.Server{
		Addr:    ":" + config.MonitoringPort,
		Handler: a.r,
	}
}

func (a *App) GetJoinedGuilds() ([]*discordgo.UserGuild, error) {
	guilds, err := a.s.UserGuilds(0, "", "")
	if err != nil {
		return nil, fmt.Errorf("error getting guilds: %w", err)
	}
	return guilds, nil
}

func (a *App) RegisterDiscordHandlers() error {
	// Bot joined guild.
	a.s.AddHandler(guildJoinedHandler(a))

	// Bot left guild.
	a.s.AddHandler(guildLeaveHandler(a))

	// Reaction role handlers.
	a.s.AddHandler(reactionAddHandler(a))
	a.s.AddHandler(reactionRemoveHandler(a))

	// Direct messages are routed to outstanding conversation sessions.
	a.s.AddHandler(directMessageHandler(a))

	// Interaction create handler.
	a.s.AddHandler(interactionHandler(a,
		// Slash Controllers
		map[string]commandController{
			setupCmd.Name: setupCmdController,
		},
		// Button Controllers
		map[string]commandProcessor{
			gateway.OpenTicketButtonID:   openTicketButtonHandler,
			gateway.CloseTicketButtonID:  closeTicketButtonHandler,
			gateway.ConfirmCloseButtonID: confirmCloseButtonHandler,
			gateway.CancelCloseButtonID:  cancelCloseButtonHandler,
			gateway.RegisterTeamButtonID: registerTeamButtonHandler,
		},
		// Modal Controllers
		map[string]commandProcessor{
			TicketCreationModalID:   ticketCreationModalHandler,
			TeamRegistrationModalID: teamRegistrationModalHandler,
		}))
	return nil
}

func (a *App) eventListener() {
	for e := range a.eventNotifier {
		switch t := e.(type) {
		case *discordgo.Event:
			if t.Type != "" {
				monitoring.TotalDiscordEvents.WithLabelValues(t.Type).Inc()
			} else {
				// If there is no type, then use the operation name.
				monitoring.TotalDiscordEvents.WithLabelValues(strings.ToUpper(t.Operation.String())).Inc()
			}
		default:
			a.l.Error("Unknown event type", slog.String("type", fmt.Sprintf("%T", e)))
			monitoring.TotalDiscordEvents.WithLabelValues("UNKNOWN").Inc()
		}
	}
}

func (a *App) registerSlashCommands() error {
	// Get all guilds the bot is in.
	guilds, err := a.GetJoinedGuilds()
	if err != nil {
		return fmt.Errorf("error getting guilds: %w", err)
	}

	// Register slash commands for each guild.
	for _, g := range guilds {
		// Register the setup command.
		if _, err := a.Session().ApplicationCommandCreate(config.ApplicationId, g.ID, setupCmd); err != nil {
			return fmt.Errorf("error creating setup command for guild %s: %w", g.ID, err)
		}
	}
	return nil
}

func (a *App) unregisterSlashCommands() error {
	// Get all guilds the bot is in.
	guilds, err := a.GetJoinedGuilds()
	if err != nil {
		return fmt.Errorf("error getting guilds: %w", err)
	}

	// Delete slash commands for each guild.
	for _, guild := range guilds {
		// Delete the setup command.
		if err := a.s.ApplicationCommandDelete(config.ApplicationId, guild.ID, setupCmd.ID); err != nil {
			return fmt.Errorf("error deleting setup command for guild %s: %w", guild.ID, err)
		}
	}
	return nil
}

func (a *App) Session() *discordgo.Session {
	return a.s
}

func (a *App) Log() *slog.Logger {
	return a.l
}

func (a *App) Store() dataaccess.ConfigStore {
	return a.store
}

func (a *App) Gateway() gateway.Gateway {
	return a.gw
}

func (a *App) Tickets() *tickets.Manager {
	return a.ticketMgr
}

func (a *App) Selector() *selector.Engine {
	return a.selectorEngine
}

func (a *App) Sessions() *sessions.Manager {
	return a.sessionMgr
}

func (a *App) Registration() *registration.Manager {
	return a.registrationMgr
}
