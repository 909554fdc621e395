package config

const (
	// AppName is the name of the application.
	AppName = "warden"

	// EnvBotToken is the environment variable for the bot token.
	EnvBotToken = `BOT_TOKEN`

	// EnvApplicationId is the environment variable for the application ID.
	EnvApplicationId = `APPLICATION_ID`

	// EnvMongoUri is the environment variable for the MongoDB URI. When set,
	// the config document is stored in Mongo instead of on disk.
	EnvMongoUri = `MONGO_URI`

	// EnvConfigPath is the environment variable for the config document path
	// used by the file backed store.
	EnvConfigPath = `CONFIG_PATH`

	// EnvMonitoringPort is the environment variable for the monitoring port.
	EnvMonitoringPort = `MONITORING_PORT`
)

var (
	// BotToken is the token for the bot.
	BotToken string

	// ApplicationId is the ID of the application. This is also the bot's own
	// user ID.
	ApplicationId string

	// MongoUri is the URI for the MongoDB database.
	MongoUri string

	// ConfigPath is the path of the config document on disk.
	ConfigPath string

	// MonitoringPort is the port for the monitoring server.
	MonitoringPort string
)
