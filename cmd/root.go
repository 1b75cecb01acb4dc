package cmd

import (
	"os"
	"time"

	"github.com/AzielCF/az-bot/core/config"
	"github.com/AzielCF/az-bot/validations"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "az-bot",
	Short: "WhatsApp automation bot",
	Long: `az-bot connects to WhatsApp as a linked device, routes every incoming
message through the plugin registry and keeps its state on disk.`,
	RunE: runBot,
}

func init() {
	// A missing .env is fine, the process environment still applies.
	_ = godotenv.Load()

	time.Local = time.UTC

	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.SilenceUsage = true

	initFlags()

	cobra.OnInitialize(initEnvConfig)
}

// flagKeys maps persistent flags to the environment keys they override.
var flagKeys = map[string]string{
	"port":               "app_port",
	"debug":              "app_debug",
	"session-dir":        "session_dir",
	"pairing-number":     "pairing_number",
	"owner":              "owner_numbers",
	"plugin-dir":         "plugin_dir",
	"scraper-dir":        "scraper_dir",
	"db-driver":          "db_driver",
	"db-path":            "db_path",
	"write-store":        "write_store",
	"persist-interval":   "persist_interval",
	"message-workers":    "message_worker_pool_size",
	"message-queue-size": "message_worker_queue_size",
	"ai-provider":        "ai_provider",
}

func initFlags() {
	flags := rootCmd.PersistentFlags()

	flags.StringP("port", "p", "", "change port number with --port <number> | example: --port=8080")
	flags.BoolP("debug", "d", false, "hide or displaying log with --debug <true/false> | example: --debug=true")
	flags.String("session-dir", "", `folder that holds the WhatsApp session and the JSON snapshots | example: --session-dir="session"`)
	flags.String("pairing-number", "", `log in with a pairing code instead of a QR code | example: --pairing-number="6281234567890"`)
	flags.StringSlice("owner", nil, `owner phone numbers | example: --owner="6281234567890,6289876543210"`)
	flags.String("plugin-dir", "", `folder scanned for plugin manifests | example: --plugin-dir="assets/plugins"`)
	flags.String("scraper-dir", "", `folder scanned for scraper manifests | example: --scraper-dir="assets/scrapers"`)
	flags.String("db-driver", "", `database backend json|sqlite|postgres|valkey | example: --db-driver=sqlite`)
	flags.String("db-path", "", `database file for the json and sqlite backends | example: --db-path="database.json"`)
	flags.Bool("write-store", false, "also write store.json on every persist tick | example: --write-store=true")
	flags.Duration("persist-interval", 0, "how often the store and database are written | example: --persist-interval=30s")
	flags.Int("message-workers", 0, "number of concurrent message workers | example: --message-workers=30 (default: 20)")
	flags.Int("message-queue-size", 0, "backlog allowed per chat before messages are dropped | example: --message-queue-size=1500 (default: 1000)")
	flags.String("ai-provider", "", "provider used by the ai plugin gemini|openai | example: --ai-provider=openai")

	for flag, key := range flagKeys {
		_ = viper.BindPFlag(key, flags.Lookup(flag))
	}
}

// initEnvConfig loads the configuration from the environment, then applies
// any flag given on the command line.
func initEnvConfig() {
	viper.AutomaticEnv()

	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("[CONFIG] Failed to load configuration: %v", err)
	}
	applyFlags(cfg)

	if cfg.App.Debug {
		cfg.Whatsapp.LogLevel = "DEBUG"
		logrus.SetLevel(logrus.DebugLevel)
	}
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if err := validations.ValidateConfig(cfg); err != nil {
		logrus.Fatalf("[CONFIG] Invalid configuration: %v", err)
	}
	logrus.Debugf("[CONFIG] Settings: %v", config.GetAllSettings())
}

func applyFlags(cfg *config.Config) {
	flags := rootCmd.PersistentFlags()
	changed := func(name string) bool {
		f := flags.Lookup(name)
		return f != nil && f.Changed
	}

	if changed("port") {
		cfg.App.Port = viper.GetString("app_port")
	}
	if changed("debug") {
		cfg.App.Debug = viper.GetBool("app_debug")
	}
	if changed("session-dir") {
		cfg.Session.Dir = viper.GetString("session_dir")
		if os.Getenv("WHATSAPP_DB_URI") == "" {
			cfg.Whatsapp.DBURI = config.DefaultWhatsappDBURI(cfg.Session.Dir)
		}
	}
	if changed("pairing-number") {
		cfg.Session.PairingNumber = config.NormalizeNumber(viper.GetString("pairing_number"))
	}
	if changed("owner") {
		cfg.App.OwnerNumbers = config.NormalizeNumbers(viper.GetStringSlice("owner_numbers"))
	}
	if changed("plugin-dir") {
		cfg.Registry.PluginDir = viper.GetString("plugin_dir")
	}
	if changed("scraper-dir") {
		cfg.Registry.ScraperDir = viper.GetString("scraper_dir")
	}
	if changed("db-driver") {
		cfg.Database.Driver = viper.GetString("db_driver")
	}
	if changed("db-path") {
		cfg.Database.Path = viper.GetString("db_path")
	}
	if changed("write-store") {
		cfg.Session.WriteStore = viper.GetBool("write_store")
	}
	if changed("persist-interval") {
		cfg.Session.PersistInterval = viper.GetDuration("persist_interval")
	}
	if changed("message-workers") {
		cfg.WorkerPool.Size = viper.GetInt("message_worker_pool_size")
	}
	if changed("message-queue-size") {
		cfg.WorkerPool.QueueSize = viper.GetInt("message_worker_queue_size")
	}
	if changed("ai-provider") {
		cfg.AI.Provider = viper.GetString("ai_provider")
	}
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
