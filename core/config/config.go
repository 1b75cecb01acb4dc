package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.mau.fi/whatsmeow/proto/waCompanionReg"
)

// Config holds all application configuration in a structured way.
type Config struct {
	App        AppConfig
	Session    SessionConfig
	Registry   RegistryConfig
	Database   DatabaseConfig
	Whatsapp   WhatsappConfig
	AI         AIConfig
	WorkerPool WorkerPoolConfig
}

type AppConfig struct {
	Version         string
	Port            string
	Debug           bool
	OS              string
	Platform        waCompanionReg.DeviceProps_PlatformType
	OwnerNumbers    []string
	CommandPrefixes []string
	BotName         string
}

// SessionConfig describes where session-derived state lives on disk.
type SessionConfig struct {
	Dir             string
	PairingNumber   string
	WriteStore      bool
	PersistInterval time.Duration
}

func (s SessionConfig) GroupMetadataPath() string {
	return filepath.Join(s.Dir, "groupMetadata.json")
}

func (s SessionConfig) ContactsPath() string {
	return filepath.Join(s.Dir, "contacts.json")
}

func (s SessionConfig) StorePath() string {
	return filepath.Join(s.Dir, "store.json")
}

type RegistryConfig struct {
	PluginDir        string
	PluginExtensions []string
	ScraperDir       string
	Recursive        bool
}

type DatabaseConfig struct {
	Driver   string // json, sqlite, postgres, valkey
	Path     string // JSON file or SQLite file
	Host     string
	Port     int
	User     string
	Password string
	Name     string // document name, and DB name for Postgres

	ValkeyEnabled   bool
	ValkeyAddress   string
	ValkeyPassword  string
	ValkeyDB        int
	ValkeyKeyPrefix string
}

type WhatsappConfig struct {
	DBURI       string
	LogLevel    string
	StatusRead  bool
	StatusReact bool
	DedupTTL    time.Duration
	TypeUser    string
	TypeGroup   string
}

type AIConfig struct {
	Provider     string
	Model        string
	GeminiAPIKey string
	OpenAIAPIKey string
	SystemPrompt string
}

type WorkerPoolConfig struct {
	Size      int
	QueueSize int
}

// Global provides access to the loaded configuration globally.
var Global *Config

// LoadConfig loads configuration from Environment Variables or defaults.
func LoadConfig() (*Config, error) {
	sessionDir := getEnv("SESSION_DIR", "session")

	debug := getEnvBool("APP_DEBUG", false) || getEnvBool("DEBUG", false)

	appCfg := AppConfig{
		Version:         "v1.0.0",
		Port:            getEnv("APP_PORT", "8000"),
		Debug:           debug,
		OS:              getEnv("APP_OS", "AzBot"),
		Platform:        waCompanionReg.DeviceProps_CHROME,
		OwnerNumbers:    NormalizeNumbers(getEnvList("OWNER_NUMBERS", nil)),
		CommandPrefixes: getEnvList("COMMAND_PREFIXES", []string{".", "!", "/", "#"}),
		BotName:         getEnv("BOT_NAME", "az-bot"),
	}

	sessionCfg := SessionConfig{
		Dir:             sessionDir,
		PairingNumber:   NormalizeNumber(getEnv("PAIRING_NUMBER", "")),
		WriteStore:      getEnvBool("WRITE_STORE", false),
		PersistInterval: getEnvDuration("PERSIST_INTERVAL", 30*time.Second),
	}

	registryCfg := RegistryConfig{
		PluginDir:        getEnv("PLUGIN_DIR", filepath.Join("assets", "plugins")),
		PluginExtensions: getEnvList("PLUGIN_EXTENSIONS", []string{".yaml", ".yml"}),
		ScraperDir:       getEnv("SCRAPER_DIR", filepath.Join("assets", "scrapers")),
		Recursive:        getEnvBool("REGISTRY_RECURSIVE", true),
	}

	dbCfg := DatabaseConfig{
		Driver:          strings.ToLower(getEnv("DB_DRIVER", "json")),
		Path:            getEnv("DB_PATH", "database.json"),
		Host:            getEnv("DB_HOST", "localhost"),
		Port:            getEnvInt("DB_PORT", 5432),
		User:            getEnv("DB_USER", "postgres"),
		Password:        getEnv("DB_PASSWORD", ""),
		Name:            getEnv("DB_NAME", "database"),
		ValkeyEnabled:   getEnvBool("VALKEY_ENABLED", false),
		ValkeyAddress:   getEnv("VALKEY_ADDRESS", "localhost:6379"),
		ValkeyPassword:  getEnv("VALKEY_PASSWORD", ""),
		ValkeyDB:        getEnvInt("VALKEY_DB", 0),
		ValkeyKeyPrefix: getEnv("VALKEY_KEY_PREFIX", "azbot:"),
	}

	waCfg := WhatsappConfig{
		DBURI:       getEnv("WHATSAPP_DB_URI", DefaultWhatsappDBURI(sessionDir)),
		LogLevel:    getEnv("WHATSAPP_LOG_LEVEL", "ERROR"),
		StatusRead:  getEnvBool("WHATSAPP_STATUS_READ", true),
		StatusReact: getEnvBool("WHATSAPP_STATUS_REACT", true),
		DedupTTL:    getEnvDuration("DEDUP_TTL", 10*time.Minute),
		TypeUser:    "@s.whatsapp.net",
		TypeGroup:   "@g.us",
	}

	aiCfg := AIConfig{
		Provider:     strings.ToLower(getEnv("AI_PROVIDER", "gemini")),
		Model:        getEnv("AI_MODEL", ""),
		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		OpenAIAPIKey: getEnv("OPENAI_API_KEY", ""),
		SystemPrompt: getEnv("AI_SYSTEM_PROMPT", ""),
	}

	cfg := &Config{
		App:        appCfg,
		Session:    sessionCfg,
		Registry:   registryCfg,
		Database:   dbCfg,
		Whatsapp:   waCfg,
		AI:         aiCfg,
		WorkerPool: WorkerPoolConfig{Size: getEnvInt("MESSAGE_WORKER_POOL_SIZE", 20), QueueSize: getEnvInt("MESSAGE_WORKER_QUEUE_SIZE", 1000)},
	}

	Global = cfg
	return cfg, nil
}

// DefaultWhatsappDBURI is the sqlite session database kept inside the session folder.
func DefaultWhatsappDBURI(sessionDir string) string {
	return fmt.Sprintf("file:%s?_foreign_keys=on", filepath.Join(sessionDir, "whatsapp.db"))
}
