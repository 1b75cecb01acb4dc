package validations

import (
	"time"

	"github.com/AzielCF/az-bot/core/config"
	pkgError "github.com/AzielCF/az-bot/pkg/error"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

func ValidateConfig(cfg *config.Config) error {
	if cfg == nil {
		return pkgError.ValidationError("config is not loaded")
	}

	err := validation.Errors{
		"app": validation.ValidateStruct(&cfg.App,
			validation.Field(&cfg.App.Port, validation.Required, is.Port),
			validation.Field(&cfg.App.CommandPrefixes, validation.Required),
			validation.Field(&cfg.App.OwnerNumbers, validation.Each(is.Digit)),
		),
		"session": validation.ValidateStruct(&cfg.Session,
			validation.Field(&cfg.Session.Dir, validation.Required),
			validation.Field(&cfg.Session.PairingNumber, is.Digit, validation.Length(8, 15)),
			validation.Field(&cfg.Session.PersistInterval, validation.Required, validation.Min(time.Second)),
		),
		"registry": validation.ValidateStruct(&cfg.Registry,
			validation.Field(&cfg.Registry.PluginDir, validation.Required),
			validation.Field(&cfg.Registry.PluginExtensions, validation.Required),
		),
		"database": validation.ValidateStruct(&cfg.Database,
			validation.Field(&cfg.Database.Driver, validation.Required, validation.In("json", "sqlite", "postgres", "valkey")),
			validation.Field(&cfg.Database.Path, validation.When(cfg.Database.Driver == "json" || cfg.Database.Driver == "sqlite", validation.Required)),
			validation.Field(&cfg.Database.Name, validation.Required),
		),
		"whatsapp": validation.ValidateStruct(&cfg.Whatsapp,
			validation.Field(&cfg.Whatsapp.DBURI, validation.Required),
			validation.Field(&cfg.Whatsapp.LogLevel, validation.In("DEBUG", "INFO", "WARN", "ERROR")),
			validation.Field(&cfg.Whatsapp.DedupTTL, validation.Min(time.Second)),
		),
		"ai": validation.ValidateStruct(&cfg.AI,
			validation.Field(&cfg.AI.Provider, validation.In("gemini", "openai")),
		),
	}.Filter()

	if err == nil && cfg.Database.Driver == "valkey" && !cfg.Database.ValkeyEnabled {
		err = validation.NewError("valkey_required", "DB_DRIVER=valkey requires VALKEY_ENABLED=true")
	}
	if err != nil {
		return pkgError.ValidationError(err.Error())
	}
	return nil
}
