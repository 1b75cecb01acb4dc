package database

import (
	"errors"
	"fmt"

	"github.com/AzielCF/az-bot/core/config"
	coreDB "github.com/AzielCF/az-bot/core/database"
	domainDatabase "github.com/AzielCF/az-bot/domains/database"
	"github.com/AzielCF/az-bot/infrastructure/valkey"
)

// NewRepository picks the document backend configured by DB_DRIVER.
func NewRepository(cfg *config.Config, vk *valkey.Client) (domainDatabase.IDocumentRepository, error) {
	switch cfg.Database.Driver {
	case "", "json":
		return NewJSONRepository(cfg.Database.Path), nil
	case "sqlite", "postgres":
		db, err := coreDB.NewDatabase(cfg)
		if err != nil {
			return nil, err
		}
		return NewGormRepository(db, cfg.Database.Name)
	case "valkey":
		if vk == nil {
			return nil, errors.New("DB_DRIVER=valkey requires VALKEY_ENABLED=true")
		}
		return NewValkeyRepository(vk, cfg.Database.Name), nil
	}
	return nil, fmt.Errorf("unsupported database driver: %s", cfg.Database.Driver)
}
