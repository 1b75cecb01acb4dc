package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/AzielCF/az-bot/core/config"
	infraDB "github.com/AzielCF/az-bot/infrastructure/database"
	"github.com/AzielCF/az-bot/infrastructure/valkey"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Copy the database document to another backend",
	Long: `Reads the database document from the configured DB_DRIVER and writes it
unchanged to the backend named by --to. Valkey targets need VALKEY_ENABLED=true.`,
	RunE: runMigrate,
}

func init() {
	migrateCmd.Flags().String("to", "", "target backend json|sqlite|postgres|valkey")
	migrateCmd.Flags().String("to-path", "", "target file for the json and sqlite backends")
	_ = migrateCmd.MarkFlagRequired("to")
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	to, _ := cmd.Flags().GetString("to")
	toPath, _ := cmd.Flags().GetString("to-path")

	src := config.Global
	dst := *src
	dst.Database.Driver = strings.ToLower(strings.TrimSpace(to))
	if toPath != "" {
		dst.Database.Path = toPath
	}
	if dst.Database.Driver == src.Database.Driver && dst.Database.Path == src.Database.Path {
		return fmt.Errorf("source and target are the same %s backend", src.Database.Driver)
	}

	ctx := context.Background()
	vk, err := openValkey(src)
	if err != nil {
		return err
	}
	if vk != nil {
		defer vk.Close()
	}

	n, err := migrateDocument(ctx, src, &dst, vk)
	if err != nil {
		return err
	}
	logrus.Infof("[MIGRATION] Copied %d bytes from %s to %s", n, src.Database.Driver, dst.Database.Driver)
	return nil
}

func migrateDocument(ctx context.Context, src, dst *config.Config, vk *valkey.Client) (int, error) {
	from, err := infraDB.NewRepository(src, vk)
	if err != nil {
		return 0, fmt.Errorf("open source: %w", err)
	}
	defer from.Close()

	to, err := infraDB.NewRepository(dst, vk)
	if err != nil {
		return 0, fmt.Errorf("open target: %w", err)
	}
	defer to.Close()

	data, err := from.Read(ctx)
	if err != nil {
		return 0, fmt.Errorf("read source: %w", err)
	}
	if len(data) == 0 {
		return 0, fmt.Errorf("source %s database is empty", src.Database.Driver)
	}
	if err := to.Write(ctx, data); err != nil {
		return 0, fmt.Errorf("write target: %w", err)
	}
	return len(data), nil
}
