package migrate

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mpapenbr/gridrace-service-manager-go/log"
	"github.com/mpapenbr/gridrace-service-manager-go/pkg/cmd/util"
	"github.com/mpapenbr/gridrace-service-manager-go/pkg/config"
	dbmigrate "github.com/mpapenbr/gridrace-service-manager-go/pkg/db/migrate"
)

var drop bool

func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "performs database migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return startMigration()
		},
	}

	cmd.Flags().BoolVar(&drop,
		"drop",
		false,
		"reverts all migrations instead of applying them")

	return cmd
}

func startMigration() error {
	util.SetupLogger()
	if config.Store != config.StorePostgres && config.Store != "" {
		log.Info("Nothing to migrate", log.String("store", config.Store))
		return nil
	}
	util.WaitForRequiredServices()

	dbURL := prepareURLForDB(config.DB)
	if drop {
		log.Warn("Dropping all tables")
		return dbmigrate.DropDb(dbURL)
	}
	if err := dbmigrate.MigrateDb(dbURL); err != nil {
		log.Error("Migration failed", log.ErrorField(err))
		return err
	}
	version, dirty, err := dbmigrate.Version(dbURL)
	if err != nil {
		return err
	}
	log.Info("Database migrated",
		log.Uint("version", version),
		log.Bool("dirty", dirty))
	return nil
}

func prepareURLForDB(url string) string {
	options := "sslmode=disable"
	if strings.Contains(url, options) {
		return url
	}
	if strings.Contains(url, "?") {
		return fmt.Sprintf("%s&%s", url, options)
	} else {
		return fmt.Sprintf("%s?%s", url, options)
	}
}
