package cmd

import (
	"github.com/kareemelharony/samatcher/pkg/competitors"
	"github.com/kareemelharony/samatcher/pkg/paapi"
	"github.com/kareemelharony/samatcher/pkg/storage"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// loadSettings assembles the PA-API settings from viper (config file or
// PAAPI_* environment variables) and rejects missing credentials before any
// network call happens.
func loadSettings() (paapi.Settings, error) {
	settings := paapi.Settings{
		AccessKey:   viper.GetString("access_key"),
		SecretKey:   viper.GetString("secret_key"),
		PartnerTag:  viper.GetString("partner_tag"),
		PartnerType: viper.GetString("partner_type"),
		Marketplace: viper.GetString("marketplace"),
		Host:        viper.GetString("host"),
		Region:      viper.GetString("region"),
	}
	settings.ApplyDefaults()
	if err := settings.Validate(); err != nil {
		return paapi.Settings{}, err
	}
	return settings, nil
}

// buildServices opens the local database and wires the API client, seed
// manager and competitor service. The caller must Close the returned DB.
func buildServices(cmd *cobra.Command) (*competitors.SeedManager, *competitors.Service, *storage.DB, error) {
	settings, err := loadSettings()
	if err != nil {
		return nil, nil, nil, err
	}

	dbPath, _ := cmd.Flags().GetString("dbpath")
	db, err := storage.Open(dbPath)
	if err != nil {
		return nil, nil, nil, err
	}

	client := paapi.NewClient(settings)
	manager := competitors.NewSeedManager(client, db)
	service := competitors.NewService(client, db, nil)
	return manager, service, db, nil
}
