package main

import (
	"github.com/spf13/cobra"

	"github.com/reldec/reldec/adapters/store/rdb"
	"github.com/reldec/reldec/config/reldeccfg"
	"github.com/reldec/reldec/domain/model"
	"github.com/reldec/reldec/usecase/release"
)

// defaultConfigPath is where release configuration is looked up unless -f is given.
const defaultConfigPath = "release.yml"

// loadReleaseSet reads, structurally validates and converts a release
// configuration file into the domain model and validator options.
func loadReleaseSet(path string) (*model.ReleaseSet, *model.ValidateOptions, error) {
	cfg, err := reldeccfg.Load(path)
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	return cfg.ToModel()
}

// buildUseCase constructs the release use case. The snapshot store is opened
// only when withStore is set, so read-only commands never touch the database.
func buildUseCase(cmd *cobra.Command, opts *model.ValidateOptions, withStore bool) (*release.UseCase, error) {
	u := &release.UseCase{Options: opts}
	if !withStore {
		return u, nil
	}
	dbURL, _ := cmd.Flags().GetString("db-url")
	db, err := rdb.OpenFromURL(dbURL)
	if err != nil {
		return nil, err
	}
	if err := rdb.AutoMigrate(db); err != nil {
		return nil, err
	}
	u.Repos = &release.Repos{Snapshot: rdb.NewSnapshotRepository(db)}
	return u, nil
}
