package main

import (
	"context"
	"fmt"

	"github.com/spf13/viper"

	"github.com/ejcasil/dualledger/internal/attachment"
	"github.com/ejcasil/dualledger/internal/config"
	"github.com/ejcasil/dualledger/internal/ledger"
	"github.com/ejcasil/dualledger/internal/storage"
)

// initStorage initializes the storage service with proper path expansion.
func initStorage(ctx context.Context) (*storage.SQLiteStorage, error) {
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		dbPath = config.DefaultDatabasePath()
	}
	dbPath = config.ExpandPath(dbPath)

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// initAttachments builds the receipt store from config.
func initAttachments() (*attachment.FilesystemStore, error) {
	dir := viper.GetString("receipts.path")
	if dir == "" {
		dir = config.DefaultReceiptsPath()
	}
	return attachment.NewFilesystemStore(config.ExpandPath(dir), "/receipts")
}

// initLedger wires storage and attachments into the ledger facade.
func initLedger(ctx context.Context) (*ledger.Ledger, *storage.SQLiteStorage, error) {
	store, err := initStorage(ctx)
	if err != nil {
		return nil, nil, err
	}

	attachments, err := initAttachments()
	if err != nil {
		_ = store.Close()
		return nil, nil, err
	}

	return ledger.New(store, attachments), store, nil
}
