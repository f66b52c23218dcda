// Package database handles database connections.
//
// It provides a wrapper around GORM (Go Object Relational Mapping) that configures
// MySQL or SQLite connections based on the application's configuration. SQLite
// (including :memory:) is the driver used by the test suites.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Fatal("Database connection failed", err)
//	}
package database
