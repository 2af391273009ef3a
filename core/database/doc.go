// Package database opens the run journal database.
//
// Connect supports MySQL for shared deployments and SQLite for a journal
// file next to the state directory. GORM's own logging is silenced; the
// journal is optional and its failures are logged by the caller.
//
// GetTableColumns and MissingColumns let the journal report schema drift
// when it is pointed at a table it did not create.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Warn("Run journal disabled", zap.Error(err))
//	}
package database
