package db

import (
	"fmt"

	"tributes/internal/jobs"
	"tributes/internal/message/remote"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func Connect(dsn string) (*gorm.DB, error) {
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}
	return gdb, nil
}

func AutoMigrateAndIndexes(gdb *gorm.DB) error {
	if err := gdb.AutoMigrate(
		&remote.Row{},
		&jobs.Job{},
	); err != nil {
		return err
	}

	stmts := []string{
		// list order
		`create index if not exists idx_messages_timestamp_desc on messages("timestamp" desc);`,
		// ownership predicate on update/delete
		`create index if not exists idx_messages_id_author on messages(id, author_id);`,
		`create index if not exists idx_jobs_due on jobs(status, run_at);`,
		`create index if not exists idx_jobs_lock on jobs(status, locked_at);`,
	}
	for _, s := range stmts {
		if err := gdb.Exec(s).Error; err != nil {
			return fmt.Errorf("index exec failed: %w (sql=%s)", err, s)
		}
	}

	return nil
}
