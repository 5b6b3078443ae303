package eventdb

import (
	"github.com/BurntSushi/migration"
	"github.com/cyclopcam/dbh"
	"github.com/cyclopcam/logs"
)

func Migrations(log logs.Log) []migration.Migrator {
	migs := []migration.Migrator{}
	idx := 0

	migs = append(migs, dbh.MakeMigrationFromSQL(log, &idx,
		`
		CREATE TABLE event(
			id INTEGER PRIMARY KEY,
			time INT NOT NULL,
			detector TEXT NOT NULL,
			camera TEXT NOT NULL,
			total INT NOT NULL,
			objects TEXT
		);

		CREATE INDEX idx_event_detector_time ON event (detector, time);
	`))

	return migs
}
