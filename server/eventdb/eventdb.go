// Package eventdb stores a record of positive detections in a SQLite
// database, so that the user can see what was detected, and when.
package eventdb

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cyclopcam/dbh"
	"github.com/cyclopcam/logs"
	"gorm.io/gorm"
)

// Default and maximum number of events returned by RecentEvents
const (
	DefaultQueryLimit = 100
	MaxQueryLimit     = 1000
)

// EventDB manages the detection event database
type EventDB struct {
	log  logs.Log
	db   *gorm.DB
	root string // Directory where the sqlite DB lives
}

// Open or create an event DB inside 'root'
func Open(logger logs.Log, root string) (*EventDB, error) {
	logger = logs.NewPrefixLogger(logger, "EventDB")
	root = filepath.Clean(root)
	if err := os.MkdirAll(root, 0770); err != nil {
		return nil, fmt.Errorf("Failed to create event storage path '%v': %w", root, err)
	}
	dbPath := filepath.Join(root, "events.sqlite")
	logger.Infof("Opening event DB at '%v'", dbPath)
	db, err := dbh.OpenDB(logger, dbh.MakeSqliteConfig(dbPath), Migrations(logger), 0)
	if err != nil {
		return nil, fmt.Errorf("Failed to open event database %v: %w", dbPath, err)
	}
	return &EventDB{
		log:  logger,
		db:   db,
		root: root,
	}, nil
}

// AddDetection records one positive detection
func (e *EventDB) AddDetection(detector, cameraEntity string, total int, objects map[string]float64) error {
	event := &Event{
		Time:     dbh.MakeIntTime(time.Now()),
		Detector: detector,
		Camera:   cameraEntity,
		Total:    total,
		Objects:  dbh.MakeJSONField(objects),
	}
	return e.db.Create(event).Error
}

// RecentEvents returns the most recent events, newest first.
// If detector is not empty, only events of that detector are returned.
func (e *EventDB) RecentEvents(detector string, limit int) ([]*Event, error) {
	if limit <= 0 {
		limit = DefaultQueryLimit
	}
	limit = min(limit, MaxQueryLimit)
	q := e.db.Order("id DESC").Limit(limit)
	if detector != "" {
		q = q.Where("detector = ?", detector)
	}
	events := []*Event{}
	if err := q.Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}
