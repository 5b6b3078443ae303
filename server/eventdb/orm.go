package eventdb

import (
	"github.com/cyclopcam/dbh"
)

// BaseModel is our base class for a GORM model.
// The default GORM Model uses int, but we prefer int64
type BaseModel struct {
	ID int64 `gorm:"primaryKey" json:"id"`
}

// Event is one positive detection (state > 0) on one detector entity
type Event struct {
	BaseModel
	Time     dbh.IntTime                        `json:"time"`     // When the detection happened
	Detector string                             `json:"detector"` // Detector entity name
	Camera   string                             `json:"camera"`   // Camera entity that supplied the image
	Total    int                                `json:"total"`    // Confident target instances in the image
	Objects  *dbh.JSONField[map[string]float64] `json:"objects"`  // All detected objects, name -> confidence
}
