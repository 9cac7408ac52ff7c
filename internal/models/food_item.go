package models

import (
	"github.com/google/uuid"
)

// FoodItem rows belong to the master food table. The core only reads them;
// rows are maintained by a separate ingestion process.
type FoodItem struct {
	ID   uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name string    `gorm:"uniqueIndex;not null" json:"name"`
}
