// internal/domain/models/calendarentry.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CalendarEntry is a scheduled event owned by a group.
// DayLabel is free-form text chosen by the client, not a parsed date.
type CalendarEntry struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Group       string             `bson:"group" json:"group"`
	DayLabel    string             `bson:"day_label" json:"day_label"`
	Description string             `bson:"description" json:"description"`
	DayLabelEnd string             `bson:"day_label_end" json:"day_label_end"`
	StartISO    string             `bson:"start_iso" json:"start_iso"`
	EndISO      string             `bson:"end_iso" json:"end_iso"`
	Website     string             `bson:"website" json:"website"`
	Author      string             `bson:"author" json:"author"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
