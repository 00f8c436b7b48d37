// internal/domain/models/item.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Item is a point of interest owned by a group.
//
// Every string field is always present; missing input is stored as "".
// Visited is either "SI" or "".
type Item struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Group       string             `bson:"group" json:"group"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description" json:"description"`
	Category    string             `bson:"category" json:"category"`
	Province    string             `bson:"province" json:"province"`
	Visited     string             `bson:"visited" json:"visited"`
	Website     string             `bson:"website" json:"website"`
	Author      string             `bson:"author" json:"author"`

	CreatedAt time.Time  `bson:"created_at" json:"created_at"`
	VisitedAt *time.Time `bson:"visited_at,omitempty" json:"visited_at,omitempty"`
}
