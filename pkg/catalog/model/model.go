// Package model defines the stored catalog entities and their field registries.
package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Collection names.
const (
	AuthorCollection       = "authors"
	BookCollection         = "books"
	BookInstanceCollection = "bookinstances"
	GenreCollection        = "genres"
)

// Collections lists every catalog collection.
var Collections = []string{AuthorCollection, BookCollection, BookInstanceCollection, GenreCollection}

// Common stored field names.
const (
	FieldID      = "_id"
	FieldVersion = "__v"
)

type Author struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	FirstName   string             `bson:"firstName" json:"firstName"`
	LastName    string             `bson:"lastName" json:"lastName"`
	DateOfBirth time.Time          `bson:"dateOfBirth" json:"dateOfBirth"`
	DateOfDeath *time.Time         `bson:"dateOfDeath,omitempty" json:"dateOfDeath,omitempty"`
	Version     int                `bson:"__v" json:"__v"`
}

type Genre struct {
	ID      primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name    string             `bson:"name" json:"name"`
	Version int                `bson:"__v" json:"__v"`
}

type Book struct {
	ID      primitive.ObjectID   `bson:"_id,omitempty" json:"_id"`
	Title   string               `bson:"title" json:"title"`
	Author  primitive.ObjectID   `bson:"author" json:"author"`
	Summary string               `bson:"summary" json:"summary"`
	ISBN    string               `bson:"isbn" json:"isbn"`
	Genre   []primitive.ObjectID `bson:"genre" json:"genre"`
	Version int                  `bson:"__v" json:"__v"`
}

type BookInstance struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Book      primitive.ObjectID `bson:"book" json:"book"`
	Publisher string             `bson:"publisher" json:"publisher"`
	Status    Status             `bson:"status" json:"status"`
	Back      time.Time          `bson:"back" json:"back"`
	Version   int                `bson:"__v" json:"__v"`
}

// Status is the circulation state of a BookInstance.
type Status string

const (
	StatusAvailable   Status = "Available"
	StatusMaintenance Status = "Maintenance"
	StatusLoaned      Status = "Loaned"
	StatusReserved    Status = "Reserved"
)

// DefaultStatus is applied when a book instance is created without one.
const DefaultStatus = StatusMaintenance

// Statuses lists every valid Status.
var Statuses = []Status{StatusAvailable, StatusMaintenance, StatusLoaned, StatusReserved}

// Valid reports whether s is one of Statuses.
func (s Status) Valid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}
