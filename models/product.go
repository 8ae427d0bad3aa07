package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PetType string

const (
	PetDog    PetType = "DOG"
	PetCat    PetType = "CAT"
	PetBird   PetType = "BIRD"
	PetFish   PetType = "FISH"
	PetRabbit PetType = "RABBIT"
	PetOther  PetType = "OTHER"
)

type Product struct {
	gorm.Model
	Name        string          `gorm:"size:255" json:"name"`
	Description string          `gorm:"type:text" json:"description"`
	Price       decimal.Decimal `gorm:"type:decimal(12,2)" json:"price"`
	Quantity    int             `json:"quantity"`
	Category    string          `gorm:"size:64" json:"category"`
	Brand       string          `gorm:"size:64" json:"brand"`
	ImageURL    string          `json:"imageUrl"`
	PetType     PetType         `gorm:"size:16" json:"petType"`
	Active      bool            `gorm:"default:true" json:"active"`
}
