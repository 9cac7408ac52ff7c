package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type GenerationMode string

const (
	GenerationModeFree    GenerationMode = "free"
	GenerationModePremium GenerationMode = "premium"
)

type Recipe struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`

	Title     string  `gorm:"not null" json:"title"`
	SourceURL *string `gorm:"index" json:"source_url"`
	Platform  string  `json:"platform"`

	PrepTime  *int `json:"prep_time"`
	CookTime  *int `json:"cook_time"`
	TotalTime *int `json:"total_time"`
	Servings  *int `json:"servings"`

	CuisineOrigin *string                     `json:"cuisine_origin"`
	MealType      *string                     `json:"meal_type"`
	DietType      datatypes.JSONSlice[string] `json:"diet_type"`

	Calories *float64 `json:"calories"`
	Proteins *float64 `json:"proteins"`
	Carbs    *float64 `json:"carbs"`
	Fats     *float64 `json:"fats"`

	Equipment datatypes.JSONSlice[string] `json:"equipment"`
	ImageURL  *string                     `json:"image_url"`

	GenerationMode GenerationMode `gorm:"default:free" json:"generation_mode"`

	Ingredients []Ingredient `gorm:"foreignKey:RecipeID" json:"ingredients"`
	Steps       []Step       `gorm:"foreignKey:RecipeID" json:"steps"`
}

type Ingredient struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	RecipeID   uuid.UUID  `gorm:"type:uuid;index;not null" json:"recipe_id"`
	Name       string     `gorm:"not null" json:"name"`
	Quantity   *float64   `json:"quantity"`
	Unit       *string    `json:"unit"`
	FoodItemID *uuid.UUID `gorm:"type:uuid" json:"food_item_id"`
}

type Step struct {
	ID              uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	RecipeID        uuid.UUID                   `gorm:"type:uuid;index;not null" json:"recipe_id"`
	Order           int                         `gorm:"column:order;not null" json:"order"`
	Text            string                      `gorm:"not null" json:"text"`
	Duration        *int                        `json:"duration"`
	Temperature     *string                     `json:"temperature"`
	IngredientsUsed datatypes.JSONSlice[string] `json:"ingredients_used"`
}
