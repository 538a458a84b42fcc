package model

import (
	"time"

	"gorm.io/datatypes"
)

const TableNameGame = "games"

// Game mapped from table <games>
type Game struct {
	ID         int64                       `gorm:"column:id;primaryKey;autoIncrement:false" json:"id"`
	Title      string                      `gorm:"column:title;not null" json:"title"`
	Genres     datatypes.JSONSlice[string] `gorm:"column:genres;type:jsonb;not null" json:"genres"`
	Platforms  datatypes.JSONSlice[string] `gorm:"column:platforms;type:jsonb;not null" json:"platforms"`
	Tags       datatypes.JSONSlice[string] `gorm:"column:tags;type:jsonb;not null" json:"tags"`
	Rating     float64                     `gorm:"column:rating;not null" json:"rating"`
	Metacritic *int32                      `gorm:"column:metacritic" json:"metacritic"`
	AgeRating  int32                       `gorm:"column:age_rating;not null" json:"age_rating"`
	Playtime   int32                       `gorm:"column:playtime;not null" json:"playtime"`
	Released   *time.Time                  `gorm:"column:released;type:date" json:"released"`
}

// TableName Game's table name
func (*Game) TableName() string {
	return TableNameGame
}
