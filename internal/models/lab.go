package models

import "time"

type Lab struct {
	ID        int64     `yaml:"id" json:"id"`
	Name      string    `yaml:"name" json:"name"`
	Location  string    `yaml:"location" json:"location"`
	Capacity  int64     `yaml:"capacity" json:"capacity"`
	SortOrder int64     `yaml:"sort_order" json:"sort_order"`
	IsActive  bool      `yaml:"is_active" json:"is_active"`
	CreatedAt time.Time `yaml:"created_at" json:"created_at"`
	UpdatedAt time.Time `yaml:"updated_at" json:"updated_at"`
}
