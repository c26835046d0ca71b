package models

import "time"

// Category is the product category as embedded by the products API.
type Category struct {
	ID         int        `json:"id"`
	Name       string     `json:"name"`
	Image      string     `json:"image,omitempty"`
	CreationAt *time.Time `json:"creationAt,omitempty"`
	UpdatedAt  *time.Time `json:"updatedAt,omitempty"`
}

// Product represents a catalog entry as returned by the remote products API.
type Product struct {
	ID          int        `json:"id"`
	Title       string     `json:"title"`
	Slug        string     `json:"slug,omitempty"`
	Price       float64    `json:"price"`
	Description string     `json:"description"`
	CategoryID  int        `json:"categoryId,omitempty"`
	Category    *Category  `json:"category,omitempty"`
	Images      []string   `json:"images"`
	CreationAt  *time.Time `json:"creationAt,omitempty"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"`
}

// Clone returns a deep copy so callers can hold a snapshot that later
// catalog updates will not reach.
func (p Product) Clone() Product {
	out := p
	if p.Images != nil {
		out.Images = append([]string(nil), p.Images...)
	}
	if p.Category != nil {
		c := *p.Category
		out.Category = &c
	}
	return out
}

// ProductInput is the payload for creating a product. The id is assigned by the server.
type ProductInput struct {
	Title       string   `json:"title" validate:"required"`
	Price       float64  `json:"price" validate:"gt=0"`
	Description string   `json:"description" validate:"required"`
	CategoryID  int      `json:"categoryId" validate:"gt=0"`
	Images      []string `json:"images" validate:"min=1,dive,url"`
}

// ProductPatch is a partial update of an existing product. Nil fields are left untouched.
type ProductPatch struct {
	ID          int      `json:"-" validate:"gt=0"`
	Title       *string  `json:"title,omitempty" validate:"omitnil,min=1"`
	Price       *float64 `json:"price,omitempty" validate:"omitnil,gt=0"`
	Description *string  `json:"description,omitempty" validate:"omitnil,min=1"`
	CategoryID  *int     `json:"categoryId,omitempty" validate:"omitnil,gt=0"`
	Images      []string `json:"images,omitempty" validate:"omitnil,min=1,dive,url"`
}
