package domain

import (
	"fmt"
	"strings"
	"time"
)

type Category string

const (
	CategoryElectronics Category = "Electronics"
	CategoryClothing    Category = "Clothing"
	CategoryHome        Category = "Home"
	CategoryBooks       Category = "Books"
	CategorySports      Category = "Sports"
)

func ParseCategory(s string) (Category, bool) {
	switch Category(s) {
	case CategoryElectronics, CategoryClothing, CategoryHome, CategoryBooks, CategorySports:
		return Category(s), true
	default:
		return "", false
	}
}

type Condition string

const (
	ConditionLikeNew  Condition = "Like New"
	ConditionVeryGood Condition = "Very Good"
	ConditionGood     Condition = "Good"
	ConditionFair     Condition = "Fair"
)

func ParseCondition(s string) (Condition, bool) {
	switch Condition(s) {
	case ConditionLikeNew, ConditionVeryGood, ConditionGood, ConditionFair:
		return Condition(s), true
	default:
		return "", false
	}
}

type Location struct {
	City    string `json:"city"`
	State   string `json:"state"`
	Country string `json:"country"`
}

type Product struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Category    Category  `json:"category"`
	Condition   Condition `json:"condition"`
	Images      []string  `json:"images"`
	SellerID    int64     `json:"seller_id"`
	Seller      *Profile  `json:"seller,omitempty"`
	IsActive    bool      `json:"is_active"`
	CO2Saved    float64   `json:"co2_saved"`
	Location    Location  `json:"location"`
	Tags        []string  `json:"tags"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type CreateProductRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Price       float64  `json:"price"`
	Category    string   `json:"category"`
	Condition   string   `json:"condition"`
	Images      []string `json:"images"`
	CO2Saved    float64  `json:"co2Saved"`
	Location    Location `json:"location"`
	Tags        []string `json:"tags"`
}

func (r *CreateProductRequest) Normalize() {
	r.Title = strings.TrimSpace(r.Title)
	r.Description = strings.TrimSpace(r.Description)
	for i, t := range r.Tags {
		r.Tags[i] = strings.TrimSpace(t)
	}
	if r.Location.Country == "" {
		r.Location.Country = "US"
	}
}

func (r *CreateProductRequest) Validate() error {
	if r.Title == "" || r.Description == "" || r.Category == "" || r.Condition == "" {
		return fmt.Errorf("missing required fields")
	}
	if len(r.Title) > 100 {
		return fmt.Errorf("title must be at most 100 characters")
	}
	if len(r.Description) > 1000 {
		return fmt.Errorf("description must be at most 1000 characters")
	}
	if r.Price < 0 {
		return fmt.Errorf("price must be non-negative")
	}
	if r.CO2Saved < 0 {
		return fmt.Errorf("co2Saved must be non-negative")
	}
	if _, ok := ParseCategory(r.Category); !ok {
		return fmt.Errorf("invalid category: %s", r.Category)
	}
	if _, ok := ParseCondition(r.Condition); !ok {
		return fmt.Errorf("invalid condition: %s", r.Condition)
	}
	return nil
}

// UpdateProductRequest patches a listing. Seller and id are immutable.
type UpdateProductRequest struct {
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Price       *float64  `json:"price,omitempty"`
	Category    *string   `json:"category,omitempty"`
	Condition   *string   `json:"condition,omitempty"`
	Images      *[]string `json:"images,omitempty"`
	CO2Saved    *float64  `json:"co2Saved,omitempty"`
	Location    *Location `json:"location,omitempty"`
	Tags        *[]string `json:"tags,omitempty"`
}

func (r *UpdateProductRequest) Validate() error {
	if r.Title != nil {
		if t := strings.TrimSpace(*r.Title); t == "" || len(t) > 100 {
			return fmt.Errorf("title must be 1-100 characters")
		}
	}
	if r.Description != nil {
		if d := strings.TrimSpace(*r.Description); d == "" || len(d) > 1000 {
			return fmt.Errorf("description must be 1-1000 characters")
		}
	}
	if r.Price != nil && *r.Price < 0 {
		return fmt.Errorf("price must be non-negative")
	}
	if r.CO2Saved != nil && *r.CO2Saved < 0 {
		return fmt.Errorf("co2Saved must be non-negative")
	}
	if r.Category != nil {
		if _, ok := ParseCategory(*r.Category); !ok {
			return fmt.Errorf("invalid category: %s", *r.Category)
		}
	}
	if r.Condition != nil {
		if _, ok := ParseCondition(*r.Condition); !ok {
			return fmt.Errorf("invalid condition: %s", *r.Condition)
		}
	}
	return nil
}

type SortMode string

const (
	SortPriceAsc  SortMode = "price_asc"
	SortPriceDesc SortMode = "price_desc"
	SortNewest    SortMode = "newest"
)

func ParseSortMode(s string) (SortMode, bool) {
	switch SortMode(s) {
	case SortPriceAsc, SortPriceDesc, SortNewest:
		return SortMode(s), true
	default:
		return "", false
	}
}

type ProductFilter struct {
	Category string
	Search   string
	Sort     SortMode
	Page     int
	Limit    int
}

type Pagination struct {
	Current int   `json:"current"`
	Pages   int   `json:"pages"`
	Total   int64 `json:"total"`
}

type ProductPage struct {
	Products   []Product  `json:"products"`
	Pagination Pagination `json:"pagination"`
}
