package model

// Product is a concession item sold alongside tickets.
type Product struct {
	Base
	Name        string    `gorm:"size:200;not null" json:"name"`
	AvatarURL   string    `gorm:"type:text" json:"avatar_url"`
	Price       float64   `gorm:"type:decimal(12,2)" json:"price"`
	Description string    `gorm:"type:text" json:"description"`
	CategoryID  *uint64   `gorm:"index" json:"category_id"`
	Category    *Category `json:"category,omitempty"`
}

type Category struct {
	Base
	Name     string    `gorm:"size:200;uniqueIndex;not null" json:"name"`
	Products []Product `json:"products,omitempty"`
}
