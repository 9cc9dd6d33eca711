package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Property struct {
	ID            ID              `json:"id"`
	Owner         ID              `json:"owner,omitempty"`
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	City          string          `json:"city"`
	Address       string          `json:"address"`
	PricePerNight decimal.Decimal `json:"price_per_night"`
	MaxGuests     int             `json:"max_guests"`
	PropertyType  string          `json:"property_type,omitempty"`
	Amenities     []string        `json:"amenities"`
	ImageURL      string          `json:"image_url,omitempty"`
	Images        []PropertyImage `json:"images"`
	IsAvailable   bool            `json:"is_available"`
	Rating        decimal.Decimal `json:"rating"`
	ReviewsCount  int             `json:"reviews_count,omitempty"`
	Latitude      *float64        `json:"latitude,omitempty"`
	Longitude     *float64        `json:"longitude,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

type PropertyImage struct {
	ID        ID     `json:"id"`
	Image     string `json:"image"`
	AltText   string `json:"alt_text,omitempty"`
	IsPrimary bool   `json:"is_primary,omitempty"`
}

// PrimaryImage returns the image marked primary, else the first image, else
// the image_url field.
func (p *Property) PrimaryImage() string {
	for _, img := range p.Images {
		if img.IsPrimary {
			return img.Image
		}
	}
	if len(p.Images) > 0 {
		return p.Images[0].Image
	}
	return p.ImageURL
}

// PropertyFilter is encoded as query parameters on the listings endpoint.
type PropertyFilter struct {
	City      string   `url:"city,omitempty"`
	CheckIn   Date     `url:"check_in,omitempty"`
	CheckOut  Date     `url:"check_out,omitempty"`
	Guests    int      `url:"guests,omitempty"`
	MinPrice  string   `url:"min_price,omitempty"`
	MaxPrice  string   `url:"max_price,omitempty"`
	Amenities []string `url:"amenities,omitempty"`
	Search    string   `url:"search,omitempty"`
	Ordering  string   `url:"ordering,omitempty"`
	Page      int      `url:"page,omitempty"`
	PageSize  int      `url:"page_size,omitempty"`
}

type Availability struct {
	Available     bool            `json:"available"`
	PropertyID    ID              `json:"property_id"`
	CheckIn       Date            `json:"check_in"`
	CheckOut      Date            `json:"check_out"`
	Nights        int             `json:"nights"`
	PricePerNight decimal.Decimal `json:"price_per_night"`
	MaxGuests     int             `json:"max_guests"`
}

type AvailabilityQuery struct {
	Property ID   `url:"property"`
	CheckIn  Date `url:"check_in"`
	CheckOut Date `url:"check_out"`
}

type PriceRequest struct {
	PropertyID    ID     `json:"property_id"`
	CheckIn       Date   `json:"check_in"`
	CheckOut      Date   `json:"check_out"`
	Guests        int    `json:"guests"`
	PaymentMethod string `json:"payment_method,omitempty"`
}

type PriceCalculation struct {
	Nights        int             `json:"nights"`
	BasePrice     decimal.Decimal `json:"base_price"`
	Taxes         decimal.Decimal `json:"taxes"`
	TotalPrice    decimal.Decimal `json:"total_price"`
	PricePerNight decimal.Decimal `json:"price_per_night"`
	ProcessingFee decimal.Decimal `json:"processing_fee,omitempty"`
	Guests        int             `json:"guests,omitempty"`
	MaxGuests     int             `json:"max_guests,omitempty"`
}

type Review struct {
	ID        ID        `json:"id"`
	Property  ID        `json:"property"`
	User      *User     `json:"user,omitempty"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

type ReviewInput struct {
	Property ID     `json:"property,omitempty"`
	Rating   int    `json:"rating,omitempty"`
	Comment  string `json:"comment,omitempty"`
}
