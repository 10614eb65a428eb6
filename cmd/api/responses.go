package main

import (
	"fmt"
	"time"

	"buyersdesk/agent"
	"buyersdesk/brief"
	"buyersdesk/listing"
	"buyersdesk/search"
)

// listingRequest is the create/update body. Price accepts the same loose
// input as search bounds, but a malformed value is rejected here rather
// than dropped.
type listingRequest struct {
	Address       string         `json:"address"`
	Suburb        string         `json:"suburb"`
	Price         *search.Bound  `json:"price"`
	Yield         *float64       `json:"yield"`
	Status        listing.Status `json:"status"`
	AgentID       *string        `json:"agentId"`
	PosterName    *string        `json:"posterName"`
	ClientBriefID *string        `json:"clientBriefId"`
	AuctionDate   *string        `json:"auctionDate"`
	ListedAt      *time.Time     `json:"listedAt"`
}

func (b listingRequest) params() (listing.CreateParams, error) {
	var price *int64
	if b.Price != nil {
		if b.Price.Value == nil {
			return listing.CreateParams{}, fmt.Errorf("invalid price")
		}
		price = b.Price.Value
	}
	return listing.CreateParams{
		Address:       b.Address,
		Suburb:        b.Suburb,
		Price:         price,
		Yield:         b.Yield,
		Status:        b.Status,
		AgentID:       b.AgentID,
		PosterName:    b.PosterName,
		ClientBriefID: b.ClientBriefID,
		AuctionDate:   b.AuctionDate,
		ListedAt:      b.ListedAt,
	}, nil
}

type agentResponse struct {
	ID        string  `json:"id"`
	FullName  string  `json:"fullName"`
	Email     string  `json:"email"`
	Phone     *string `json:"phone,omitempty"`
	Agency    string  `json:"agency"`
	CreatedAt string  `json:"createdAt"`
}

func newAgentResponse(p agent.Profile) agentResponse {
	return agentResponse{
		ID:        p.ID,
		FullName:  p.FullName,
		Email:     p.Email,
		Phone:     p.Phone,
		Agency:    p.Agency,
		CreatedAt: p.CreatedAt.UTC().Format(time.RFC3339),
	}
}

type briefResponse struct {
	ID           string   `json:"id"`
	ClientName   string   `json:"clientName"`
	Regions      []string `json:"regions"`
	PriceMin     int64    `json:"priceMin"`
	PriceMax     int64    `json:"priceMax"`
	PropertyType string   `json:"propertyType,omitempty"`
	Status       string   `json:"status"`
	CreatedAt    string   `json:"createdAt"`
	UpdatedAt    string   `json:"updatedAt"`
}

func newBriefResponse(b brief.Brief) briefResponse {
	return briefResponse{
		ID:           b.ID,
		ClientName:   b.ClientName,
		Regions:      b.Regions,
		PriceMin:     b.PriceMin,
		PriceMax:     b.PriceMax,
		PropertyType: b.PropertyType,
		Status:       string(b.Status),
		CreatedAt:    b.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:    b.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
