package domain

import "time"

// Market is one craft-market listing the shop owner will attend.
type Market struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Location  string    `json:"location"`
	Date      time.Time `json:"date"`
	StartTime string    `json:"startTime"`
	EndTime   string    `json:"endTime"`
	Website   string    `json:"website,omitempty"`
	ImageURL  string    `json:"imageUrl,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Comment is a user comment on a market listing.
type Comment struct {
	ID        string    `json:"id"`
	MarketID  string    `json:"marketId"`
	ProfileID string    `json:"profileId"`
	Author    string    `json:"author,omitempty"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}
