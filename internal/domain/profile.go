package domain

import "time"

// Profile is a registered user with saved delivery defaults. Orders are
// attached to a profile so order history can be shown.
type Profile struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	IsAdmin      bool      `json:"isAdmin"`
	CreatedAt    time.Time `json:"createdAt"`

	DefaultPhoneNumber    *string `json:"defaultPhoneNumber,omitempty"`
	DefaultStreetAddress1 *string `json:"defaultStreetAddress1,omitempty"`
	DefaultStreetAddress2 *string `json:"defaultStreetAddress2,omitempty"`
	DefaultTownOrCity     *string `json:"defaultTownOrCity,omitempty"`
	DefaultPostcode       *string `json:"defaultPostcode,omitempty"`
	DefaultCounty         *string `json:"defaultCounty,omitempty"`
	DefaultCountry        *string `json:"defaultCountry,omitempty"`
}

// DeliveryDefaults is the saved delivery info subset of a profile.
type DeliveryDefaults struct {
	PhoneNumber    *string `json:"phoneNumber,omitempty"`
	StreetAddress1 *string `json:"streetAddress1,omitempty"`
	StreetAddress2 *string `json:"streetAddress2,omitempty"`
	TownOrCity     *string `json:"townOrCity,omitempty"`
	Postcode       *string `json:"postcode,omitempty"`
	County         *string `json:"county,omitempty"`
	Country        *string `json:"country,omitempty"`
}
