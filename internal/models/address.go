package models

// Address is a postal address value shared by leads and clubs
type Address struct {
	Street     string `json:"street" validate:"max=200"`
	City       string `json:"city" validate:"max=100"`
	PostalCode string `json:"postal_code" validate:"max=20"`
	Country    string `json:"country" validate:"max=100"`
}

// IsZero reports whether no address component is set
func (a Address) IsZero() bool {
	return a == Address{}
}
