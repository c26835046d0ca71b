package models

// CartEntry is one product in the cart together with how many units are selected.
// Product is a snapshot taken when the entry was first added.
type CartEntry struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}
