// Package product scrapes the retail site's product pages into structured
// records: price, breadcrumb categories, per-size warehouse stock, and
// promotional offers with derived abbreviations.
package product

// Product is one product page, parsed.
type Product struct {
	ID         int         `json:"id"`
	Name       string      `json:"name"`
	Price      Price       `json:"price"`
	Currency   string      `json:"currency"`
	Thumbnail  string      `json:"thumbnail"`
	Categories []string    `json:"categories"`
	SizeRange  []SizeEntry `json:"sizeRange"`
	Offers     []Offer     `json:"offers"`
}

type Price struct {
	Current float64 `json:"current"`
}

// SizeEntry is one selectable size option, in document order.
type SizeEntry struct {
	Size  string    `json:"size"`
	Stock SizeStock `json:"stock"`
	Code  string    `json:"code"`
}

type SizeStock struct {
	Warehouse int `json:"warehouse"`
}

// Offer is one promotional badge.
type Offer struct {
	Name  string `json:"name"`
	Image string `json:"image"`
	Abbr  string `json:"abbr"`
}
