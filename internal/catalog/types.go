package catalog

import "time"

// RawPriceRecord is a single price observation extracted from one
// provider file. Records only live for the duration of an aggregation
// pass; they are merged into CanonicalProducts and discarded.
type RawPriceRecord struct {
	ID           string
	Name         string
	Price        float64
	ProviderID   string
	ProviderName string
	Manufacturer string
	Category     string
}

// ProviderPrice is one provider's current price for a product
type ProviderPrice struct {
	ProviderID   string    `bson:"chain" json:"chain"`
	ProviderName string    `bson:"chainName" json:"chainName"`
	Price        float64   `bson:"price" json:"price"`
	LastUpdated  time.Time `bson:"lastUpdated" json:"lastUpdated"`
}

// CanonicalProduct is the merged representation of a product across all
// providers, keyed by barcode
type CanonicalProduct struct {
	ID               string          `bson:"barcode" json:"barcode"`
	Name             string          `bson:"name" json:"name"`
	Manufacturer     string          `bson:"manufacturer" json:"manufacturer"`
	Category         string          `bson:"category" json:"category"`
	Image            string          `bson:"image,omitempty" json:"image,omitempty"`
	Prices           []ProviderPrice `bson:"prices" json:"prices"`
	CheapestPrice    float64         `bson:"cheapestPrice" json:"cheapestPrice"`
	CheapestProvider string          `bson:"cheapestChain" json:"cheapestChain"`
	LastUpdated      time.Time       `bson:"lastUpdated" json:"lastUpdated"`
	DataSource       string          `bson:"dataSource" json:"dataSource"`
}
