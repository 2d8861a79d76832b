package products

// ListFilters describe the supported filter knobs for the catalog list endpoint.
type ListFilters struct {
	Active       *bool  `json:"active,omitempty"`
	NeedsPricing *bool  `json:"needs_pricing,omitempty"`
	Category     string `json:"category,omitempty"`
	Query        string `json:"q,omitempty"`
}
