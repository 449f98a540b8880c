package entity

type ListingType string

const (
	ListingTypeSell ListingType = "sell"
	ListingTypeRent ListingType = "rent"
)

// Categories offered by the marketplace. The backend stores the category as
// free text, so the client treats this as the canonical choice list rather
// than a closed enum.
var Categories = []string{
	"Books",
	"Stationery",
	"Electronics",
	"Appliances",
	"Furniture",
	"Clothing",
	"Miscellaneous",
}

var Conditions = []string{"New", "Like New", "Very Good", "Good", "Fair"}

type Listing struct {
	ID          string
	Title       string
	Description string
	Category    string
	Price       float64
	Condition   string
	ImageURL    string
	SellerName  string
	SellerEmail string
	SellerID    string
	GroupID     string
	ListingType ListingType
	// DatePosted is absent for legacy records; kept as the backend sends it.
	DatePosted string
	IsSold     bool

	// Group is filled best-effort when the listing belongs to one.
	Group *Group
}

// ListingFilter narrows a listings page the same way the browser UI does:
// all conditions are conjunctive, empty fields match everything.
type ListingFilter struct {
	Query       string
	Category    string
	ListingType ListingType
	GroupID     string
	IncludeSold bool
}
