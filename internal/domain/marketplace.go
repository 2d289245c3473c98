package domain

// Order is a marketplace purchase as seen by the bot. Title carries the lot
// description the months count is extracted from.
type Order struct {
	ID            string
	Title         string
	BuyerID       int64
	BuyerUsername string
	ChatID        int64
	SubcategoryID int64
}

// Message is a single chat message delivered with a new-message event.
type Message struct {
	ChatID   int64
	AuthorID int64
	Text     string
}

// Lot is a sellable listing owned by the bot's marketplace account.
type Lot struct {
	ID    int64
	Title string
}

// LotFields is the mutable view of a lot used when toggling availability.
type LotFields struct {
	LotID  int64
	Active bool
	Fields map[string]string
}

// Subcategory groups lots inside a marketplace category.
type Subcategory struct {
	ID   int64
	Lots []Lot
}

// Category is one node of the marketplace category tree.
type Category struct {
	ID            int64
	Subcategories []Subcategory
}
