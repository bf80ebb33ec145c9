package domain

import "strings"

// ItemOption is a selectable attribute that does not alter price (e.g. flavor).
type ItemOption struct {
	Name string `bson:"name" json:"name"`
}

// ItemVariant is a selectable attribute that carries its own price,
// overriding the line's base price when present (e.g. bottle vs glass).
type ItemVariant struct {
	Name  string `bson:"name" json:"name"`
	Price int64  `bson:"price" json:"price"` // XAF, no minor units
}

type LineItem struct {
	BaseID   string       `bson:"base_id" json:"base_id"`
	Name     string       `bson:"name" json:"name"`
	Price    int64        `bson:"price" json:"price"` // price at selection time
	Quantity int          `bson:"quantity" json:"quantity"`
	Option   *ItemOption  `bson:"option,omitempty" json:"option,omitempty"`
	Variant  *ItemVariant `bson:"variant,omitempty" json:"variant,omitempty"`
	VenueID  string       `bson:"venue_id" json:"venue_id"`
}

const keySep = "::"

// Key derives the composite identity used for merge/lookup/removal.
// Items with the same catalog id but different option or variant
// selections are different purchasable configurations and must not
// merge, so both selections are part of the key. Name and price are not.
func (li LineItem) Key() string {
	var b strings.Builder
	b.WriteString(li.BaseID)
	if li.Option != nil {
		b.WriteString(keySep)
		b.WriteString(li.Option.Name)
	}
	if li.Variant != nil {
		b.WriteString(keySep)
		b.WriteString(li.Variant.Name)
	}
	return b.String()
}

// EffectivePrice is the variant price when a variant is selected,
// otherwise the base price.
func (li LineItem) EffectivePrice() int64 {
	if li.Variant != nil {
		return li.Variant.Price
	}
	return li.Price
}

// CartState is the persisted shape of one session's cart.
type CartState struct {
	SessionID  string     `bson:"session_id" json:"session_id"`
	Items      []LineItem `bson:"items" json:"items"`
	BoundVenue string     `bson:"bound_venue" json:"bound_venue"`
	Note       string     `bson:"note" json:"note"`
}

// PendingConflict holds the single add-to-cart request awaiting the
// guest's confirmation because it would switch the cart's bound venue.
type PendingConflict struct {
	Item    LineItem `json:"item"`
	VenueID string   `json:"venue_id"`
}
