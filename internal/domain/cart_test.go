package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLineItemKey_BaseOnly(t *testing.T) {
	li := LineItem{BaseID: "X1", Name: "Club Sandwich", Price: 5000}
	assert.Equal(t, "X1", li.Key())
}

func TestLineItemKey_SelectionsChangeKey(t *testing.T) {
	base := LineItem{BaseID: "X1", Name: "Whisky", Price: 5000}

	withOption := base
	withOption.Option = &ItemOption{Name: "On the rocks"}

	withVariant := base
	withVariant.Variant = &ItemVariant{Name: "Bottle", Price: 45000}

	withBoth := withOption
	withBoth.Variant = &ItemVariant{Name: "Bottle", Price: 45000}

	keys := map[string]bool{
		base.Key():        true,
		withOption.Key():  true,
		withVariant.Key(): true,
		withBoth.Key():    true,
	}
	assert.Len(t, keys, 4, "each selection combination must produce a distinct key")
}

func TestLineItemKey_NamePriceIrrelevant(t *testing.T) {
	a := LineItem{BaseID: "X1", Name: "Old name", Price: 1000, Option: &ItemOption{Name: "Mint"}}
	b := LineItem{BaseID: "X1", Name: "New name", Price: 9999, Option: &ItemOption{Name: "Mint"}}
	assert.Equal(t, a.Key(), b.Key())
}

func TestEffectivePrice(t *testing.T) {
	li := LineItem{BaseID: "X1", Price: 5000}
	assert.Equal(t, int64(5000), li.EffectivePrice())

	li.Variant = &ItemVariant{Name: "Bottle", Price: 45000}
	assert.Equal(t, int64(45000), li.EffectivePrice())
}
