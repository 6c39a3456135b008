package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAll_ListsSixProductsInOrder(t *testing.T) {
	all := All()
	require.Len(t, all, 6)
	for i, p := range all {
		assert.Equal(t, string(rune('1'+i)), p.ID)
		assert.NotEmpty(t, p.Name)
		assert.Positive(t, p.Price)
	}
}

func TestAll_ReturnsCopy(t *testing.T) {
	all := All()
	all[0].Price = 0

	p, err := Lookup("1")
	require.NoError(t, err)
	assert.Equal(t, 2999.99, p.Price)
}

func TestLookup(t *testing.T) {
	p, err := Lookup("3")
	require.NoError(t, err)
	assert.Equal(t, "Tablet Ultra HD", p.Name)

	_, err = Lookup("99")
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestProduct_Item(t *testing.T) {
	p, err := Lookup("5")
	require.NoError(t, err)

	item := p.Item(2)
	assert.Equal(t, "5", item.ID)
	assert.Equal(t, "Fone Bluetooth Premium", item.Name)
	assert.Equal(t, 299.99, item.Price)
	assert.Equal(t, 2, item.Quantity)
	assert.Equal(t, p.ImageURL, item.Image)
}
