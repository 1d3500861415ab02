package flowers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStockLabel(t *testing.T) {
	assert.Equal(t, LabelOutOfStock, StockLabel(0))
	assert.Equal(t, LabelLowStock, StockLabel(1))
	assert.Equal(t, LabelLowStock, StockLabel(5))
}

func TestPartitionKey(t *testing.T) {
	assert.Equal(t, []byte("42"), PartitionKey(42))
}
