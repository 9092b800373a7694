package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEffectivePriceCents(t *testing.T) {
	now := time.Now()
	sale := int64(800)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	p := Product{PriceCents: 1000}
	assert.Equal(t, int64(1000), p.EffectivePriceCents(now))

	p.SalePriceCents = &sale
	assert.Equal(t, int64(800), p.EffectivePriceCents(now), "open-ended sale applies immediately")

	p.SaleStartsAt = &future
	assert.Equal(t, int64(1000), p.EffectivePriceCents(now), "sale not started yet")

	p.SaleStartsAt = &past
	p.SaleEndsAt = &past
	assert.Equal(t, int64(1000), p.EffectivePriceCents(now), "sale already over")

	p.SaleEndsAt = &future
	assert.Equal(t, int64(800), p.EffectivePriceCents(now))
}

func TestLowStock(t *testing.T) {
	p := Product{Stock: 5, LowStockThreshold: 5}
	assert.True(t, p.LowStock())

	p.Stock = 6
	assert.False(t, p.LowStock())
}
