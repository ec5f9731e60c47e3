package tenant_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tenantsync/pkg/tenant"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "shopone", tenant.Normalize("  ShopOne "))
	assert.Equal(t, "shop-1", tenant.Normalize("SHOP-1\t"))
	assert.Equal(t, "", tenant.Normalize("   "))
}

func TestIsValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		id   string
		want bool
	}{
		{"shop-1", true},
		{"shop1", true},
		{"a", true},
		{strings.Repeat("a", tenant.MaxIDLength), true},
		{strings.Repeat("a", tenant.MaxIDLength+1), false},
		{"", false},
		{"shop/1", false},
		{"shop 1", false},
		{"Shop1", false},
		{"shop_1", false},
		{"shop.1", false},
		{"<script>", false},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tenant.IsValid(tt.id))
		})
	}
}

func TestCanonical(t *testing.T) {
	t.Parallel()

	id, err := tenant.Canonical("  Shop-7 ")
	require.NoError(t, err)
	assert.Equal(t, "shop-7", id)

	_, err = tenant.Canonical("../etc/passwd")
	assert.ErrorIs(t, err, tenant.ErrInvalidIdentifier)

	_, err = tenant.Canonical("")
	assert.ErrorIs(t, err, tenant.ErrInvalidIdentifier)
}

func TestContextIsDefault(t *testing.T) {
	t.Parallel()

	assert.True(t, tenant.Default().IsDefault())
	assert.Equal(t, tenant.DefaultID, tenant.Default().ID)
	assert.True(t, tenant.Context{ID: "default", Explicit: true}.IsDefault())
	assert.False(t, tenant.Context{ID: "shop1", Explicit: true}.IsDefault())
}
