package siteconfig_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tenantsync/pkg/siteconfig"
)

func TestTenantConfig_UnmarshalJSON(t *testing.T) {
	t.Parallel()

	t.Run("id key", func(t *testing.T) {
		t.Parallel()
		var doc siteconfig.TenantConfig
		require.NoError(t, json.Unmarshal([]byte(`{"id":"acme","version":3}`), &doc))
		assert.Equal(t, "acme", doc.ID)
		assert.EqualValues(t, 3, doc.Version)
	})

	t.Run("service tenantId key", func(t *testing.T) {
		t.Parallel()
		var doc siteconfig.TenantConfig
		require.NoError(t, json.Unmarshal([]byte(`{"tenantId":"acme","subdomain":"shop","branding":{"name":"Acme"}}`), &doc))
		assert.Equal(t, "acme", doc.ID)
		assert.Equal(t, "shop", doc.Subdomain)
		assert.Equal(t, "Acme", doc.Branding.Name)
	})

	t.Run("id wins over tenantId", func(t *testing.T) {
		t.Parallel()
		var doc siteconfig.TenantConfig
		require.NoError(t, json.Unmarshal([]byte(`{"id":"a","tenantId":"b"}`), &doc))
		assert.Equal(t, "a", doc.ID)
	})
}

func TestTenantConfig_Fingerprint(t *testing.T) {
	t.Parallel()

	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	doc := &siteconfig.TenantConfig{ID: "acme", Version: 4, UpdatedAt: at}
	assert.Equal(t, siteconfig.VersionFingerprint(4, at), doc.Fingerprint())

	var nilDoc *siteconfig.TenantConfig
	assert.Empty(t, nilDoc.Fingerprint())
}

func TestTenantConfig_Clone(t *testing.T) {
	t.Parallel()

	doc := &siteconfig.TenantConfig{
		ID:         "acme",
		Features:   map[string]bool{"wishlist": true},
		Categories: []siteconfig.Category{{Slug: "shoes", Name: "Shoes"}},
	}
	doc.SEO.Keywords = []string{"shoes"}

	cp := doc.Clone()
	cp.Features["wishlist"] = false
	cp.Categories[0].Name = "Hats"
	cp.SEO.Keywords[0] = "hats"

	assert.True(t, doc.Features["wishlist"])
	assert.Equal(t, "Shoes", doc.Categories[0].Name)
	assert.Equal(t, "shoes", doc.SEO.Keywords[0])
	assert.Nil(t, (*siteconfig.TenantConfig)(nil).Clone())
}

func TestTenantConfig_ApplyDefaults(t *testing.T) {
	t.Parallel()

	doc := (&siteconfig.TenantConfig{ID: "acme", Name: "Acme"}).ApplyDefaults()
	assert.Equal(t, "Acme", doc.Branding.Name)
	assert.Equal(t, "#3B82F6", doc.Branding.PrimaryColor)
	assert.Equal(t, "card", doc.Layout.ProductCardStyle)
	assert.Equal(t, 8, doc.Homepage.FeaturedProducts.Limit)
	assert.Equal(t, "RUB", doc.Locale.Currency)
	assert.EqualValues(t, 1, doc.Version)

	custom := (&siteconfig.TenantConfig{Branding: siteconfig.Branding{PrimaryColor: "#000"}}).ApplyDefaults()
	assert.Equal(t, "#000", custom.Branding.PrimaryColor)
}

func TestFingerprints(t *testing.T) {
	t.Parallel()

	at := time.Date(2025, 3, 1, 12, 0, 0, 5, time.FixedZone("x", 3600))
	assert.Equal(t, siteconfig.Fingerprint("7"), siteconfig.VersionFingerprint(7, time.Time{}))
	assert.Equal(t, siteconfig.Fingerprint("7@2025-03-01T11:00:00.000000005Z"), siteconfig.VersionFingerprint(7, at))

	a := siteconfig.ContentFingerprint([]byte("a"))
	assert.Equal(t, a, siteconfig.ContentFingerprint([]byte("a")))
	assert.NotEqual(t, a, siteconfig.ContentFingerprint([]byte("b")))
	assert.Contains(t, string(a), "xxh64:")
}
