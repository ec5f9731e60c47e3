package siteconfig

import (
	"encoding/json"
	"maps"
	"slices"
	"time"
)

// TenantConfig is the per-tenant storefront configuration document. Values
// handed out by Fetcher, Cache and sync sessions are shared; treat them as
// read-only and Clone before modifying.
type TenantConfig struct {
	ID           string          `json:"id" yaml:"id"`
	Subdomain    string          `json:"subdomain,omitempty" yaml:"subdomain,omitempty"`
	Name         string          `json:"name,omitempty" yaml:"name,omitempty"`
	Status       string          `json:"status,omitempty" yaml:"status,omitempty"`
	Tier         string          `json:"tier,omitempty" yaml:"tier,omitempty"`
	Branding     Branding        `json:"branding" yaml:"branding"`
	Theme        Theme           `json:"theme" yaml:"theme"`
	Layout       Layout          `json:"layout" yaml:"layout"`
	Features     map[string]bool `json:"features,omitempty" yaml:"features,omitempty"`
	Categories   []Category      `json:"categories,omitempty" yaml:"categories,omitempty"`
	Homepage     Homepage        `json:"homepage" yaml:"homepage"`
	SEO          SEO             `json:"seo" yaml:"seo"`
	Integrations Integrations    `json:"integrations" yaml:"integrations"`
	Locale       Locale          `json:"locale" yaml:"locale"`
	Version      int64           `json:"version" yaml:"version"`
	UpdatedAt    time.Time       `json:"updatedAt,omitzero" yaml:"updatedAt,omitempty"`

	fingerprint Fingerprint
}

type Branding struct {
	Name           string `json:"name,omitempty" yaml:"name,omitempty"`
	Logo           string `json:"logo,omitempty" yaml:"logo,omitempty"`
	Favicon        string `json:"favicon,omitempty" yaml:"favicon,omitempty"`
	PrimaryColor   string `json:"primaryColor,omitempty" yaml:"primaryColor,omitempty"`
	SecondaryColor string `json:"secondaryColor,omitempty" yaml:"secondaryColor,omitempty"`
	AccentColor    string `json:"accentColor,omitempty" yaml:"accentColor,omitempty"`
}

type Theme struct {
	PrimaryColor   string `json:"primaryColor,omitempty" yaml:"primaryColor,omitempty"`
	SecondaryColor string `json:"secondaryColor,omitempty" yaml:"secondaryColor,omitempty"`
	AccentColor    string `json:"accentColor,omitempty" yaml:"accentColor,omitempty"`
	FontFamily     string `json:"fontFamily,omitempty" yaml:"fontFamily,omitempty"`
}

type Layout struct {
	HeaderStyle      string `json:"headerStyle,omitempty" yaml:"headerStyle,omitempty"`
	FooterStyle      string `json:"footerStyle,omitempty" yaml:"footerStyle,omitempty"`
	ProductCardStyle string `json:"productCardStyle,omitempty" yaml:"productCardStyle,omitempty"`
}

type Category struct {
	Slug  string `json:"slug" yaml:"slug"`
	Name  string `json:"name" yaml:"name"`
	Image string `json:"image,omitempty" yaml:"image,omitempty"`
}

type Homepage struct {
	Hero             Hero             `json:"hero" yaml:"hero"`
	FeaturedProducts FeaturedProducts `json:"featuredProducts" yaml:"featuredProducts"`
	Categories       Section          `json:"categories" yaml:"categories"`
}

type Hero struct {
	Enabled  bool   `json:"enabled" yaml:"enabled"`
	Title    string `json:"title,omitempty" yaml:"title,omitempty"`
	Subtitle string `json:"subtitle,omitempty" yaml:"subtitle,omitempty"`
	Image    string `json:"image,omitempty" yaml:"image,omitempty"`
	CTA      Link   `json:"cta" yaml:"cta"`
}

type Link struct {
	Text string `json:"text,omitempty" yaml:"text,omitempty"`
	Link string `json:"link,omitempty" yaml:"link,omitempty"`
}

type FeaturedProducts struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Title   string `json:"title,omitempty" yaml:"title,omitempty"`
	Limit   int    `json:"limit,omitempty" yaml:"limit,omitempty"`
}

type Section struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Title   string `json:"title,omitempty" yaml:"title,omitempty"`
}

type SEO struct {
	Title       string   `json:"title,omitempty" yaml:"title,omitempty"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Keywords    []string `json:"keywords,omitempty" yaml:"keywords,omitempty"`
	OGImage     string   `json:"ogImage,omitempty" yaml:"ogImage,omitempty"`
}

type Integrations struct {
	Analytics Analytics       `json:"analytics" yaml:"analytics"`
	Payment   map[string]bool `json:"payment,omitempty" yaml:"payment,omitempty"`
	Shipping  map[string]bool `json:"shipping,omitempty" yaml:"shipping,omitempty"`
}

type Analytics struct {
	GoogleAnalytics string `json:"googleAnalytics,omitempty" yaml:"googleAnalytics,omitempty"`
	YandexMetrika   string `json:"yandexMetrika,omitempty" yaml:"yandexMetrika,omitempty"`
}

type Locale struct {
	Currency string `json:"currency,omitempty" yaml:"currency,omitempty"`
	Language string `json:"language,omitempty" yaml:"language,omitempty"`
	Timezone string `json:"timezone,omitempty" yaml:"timezone,omitempty"`
}

// UnmarshalJSON accepts the config service's "tenantId" key when "id" is
// absent.
func (c *TenantConfig) UnmarshalJSON(data []byte) error {
	type plain TenantConfig
	aux := struct {
		*plain
		TenantID string `json:"tenantId"`
	}{plain: (*plain)(c)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if c.ID == "" {
		c.ID = aux.TenantID
	}
	return nil
}

// Fingerprint returns the token that identifies this revision of the
// document. Sources that know better (content hash, explicit fingerprint)
// set it when loading; otherwise it derives from Version and UpdatedAt.
func (c *TenantConfig) Fingerprint() Fingerprint {
	if c == nil {
		return ""
	}
	if c.fingerprint != "" {
		return c.fingerprint
	}
	return VersionFingerprint(c.Version, c.UpdatedAt)
}

func (c *TenantConfig) setFingerprint(fp Fingerprint) {
	c.fingerprint = fp
}

// Clone returns a deep copy.
func (c *TenantConfig) Clone() *TenantConfig {
	if c == nil {
		return nil
	}
	out := *c
	out.Features = maps.Clone(c.Features)
	out.Categories = slices.Clone(c.Categories)
	out.SEO.Keywords = slices.Clone(c.SEO.Keywords)
	out.Integrations.Payment = maps.Clone(c.Integrations.Payment)
	out.Integrations.Shipping = maps.Clone(c.Integrations.Shipping)
	return &out
}

// ApplyDefaults fills unset presentation fields with the storefront defaults
// and returns c.
func (c *TenantConfig) ApplyDefaults() *TenantConfig {
	setDefault(&c.Branding.Name, c.Name)
	setDefault(&c.Branding.PrimaryColor, "#3B82F6")
	setDefault(&c.Branding.SecondaryColor, "#10B981")
	setDefault(&c.Branding.AccentColor, "#F59E0B")
	setDefault(&c.Layout.HeaderStyle, "default")
	setDefault(&c.Layout.FooterStyle, "default")
	setDefault(&c.Layout.ProductCardStyle, "card")
	setDefault(&c.Homepage.Hero.CTA.Text, "Shop Now")
	setDefault(&c.Homepage.Hero.CTA.Link, "/catalog")
	setDefault(&c.Homepage.FeaturedProducts.Title, "Featured Products")
	setDefault(&c.Homepage.Categories.Title, "Shop by Category")
	if c.Homepage.FeaturedProducts.Limit == 0 {
		c.Homepage.FeaturedProducts.Limit = 8
	}
	setDefault(&c.Locale.Currency, "RUB")
	setDefault(&c.Locale.Language, "ru")
	setDefault(&c.Locale.Timezone, "Europe/Moscow")
	if c.Version == 0 {
		c.Version = 1
	}
	return c
}

func setDefault(field *string, value string) {
	if *field == "" {
		*field = value
	}
}
