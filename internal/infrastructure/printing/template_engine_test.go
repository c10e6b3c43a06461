package printing

import (
	"context"
	"testing"
	"time"

	catalogapp "github.com/d2bcart/backend/internal/application/catalog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatINR(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "₹0.00"},
		{"999", "₹999.00"},
		{"1000", "₹1,000.00"},
		{"123456.5", "₹1,23,456.50"},
		{"1234567.891", "₹12,34,567.89"},
		{"-25000", "-₹25,000.00"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatINR(decimal.RequireFromString(tt.in)))
		})
	}
}

func TestHelpers(t *testing.T) {
	assert.Equal(t, "12,500", formatInt(12500))
	assert.Equal(t, "Cotton Kurtas", titleCase("cotton kurtas"))
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab…", truncate("abcdef", 3))
	assert.Equal(t, "19 Oct 2026", formatDate(time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC)))
	assert.Empty(t, formatDate(time.Time{}))
}

func TestRenderCatalog(t *testing.T) {
	engine, err := NewTemplateEngine("")
	require.NoError(t, err)

	html, err := engine.RenderCatalog(context.Background(), catalogapp.CatalogDocument{
		Title:       "Festive Catalog",
		StoreName:   "D2BCart",
		GeneratedAt: time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC),
		Sections: []catalogapp.CatalogSection{{
			Category: "ethnic wear",
			Items: []catalogapp.CatalogItem{{
				Name:         "Cotton Kurta <Blue>",
				SKU:          "CK-01",
				DisplayPrice: decimal.RequireFromString("1250"),
				MOQ:          10,
				GSTRate:      5,
			}},
		}},
	})
	require.NoError(t, err)
	assert.Contains(t, html, "Festive Catalog")
	assert.Contains(t, html, "Ethnic Wear")
	assert.Contains(t, html, "₹1,250.00")
	assert.Contains(t, html, "Cotton Kurta &lt;Blue&gt;")
	assert.Contains(t, html, "MOQ 10")
}

func TestRenderCatalog_Empty(t *testing.T) {
	engine, err := NewTemplateEngine("")
	require.NoError(t, err)

	html, err := engine.RenderCatalog(context.Background(), catalogapp.CatalogDocument{Title: "Empty"})
	require.NoError(t, err)
	assert.Contains(t, html, "No products available.")
}

func TestNewTemplateEngine_InvalidTemplate(t *testing.T) {
	_, err := NewTemplateEngine("{{.Broken")
	assert.Error(t, err)
}

func TestRenderPDF_EmptyHTML(t *testing.T) {
	r := NewChromedpRenderer(ChromedpConfig{})
	defer r.Close()

	_, err := r.RenderPDF(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrEmptyHTML)
}
