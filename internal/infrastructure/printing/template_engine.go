package printing

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"
	"time"

	catalogapp "github.com/d2bcart/backend/internal/application/catalog"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var ist = time.FixedZone("IST", 5*3600+1800)

// TemplateEngine renders the product catalog with html/template
type TemplateEngine struct {
	catalog *template.Template
}

// NewTemplateEngine parses the built-in catalog template. A custom template
// source replaces it when given.
func NewTemplateEngine(source string) (*TemplateEngine, error) {
	if strings.TrimSpace(source) == "" {
		source = defaultCatalogTemplate
	}
	tpl, err := template.New("catalog").Funcs(FuncMap()).Parse(source)
	if err != nil {
		return nil, fmt.Errorf("printing: parse catalog template: %w", err)
	}
	return &TemplateEngine{catalog: tpl}, nil
}

// RenderCatalog renders a catalog document to HTML
func (e *TemplateEngine) RenderCatalog(_ context.Context, doc catalogapp.CatalogDocument) (string, error) {
	var buf bytes.Buffer
	if err := e.catalog.Execute(&buf, doc); err != nil {
		return "", fmt.Errorf("printing: render catalog: %w", err)
	}
	return buf.String(), nil
}

// FuncMap returns the helpers available to catalog templates
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"formatINR":  FormatINR,
		"formatDate": formatDate,
		"formatInt":  formatInt,
		"title":      titleCase,
		"truncate":   truncate,
		"upper":      strings.ToUpper,
		"add":        func(a, b int) int { return a + b },
	}
}

// FormatINR formats an amount with the rupee sign and Indian digit grouping,
// e.g. 1234567.5 -> ₹12,34,567.50
func FormatINR(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}
	parts := strings.SplitN(d.StringFixed(2), ".", 2)
	return sign + "₹" + groupIndian(parts[0]) + "." + parts[1]
}

// groupIndian inserts separators after the last three digits and then
// every two digits (lakh/crore grouping)
func groupIndian(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	head, tail := digits[:len(digits)-3], digits[len(digits)-3:]
	var groups []string
	for len(head) > 2 {
		groups = append([]string{head[len(head)-2:]}, groups...)
		head = head[:len(head)-2]
	}
	if head != "" {
		groups = append([]string{head}, groups...)
	}
	return strings.Join(groups, ",") + "," + tail
}

var intPrinter = message.NewPrinter(language.English)

func formatInt(n int) string {
	return intPrinter.Sprintf("%d", n)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.In(ist).Format("02 Jan 2006")
}

func titleCase(s string) string {
	return cases.Title(language.English).String(s)
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 1 {
		return "…"
	}
	return string(runes[:max-1]) + "…"
}

var _ catalogapp.CatalogTemplate = (*TemplateEngine)(nil)
