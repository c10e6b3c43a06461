package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/d2bcart/backend/internal/domain/catalog"
	"github.com/d2bcart/backend/internal/domain/shared"
	"github.com/d2bcart/backend/internal/infrastructure/sheetimport"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ConflictMode defines how rows matching an existing SKU are handled
type ConflictMode string

const (
	// ConflictModeSkip leaves existing products untouched
	ConflictModeSkip ConflictMode = "skip"
	// ConflictModeUpdate overwrites existing products with the row
	ConflictModeUpdate ConflictMode = "update"
)

// IsValid checks if the conflict mode is valid
func (c ConflictMode) IsValid() bool {
	return c == ConflictModeSkip || c == ConflictModeUpdate
}

// MaxImportRows bounds a single upload
const MaxImportRows = 2000

// ImportResult summarises a bulk product import
type ImportResult struct {
	TotalRows   int                    `json:"total_rows"`
	Created     int                    `json:"created"`
	Updated     int                    `json:"updated"`
	Skipped     int                    `json:"skipped"`
	ErrorRows   int                    `json:"error_rows"`
	Errors      []sheetimport.RowError `json:"errors,omitempty"`
	IsTruncated bool                   `json:"is_truncated,omitempty"`
	TotalErrors int                    `json:"total_errors,omitempty"`
}

// ProductImportService imports products from CSV or XLSX sheets
type ProductImportService struct {
	productRepo   catalog.ProductRepository
	categoryRepo  catalog.CategoryRepository
	defaultMargin decimal.Decimal
	logger        *zap.Logger
}

// NewProductImportService creates a new ProductImportService
func NewProductImportService(
	productRepo catalog.ProductRepository,
	categoryRepo catalog.CategoryRepository,
	defaultMargin decimal.Decimal,
	logger *zap.Logger,
) *ProductImportService {
	return &ProductImportService{
		productRepo:   productRepo,
		categoryRepo:  categoryRepo,
		defaultMargin: defaultMargin,
		logger:        logger,
	}
}

// Rules returns the column rules of the product sheet
func (s *ProductImportService) Rules() []sheetimport.FieldRule {
	zero := decimal.Zero
	one := decimal.NewFromInt(1)
	return []sheetimport.FieldRule{
		sheetimport.Field("name").Required().MaxLength(200).
			Describe("Product name shown to retailers", "Cotton Bath Towel 70x140").Build(),
		sheetimport.Field("sku").Required().MaxLength(64).Unique().
			Describe("Your code for the product, unique across your listings", "TWL-70140-WHT").Build(),
		sheetimport.Field("category").MaxLength(100).
			Describe("Category name or slug", "Home Textiles").Build(),
		sheetimport.Field("description").MaxLength(5000).
			Describe("Free text description", "450 GSM, pack of 1").Build(),
		sheetimport.Field("base_price").Required().Decimal().Min(decimal.RequireFromString("0.01")).
			Describe("Your price per unit in rupees, excluding GST", "249.00").Build(),
		sheetimport.Field("moq").Required().Int().Min(one).
			Describe("Minimum order quantity", "12").Build(),
		sheetimport.Field("stock").Required().Int().Min(zero).
			Describe("Units available", "480").Build(),
		sheetimport.Field("hsn_code").Custom(validateHSN).
			Describe("HSN code, 4 6 or 8 digits", "63026010").Build(),
		sheetimport.Field("gst_rate").Required().OneOf("0", "5", "12", "18", "28").
			Describe("GST rate in percent", "12").Build(),
		sheetimport.Field("weight_grams").Int().Min(zero).
			Describe("Packed weight of one unit in grams", "520").Build(),
		sheetimport.Field("length_cm").Decimal().Min(zero).Describe("Packed length in cm", "30").Build(),
		sheetimport.Field("breadth_cm").Decimal().Min(zero).Describe("Packed breadth in cm", "20").Build(),
		sheetimport.Field("height_cm").Decimal().Min(zero).Describe("Packed height in cm", "5").Build(),
	}
}

func validateHSN(value string) error {
	if len(value) != 4 && len(value) != 6 && len(value) != 8 {
		return fmt.Errorf("must be 4, 6 or 8 digits")
	}
	if _, err := strconv.ParseUint(value, 10, 64); err != nil {
		return fmt.Errorf("must contain digits only")
	}
	return nil
}

// Template renders the XLSX upload template with an instructions sheet
func (s *ProductImportService) Template() ([]byte, error) {
	rules := s.Rules()
	headers := make([]string, len(rules))
	required := make(map[int]bool)
	example := make([]any, len(rules))
	instructions := make([][]any, 0, len(rules))
	for i, r := range rules {
		headers[i] = r.Column
		if r.Required {
			required[i] = true
		}
		example[i] = r.Example
		req := "optional"
		if r.Required {
			req = "required"
		}
		instructions = append(instructions, []any{r.Column, req, r.Description, r.Example})
	}
	return sheetimport.WriteWorkbook(
		sheetimport.Sheet{Name: "Products", Headers: headers, Required: required, Rows: [][]any{example}},
		sheetimport.Sheet{Name: "Instructions", Headers: []string{"column", "required", "description", "example"}, Rows: instructions},
	)
}

// Import validates every row, then creates or updates the valid ones for
// the manufacturer. Imported products start as drafts.
func (s *ProductImportService) Import(
	ctx context.Context,
	manufacturerID uuid.UUID,
	r io.Reader,
	filename string,
	mode ConflictMode,
) (*ImportResult, error) {
	if !mode.IsValid() {
		mode = ConflictModeSkip
	}
	rows, err := sheetimport.ReadRows(r, filename, MaxImportRows)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_IMPORT_FILE", err.Error())
	}

	validator := sheetimport.NewFieldValidator(s.Rules(), 100)
	valid := make([]*sheetimport.Row, 0, len(rows))
	for _, row := range rows {
		if validator.ValidateRow(row) {
			valid = append(valid, row)
		}
	}

	result := &ImportResult{TotalRows: len(rows), ErrorRows: len(rows) - len(valid)}
	errs := validator.Errors()
	categories := make(map[string]*uuid.UUID)

	for _, row := range valid {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := s.importRow(ctx, manufacturerID, row, mode, categories, result, errs); err != nil {
			return nil, err
		}
	}

	result.Errors = errs.Errors()
	result.IsTruncated = errs.IsTruncated()
	result.TotalErrors = errs.Total()

	s.logger.Info("Product import finished",
		zap.String("manufacturer_id", manufacturerID.String()),
		zap.Int("rows", result.TotalRows),
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
		zap.Int("errors", result.ErrorRows),
	)
	return result, nil
}

func (s *ProductImportService) importRow(
	ctx context.Context,
	manufacturerID uuid.UUID,
	row *sheetimport.Row,
	mode ConflictMode,
	categories map[string]*uuid.UUID,
	result *ImportResult,
	errs *sheetimport.ErrorCollection,
) error {
	reject := func(column, msg string) {
		errs.Add(sheetimport.RowError{Row: row.LineNumber, Column: column, Code: sheetimport.ErrCodeRejected, Message: msg})
		result.ErrorRows++
	}

	categoryID, err := s.lookupCategory(ctx, row.Get("category"), categories)
	if err != nil {
		return err
	}
	if row.Get("category") != "" && categoryID == nil {
		reject("category", fmt.Sprintf("category '%s' not found", row.Get("category")))
		return nil
	}

	input := catalog.ProductInput{
		CategoryID:  categoryID,
		Name:        row.Get("name"),
		SKU:         row.Get("sku"),
		Description: row.Get("description"),
		BasePrice:   parseDecimal(row.Get("base_price")),
		MOQ:         parseInt(row.Get("moq")),
		Stock:       parseInt(row.Get("stock")),
		HSNCode:     row.Get("hsn_code"),
		GSTRate:     parseInt(row.Get("gst_rate")),
		WeightGrams: parseInt(row.Get("weight_grams")),
		Dimensions: catalog.Dimensions{
			LengthCM:  parseDecimal(row.Get("length_cm")),
			BreadthCM: parseDecimal(row.Get("breadth_cm")),
			HeightCM:  parseDecimal(row.Get("height_cm")),
		},
	}

	existing, err := s.productRepo.FindBySKU(ctx, manufacturerID, strings.ToUpper(strings.TrimSpace(input.SKU)))
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return fmt.Errorf("failed to check existing product: %w", err)
	}

	if existing != nil {
		if mode == ConflictModeSkip {
			result.Skipped++
			return nil
		}
		if existing.Status == catalog.ProductStatusArchived {
			reject("sku", "product with this SKU is archived")
			return nil
		}
		if err := existing.Update(input); err != nil {
			reject("", err.Error())
			return nil
		}
		if err := s.productRepo.Update(ctx, existing); err != nil {
			return fmt.Errorf("failed to update product: %w", err)
		}
		result.Updated++
		return nil
	}

	product, err := catalog.NewProduct(manufacturerID, input, s.defaultMargin)
	if err != nil {
		reject("", err.Error())
		return nil
	}
	if err := s.productRepo.Create(ctx, product); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			reject("sku", "product with this SKU already exists")
			return nil
		}
		return fmt.Errorf("failed to create product: %w", err)
	}
	result.Created++
	return nil
}

func (s *ProductImportService) lookupCategory(ctx context.Context, value string, cache map[string]*uuid.UUID) (*uuid.UUID, error) {
	if value == "" {
		return nil, nil
	}
	slug := catalog.Slugify(value)
	if id, ok := cache[slug]; ok {
		return id, nil
	}
	category, err := s.categoryRepo.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			cache[slug] = nil
			return nil, nil
		}
		return nil, fmt.Errorf("failed to lookup category: %w", err)
	}
	cache[slug] = &category.ID
	return &category.ID, nil
}

// Values reaching these helpers already passed the field rules
func parseDecimal(v string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.ReplaceAll(v, ",", ""))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func parseInt(v string) int {
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}
