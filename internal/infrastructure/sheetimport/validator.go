package sheetimport

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// FieldType is the expected type of a column
type FieldType string

const (
	FieldTypeString  FieldType = "string"
	FieldTypeInt     FieldType = "int"
	FieldTypeDecimal FieldType = "decimal"
)

// FieldRule describes how one column is validated
type FieldRule struct {
	Column    string
	Required  bool
	Type      FieldType
	MaxLength int
	MinValue  *decimal.Decimal
	MaxValue  *decimal.Decimal
	OneOf     []string
	Unique    bool
	Custom    func(value string) error
	// Description and Example feed the template instructions sheet
	Description string
	Example     string
}

// FieldRuleBuilder builds field rules fluently
type FieldRuleBuilder struct {
	rule FieldRule
}

// Field starts a rule for column
func Field(column string) *FieldRuleBuilder {
	return &FieldRuleBuilder{rule: FieldRule{Column: column, Type: FieldTypeString}}
}

func (b *FieldRuleBuilder) Required() *FieldRuleBuilder {
	b.rule.Required = true
	return b
}

func (b *FieldRuleBuilder) Int() *FieldRuleBuilder {
	b.rule.Type = FieldTypeInt
	return b
}

func (b *FieldRuleBuilder) Decimal() *FieldRuleBuilder {
	b.rule.Type = FieldTypeDecimal
	return b
}

func (b *FieldRuleBuilder) MaxLength(n int) *FieldRuleBuilder {
	b.rule.MaxLength = n
	return b
}

func (b *FieldRuleBuilder) Min(v decimal.Decimal) *FieldRuleBuilder {
	b.rule.MinValue = &v
	return b
}

func (b *FieldRuleBuilder) Max(v decimal.Decimal) *FieldRuleBuilder {
	b.rule.MaxValue = &v
	return b
}

func (b *FieldRuleBuilder) OneOf(values ...string) *FieldRuleBuilder {
	b.rule.OneOf = values
	return b
}

func (b *FieldRuleBuilder) Unique() *FieldRuleBuilder {
	b.rule.Unique = true
	return b
}

func (b *FieldRuleBuilder) Custom(fn func(value string) error) *FieldRuleBuilder {
	b.rule.Custom = fn
	return b
}

// Describe sets the help text shown in templates
func (b *FieldRuleBuilder) Describe(description, example string) *FieldRuleBuilder {
	b.rule.Description = description
	b.rule.Example = example
	return b
}

func (b *FieldRuleBuilder) Build() FieldRule {
	return b.rule
}

// FieldValidator validates rows against rules and tracks in-file uniqueness
type FieldValidator struct {
	rules  []FieldRule
	seen   map[string]map[string]int
	errors *ErrorCollection
}

// NewFieldValidator creates a validator keeping at most maxErrors errors
func NewFieldValidator(rules []FieldRule, maxErrors int) *FieldValidator {
	return &FieldValidator{
		rules:  rules,
		seen:   make(map[string]map[string]int),
		errors: NewErrorCollection(maxErrors),
	}
}

// ValidateRow checks one row and reports whether it passed
func (v *FieldValidator) ValidateRow(row *Row) bool {
	ok := true
	fail := func(rule FieldRule, code, msg, value string) {
		ok = false
		v.errors.Add(RowError{Row: row.LineNumber, Column: rule.Column, Code: code, Message: msg, Value: value})
	}

	for _, rule := range v.rules {
		value := row.Get(rule.Column)
		if value == "" {
			if rule.Required {
				fail(rule, ErrCodeRequiredField, "value is required", "")
			}
			continue
		}

		if rule.MaxLength > 0 && utf8.RuneCountInString(value) > rule.MaxLength {
			fail(rule, ErrCodeInvalidLength, fmt.Sprintf("must be at most %d characters", rule.MaxLength), value)
			continue
		}

		var num decimal.Decimal
		switch rule.Type {
		case FieldTypeInt:
			n, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				fail(rule, ErrCodeInvalidType, "must be a whole number", value)
				continue
			}
			num = decimal.NewFromInt(n)
		case FieldTypeDecimal:
			d, err := decimal.NewFromString(strings.ReplaceAll(value, ",", ""))
			if err != nil {
				fail(rule, ErrCodeInvalidType, "must be a number", value)
				continue
			}
			num = d
		}
		if rule.Type != FieldTypeString {
			if rule.MinValue != nil && num.LessThan(*rule.MinValue) {
				fail(rule, ErrCodeInvalidRange, "must be at least "+rule.MinValue.String(), value)
				continue
			}
			if rule.MaxValue != nil && num.GreaterThan(*rule.MaxValue) {
				fail(rule, ErrCodeInvalidRange, "must be at most "+rule.MaxValue.String(), value)
				continue
			}
		}

		if len(rule.OneOf) > 0 && !slices.Contains(rule.OneOf, value) {
			fail(rule, ErrCodeInvalidValue, "must be one of "+strings.Join(rule.OneOf, ", "), value)
			continue
		}

		if rule.Custom != nil {
			if err := rule.Custom(value); err != nil {
				fail(rule, ErrCodeInvalidValue, err.Error(), value)
				continue
			}
		}

		if rule.Unique {
			key := strings.ToLower(value)
			if v.seen[rule.Column] == nil {
				v.seen[rule.Column] = make(map[string]int)
			}
			if first, dup := v.seen[rule.Column][key]; dup {
				fail(rule, ErrCodeDuplicate, fmt.Sprintf("duplicates row %d", first), value)
				continue
			}
			v.seen[rule.Column][key] = row.LineNumber
		}
	}
	return ok
}

// Errors returns the collected errors
func (v *FieldValidator) Errors() *ErrorCollection {
	return v.errors
}
