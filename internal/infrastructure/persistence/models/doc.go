// Package models contains the GORM persistence models. Each model converts
// to and from its domain aggregate with ToDomain and XModelFromDomain; JSON
// columns use GORM's json serializer so the same models run on PostgreSQL
// and the in-memory SQLite used by repository tests.
package models
