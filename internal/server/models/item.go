// Package models defines server-side data models persisted in the database.
package models

import "database/sql"

// Item is a row of the items table.
//
// Description is non-null for every row written by the API. Rows created
// before that rule existed may still hold NULL until the backfill is run,
// so the column is scanned as sql.NullString and passed through unchanged.
type Item struct {
	ID          int64
	Name        string
	Description sql.NullString
}

// OptionalString is a field of a partial update: either NoChange or a
// concrete value (the empty string is a concrete value).
type OptionalString struct {
	value string
	set   bool
}

// NoChange leaves the stored value untouched.
func NoChange() OptionalString {
	return OptionalString{}
}

// Value replaces the stored value with s.
func Value(s string) OptionalString {
	return OptionalString{value: s, set: true}
}

// Get returns the value and whether one was supplied.
func (o OptionalString) Get() (string, bool) {
	return o.value, o.set
}

// IsSet reports whether the field carries a concrete value.
func (o OptionalString) IsSet() bool {
	return o.set
}

// ItemUpdate is a normalized partial update.
type ItemUpdate struct {
	Name        OptionalString
	Description OptionalString
}

// Apply copies the concrete fields of u onto item.
func (u ItemUpdate) Apply(item *Item) {
	if v, ok := u.Name.Get(); ok {
		item.Name = v
	}
	if v, ok := u.Description.Get(); ok {
		item.Description = sql.NullString{String: v, Valid: true}
	}
}
