// Package models holds the gorm entities of the back office.
package models

import "github.com/diewo77/multisarl/internal/validation"

// Record is implemented by every entity exposed through the generic
// resource handlers: it names its table and identifies itself for audit logs.
type Record interface {
	TableName() string
	PrimaryKey() uint
	String() string
}

// Validator is implemented by entities that check their own fields before a write.
type Validator interface {
	Validate() validation.Violations
}
