// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer pure and free
// from ORM concerns.
//
// Structure:
//   - base.go: BaseModel and AggregateModel shared by every table
//   - catalog.go: products
//   - partner.go: customers
//   - consignment.go: consignments and consignment_lines
//   - inventory.go: stock_movements
package models
