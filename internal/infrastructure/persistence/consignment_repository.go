package persistence

import (
	"context"
	"errors"

	"github.com/erp/consignment/internal/domain/consignment"
	"github.com/erp/consignment/internal/domain/shared"
	"github.com/erp/consignment/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormConsignmentRepository implements ConsignmentRepository using GORM
type GormConsignmentRepository struct {
	db *gorm.DB
}

// NewGormConsignmentRepository creates a new GormConsignmentRepository
func NewGormConsignmentRepository(db *gorm.DB) *GormConsignmentRepository {
	return &GormConsignmentRepository{db: db}
}

func preloadLines(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

// FindByID loads a consignment with its lines
func (r *GormConsignmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*consignment.Consignment, error) {
	return r.findOne(r.db.WithContext(ctx), id)
}

// FindByIDForUpdate loads a consignment and row-locks its header.
// Must be called inside a transaction.
func (r *GormConsignmentRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*consignment.Consignment, error) {
	return r.findOne(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *GormConsignmentRepository) findOne(db *gorm.DB, id uuid.UUID) (*consignment.Consignment, error) {
	var model models.ConsignmentModel
	if err := db.Preload("Lines", preloadLines).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll lists consignments with filtering, ordering and pagination
func (r *GormConsignmentRepository) FindAll(ctx context.Context, filter consignment.Filter) ([]consignment.Consignment, error) {
	var consignmentModels []models.ConsignmentModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.ConsignmentModel{}), filter)
	query = consignmentOrdering.apply(query, filter.Filter)

	if err := query.Preload("Lines", preloadLines).Find(&consignmentModels).Error; err != nil {
		return nil, err
	}

	result := make([]consignment.Consignment, len(consignmentModels))
	for i := range consignmentModels {
		result[i] = *consignmentModels[i].ToDomain()
	}
	return result, nil
}

// Count counts consignments matching the filter, ignoring pagination
func (r *GormConsignmentRepository) Count(ctx context.Context, filter consignment.Filter) (int64, error) {
	var count int64
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.ConsignmentModel{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *GormConsignmentRepository) applyFilter(query *gorm.DB, filter consignment.Filter) *gorm.DB {
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}
	return query
}

// Save inserts a new consignment together with its lines
func (r *GormConsignmentRepository) Save(ctx context.Context, c *consignment.Consignment) error {
	return r.db.WithContext(ctx).Create(models.ConsignmentModelFromDomain(c)).Error
}

// SaveWithLock updates the header only if the stored version matches c.Version,
// upserts the lines, and bumps c.Version on success.
func (r *GormConsignmentRepository) SaveWithLock(ctx context.Context, c *consignment.Consignment) error {
	model := models.ConsignmentModelFromDomain(c)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.ConsignmentModel{}).
			Where("id = ? AND version = ?", c.ID, c.Version).
			Updates(map[string]any{
				"status":           model.Status,
				"closed_at":        model.ClosedAt,
				"last_settled_at":  model.LastSettledAt,
				"total_sold_value": model.TotalSoldValue,
				"total_commission": model.TotalCommission,
				"total_net":        model.TotalNet,
				"notes":            model.Notes,
				"updated_at":       model.UpdatedAt,
				"version":          gorm.Expr("version + 1"),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.NewDomainError(shared.CodeConcurrencyConflict,
				"The consignment has been modified by another transaction")
		}

		if len(model.Lines) == 0 {
			return nil
		}
		// Sent, price and commission are immutable once a line exists.
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"sold", "returned", "updated_at"}),
		}).Create(&model.Lines).Error
	})
	if err != nil {
		return err
	}

	c.IncrementVersion()
	return nil
}

type summaryRow struct {
	OpenCount      int64
	ActiveCount    int64
	TotalSoldValue decimal.Decimal
}

type outstandingRow struct {
	Outstanding decimal.Decimal
}

// Summary aggregates dashboard figures over all consignments
func (r *GormConsignmentRepository) Summary(ctx context.Context) (*consignment.Summary, error) {
	var row summaryRow
	if err := r.db.WithContext(ctx).Model(&models.ConsignmentModel{}).
		Select(
			"COUNT(CASE WHEN status = ? THEN 1 END) AS open_count, "+
				"COUNT(CASE WHEN status <> ? THEN 1 END) AS active_count, "+
				"COALESCE(SUM(total_sold_value), 0) AS total_sold_value",
			consignment.StatusOpen, consignment.StatusClosed,
		).
		Scan(&row).Error; err != nil {
		return nil, err
	}

	var outstanding outstandingRow
	if err := r.db.WithContext(ctx).Table("consignment_lines AS l").
		Joins("JOIN consignments c ON c.id = l.consignment_id").
		Where("c.status <> ?", consignment.StatusClosed).
		Select("COALESCE(SUM((l.sent - l.sold - l.returned) * l.unit_price), 0) AS outstanding").
		Scan(&outstanding).Error; err != nil {
		return nil, err
	}

	return &consignment.Summary{
		OpenCount:        row.OpenCount,
		ActiveCount:      row.ActiveCount,
		OutstandingValue: outstanding.Outstanding,
		TotalSoldValue:   row.TotalSoldValue,
	}, nil
}

var _ consignment.ConsignmentRepository = (*GormConsignmentRepository)(nil)
