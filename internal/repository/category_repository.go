package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"iris/internal/models"
)

// CategoryRepository handles improvement categories and subcategories
type CategoryRepository struct {
	db Querier
}

// NewCategoryRepository creates a new category repository
func NewCategoryRepository(db Querier) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// EnsureCategory returns the category with this name, creating it when missing
func (r *CategoryRepository) EnsureCategory(ctx context.Context, name string) (*models.ImprovementCategory, error) {
	query := `
		INSERT INTO improvement_categories (id, name) VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id, name
	`
	c := &models.ImprovementCategory{}
	if err := r.db.QueryRowContext(ctx, query, uuid.NewString(), name).Scan(&c.ID, &c.Name); err != nil {
		return nil, fmt.Errorf("failed to ensure category: %w", err)
	}
	return c, nil
}

// EnsureSubcategory returns the subcategory with this name under a category, creating it when missing
func (r *CategoryRepository) EnsureSubcategory(ctx context.Context, categoryID, name string) (*models.ImprovementSubCategory, error) {
	query := `
		INSERT INTO improvement_subcategories (id, category_id, name) VALUES ($1, $2, $3)
		ON CONFLICT (category_id, name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id, category_id, name
	`
	s := &models.ImprovementSubCategory{}
	if err := r.db.QueryRowContext(ctx, query, uuid.NewString(), categoryID, name).Scan(&s.ID, &s.CategoryID, &s.Name); err != nil {
		return nil, fmt.Errorf("failed to ensure subcategory: %w", err)
	}
	return s, nil
}

// GetCategory retrieves a category by ID
func (r *CategoryRepository) GetCategory(ctx context.Context, id string) (*models.ImprovementCategory, error) {
	c := &models.ImprovementCategory{}
	err := r.db.QueryRowContext(ctx, `SELECT id, name FROM improvement_categories WHERE id = $1`, id).Scan(&c.ID, &c.Name)
	if err != nil {
		return nil, rowError(err, "category", "get category")
	}
	return c, nil
}

// GetSubcategory retrieves a subcategory by ID
func (r *CategoryRepository) GetSubcategory(ctx context.Context, id string) (*models.ImprovementSubCategory, error) {
	s := &models.ImprovementSubCategory{}
	query := `SELECT id, category_id, name FROM improvement_subcategories WHERE id = $1`
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&s.ID, &s.CategoryID, &s.Name); err != nil {
		return nil, rowError(err, "subcategory", "get subcategory")
	}
	return s, nil
}

// ListCategories returns all categories ordered by name
func (r *CategoryRepository) ListCategories(ctx context.Context) ([]models.ImprovementCategory, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM improvement_categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer closeRows(rows)

	var categories []models.ImprovementCategory
	for rows.Next() {
		var c models.ImprovementCategory
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// ListSubcategories returns the subcategories of a category ordered by name
func (r *CategoryRepository) ListSubcategories(ctx context.Context, categoryID string) ([]models.ImprovementSubCategory, error) {
	query := `SELECT id, category_id, name FROM improvement_subcategories WHERE category_id = $1 ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query, categoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to list subcategories: %w", err)
	}
	defer closeRows(rows)

	var subs []models.ImprovementSubCategory
	for rows.Next() {
		var s models.ImprovementSubCategory
		if err := rows.Scan(&s.ID, &s.CategoryID, &s.Name); err != nil {
			return nil, fmt.Errorf("failed to scan subcategory: %w", err)
		}
		subs = append(subs, s)
	}
	return subs, rows.Err()
}
