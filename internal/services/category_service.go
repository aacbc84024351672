package services

import (
	"errors"

	"gorm.io/gorm"

	apperrors "divvy/internal/errors"
	"divvy/internal/models"
	"divvy/internal/money"
)

// categoryService handles per-frame budget categories.
type categoryService struct {
	db     *gorm.DB
	frames FrameServicer
}

// NewCategoryService creates a new CategoryServicer.
func NewCategoryService(db *gorm.DB, frames FrameServicer) CategoryServicer {
	return &categoryService{db: db, frames: frames}
}

// CreateCategory adds a category to the frame, appending it to the
// ordering and promoting the frame out of ghost state.
func (s *categoryService) CreateCategory(userID uint, frameIndex int, name string, budget money.Money) (*models.Category, error) {
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "name is required")
	}
	if budget.IsNegative() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "budget must not be negative")
	}

	gid, err := defaultGroupID(s.db, userID)
	if err != nil {
		return nil, err
	}

	var category *models.Category
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.frames.Ensure(tx, gid, frameIndex); err != nil {
			return err
		}

		var maxOrdering int
		row := tx.Model(&models.Category{}).
			Where("group_id = ? AND frame_index = ?", gid, frameIndex).
			Select("COALESCE(MAX(ordering), -1)").Row()
		if err := row.Scan(&maxOrdering); err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		category = &models.Category{
			GroupID:    gid,
			FrameIndex: frameIndex,
			Name:       name,
			Ordering:   maxOrdering + 1,
			Budget:     budget,
			Alive:      true,
		}
		if err := tx.Create(category).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	category.Balance = category.Budget
	return category, nil
}

// SetBudget updates a category's budget.
func (s *categoryService) SetBudget(userID, categoryID uint, budget money.Money) error {
	if budget.IsNegative() {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "budget must not be negative")
	}
	return s.updateCategory(userID, categoryID, map[string]interface{}{"budget": budget})
}

// Rename updates a category's name.
func (s *categoryService) Rename(userID, categoryID uint, name string) error {
	if name == "" {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "name is required")
	}
	return s.updateCategory(userID, categoryID, map[string]interface{}{"name": name})
}

// DeleteCategory soft-deletes a category; transactions keep pointing at
// it so past frames stay intact.
func (s *categoryService) DeleteCategory(userID, categoryID uint) error {
	return s.updateCategory(userID, categoryID, map[string]interface{}{"alive": false})
}

// updateCategory applies updates after checking the category belongs to
// the caller's default group. Editing a category is real activity, so
// the category's frame is promoted out of ghost state first; the edit
// then lands on the promoted row.
func (s *categoryService) updateCategory(userID, categoryID uint, updates map[string]interface{}) error {
	gid, err := defaultGroupID(s.db, userID)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		var category models.Category
		if err := tx.Where("id = ? AND group_id = ?", categoryID, gid).First(&category).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrCategoryNotFound
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		if err := s.frames.Ensure(tx, gid, category.FrameIndex); err != nil {
			return err
		}

		if err := tx.Model(&category).Updates(updates).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}
