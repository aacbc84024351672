package services

import (
	"errors"

	"gorm.io/gorm"

	apperrors "divvy/internal/errors"
	"divvy/internal/models"
	"divvy/internal/money"
)

// defaultCategoryNames seeds a group's very first frame when there is no
// earlier frame to carry categories forward from.
var defaultCategoryNames = []string{
	"Rent",
	"Groceries",
	"Utilities",
	"Transport",
	"Entertainment",
	"Other",
}

// frameService handles frame materialization and the balance/spending
// rollups attached to frames and categories.
type frameService struct {
	db *gorm.DB
}

// NewFrameService creates a new FrameServicer.
func NewFrameService(db *gorm.DB) FrameServicer {
	return &frameService{db: db}
}

// GetFrame returns the frame at index for the user's default group,
// synthesizing a ghost frame when no row exists, and attaches balance,
// spending and category rollups.
func (s *frameService) GetFrame(userID uint, index int) (*models.Frame, error) {
	gid, err := defaultGroupID(s.db, userID)
	if err != nil {
		return nil, err
	}

	var frame *models.Frame
	err = s.db.Transaction(func(tx *gorm.DB) error {
		var txErr error
		frame, txErr = getOrCreateFrame(tx, gid, index)
		return txErr
	})
	if err != nil {
		return nil, err
	}

	if err := s.enrich(frame); err != nil {
		return nil, err
	}
	return frame, nil
}

// getOrCreateFrame implements the per-(group, index) state machine:
// a persisted row is returned as-is; an existing ghost is refreshed in
// place so category IDs handed out by an earlier view stay valid; a
// fresh ghost is synthesized only when no row exists at all.
func getOrCreateFrame(tx *gorm.DB, gid uint, index int) (*models.Frame, error) {
	var frame models.Frame
	err := tx.Where("group_id = ? AND frame_index = ?", gid, index).First(&frame).Error
	switch {
	case err == nil && !frame.Ghost:
		return &frame, nil
	case err == nil:
		return refreshGhostFrame(tx, &frame)
	case errors.Is(err, gorm.ErrRecordNotFound):
		return createGhostFrame(tx, gid, index)
	default:
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
}

// carriedState computes the income and category layout a ghost frame at
// index inherits: the nearest prior frame's state, or the default
// categories when the group has no history.
func carriedState(tx *gorm.DB, gid uint, index int) (money.Money, []models.Category, error) {
	var prev models.Frame
	err := tx.Where("group_id = ? AND frame_index < ?", gid, index).
		Order("frame_index DESC").First(&prev).Error
	switch {
	case err == nil:
		var prevCategories []models.Category
		if err := tx.Where("group_id = ? AND frame_index = ? AND alive = ?", gid, prev.Index, true).
			Order("ordering").Find(&prevCategories).Error; err != nil {
			return money.Zero(), nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		carried := make([]models.Category, 0, len(prevCategories))
		for _, c := range prevCategories {
			carried = append(carried, models.Category{
				GroupID:    gid,
				FrameIndex: index,
				Name:       c.Name,
				Ordering:   c.Ordering,
				Budget:     c.Budget,
				Ghost:      true,
				Alive:      true,
			})
		}
		return prev.Income, carried, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		carried := make([]models.Category, 0, len(defaultCategoryNames))
		for i, name := range defaultCategoryNames {
			carried = append(carried, models.Category{
				GroupID:    gid,
				FrameIndex: index,
				Name:       name,
				Ordering:   i,
				Budget:     money.Zero(),
				Ghost:      true,
				Alive:      true,
			})
		}
		return money.Zero(), carried, nil
	default:
		return money.Zero(), nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
}

// createGhostFrame synthesizes the frame and its categories from
// carried-forward state.
func createGhostFrame(tx *gorm.DB, gid uint, index int) (*models.Frame, error) {
	income, categories, err := carriedState(tx, gid, index)
	if err != nil {
		return nil, err
	}

	ghost := models.Frame{GroupID: gid, Index: index, Income: income, Ghost: true}
	if err := tx.Create(&ghost).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if len(categories) > 0 {
		if err := tx.Create(&categories).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	return &ghost, nil
}

// refreshGhostFrame re-applies carried-forward state to a ghost frame
// that already has rows. History behind a ghost can change between
// views, so the income and category layout are brought up to date, but
// the existing rows are updated rather than replaced: a client holding
// a category ID from an earlier view must still be able to use it.
func refreshGhostFrame(tx *gorm.DB, frame *models.Frame) (*models.Frame, error) {
	income, carried, err := carriedState(tx, frame.GroupID, frame.Index)
	if err != nil {
		return nil, err
	}

	if !frame.Income.Equal(income) {
		if err := tx.Model(&models.Frame{}).
			Where("group_id = ? AND frame_index = ?", frame.GroupID, frame.Index).
			Update("income", income).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		frame.Income = income
	}

	var existing []models.Category
	if err := tx.Where("group_id = ? AND frame_index = ? AND ghost = ?",
		frame.GroupID, frame.Index, true).
		Order("ordering").Find(&existing).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	for i, want := range carried {
		if i >= len(existing) {
			row := want
			if err := tx.Create(&row).Error; err != nil {
				return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			continue
		}
		have := existing[i]
		if have.Name == want.Name && have.Ordering == want.Ordering &&
			have.Budget.Equal(want.Budget) && have.Alive {
			continue
		}
		if err := tx.Model(&models.Category{}).Where("id = ?", have.ID).
			Updates(map[string]interface{}{
				"name":     want.Name,
				"ordering": want.Ordering,
				"budget":   want.Budget,
				"alive":    true,
			}).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	if len(existing) > len(carried) {
		ids := make([]uint, 0, len(existing)-len(carried))
		for _, c := range existing[len(carried):] {
			ids = append(ids, c.ID)
		}
		if err := tx.Delete(&models.Category{}, ids).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	return frame, nil
}

// Ensure materializes the frame at (gid, index) inside an existing
// transaction and promotes it out of ghost state. Call it whenever real
// activity lands in a frame.
func (s *frameService) Ensure(tx *gorm.DB, gid uint, index int) error {
	frame, err := getOrCreateFrame(tx, gid, index)
	if err != nil {
		return err
	}
	if !frame.Ghost {
		return nil
	}
	return markNotGhost(tx, gid, index)
}

// markNotGhost promotes a ghost frame and its ghost categories.
func markNotGhost(tx *gorm.DB, gid uint, index int) error {
	if err := tx.Model(&models.Frame{}).
		Where("group_id = ? AND frame_index = ?", gid, index).
		Update("ghost", false).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := tx.Model(&models.Category{}).
		Where("group_id = ? AND frame_index = ?", gid, index).
		Update("ghost", false).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// SetIncome sets the frame's income, materializing and promoting it first.
func (s *frameService) SetIncome(userID uint, index int, income money.Money) error {
	if income.IsNegative() {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "income must not be negative")
	}
	gid, err := defaultGroupID(s.db, userID)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.Ensure(tx, gid, index); err != nil {
			return err
		}
		if err := tx.Model(&models.Frame{}).
			Where("group_id = ? AND frame_index = ?", gid, index).
			Update("income", income).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}

// Balance is the cumulative income of all frames up to and including
// index, minus the cumulative alive spending over the same range.
func (s *frameService) Balance(gid uint, index int) (money.Money, error) {
	var incomes []money.Money
	if err := s.db.Model(&models.Frame{}).
		Where("group_id = ? AND frame_index <= ?", gid, index).
		Pluck("income", &incomes).Error; err != nil {
		return money.Zero(), apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var amounts []money.Money
	if err := s.db.Model(&models.Transaction{}).
		Where("group_id = ? AND frame_index <= ? AND alive = ?", gid, index, true).
		Pluck("amount", &amounts).Error; err != nil {
		return money.Zero(), apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return sumMoney(incomes).Sub(sumMoney(amounts)), nil
}

// Spending sums the alive transaction amounts of exactly one frame.
func (s *frameService) Spending(gid uint, index int) (money.Money, error) {
	var amounts []money.Money
	if err := s.db.Model(&models.Transaction{}).
		Where("group_id = ? AND frame_index = ? AND alive = ?", gid, index, true).
		Pluck("amount", &amounts).Error; err != nil {
		return money.Zero(), apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return sumMoney(amounts), nil
}

// Categories returns the frame's alive categories with their balances
// (budget minus category-scoped spending) attached.
func (s *frameService) Categories(gid uint, index int) ([]models.Category, error) {
	var categories []models.Category
	if err := s.db.Where("group_id = ? AND frame_index = ? AND alive = ?", gid, index, true).
		Order("ordering").Find(&categories).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	for i := range categories {
		var amounts []money.Money
		if err := s.db.Model(&models.Transaction{}).
			Where("group_id = ? AND frame_index = ? AND category_id = ? AND alive = ?",
				gid, index, categories[i].ID, true).
			Pluck("amount", &amounts).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		categories[i].Balance = categories[i].Budget.Sub(sumMoney(amounts))
	}

	return categories, nil
}

// enrich attaches the read-only rollups to a frame.
func (s *frameService) enrich(frame *models.Frame) error {
	balance, err := s.Balance(frame.GroupID, frame.Index)
	if err != nil {
		return err
	}
	spending, err := s.Spending(frame.GroupID, frame.Index)
	if err != nil {
		return err
	}
	categories, err := s.Categories(frame.GroupID, frame.Index)
	if err != nil {
		return err
	}

	frame.Balance = balance
	frame.Spending = spending
	frame.Categories = categories
	return nil
}

// sumMoney adds amounts with exact decimal arithmetic. Summing in Go
// instead of SQL keeps the result driver-independent; the sqlite driver
// used in tests would otherwise coerce the numeric column to float.
func sumMoney(amounts []money.Money) money.Money {
	total := money.Zero()
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}
