package services

import (
	"errors"

	"gorm.io/gorm"

	apperrors "divvy/internal/errors"
	"divvy/internal/models"
	"divvy/internal/money"
	"divvy/internal/pagination"
	"divvy/internal/validator"
)

// transactionService handles ledger entries, splits and the friend
// balance adjustments they trigger.
type transactionService struct {
	db     *gorm.DB
	frames FrameServicer
}

// NewTransactionService creates a new TransactionServicer.
func NewTransactionService(db *gorm.DB, frames FrameServicer) TransactionServicer {
	return &transactionService{db: db, frames: frames}
}

// CreateTransaction validates the request and inserts the transaction;
// for a shared expense it also inserts the mirrored transaction, the
// split rows, and the friend-ledger adjustment, all in one database
// transaction.
func (s *transactionService) CreateTransaction(userID uint, input CreateTransactionInput) (*models.Transaction, error) {
	amount, err := money.ParseNonNegative(input.Amount)
	if err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
	}

	// All split arithmetic is validated before anything is written.
	var (
		otherAmount, myShare, theirShare money.Money
	)
	if input.Split != nil {
		if otherAmount, err = money.ParseNonNegative(input.Split.OtherAmount); err != nil {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
		}
		if myShare, err = money.ParseNonNegative(input.Split.MyShare); err != nil {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
		}
		if theirShare, err = money.ParseNonNegative(input.Split.TheirShare); err != nil {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
		}

		total := amount.Add(otherAmount)
		mine, theirs, err := money.DistributeTotal(total, myShare, theirShare)
		if err != nil {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
		}
		if !mine.Equal(amount) || !theirs.Equal(otherAmount) {
			return nil, apperrors.ErrSplitMismatch
		}
	}

	gid, err := defaultGroupID(s.db, userID)
	if err != nil {
		return nil, err
	}

	var created *models.Transaction
	err = s.db.Transaction(func(tx *gorm.DB) error {
		// Real activity promotes the target frame out of ghost state.
		// The category check runs after so a category ID taken from a
		// ghost view is resolved against the promoted rows.
		if err := s.frames.Ensure(tx, gid, input.Frame); err != nil {
			return err
		}

		if input.CategoryID != nil {
			var count int64
			if err := tx.Model(&models.Category{}).
				Where("id = ? AND group_id = ?", *input.CategoryID, gid).
				Count(&count).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			if count == 0 {
				return apperrors.WithMessage(apperrors.ErrInvalidInput, "unknown category")
			}
		}

		created = &models.Transaction{
			GroupID:     gid,
			FrameIndex:  input.Frame,
			Amount:      amount,
			Description: input.Description,
			CategoryID:  input.CategoryID,
			Date:        input.Date,
			Alive:       true,
		}
		if err := tx.Create(created).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		if input.Split == nil {
			return nil
		}
		return s.createSplit(tx, userID, created, *input.Split, otherAmount, myShare, theirShare)
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

// createSplit inserts the counterparty's mirrored transaction, the split
// and both share rows, and moves the friend balance.
func (s *transactionService) createSplit(
	tx *gorm.DB,
	userID uint,
	mine *models.Transaction,
	split SplitInput,
	otherAmount, myShare, theirShare money.Money,
) error {
	if _, err := acceptedFriendship(tx, userID, split.With); err != nil {
		return err
	}

	friendGID, err := defaultGroupID(tx, split.With)
	if err != nil {
		return err
	}
	if err := s.frames.Ensure(tx, friendGID, mine.FrameIndex); err != nil {
		return err
	}

	mirror := &models.Transaction{
		GroupID:     friendGID,
		FrameIndex:  mine.FrameIndex,
		Amount:      otherAmount,
		Description: mine.Description,
		Date:        mine.Date,
		Alive:       true,
	}
	if err := tx.Create(mirror).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	payerID := split.With
	if split.IPaid {
		payerID = userID
	}
	splitRow := &models.Split{PayerID: payerID}
	if err := tx.Create(splitRow).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	shares := []models.TransactionSplit{
		{SplitID: splitRow.ID, TransactionID: mine.ID, UserID: userID, Share: myShare},
		{SplitID: splitRow.ID, TransactionID: mirror.ID, UserID: split.With, Share: theirShare},
	}
	if err := tx.Create(&shares).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	mine.SplitID = &splitRow.ID
	if err := tx.Model(&models.Transaction{}).
		Where("id IN ?", []uint{mine.ID, mirror.ID}).
		Update("split_id", splitRow.ID).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return adjustFriendBalance(tx, userID, split.With,
		splitContribution(split.IPaid, mine.Amount, otherAmount))
}

// splitContribution is the signed amount a split adds to the caller's
// friend balance: the payer is owed the counterparty's side.
func splitContribution(iPaid bool, myAmount, otherAmount money.Money) money.Money {
	if iPaid {
		return otherAmount
	}
	return myAmount.Neg()
}

// DeleteTransaction soft-deletes a ledger entry. For shared transactions
// the mirrored entry is soft-deleted too and the pair's balance
// contribution is reversed, so the ledger never claims money for an
// expense that no longer exists.
func (s *transactionService) DeleteTransaction(userID, transactionID uint) error {
	gid, err := defaultGroupID(s.db, userID)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		row, err := editableTransaction(tx, gid, transactionID)
		if err != nil {
			return err
		}

		if row.SplitID == nil {
			if err := tx.Model(row).Update("alive", false).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			return nil
		}

		pair, err := loadSplitPair(tx, userID, *row.SplitID)
		if err != nil {
			return err
		}

		contribution := splitContribution(pair.split.PayerID == userID, row.Amount, pair.otherTx.Amount)
		if err := adjustFriendBalance(tx, userID, pair.otherUserID, contribution.Neg()); err != nil {
			return err
		}

		if err := tx.Model(&models.Transaction{}).
			Where("id IN ?", []uint{row.ID, pair.otherTx.ID}).
			Updates(map[string]interface{}{"alive": false, "split_id": nil}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Where("split_id = ?", pair.split.ID).Delete(&models.TransactionSplit{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Delete(&models.Split{}, pair.split.ID).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}

// fieldUpdate is one column change produced by a field-specific
// validator. Shared updates propagate to the paired transaction.
type fieldUpdate struct {
	column string
	value  interface{}
	shared bool
}

// updateField is the generic update path: load, authorize against the
// caller's default group, validate, write, propagate.
func (s *transactionService) updateField(
	userID, transactionID uint,
	apply func(tx *gorm.DB, row *models.Transaction) (fieldUpdate, error),
) error {
	gid, err := defaultGroupID(s.db, userID)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		var row models.Transaction
		if err := tx.First(&row, transactionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrCannotEditTransaction
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if row.GroupID != gid || !row.Alive {
			return apperrors.ErrWrongGroup
		}

		fu, err := apply(tx, &row)
		if err != nil {
			return err
		}

		if err := tx.Model(&row).Update(fu.column, fu.value).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		if fu.shared && row.SplitID != nil {
			if err := tx.Model(&models.Transaction{}).
				Where("split_id = ? AND id <> ?", *row.SplitID, row.ID).
				Update(fu.column, fu.value).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}
		return nil
	})
}

// UpdateAmount changes a transaction's amount. Shared transactions are
// rejected; their amounts only change through the split.
func (s *transactionService) UpdateAmount(userID, transactionID uint, amount string) error {
	return s.updateField(userID, transactionID, func(_ *gorm.DB, row *models.Transaction) (fieldUpdate, error) {
		if row.Shared() {
			return fieldUpdate{}, apperrors.ErrSharedAmount
		}
		m, err := money.ParseNonNegative(amount)
		if err != nil {
			return fieldUpdate{}, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
		}
		return fieldUpdate{column: "amount", value: m}, nil
	})
}

// UpdateDate changes a transaction's date; the paired transaction of a
// split follows.
func (s *transactionService) UpdateDate(userID, transactionID uint, date string) error {
	return s.updateField(userID, transactionID, func(_ *gorm.DB, _ *models.Transaction) (fieldUpdate, error) {
		t, err := validator.ParseDate(date)
		if err != nil {
			return fieldUpdate{}, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
		}
		return fieldUpdate{column: "date", value: t, shared: true}, nil
	})
}

// UpdateDescription changes a transaction's description; the paired
// transaction of a split follows.
func (s *transactionService) UpdateDescription(userID, transactionID uint, description string) error {
	return s.updateField(userID, transactionID, func(_ *gorm.DB, _ *models.Transaction) (fieldUpdate, error) {
		return fieldUpdate{column: "description", value: description, shared: true}, nil
	})
}

// UpdateCategory re-points a transaction at a category of the caller's
// group; nil or zero clears it.
func (s *transactionService) UpdateCategory(userID, transactionID uint, categoryID *uint) error {
	return s.updateField(userID, transactionID, func(tx *gorm.DB, row *models.Transaction) (fieldUpdate, error) {
		if categoryID == nil || *categoryID == 0 {
			return fieldUpdate{column: "category_id", value: nil}, nil
		}
		var count int64
		if err := tx.Model(&models.Category{}).
			Where("id = ? AND group_id = ?", *categoryID, row.GroupID).
			Count(&count).Error; err != nil {
			return fieldUpdate{}, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if count == 0 {
			return fieldUpdate{}, apperrors.WithMessage(apperrors.ErrInvalidInput, "unknown category")
		}
		return fieldUpdate{column: "category_id", value: *categoryID}, nil
	})
}

// splitPair is the counterparty side of a split, resolved from the
// caller's perspective.
type splitPair struct {
	split       *models.Split
	myShare     *models.TransactionSplit
	otherShare  *models.TransactionSplit
	otherTx     *models.Transaction
	otherUserID uint
}

// loadSplitPair resolves the split, both share rows and the paired
// transaction for the given caller.
func loadSplitPair(tx *gorm.DB, userID, splitID uint) (*splitPair, error) {
	var split models.Split
	if err := tx.First(&split, splitID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrSplitNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var shares []models.TransactionSplit
	if err := tx.Where("split_id = ?", splitID).Find(&shares).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if len(shares) != 2 {
		return nil, apperrors.ErrSplitNotFound
	}

	pair := &splitPair{split: &split}
	for i := range shares {
		if shares[i].UserID == userID {
			pair.myShare = &shares[i]
		} else {
			pair.otherShare = &shares[i]
			pair.otherUserID = shares[i].UserID
		}
	}
	if pair.myShare == nil || pair.otherShare == nil {
		return nil, apperrors.ErrSplitNotFound
	}

	var otherTx models.Transaction
	if err := tx.First(&otherTx, pair.otherShare.TransactionID).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	pair.otherTx = &otherTx

	return pair, nil
}

// UpdateSplit re-distributes a shared expense: both transactions'
// amounts, both share rows, the payer and the friend-balance delta are
// written as one atomic batch.
func (s *transactionService) UpdateSplit(userID uint, input UpdateSplitInput) error {
	total, err := money.ParseNonNegative(input.Total)
	if err != nil {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
	}
	myShare, err := money.ParseNonNegative(input.MyShare)
	if err != nil {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
	}
	theirShare, err := money.ParseNonNegative(input.TheirShare)
	if err != nil {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
	}
	mine, theirs, err := money.DistributeTotal(total, myShare, theirShare)
	if err != nil {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
	}

	gid, err := defaultGroupID(s.db, userID)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		row, err := editableTransaction(tx, gid, input.TransactionID)
		if err != nil {
			return err
		}
		if row.SplitID == nil || *row.SplitID != input.SplitID {
			return apperrors.ErrSplitNotFound
		}

		pair, err := loadSplitPair(tx, userID, input.SplitID)
		if err != nil {
			return err
		}

		oldContribution := splitContribution(pair.split.PayerID == userID, row.Amount, pair.otherTx.Amount)
		newContribution := splitContribution(input.IPaid, mine, theirs)
		if err := adjustFriendBalance(tx, userID, pair.otherUserID,
			newContribution.Sub(oldContribution)); err != nil {
			return err
		}

		if err := tx.Model(row).Update("amount", mine).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Model(pair.otherTx).Update("amount", theirs).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Model(pair.myShare).Update("share", myShare).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Model(pair.otherShare).Update("share", theirShare).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		newPayer := pair.otherUserID
		if input.IPaid {
			newPayer = userID
		}
		if err := tx.Model(pair.split).Update("payer_id", newPayer).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}

// GetFrameTransactions lists the alive transactions of one frame of the
// caller's default group, newest first.
func (s *transactionService) GetFrameTransactions(userID uint, frameIndex int, page pagination.PageRequest) (*pagination.PageResponse[models.Transaction], error) {
	gid, err := defaultGroupID(s.db, userID)
	if err != nil {
		return nil, err
	}

	page.Defaults()

	base := s.db.Model(&models.Transaction{}).
		Where("group_id = ? AND frame_index = ? AND alive = ?", gid, frameIndex, true)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var transactions []models.Transaction
	if err := base.Scopes(pagination.Paginate(page)).
		Order("date DESC, id DESC").
		Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(transactions, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// editableTransaction loads an alive transaction and checks it belongs to
// the caller's default group. Missing and foreign rows both come back as
// ErrCannotEditTransaction so the API never confirms other users' data.
func editableTransaction(tx *gorm.DB, gid, transactionID uint) (*models.Transaction, error) {
	var row models.Transaction
	if err := tx.First(&row, transactionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCannotEditTransaction
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if row.GroupID != gid || !row.Alive {
		return nil, apperrors.ErrCannotEditTransaction
	}
	return &row, nil
}
