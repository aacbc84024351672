package services

import (
	"errors"

	"gorm.io/gorm"

	apperrors "divvy/internal/errors"
	"divvy/internal/models"
	"divvy/internal/money"
)

// friendService handles friendship edges and the owed-balance ledger.
type friendService struct {
	db *gorm.DB
}

// NewFriendService creates a new FriendServicer.
func NewFriendService(db *gorm.DB) FriendServicer {
	return &friendService{db: db}
}

// AddFriend sends a friend request to the user behind email, or accepts a
// pending request from them. Both directions of the edge live in the
// friendships table as mirrored rows.
func (s *friendService) AddFriend(userID uint, email string) (*FriendInfo, error) {
	target, err := s.lookupByEmail(email)
	if err != nil {
		return nil, err
	}
	if target.ID == userID {
		return nil, apperrors.ErrSelfFriend
	}

	var info *FriendInfo
	err = s.db.Transaction(func(tx *gorm.DB) error {
		var mine models.Friendship
		err := tx.Where("user_id = ? AND friend_id = ?", userID, target.ID).First(&mine).Error
		switch {
		case err == nil:
			// Edge already exists in my direction; nothing to change.
		case errors.Is(err, gorm.ErrRecordNotFound):
			mine = models.Friendship{UserID: userID, FriendID: target.ID, Status: models.FriendshipPending}
			if err := tx.Create(&mine).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		default:
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		// A pending edge from the other side means they asked first;
		// adding them back accepts the friendship on both rows.
		var theirs models.Friendship
		err = tx.Where("user_id = ? AND friend_id = ?", target.ID, userID).First(&theirs).Error
		if err == nil {
			if err := tx.Model(&models.Friendship{}).
				Where("(user_id = ? AND friend_id = ?) OR (user_id = ? AND friend_id = ?)",
					userID, target.ID, target.ID, userID).
				Update("status", models.FriendshipAccepted).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			mine.Status = models.FriendshipAccepted
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		info = &FriendInfo{
			UserID:  target.ID,
			Email:   target.Email,
			Name:    target.Name,
			Status:  mine.Status,
			Balance: mine.Balance,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return info, nil
}

// RejectFriend removes a pending request from the user behind email.
func (s *friendService) RejectFriend(userID uint, email string) error {
	target, err := s.lookupByEmail(email)
	if err != nil {
		return err
	}

	result := s.db.Where("user_id = ? AND friend_id = ? AND status = ?",
		target.ID, userID, models.FriendshipPending).Delete(&models.Friendship{})
	if result.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFriends
	}
	return nil
}

// RemoveFriend deletes both directions of the friendship edge.
func (s *friendService) RemoveFriend(userID uint, email string) error {
	target, err := s.lookupByEmail(email)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Where("(user_id = ? AND friend_id = ?) OR (user_id = ? AND friend_id = ?)",
			userID, target.ID, target.ID, userID).Delete(&models.Friendship{})
		if result.Error != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
		}
		if result.RowsAffected == 0 {
			return apperrors.ErrNotFriends
		}
		return nil
	})
}

// GetFriends lists the caller's friendship rows with balances.
func (s *friendService) GetFriends(userID uint) ([]FriendInfo, error) {
	var rows []models.Friendship
	if err := s.db.Preload("Friend").Where("user_id = ?", userID).
		Order("created_at").Find(&rows).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	infos := make([]FriendInfo, 0, len(rows))
	for _, row := range rows {
		infos = append(infos, FriendInfo{
			UserID:  row.FriendID,
			Email:   row.Friend.Email,
			Name:    row.Friend.Name,
			Status:  row.Status,
			Balance: row.Balance,
		})
	}
	return infos, nil
}

func (s *friendService) lookupByEmail(email string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("email = ? AND is_active = ?", email, true).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrFriendNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &user, nil
}

// acceptedFriendship loads the caller's accepted edge toward friendID.
// Used by the transaction service before creating or adjusting a split.
func acceptedFriendship(tx *gorm.DB, userID, friendID uint) (*models.Friendship, error) {
	var edge models.Friendship
	err := tx.Where("user_id = ? AND friend_id = ? AND status = ?",
		userID, friendID, models.FriendshipAccepted).First(&edge).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFriends
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &edge, nil
}

// adjustFriendBalance applies delta to the caller's row and the exact
// negation to the friend's mirrored row, keeping the pair reconciled.
func adjustFriendBalance(tx *gorm.DB, userID, friendID uint, delta money.Money) error {
	if delta.IsZero() {
		return nil
	}

	var mine models.Friendship
	if err := tx.Where("user_id = ? AND friend_id = ?", userID, friendID).First(&mine).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := tx.Model(&mine).Update("balance", mine.Balance.Add(delta)).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var theirs models.Friendship
	if err := tx.Where("user_id = ? AND friend_id = ?", friendID, userID).First(&theirs).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := tx.Model(&theirs).Update("balance", theirs.Balance.Sub(delta)).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return nil
}
