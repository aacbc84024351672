package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"divvy/internal/models"
	"divvy/internal/money"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates a user with their own default group, a hashed
// password and a unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithEmail(t, db, email)
}

// CreateTestUserWithEmail creates a user (plus default group) with the
// given email.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	group := &models.Group{Name: email}
	if err := db.Create(group).Error; err != nil {
		t.Fatalf("failed to create test group: %v", err)
	}

	user := &models.User{
		Email:    email,
		Password: string(hash),
		GroupID:  group.ID,
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestFriends creates two users with an accepted friendship between
// them (both mirrored rows, zero balance).
func CreateTestFriends(t *testing.T, db *gorm.DB) (*models.User, *models.User) {
	t.Helper()

	a := CreateTestUser(t, db)
	b := CreateTestUser(t, db)

	rows := []models.Friendship{
		{UserID: a.ID, FriendID: b.ID, Status: models.FriendshipAccepted, Balance: money.Zero()},
		{UserID: b.ID, FriendID: a.ID, Status: models.FriendshipAccepted, Balance: money.Zero()},
	}
	if err := db.Create(&rows).Error; err != nil {
		t.Fatalf("failed to create test friendship: %v", err)
	}
	return a, b
}

// CreateTestFrame creates a persisted, non-ghost frame.
func CreateTestFrame(t *testing.T, db *gorm.DB, groupID uint, index int, income string) *models.Frame {
	t.Helper()

	frame := &models.Frame{
		GroupID: groupID,
		Index:   index,
		Income:  money.MustParse(income),
	}
	if err := db.Create(frame).Error; err != nil {
		t.Fatalf("failed to create test frame: %v", err)
	}
	return frame
}

// CreateTestCategory creates an alive category in the given frame.
func CreateTestCategory(t *testing.T, db *gorm.DB, groupID uint, frameIndex int, budget string) *models.Category {
	t.Helper()

	category := &models.Category{
		GroupID:    groupID,
		FrameIndex: frameIndex,
		Name:       fmt.Sprintf("Test Category %d", nextID()),
		Budget:     money.MustParse(budget),
		Alive:      true,
	}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}
	return category
}

// CreateTestTransaction creates an alive, unshared transaction.
func CreateTestTransaction(t *testing.T, db *gorm.DB, groupID uint, frameIndex int, amount string) *models.Transaction {
	t.Helper()

	tx := &models.Transaction{
		GroupID:     groupID,
		FrameIndex:  frameIndex,
		Amount:      money.MustParse(amount),
		Description: fmt.Sprintf("Test Transaction %d", nextID()),
		Date:        time.Now(),
		Alive:       true,
	}
	if err := db.Create(tx).Error; err != nil {
		t.Fatalf("failed to create test transaction: %v", err)
	}
	return tx
}

// FriendBalance reads the signed balance of the userID→friendID edge.
func FriendBalance(t *testing.T, db *gorm.DB, userID, friendID uint) money.Money {
	t.Helper()

	var row models.Friendship
	if err := db.Where("user_id = ? AND friend_id = ?", userID, friendID).First(&row).Error; err != nil {
		t.Fatalf("failed to load friendship %d->%d: %v", userID, friendID, err)
	}
	return row.Balance
}
