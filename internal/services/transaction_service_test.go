package services

import (
	"testing"
	"time"

	"divvy/internal/models"
	"divvy/internal/money"
	"divvy/internal/pagination"
	"divvy/internal/testutil"
)

func TestCreateTransaction(t *testing.T) {
	t.Run("simple", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		frames := NewFrameService(db)
		txSvc := NewTransactionService(db, frames)
		user := testutil.CreateTestUser(t, db)

		tx, err := txSvc.CreateTransaction(user.ID, CreateTransactionInput{
			Frame:       3,
			Amount:      "12.50",
			Description: "Lunch",
			Date:        time.Now(),
		})
		testutil.AssertNoError(t, err)

		if tx.ID == 0 {
			t.Fatal("expected non-zero transaction ID")
		}
		testutil.AssertMoney(t, tx.Amount, "12.50")
		if tx.Shared() {
			t.Error("transaction without a split should not be shared")
		}

		// Posting into a frame materializes it as permanent.
		var frame models.Frame
		testutil.AssertNoError(t, db.Where("group_id = ? AND frame_index = ?", user.GroupID, 3).First(&frame).Error)
		if frame.Ghost {
			t.Error("frame should be promoted once a transaction lands in it")
		}
	})

	t.Run("invalid_amount", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		txSvc := NewTransactionService(db, NewFrameService(db))
		user := testutil.CreateTestUser(t, db)

		_, err := txSvc.CreateTransaction(user.ID, CreateTransactionInput{
			Frame: 3, Amount: "-5", Date: time.Now(),
		})
		testutil.AssertAppError(t, err, "INVALID_INPUT")

		_, err = txSvc.CreateTransaction(user.ID, CreateTransactionInput{
			Frame: 3, Amount: "abc", Date: time.Now(),
		})
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("unknown_category", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		txSvc := NewTransactionService(db, NewFrameService(db))
		user := testutil.CreateTestUser(t, db)

		missing := uint(999)
		_, err := txSvc.CreateTransaction(user.ID, CreateTransactionInput{
			Frame: 3, Amount: "10", CategoryID: &missing, Date: time.Now(),
		})
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("category_from_ghost_view", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		frames := NewFrameService(db)
		txSvc := NewTransactionService(db, frames)
		user := testutil.CreateTestUser(t, db)

		// Viewing an untouched frame hands out ghost category IDs; a
		// client will post right back with one of them.
		viewed, err := frames.GetFrame(user.ID, 5)
		testutil.AssertNoError(t, err)
		if len(viewed.Categories) == 0 {
			t.Fatal("expected ghost categories on first view")
		}
		catID := viewed.Categories[0].ID

		tx, err := txSvc.CreateTransaction(user.ID, CreateTransactionInput{
			Frame: 5, Amount: "10", CategoryID: &catID, Date: time.Now(),
		})
		testutil.AssertNoError(t, err)

		// The viewed row must survive promotion, not be replaced.
		var category models.Category
		testutil.AssertNoError(t, db.First(&category, catID).Error)
		if category.Ghost {
			t.Error("category should be promoted with the frame")
		}
		if tx.CategoryID == nil || *tx.CategoryID != category.ID {
			t.Error("transaction should point at the surviving category row")
		}

		after, err := frames.GetFrame(user.ID, 5)
		testutil.AssertNoError(t, err)
		if len(after.Categories) != len(viewed.Categories) {
			t.Fatalf("expected %d categories after posting, got %d",
				len(viewed.Categories), len(after.Categories))
		}
		for i := range after.Categories {
			if after.Categories[i].ID != viewed.Categories[i].ID {
				t.Errorf("category %d changed identity between views", i)
			}
		}
		// Default budgets are zero, so the spend shows as a negative balance.
		testutil.AssertMoney(t, after.Categories[0].Balance, "-10")
	})

	t.Run("split", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		txSvc := NewTransactionService(db, NewFrameService(db))
		a, b := testutil.CreateTestFriends(t, db)

		tx, err := txSvc.CreateTransaction(a.ID, CreateTransactionInput{
			Frame:       3,
			Amount:      "60",
			Description: "Dinner",
			Date:        time.Now(),
			Split: &SplitInput{
				With:        b.ID,
				IPaid:       true,
				OtherAmount: "40",
				MyShare:     "60",
				TheirShare:  "40",
			},
		})
		testutil.AssertNoError(t, err)

		if !tx.Shared() {
			t.Fatal("split transaction should be shared")
		}

		// The counterparty gets a mirrored transaction in their group.
		var mirror models.Transaction
		testutil.AssertNoError(t, db.Where("group_id = ? AND split_id = ?", b.GroupID, *tx.SplitID).First(&mirror).Error)
		testutil.AssertMoney(t, mirror.Amount, "40")
		if mirror.Description != "Dinner" {
			t.Errorf("mirror should carry the description, got %q", mirror.Description)
		}
		if mirror.FrameIndex != 3 {
			t.Errorf("mirror should land in the same frame index, got %d", mirror.FrameIndex)
		}

		var shares []models.TransactionSplit
		testutil.AssertNoError(t, db.Where("split_id = ?", *tx.SplitID).Find(&shares).Error)
		if len(shares) != 2 {
			t.Fatalf("expected 2 share rows, got %d", len(shares))
		}

		// The payer is owed the counterparty's side.
		testutil.AssertMoney(t, testutil.FriendBalance(t, db, a.ID, b.ID), "40")
		testutil.AssertMoney(t, testutil.FriendBalance(t, db, b.ID, a.ID), "-40")
	})

	t.Run("split_they_paid", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		txSvc := NewTransactionService(db, NewFrameService(db))
		a, b := testutil.CreateTestFriends(t, db)

		_, err := txSvc.CreateTransaction(a.ID, CreateTransactionInput{
			Frame:  3,
			Amount: "25",
			Date:   time.Now(),
			Split: &SplitInput{
				With:        b.ID,
				IPaid:       false,
				OtherAmount: "25",
				MyShare:     "1",
				TheirShare:  "1",
			},
		})
		testutil.AssertNoError(t, err)

		// The friend paid, so the caller owes their own side.
		testutil.AssertMoney(t, testutil.FriendBalance(t, db, a.ID, b.ID), "-25")
		testutil.AssertMoney(t, testutil.FriendBalance(t, db, b.ID, a.ID), "25")
	})

	t.Run("split_mismatch", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		txSvc := NewTransactionService(db, NewFrameService(db))
		a, b := testutil.CreateTestFriends(t, db)

		// 50+40 distributed 60/40 would give 54/36, not 50/40.
		_, err := txSvc.CreateTransaction(a.ID, CreateTransactionInput{
			Frame:  3,
			Amount: "50",
			Date:   time.Now(),
			Split: &SplitInput{
				With:        b.ID,
				IPaid:       true,
				OtherAmount: "40",
				MyShare:     "60",
				TheirShare:  "40",
			},
		})
		testutil.AssertAppError(t, err, "SPLIT_MISMATCH")

		// Nothing was written.
		var count int64
		db.Model(&models.Transaction{}).Count(&count)
		if count != 0 {
			t.Errorf("expected no transactions after a rejected split, got %d", count)
		}
	})

	t.Run("split_not_friends", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		txSvc := NewTransactionService(db, NewFrameService(db))
		a := testutil.CreateTestUser(t, db)
		b := testutil.CreateTestUser(t, db)

		_, err := txSvc.CreateTransaction(a.ID, CreateTransactionInput{
			Frame:  3,
			Amount: "60",
			Date:   time.Now(),
			Split: &SplitInput{
				With:        b.ID,
				IPaid:       true,
				OtherAmount: "40",
				MyShare:     "60",
				TheirShare:  "40",
			},
		})
		testutil.AssertAppError(t, err, "NOT_FRIENDS")
	})
}

func TestDeleteTransaction(t *testing.T) {
	t.Run("simple", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		frames := NewFrameService(db)
		txSvc := NewTransactionService(db, frames)
		user := testutil.CreateTestUser(t, db)
		tx := testutil.CreateTestTransaction(t, db, user.GroupID, 3, "20")

		testutil.AssertNoError(t, txSvc.DeleteTransaction(user.ID, tx.ID))

		var row models.Transaction
		testutil.AssertNoError(t, db.First(&row, tx.ID).Error)
		if row.Alive {
			t.Error("deleted transaction should not be alive")
		}

		spending, err := frames.Spending(user.GroupID, 3)
		testutil.AssertNoError(t, err)
		testutil.AssertMoney(t, spending, "0")
	})

	t.Run("unknown", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		txSvc := NewTransactionService(db, NewFrameService(db))
		user := testutil.CreateTestUser(t, db)

		testutil.AssertAppError(t, txSvc.DeleteTransaction(user.ID, 999), "CANNOT_EDIT_TRANSACTION")
	})

	t.Run("not_owned", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		txSvc := NewTransactionService(db, NewFrameService(db))
		owner := testutil.CreateTestUser(t, db)
		intruder := testutil.CreateTestUser(t, db)
		tx := testutil.CreateTestTransaction(t, db, owner.GroupID, 3, "20")

		testutil.AssertAppError(t, txSvc.DeleteTransaction(intruder.ID, tx.ID), "CANNOT_EDIT_TRANSACTION")

		var row models.Transaction
		testutil.AssertNoError(t, db.First(&row, tx.ID).Error)
		if !row.Alive {
			t.Error("transaction should be untouched after a rejected delete")
		}
	})

	t.Run("shared_reverses_ledger", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		txSvc := NewTransactionService(db, NewFrameService(db))
		a, b := testutil.CreateTestFriends(t, db)

		tx, err := txSvc.CreateTransaction(a.ID, CreateTransactionInput{
			Frame:  3,
			Amount: "60",
			Date:   time.Now(),
			Split: &SplitInput{
				With: b.ID, IPaid: true,
				OtherAmount: "40", MyShare: "60", TheirShare: "40",
			},
		})
		testutil.AssertNoError(t, err)

		testutil.AssertNoError(t, txSvc.DeleteTransaction(a.ID, tx.ID))

		testutil.AssertMoney(t, testutil.FriendBalance(t, db, a.ID, b.ID), "0")
		testutil.AssertMoney(t, testutil.FriendBalance(t, db, b.ID, a.ID), "0")

		var alive int64
		db.Model(&models.Transaction{}).Where("alive = ?", true).Count(&alive)
		if alive != 0 {
			t.Errorf("expected both sides soft-deleted, %d still alive", alive)
		}

		var splits int64
		db.Model(&models.Split{}).Count(&splits)
		if splits != 0 {
			t.Errorf("expected split rows removed, got %d", splits)
		}
	})
}

func TestUpdateTransactionFields(t *testing.T) {
	t.Run("amount", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		txSvc := NewTransactionService(db, NewFrameService(db))
		user := testutil.CreateTestUser(t, db)
		tx := testutil.CreateTestTransaction(t, db, user.GroupID, 3, "20")

		testutil.AssertNoError(t, txSvc.UpdateAmount(user.ID, tx.ID, "35.75"))

		var row models.Transaction
		testutil.AssertNoError(t, db.First(&row, tx.ID).Error)
		testutil.AssertMoney(t, row.Amount, "35.75")
	})

	t.Run("amount_on_shared", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		txSvc := NewTransactionService(db, NewFrameService(db))
		a, b := testutil.CreateTestFriends(t, db)

		tx, err := txSvc.CreateTransaction(a.ID, CreateTransactionInput{
			Frame:  3,
			Amount: "60",
			Date:   time.Now(),
			Split: &SplitInput{
				With: b.ID, IPaid: true,
				OtherAmount: "40", MyShare: "60", TheirShare: "40",
			},
		})
		testutil.AssertNoError(t, err)

		testutil.AssertAppError(t, txSvc.UpdateAmount(a.ID, tx.ID, "100"), "SHARED_AMOUNT")
	})

	t.Run("wrong_group", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		txSvc := NewTransactionService(db, NewFrameService(db))
		owner := testutil.CreateTestUser(t, db)
		intruder := testutil.CreateTestUser(t, db)
		tx := testutil.CreateTestTransaction(t, db, owner.GroupID, 3, "20")

		testutil.AssertAppError(t, txSvc.UpdateDescription(intruder.ID, tx.ID, "mine now"), "WRONG_GROUP")
	})

	t.Run("description_propagates_to_pair", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		txSvc := NewTransactionService(db, NewFrameService(db))
		a, b := testutil.CreateTestFriends(t, db)

		tx, err := txSvc.CreateTransaction(a.ID, CreateTransactionInput{
			Frame:       3,
			Amount:      "60",
			Description: "Dinner",
			Date:        time.Now(),
			Split: &SplitInput{
				With: b.ID, IPaid: true,
				OtherAmount: "40", MyShare: "60", TheirShare: "40",
			},
		})
		testutil.AssertNoError(t, err)

		testutil.AssertNoError(t, txSvc.UpdateDescription(a.ID, tx.ID, "Anniversary dinner"))

		var rows []models.Transaction
		testutil.AssertNoError(t, db.Where("split_id = ?", *tx.SplitID).Find(&rows).Error)
		for _, row := range rows {
			if row.Description != "Anniversary dinner" {
				t.Errorf("transaction %d should carry the new description, got %q", row.ID, row.Description)
			}
		}
	})

	t.Run("date_propagates_to_pair", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		txSvc := NewTransactionService(db, NewFrameService(db))
		a, b := testutil.CreateTestFriends(t, db)

		tx, err := txSvc.CreateTransaction(a.ID, CreateTransactionInput{
			Frame:  3,
			Amount: "60",
			Date:   time.Now(),
			Split: &SplitInput{
				With: b.ID, IPaid: true,
				OtherAmount: "40", MyShare: "60", TheirShare: "40",
			},
		})
		testutil.AssertNoError(t, err)

		testutil.AssertNoError(t, txSvc.UpdateDate(a.ID, tx.ID, "2026-02-14"))

		var rows []models.Transaction
		testutil.AssertNoError(t, db.Where("split_id = ?", *tx.SplitID).Find(&rows).Error)
		for _, row := range rows {
			y, m, d := row.Date.Date()
			if y != 2026 || m != time.February || d != 14 {
				t.Errorf("transaction %d date should be 2026-02-14, got %v", row.ID, row.Date)
			}
		}
	})

	t.Run("invalid_date", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		txSvc := NewTransactionService(db, NewFrameService(db))
		user := testutil.CreateTestUser(t, db)
		tx := testutil.CreateTestTransaction(t, db, user.GroupID, 3, "20")

		testutil.AssertAppError(t, txSvc.UpdateDate(user.ID, tx.ID, "not-a-date"), "INVALID_INPUT")
	})

	t.Run("category", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		txSvc := NewTransactionService(db, NewFrameService(db))
		user := testutil.CreateTestUser(t, db)
		category := testutil.CreateTestCategory(t, db, user.GroupID, 3, "100")
		tx := testutil.CreateTestTransaction(t, db, user.GroupID, 3, "20")

		testutil.AssertNoError(t, txSvc.UpdateCategory(user.ID, tx.ID, &category.ID))

		var row models.Transaction
		testutil.AssertNoError(t, db.First(&row, tx.ID).Error)
		if row.CategoryID == nil || *row.CategoryID != category.ID {
			t.Fatalf("expected category %d, got %v", category.ID, row.CategoryID)
		}

		// Falsy values clear the category.
		zero := uint(0)
		testutil.AssertNoError(t, txSvc.UpdateCategory(user.ID, tx.ID, &zero))
		testutil.AssertNoError(t, db.First(&row, tx.ID).Error)
		if row.CategoryID != nil {
			t.Errorf("expected category cleared, got %v", *row.CategoryID)
		}
	})

	t.Run("category_of_other_group", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		txSvc := NewTransactionService(db, NewFrameService(db))
		user := testutil.CreateTestUser(t, db)
		other := testutil.CreateTestUser(t, db)
		foreign := testutil.CreateTestCategory(t, db, other.GroupID, 3, "100")
		tx := testutil.CreateTestTransaction(t, db, user.GroupID, 3, "20")

		testutil.AssertAppError(t, txSvc.UpdateCategory(user.ID, tx.ID, &foreign.ID), "INVALID_INPUT")
	})

	t.Run("category_check_db_error_is_internal", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		txSvc := NewTransactionService(db, NewFrameService(db))
		user := testutil.CreateTestUser(t, db)
		tx := testutil.CreateTestTransaction(t, db, user.GroupID, 3, "20")

		// A failing lookup must not read as "no such category".
		testutil.AssertNoError(t, db.Migrator().DropTable(&models.Category{}))
		catID := uint(1)
		testutil.AssertAppError(t, txSvc.UpdateCategory(user.ID, tx.ID, &catID), "INTERNAL_ERROR")
	})
}

func TestUpdateSplit(t *testing.T) {
	t.Run("redistributes_and_moves_balance", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		txSvc := NewTransactionService(db, NewFrameService(db))
		a, b := testutil.CreateTestFriends(t, db)

		tx, err := txSvc.CreateTransaction(a.ID, CreateTransactionInput{
			Frame:  3,
			Amount: "60",
			Date:   time.Now(),
			Split: &SplitInput{
				With: b.ID, IPaid: true,
				OtherAmount: "40", MyShare: "60", TheirShare: "40",
			},
		})
		testutil.AssertNoError(t, err)
		testutil.AssertMoney(t, testutil.FriendBalance(t, db, a.ID, b.ID), "40")

		// Flip to an even split paid by the friend.
		err = txSvc.UpdateSplit(a.ID, UpdateSplitInput{
			TransactionID: tx.ID,
			SplitID:       *tx.SplitID,
			Total:         "100",
			MyShare:       "50",
			TheirShare:    "50",
			IPaid:         false,
		})
		testutil.AssertNoError(t, err)

		var mine, theirs models.Transaction
		testutil.AssertNoError(t, db.First(&mine, tx.ID).Error)
		testutil.AssertNoError(t, db.Where("split_id = ? AND id <> ?", *tx.SplitID, tx.ID).First(&theirs).Error)
		testutil.AssertMoney(t, mine.Amount, "50")
		testutil.AssertMoney(t, theirs.Amount, "50")

		// Old +40 contribution replaced by -50.
		testutil.AssertMoney(t, testutil.FriendBalance(t, db, a.ID, b.ID), "-50")
		testutil.AssertMoney(t, testutil.FriendBalance(t, db, b.ID, a.ID), "50")

		var split models.Split
		testutil.AssertNoError(t, db.First(&split, *tx.SplitID).Error)
		if split.PayerID != b.ID {
			t.Errorf("expected payer %d, got %d", b.ID, split.PayerID)
		}
	})

	t.Run("rounding_partition", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		txSvc := NewTransactionService(db, NewFrameService(db))
		a, b := testutil.CreateTestFriends(t, db)

		tx, err := txSvc.CreateTransaction(a.ID, CreateTransactionInput{
			Frame:  3,
			Amount: "50",
			Date:   time.Now(),
			Split: &SplitInput{
				With: b.ID, IPaid: true,
				OtherAmount: "50", MyShare: "1", TheirShare: "1",
			},
		})
		testutil.AssertNoError(t, err)

		// 100.01 at 1:1 rounds to 50.01 + 50.00, never losing a cent.
		err = txSvc.UpdateSplit(a.ID, UpdateSplitInput{
			TransactionID: tx.ID,
			SplitID:       *tx.SplitID,
			Total:         "100.01",
			MyShare:       "1",
			TheirShare:    "1",
			IPaid:         true,
		})
		testutil.AssertNoError(t, err)

		var mine, theirs models.Transaction
		testutil.AssertNoError(t, db.First(&mine, tx.ID).Error)
		testutil.AssertNoError(t, db.Where("split_id = ? AND id <> ?", *tx.SplitID, tx.ID).First(&theirs).Error)
		if !mine.Amount.Add(theirs.Amount).Equal(money.MustParse("100.01")) {
			t.Errorf("split must partition the total exactly, got %s + %s", mine.Amount, theirs.Amount)
		}
	})

	t.Run("unknown_split", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		txSvc := NewTransactionService(db, NewFrameService(db))
		user := testutil.CreateTestUser(t, db)
		tx := testutil.CreateTestTransaction(t, db, user.GroupID, 3, "20")

		err := txSvc.UpdateSplit(user.ID, UpdateSplitInput{
			TransactionID: tx.ID,
			SplitID:       42,
			Total:         "20",
			MyShare:       "1",
			TheirShare:    "1",
			IPaid:         true,
		})
		testutil.AssertAppError(t, err, "SPLIT_NOT_FOUND")
	})
}

func TestGetFrameTransactions(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	txSvc := NewTransactionService(db, NewFrameService(db))
	user := testutil.CreateTestUser(t, db)

	for i := 0; i < 3; i++ {
		testutil.CreateTestTransaction(t, db, user.GroupID, 3, "10")
	}
	dead := testutil.CreateTestTransaction(t, db, user.GroupID, 3, "10")
	testutil.AssertNoError(t, db.Model(dead).Update("alive", false).Error)
	testutil.CreateTestTransaction(t, db, user.GroupID, 4, "10")

	result, err := txSvc.GetFrameTransactions(user.ID, 3, pagination.PageRequest{Page: 1, PageSize: 2})
	testutil.AssertNoError(t, err)

	if result.TotalItems != 3 {
		t.Errorf("expected 3 alive transactions in frame, got %d", result.TotalItems)
	}
	if len(result.Data) != 2 {
		t.Errorf("expected 2 items on the first page, got %d", len(result.Data))
	}
	if result.TotalPages != 2 {
		t.Errorf("expected 2 pages, got %d", result.TotalPages)
	}
}
