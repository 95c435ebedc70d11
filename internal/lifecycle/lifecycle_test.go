package lifecycle

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/sofrim/sofrim-server/internal/model"
	"github.com/sofrim/sofrim-server/internal/testutil"
)

func TestClaimReleaseComplete(t *testing.T) {
	database := testutil.SetupTestDB(t)
	svc := NewService(database)
	ctx := context.Background()

	user := testutil.CreateTestUser(t, database, "rivka", model.RoleUser)
	testutil.CreateTestBook(t, database, "shita", "שיטה מקובצת", 3)

	// 1. Claim an available page
	page, err := svc.Claim(ctx, "shita", 1, user.ID, user.Name)
	if err != nil {
		t.Fatalf("Claim failed: %v", err)
	}
	if page.Status != model.PageInProgress {
		t.Errorf("Expected status %s, got %s", model.PageInProgress, page.Status)
	}
	if page.EditorID == nil || *page.EditorID != user.ID {
		t.Error("Expected page assigned to claiming user")
	}
	if page.ClaimedAt == nil {
		t.Error("Expected claimed_at to be set")
	}

	// 2. Release it
	page, err = svc.Release(ctx, "shita", 1, user.ID, user.Role)
	if err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if page.Status != model.PageAvailable {
		t.Errorf("Expected status %s, got %s", model.PageAvailable, page.Status)
	}
	if page.EditorID != nil || page.EditorName != nil || page.ClaimedAt != nil {
		t.Error("Release should clear all editor fields together")
	}

	// 3. Claim again and complete with content
	if _, err = svc.Claim(ctx, "shita", 1, user.ID, user.Name); err != nil {
		t.Fatalf("Re-claim failed: %v", err)
	}
	content := "טקסט מוגה"
	page, err = svc.Complete(ctx, "shita", 1, user.ID, &content)
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if page.Status != model.PageCompleted {
		t.Errorf("Expected status %s, got %s", model.PageCompleted, page.Status)
	}
	if page.CompletedAt == nil {
		t.Error("Expected completed_at to be set")
	}
	if page.Content == nil || *page.Content != content {
		t.Error("Expected content persisted on complete")
	}

	// Points awarded once
	updated, err := database.GetUserByID(user.ID)
	if err != nil {
		t.Fatalf("GetUserByID failed: %v", err)
	}
	if updated.Points != PointsPerCompletedPage {
		t.Errorf("Expected %d points, got %d", PointsPerCompletedPage, updated.Points)
	}

	// History order: newest first
	entries, err := database.PageHistory(page.ID)
	if err != nil {
		t.Fatalf("PageHistory failed: %v", err)
	}
	if len(entries) != 4 {
		t.Fatalf("Expected 4 history entries, got %d", len(entries))
	}
	wantActions := []string{model.ActionCompleted, model.ActionClaimed, model.ActionReleased, model.ActionClaimed}
	for i, want := range wantActions {
		if entries[i].Action != want {
			t.Errorf("history[%d]: expected %s, got %s", i, want, entries[i].Action)
		}
	}
}

func TestClaimConflicts(t *testing.T) {
	database := testutil.SetupTestDB(t)
	svc := NewService(database)
	ctx := context.Background()

	alice := testutil.CreateTestUser(t, database, "alice", model.RoleUser)
	bob := testutil.CreateTestUser(t, database, "bob", model.RoleUser)
	testutil.CreateTestBook(t, database, "book", "ספר", 1)

	if _, err := svc.Claim(ctx, "book", 1, alice.ID, alice.Name); err != nil {
		t.Fatalf("First claim failed: %v", err)
	}

	// Second claim on the same page conflicts
	if _, err := svc.Claim(ctx, "book", 1, bob.ID, bob.Name); !errors.Is(err, ErrConflict) {
		t.Errorf("Expected ErrConflict, got %v", err)
	}

	// Page still belongs to the first claimant
	page, err := database.GetPage("book", 1)
	if err != nil {
		t.Fatalf("GetPage failed: %v", err)
	}
	if page.EditorID == nil || *page.EditorID != alice.ID {
		t.Error("Losing claim must not change the editor")
	}

	// Unknown page
	if _, err := svc.Claim(ctx, "book", 99, bob.ID, bob.Name); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if _, err := svc.Claim(ctx, "no-such-book", 1, bob.ID, bob.Name); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for unknown book, got %v", err)
	}
}

func TestConcurrentClaimExactlyOneWinner(t *testing.T) {
	database := testutil.SetupTestDB(t)
	svc := NewService(database)
	ctx := context.Background()

	testutil.CreateTestBook(t, database, "race", "מרוץ", 1)

	const n = 10
	users := make([]string, n)
	for i := range users {
		u := testutil.CreateTestUser(t, database, "racer"+string(rune('a'+i)), model.RoleUser)
		users[i] = u.ID
	}

	var wg sync.WaitGroup
	results := make(chan error, n)
	start := make(chan struct{})

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(userID string) {
			defer wg.Done()
			<-start
			_, err := svc.Claim(ctx, "race", 1, userID, userID)
			results <- err
		}(users[i])
	}
	close(start)
	wg.Wait()
	close(results)

	var wins, conflicts int
	for err := range results {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, ErrConflict):
			conflicts++
		default:
			t.Errorf("Unexpected claim error: %v", err)
		}
	}
	if wins != 1 {
		t.Errorf("Expected exactly 1 winning claim, got %d", wins)
	}
	if conflicts != n-1 {
		t.Errorf("Expected %d conflicts, got %d", n-1, conflicts)
	}

	page, err := database.GetPage("race", 1)
	if err != nil {
		t.Fatalf("GetPage failed: %v", err)
	}
	if page.Status != model.PageInProgress || page.EditorID == nil {
		t.Error("Page should be in-progress with an editor after the race")
	}

	// Exactly one claimed history entry
	entries, err := database.PageHistory(page.ID)
	if err != nil {
		t.Fatalf("PageHistory failed: %v", err)
	}
	if len(entries) != 1 || entries[0].Action != model.ActionClaimed {
		t.Errorf("Expected a single claimed entry, got %d entries", len(entries))
	}
}

func TestCompleteOwnershipAndNoDoubleAward(t *testing.T) {
	database := testutil.SetupTestDB(t)
	svc := NewService(database)
	ctx := context.Background()

	owner := testutil.CreateTestUser(t, database, "owner", model.RoleUser)
	other := testutil.CreateTestUser(t, database, "other", model.RoleUser)
	admin := testutil.CreateTestUser(t, database, "boss", model.RoleAdmin)
	testutil.CreateTestBook(t, database, "tanya", "תניא", 2)

	if _, err := svc.Claim(ctx, "tanya", 1, owner.ID, owner.Name); err != nil {
		t.Fatalf("Claim failed: %v", err)
	}

	// Non-owner cannot complete, not even an admin
	if _, err := svc.Complete(ctx, "tanya", 1, other.ID, nil); !errors.Is(err, ErrForbidden) {
		t.Errorf("Expected ErrForbidden for non-owner, got %v", err)
	}
	if _, err := svc.Complete(ctx, "tanya", 1, admin.ID, nil); !errors.Is(err, ErrForbidden) {
		t.Errorf("Expected ErrForbidden for admin, got %v", err)
	}

	if _, err := svc.Complete(ctx, "tanya", 1, owner.ID, nil); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	// A second complete is a conflict and must not award again
	if _, err := svc.Complete(ctx, "tanya", 1, owner.ID, nil); !errors.Is(err, ErrConflict) {
		t.Errorf("Expected ErrConflict on re-complete, got %v", err)
	}
	updated, _ := database.GetUserByID(owner.ID)
	if updated.Points != PointsPerCompletedPage {
		t.Errorf("Expected %d points after re-complete attempt, got %d", PointsPerCompletedPage, updated.Points)
	}

	// Completing an available page is a conflict
	if _, err := svc.Complete(ctx, "tanya", 2, owner.ID, nil); !errors.Is(err, ErrConflict) {
		t.Errorf("Expected ErrConflict on available page, got %v", err)
	}
}

func TestReleaseOwnership(t *testing.T) {
	database := testutil.SetupTestDB(t)
	svc := NewService(database)
	ctx := context.Background()

	owner := testutil.CreateTestUser(t, database, "owner", model.RoleUser)
	other := testutil.CreateTestUser(t, database, "other", model.RoleUser)
	admin := testutil.CreateTestUser(t, database, "boss", model.RoleAdmin)
	testutil.CreateTestBook(t, database, "book", "ספר", 2)

	if _, err := svc.Claim(ctx, "book", 1, owner.ID, owner.Name); err != nil {
		t.Fatalf("Claim failed: %v", err)
	}

	// Another user cannot release someone else's page
	if _, err := svc.Release(ctx, "book", 1, other.ID, other.Role); !errors.Is(err, ErrForbidden) {
		t.Errorf("Expected ErrForbidden, got %v", err)
	}
	page, _ := database.GetPage("book", 1)
	if page.Status != model.PageInProgress {
		t.Error("Failed release must leave the page in-progress")
	}

	// An admin can
	if _, err := svc.Release(ctx, "book", 1, admin.ID, admin.Role); err != nil {
		t.Fatalf("Admin release failed: %v", err)
	}

	// Releasing an available page is a conflict
	if _, err := svc.Release(ctx, "book", 2, owner.ID, owner.Role); !errors.Is(err, ErrConflict) {
		t.Errorf("Expected ErrConflict, got %v", err)
	}
}

func TestAdminReset(t *testing.T) {
	database := testutil.SetupTestDB(t)
	svc := NewService(database)
	ctx := context.Background()

	user := testutil.CreateTestUser(t, database, "editor", model.RoleUser)
	second := testutil.CreateTestUser(t, database, "second", model.RoleUser)
	admin := testutil.CreateTestUser(t, database, "boss", model.RoleAdmin)
	testutil.CreateTestBook(t, database, "book", "ספר", 1)

	if _, err := svc.Claim(ctx, "book", 1, user.ID, user.Name); err != nil {
		t.Fatalf("Claim failed: %v", err)
	}
	if _, err := svc.Complete(ctx, "book", 1, user.ID, nil); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	// Reset reopens even a completed page
	page, err := svc.AdminReset(ctx, "book", 1, admin.ID)
	if err != nil {
		t.Fatalf("AdminReset failed: %v", err)
	}
	if page.Status != model.PageAvailable || page.EditorID != nil {
		t.Error("Reset should make the page available with no editor")
	}

	// The reset is attributed to the admin in history
	entries, err := database.PageHistory(page.ID)
	if err != nil {
		t.Fatalf("PageHistory failed: %v", err)
	}
	if entries[0].Action != model.ActionReleased || entries[0].UserID != admin.ID {
		t.Errorf("Expected released entry by admin, got %s by %s", entries[0].Action, entries[0].UserID)
	}

	// Another user can claim and complete it; first editor keeps their points
	if _, err := svc.Claim(ctx, "book", 1, second.ID, second.Name); err != nil {
		t.Fatalf("Re-claim after reset failed: %v", err)
	}
	if _, err := svc.Complete(ctx, "book", 1, second.ID, nil); err != nil {
		t.Fatalf("Complete after reset failed: %v", err)
	}
	first, _ := database.GetUserByID(user.ID)
	if first.Points != PointsPerCompletedPage {
		t.Errorf("First editor should keep %d points, got %d", PointsPerCompletedPage, first.Points)
	}

	if _, err := svc.AdminReset(ctx, "book", 99, admin.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestValidation(t *testing.T) {
	database := testutil.SetupTestDB(t)
	svc := NewService(database)
	ctx := context.Background()

	cases := []error{}
	_, err := svc.Claim(ctx, "", 1, "u", "n")
	cases = append(cases, err)
	_, err = svc.Claim(ctx, "b", 0, "u", "n")
	cases = append(cases, err)
	_, err = svc.Claim(ctx, "b", 1, "", "n")
	cases = append(cases, err)
	_, err = svc.Release(ctx, "b", -1, "u", model.RoleUser)
	cases = append(cases, err)
	_, err = svc.Complete(ctx, "b", 1, "", nil)
	cases = append(cases, err)
	_, err = svc.AdminReset(ctx, "", 1, "u")
	cases = append(cases, err)

	for i, err := range cases {
		if !errors.Is(err, ErrValidation) {
			t.Errorf("case %d: expected ErrValidation, got %v", i, err)
		}
	}
}
