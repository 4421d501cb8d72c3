package service

import (
	"context"
	"testing"

	"github.com/Fannysbth/kel1paw/internal/errs"
)

func TestRateScoreBounds(t *testing.T) {
	env := newTestEnv()
	owner := env.seedUser("Kelompok 1", "owner@ugm.ac.id")
	rater := env.seedUser("Kelompok 2", "rater@ugm.ac.id")
	project := env.seedProject(owner.ID, "Air Quality Monitor")

	for _, score := range []int{0, 6, -1} {
		if _, err := env.ratingSvc.Rate(context.Background(), project.ID, rater.ID, score); errs.KindOf(err) != errs.KindValidation {
			t.Errorf("Rate(%d) expected Validation, got %v", score, err)
		}
	}
}

func TestRateOwnProject(t *testing.T) {
	env := newTestEnv()
	owner := env.seedUser("Kelompok 1", "owner@ugm.ac.id")
	project := env.seedProject(owner.ID, "Air Quality Monitor")

	_, err := env.ratingSvc.Rate(context.Background(), project.ID, owner.ID, 5)
	if errs.KindOf(err) != errs.KindForbidden {
		t.Errorf("Expected Forbidden rating own project, got %v", err)
	}
}

func TestRateRecomputesAggregate(t *testing.T) {
	env := newTestEnv()
	owner := env.seedUser("Kelompok 1", "owner@ugm.ac.id")
	rater1 := env.seedUser("Kelompok 2", "rater1@ugm.ac.id")
	rater2 := env.seedUser("Kelompok 3", "rater2@ugm.ac.id")
	project := env.seedProject(owner.ID, "Air Quality Monitor")

	ctx := context.Background()
	if _, err := env.ratingSvc.Rate(ctx, project.ID, rater1.ID, 4); err != nil {
		t.Fatalf("Rate() error = %v", err)
	}
	if _, err := env.ratingSvc.Rate(ctx, project.ID, rater2.ID, 5); err != nil {
		t.Fatalf("Rate() error = %v", err)
	}

	stored, err := env.projects.FindByID(ctx, project.ID)
	if err != nil {
		t.Fatalf("FindByID() error = %v", err)
	}
	if stored.AvgRating != 4.5 {
		t.Errorf("Expected avgRating 4.5, got %v", stored.AvgRating)
	}
	if stored.RatingCount != 2 {
		t.Errorf("Expected ratingCount 2, got %d", stored.RatingCount)
	}
}

func TestRateReplacesEarlierScore(t *testing.T) {
	env := newTestEnv()
	owner := env.seedUser("Kelompok 1", "owner@ugm.ac.id")
	rater := env.seedUser("Kelompok 2", "rater@ugm.ac.id")
	project := env.seedProject(owner.ID, "Air Quality Monitor")

	ctx := context.Background()
	if _, err := env.ratingSvc.Rate(ctx, project.ID, rater.ID, 2); err != nil {
		t.Fatalf("Rate() error = %v", err)
	}
	if _, err := env.ratingSvc.Rate(ctx, project.ID, rater.ID, 5); err != nil {
		t.Fatalf("Rate() error = %v", err)
	}

	stored, err := env.projects.FindByID(ctx, project.ID)
	if err != nil {
		t.Fatalf("FindByID() error = %v", err)
	}
	if stored.RatingCount != 1 {
		t.Errorf("Expected one rating per user, got count %d", stored.RatingCount)
	}
	if stored.AvgRating != 5 {
		t.Errorf("Expected avgRating 5 after replacing, got %v", stored.AvgRating)
	}
}

func TestRemoveRating(t *testing.T) {
	env := newTestEnv()
	owner := env.seedUser("Kelompok 1", "owner@ugm.ac.id")
	rater := env.seedUser("Kelompok 2", "rater@ugm.ac.id")
	project := env.seedProject(owner.ID, "Air Quality Monitor")

	ctx := context.Background()
	if _, err := env.ratingSvc.Rate(ctx, project.ID, rater.ID, 3); err != nil {
		t.Fatalf("Rate() error = %v", err)
	}
	if err := env.ratingSvc.Remove(ctx, project.ID, rater.ID); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}

	stored, err := env.projects.FindByID(ctx, project.ID)
	if err != nil {
		t.Fatalf("FindByID() error = %v", err)
	}
	if stored.AvgRating != 0 || stored.RatingCount != 0 {
		t.Errorf("Expected zeroed aggregate, got avg=%v count=%d", stored.AvgRating, stored.RatingCount)
	}

	if err := env.ratingSvc.Remove(ctx, project.ID, rater.ID); errs.KindOf(err) != errs.KindNotFound {
		t.Errorf("Expected NotFound removing a missing rating, got %v", err)
	}
}

func TestListByProjectSummary(t *testing.T) {
	env := newTestEnv()
	owner := env.seedUser("Kelompok 1", "owner@ugm.ac.id")
	rater := env.seedUser("Kelompok 2", "rater@ugm.ac.id")
	project := env.seedProject(owner.ID, "Air Quality Monitor")

	ctx := context.Background()
	if _, err := env.ratingSvc.Rate(ctx, project.ID, rater.ID, 4); err != nil {
		t.Fatalf("Rate() error = %v", err)
	}

	summary, err := env.ratingSvc.ListByProject(ctx, project.ID)
	if err != nil {
		t.Fatalf("ListByProject() error = %v", err)
	}
	if len(summary.Ratings) != 1 || summary.Average != 4 || summary.Count != 1 {
		t.Errorf("Unexpected summary: %+v", summary)
	}
}
