package service

import (
	"context"
	"strings"
	"testing"

	"github.com/Fannysbth/kel1paw/internal/errs"
)

func TestCreateComment(t *testing.T) {
	env := newTestEnv()
	owner := env.seedUser("Kelompok 1", "owner@ugm.ac.id")
	commenter := env.seedUser("Kelompok 2", "commenter@ugm.ac.id")
	project := env.seedProject(owner.ID, "Air Quality Monitor")

	comment, err := env.commentSvc.Create(context.Background(), project.ID, commenter.ID, CommentInput{Text: "  nice work  "})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if comment.Text != "nice work" {
		t.Errorf("Expected trimmed text, got %q", comment.Text)
	}
}

func TestCreateCommentValidation(t *testing.T) {
	env := newTestEnv()
	owner := env.seedUser("Kelompok 1", "owner@ugm.ac.id")
	commenter := env.seedUser("Kelompok 2", "commenter@ugm.ac.id")
	project := env.seedProject(owner.ID, "Air Quality Monitor")

	ctx := context.Background()
	if _, err := env.commentSvc.Create(ctx, project.ID, commenter.ID, CommentInput{Text: "   "}); errs.KindOf(err) != errs.KindValidation {
		t.Error("Expected Validation for blank text")
	}
	long := strings.Repeat("a", maxCommentLength+1)
	if _, err := env.commentSvc.Create(ctx, project.ID, commenter.ID, CommentInput{Text: long}); errs.KindOf(err) != errs.KindValidation {
		t.Error("Expected Validation for oversized text")
	}
}

func TestReplyNestsOneLevel(t *testing.T) {
	env := newTestEnv()
	owner := env.seedUser("Kelompok 1", "owner@ugm.ac.id")
	commenter := env.seedUser("Kelompok 2", "commenter@ugm.ac.id")
	project := env.seedProject(owner.ID, "Air Quality Monitor")

	ctx := context.Background()
	top, err := env.commentSvc.Create(ctx, project.ID, commenter.ID, CommentInput{Text: "top level"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	topID := top.ID.Hex()
	reply, err := env.commentSvc.Create(ctx, project.ID, owner.ID, CommentInput{Text: "a reply", ParentID: &topID})
	if err != nil {
		t.Fatalf("Create() reply error = %v", err)
	}
	if reply.ParentID == nil || *reply.ParentID != top.ID {
		t.Error("Expected reply to reference its parent")
	}

	replyID := reply.ID.Hex()
	_, err = env.commentSvc.Create(ctx, project.ID, commenter.ID, CommentInput{Text: "too deep", ParentID: &replyID})
	if errs.KindOf(err) != errs.KindValidation {
		t.Errorf("Expected Validation for nested reply, got %v", err)
	}
}

func TestReplyAcrossProjects(t *testing.T) {
	env := newTestEnv()
	owner1 := env.seedUser("Kelompok 1", "owner1@ugm.ac.id")
	owner2 := env.seedUser("Kelompok 2", "owner2@ugm.ac.id")
	project1 := env.seedProject(owner1.ID, "Air Quality Monitor")
	project2 := env.seedProject(owner2.ID, "Bike Sharing")

	ctx := context.Background()
	top, err := env.commentSvc.Create(ctx, project1.ID, owner2.ID, CommentInput{Text: "on project one"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	topID := top.ID.Hex()
	_, err = env.commentSvc.Create(ctx, project2.ID, owner1.ID, CommentInput{Text: "wrong thread", ParentID: &topID})
	if errs.KindOf(err) != errs.KindValidation {
		t.Errorf("Expected Validation for cross-project parent, got %v", err)
	}
}

func TestUpdateCommentAuthorOnly(t *testing.T) {
	env := newTestEnv()
	owner := env.seedUser("Kelompok 1", "owner@ugm.ac.id")
	commenter := env.seedUser("Kelompok 2", "commenter@ugm.ac.id")
	project := env.seedProject(owner.ID, "Air Quality Monitor")

	ctx := context.Background()
	comment, err := env.commentSvc.Create(ctx, project.ID, commenter.ID, CommentInput{Text: "original"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if _, err := env.commentSvc.Update(ctx, comment.ID, owner.ID, "edited by owner"); errs.KindOf(err) != errs.KindForbidden {
		t.Error("Expected Forbidden editing someone else's comment")
	}

	updated, err := env.commentSvc.Update(ctx, comment.ID, commenter.ID, "edited")
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Text != "edited" {
		t.Errorf("Expected updated text, got %q", updated.Text)
	}
}

func TestDeleteCommentAuthorOnly(t *testing.T) {
	env := newTestEnv()
	owner := env.seedUser("Kelompok 1", "owner@ugm.ac.id")
	commenter := env.seedUser("Kelompok 2", "commenter@ugm.ac.id")
	project := env.seedProject(owner.ID, "Air Quality Monitor")

	ctx := context.Background()
	comment, err := env.commentSvc.Create(ctx, project.ID, commenter.ID, CommentInput{Text: "delete me"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := env.commentSvc.Delete(ctx, comment.ID, owner.ID); errs.KindOf(err) != errs.KindForbidden {
		t.Error("Expected Forbidden deleting someone else's comment")
	}
	if err := env.commentSvc.Delete(ctx, comment.ID, commenter.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := env.comments.FindByID(ctx, comment.ID); errs.KindOf(err) != errs.KindNotFound {
		t.Error("Expected the comment to be removed")
	}
}

func TestListByProjectMissingProject(t *testing.T) {
	env := newTestEnv()
	missing := env.seedUser("Kelompok 1", "one@ugm.ac.id").ID

	_, err := env.commentSvc.ListByProject(context.Background(), missing)
	if errs.KindOf(err) != errs.KindNotFound {
		t.Errorf("Expected NotFound for unknown project, got %v", err)
	}
}
