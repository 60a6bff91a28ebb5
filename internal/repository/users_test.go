package repository_test

import (
	"context"
	"testing"

	"github.com/tkloetzk/smartgarden/internal/models"
	"github.com/tkloetzk/smartgarden/internal/repository"
	"github.com/tkloetzk/smartgarden/internal/testutil"
)

func TestUserRepository_CreateAndFindByID(t *testing.T) {
	db := testutil.NewTestDatabase(t)
	repo := repository.NewUserRepository(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, models.User{
		OIDCSubject: "sub-123",
		Email:       "gardener@example.com",
		Name:        "Head Gardener",
		Role:        models.RoleAdmin,
	})
	if err != nil {
		t.Fatalf("creating user: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected non-empty ID")
	}

	found, err := repo.FindByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("finding user: %v", err)
	}
	if found.Name != "Head Gardener" {
		t.Errorf("expected name 'Head Gardener', got '%s'", found.Name)
	}
	if found.Role != models.RoleAdmin {
		t.Errorf("expected role admin, got '%s'", found.Role)
	}
}

func TestUserRepository_FindByOIDCSubject(t *testing.T) {
	db := testutil.NewTestDatabase(t)
	repo := repository.NewUserRepository(db)
	ctx := context.Background()

	if _, err := repo.Create(ctx, models.User{
		OIDCSubject: "unique-subject",
		Email:       "gardener@example.com",
		Name:        "Head Gardener",
		Role:        models.RoleMember,
	}); err != nil {
		t.Fatalf("creating user: %v", err)
	}

	found, err := repo.FindByOIDCSubject(ctx, "unique-subject")
	if err != nil {
		t.Fatalf("finding user by subject: %v", err)
	}
	if found.Name != "Head Gardener" {
		t.Errorf("expected name 'Head Gardener', got '%s'", found.Name)
	}

	if _, err := repo.FindByOIDCSubject(ctx, "no-such-subject"); err == nil {
		t.Error("expected error for unknown subject")
	}
}

func TestUserRepository_FindAllSortedByName(t *testing.T) {
	db := testutil.NewTestDatabase(t)
	repo := repository.NewUserRepository(db)
	ctx := context.Background()

	for _, name := range []string{"Zoe", "Alice", "Morgan"} {
		if _, err := repo.Create(ctx, models.User{
			OIDCSubject: "sub-" + name,
			Email:       name + "@example.com",
			Name:        name,
			Role:        models.RoleMember,
		}); err != nil {
			t.Fatalf("creating user %s: %v", name, err)
		}
	}

	users, err := repo.FindAll(ctx)
	if err != nil {
		t.Fatalf("finding all users: %v", err)
	}
	if len(users) != 3 {
		t.Fatalf("expected 3 users, got %d", len(users))
	}
	for i, expected := range []string{"Alice", "Morgan", "Zoe"} {
		if users[i].Name != expected {
			t.Errorf("position %d: expected %s, got %s", i, expected, users[i].Name)
		}
	}
}

func TestUserRepository_UpdateRole(t *testing.T) {
	db := testutil.NewTestDatabase(t)
	repo := repository.NewUserRepository(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, models.User{
		OIDCSubject: "sub-promote",
		Email:       "helper@example.com",
		Name:        "Helper",
		Role:        models.RoleMember,
	})
	if err != nil {
		t.Fatalf("creating user: %v", err)
	}

	if err := repo.UpdateRole(ctx, created.ID, models.RoleAdmin); err != nil {
		t.Fatalf("updating role: %v", err)
	}

	found, err := repo.FindByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("finding user: %v", err)
	}
	if found.Role != models.RoleAdmin {
		t.Errorf("expected role admin after update, got '%s'", found.Role)
	}
}

func TestUserRepository_Count(t *testing.T) {
	db := testutil.NewTestDatabase(t)
	repo := repository.NewUserRepository(db)
	ctx := context.Background()

	count, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("counting users: %v", err)
	}
	if count != 0 {
		t.Errorf("expected 0 users, got %d", count)
	}

	if _, err := repo.Create(ctx, models.User{
		OIDCSubject: "sub-count",
		Email:       "gardener@example.com",
		Name:        "Head Gardener",
		Role:        models.RoleMember,
	}); err != nil {
		t.Fatalf("creating user: %v", err)
	}

	count, err = repo.Count(ctx)
	if err != nil {
		t.Fatalf("counting users: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 user, got %d", count)
	}
}
