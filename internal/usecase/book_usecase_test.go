package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/iho/bookkeeper/internal/domain"
	"github.com/iho/bookkeeper/internal/usecase"
)

func TestBookUseCase_CreateBook(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	uc := f.bookUseCase()

	book, err := uc.CreateBook(ctx, usecase.CreateBookInput{
		Actor:           ownerActor,
		Name:            "Household",
		DefaultCurrency: "EUR",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if book.MainLedgerID == "" {
		t.Fatal("book has no main ledger")
	}

	ledger, err := f.ledgers.GetByID(ctx, book.MainLedgerID)
	if err != nil {
		t.Fatalf("main ledger missing: %v", err)
	}
	if ledger.Type != domain.LedgerMain || ledger.DefaultCurrency != "EUR" {
		t.Errorf("ledger = %+v", ledger)
	}

	// One root per type, pre-created and immutable.
	for _, accountType := range domain.AccountTypes {
		root, err := f.accounts.GetRoot(ctx, ledger.ID, accountType)
		if err != nil {
			t.Errorf("missing %s root: %v", accountType, err)
			continue
		}
		if root.Path != accountType.RootName() || !root.IsRoot() {
			t.Errorf("root = %+v", root)
		}
	}

	// The creator becomes the owner member.
	member, err := f.members.Get(ctx, book.ID, ownerActor.ID)
	if err != nil {
		t.Fatalf("owner membership missing: %v", err)
	}
	if member.Role != domain.RoleOwner {
		t.Errorf("role = %s, want owner", member.Role)
	}
}

func TestBookUseCase_CreateBook_Rejections(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		input     usecase.CreateBookInput
		errorType error
	}{
		{
			name:      "empty name",
			input:     usecase.CreateBookInput{Actor: ownerActor, Name: "  ", DefaultCurrency: "USD"},
			errorType: domain.ErrInvalidAccountName,
		},
		{
			name:      "unknown currency",
			input:     usecase.CreateBookInput{Actor: ownerActor, Name: "Household", DefaultCurrency: "NOPE"},
			errorType: domain.ErrUnknownCurrency,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			uc := f.bookUseCase()

			_, err := uc.CreateBook(ctx, tt.input)
			if !errors.Is(err, tt.errorType) {
				t.Errorf("error = %v, want %v", err, tt.errorType)
			}
		})
	}
}

func TestBookUseCase_AddMember(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	uc := f.bookUseCase()

	member, err := uc.AddMember(ctx, usecase.AddMemberInput{
		Actor:   ownerActor,
		BookID:  "book-1",
		ActorID: "user-2",
		Role:    domain.RoleAdmin,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if member.Role != domain.RoleAdmin {
		t.Errorf("role = %s, want admin", member.Role)
	}

	// Only recorded owners manage membership.
	_, err = uc.AddMember(ctx, usecase.AddMemberInput{
		Actor:   domain.Actor{ID: "user-2", Role: domain.RoleAdmin},
		BookID:  "book-1",
		ActorID: "user-3",
		Role:    domain.RoleMember,
	})
	if !errors.Is(err, domain.ErrInsufficientRole) {
		t.Errorf("error = %v, want ErrInsufficientRole", err)
	}

	// A claimed owner role on the request does not substitute for membership.
	_, err = uc.AddMember(ctx, usecase.AddMemberInput{
		Actor:   domain.Actor{ID: "user-ghost", Role: domain.RoleOwner},
		BookID:  "book-1",
		ActorID: "user-3",
		Role:    domain.RoleMember,
	})
	if !errors.Is(err, domain.ErrInsufficientRole) {
		t.Errorf("error = %v, want ErrInsufficientRole", err)
	}

	_, err = uc.AddMember(ctx, usecase.AddMemberInput{
		Actor:   ownerActor,
		BookID:  "book-1",
		ActorID: "user-3",
		Role:    "superuser",
	})
	if !errors.Is(err, domain.ErrInvalidRole) {
		t.Errorf("error = %v, want ErrInvalidRole", err)
	}

	_, err = uc.AddMember(ctx, usecase.AddMemberInput{
		Actor:   ownerActor,
		BookID:  "book-x",
		ActorID: "user-3",
		Role:    domain.RoleMember,
	})
	if !errors.Is(err, domain.ErrBookNotFound) {
		t.Errorf("error = %v, want ErrBookNotFound", err)
	}

	// The seeded owner plus user-2, whose membership now reads admin.
	members, err := uc.ListMembers(ctx, "book-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(members) != 2 {
		t.Errorf("members = %d, want 2", len(members))
	}
}
