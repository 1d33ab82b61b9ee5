package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/bookkeeper/internal/adapter/http/dto"
	"github.com/iho/bookkeeper/internal/adapter/http/middleware"
	"github.com/iho/bookkeeper/internal/domain"
	"github.com/iho/bookkeeper/internal/usecase"
)

// BookService defines the behavior needed by BookHandler.
type BookService interface {
	CreateBook(ctx context.Context, input usecase.CreateBookInput) (*domain.Book, error)
	GetBook(ctx context.Context, id string) (*domain.Book, error)
	AddMember(ctx context.Context, input usecase.AddMemberInput) (*domain.Member, error)
	ListMembers(ctx context.Context, bookID string) ([]*domain.Member, error)
}

// BookHandler handles book-related HTTP requests.
type BookHandler struct {
	bookUC BookService
}

// NewBookHandler creates a new BookHandler.
func NewBookHandler(bookUC BookService) *BookHandler {
	return &BookHandler{bookUC: bookUC}
}

// Create creates a new book.
func (h *BookHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	actor := middleware.ActorFromContext(r.Context())

	book, err := h.bookUC.CreateBook(r.Context(), req.ToUseCaseInput(actor))
	if err != nil {
		writeDomainError(w, "failed to create book", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.BookFromDomain(book))
}

// Get retrieves a book by ID.
func (h *BookHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	book, err := h.bookUC.GetBook(r.Context(), id)
	if err != nil {
		writeDomainError(w, "failed to get book", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.BookFromDomain(book))
}

// AddMember adds a member to a book.
func (h *BookHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	bookID := chi.URLParam(r, "bookID")

	var req dto.AddMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	actor := middleware.ActorFromContext(r.Context())

	member, err := h.bookUC.AddMember(r.Context(), req.ToUseCaseInput(actor, bookID))
	if err != nil {
		writeDomainError(w, "failed to add member", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.MemberFromDomain(member))
}

// ListMembers lists the members of a book.
func (h *BookHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	bookID := chi.URLParam(r, "bookID")

	members, err := h.bookUC.ListMembers(r.Context(), bookID)
	if err != nil {
		writeDomainError(w, "failed to list members", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.MembersFromDomain(members))
}
