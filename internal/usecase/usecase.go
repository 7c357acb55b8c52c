// Package usecase holds the bookmark business rules that sit between the HTTP delivery layer and the repository.
package usecase

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/vadimbarashkov/bookmarks/internal/entity"
)

type bookmarkRepository interface {
	List(ctx context.Context) ([]entity.Bookmark, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Bookmark, error)
	Insert(ctx context.Context, draft entity.BookmarkDraft) (*entity.Bookmark, error)
	Update(ctx context.Context, id uuid.UUID, patch entity.BookmarkPatch) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) (int64, error)
}

type BookmarkUseCase struct {
	bookmarkRepo bookmarkRepository
}

func NewBookmarkUseCase(bookmarkRepo bookmarkRepository) *BookmarkUseCase {
	return &BookmarkUseCase{bookmarkRepo: bookmarkRepo}
}

func (uc *BookmarkUseCase) ListBookmarks(ctx context.Context) ([]entity.Bookmark, error) {
	const op = "usecase.BookmarkUseCase.ListBookmarks"

	bookmarks, err := uc.bookmarkRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to list bookmarks: %w", op, err)
	}

	return bookmarks, nil
}

func (uc *BookmarkUseCase) GetBookmark(ctx context.Context, id uuid.UUID) (*entity.Bookmark, error) {
	const op = "usecase.BookmarkUseCase.GetBookmark"

	bookmark, err := uc.bookmarkRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get bookmark: %w", op, err)
	}

	return bookmark, nil
}

func (uc *BookmarkUseCase) CreateBookmark(ctx context.Context, draft entity.BookmarkDraft) (*entity.Bookmark, error) {
	const op = "usecase.BookmarkUseCase.CreateBookmark"

	bookmark, err := uc.bookmarkRepo.Insert(ctx, draft)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create bookmark: %w", op, err)
	}

	return bookmark, nil
}

// ModifyBookmark applies patch to an existing bookmark. It returns entity.ErrBookmarkNotFound
// when the id is unknown, including when the row disappears between lookup and update.
func (uc *BookmarkUseCase) ModifyBookmark(ctx context.Context, id uuid.UUID, patch entity.BookmarkPatch) error {
	const op = "usecase.BookmarkUseCase.ModifyBookmark"

	if patch.IsEmpty() {
		return fmt.Errorf("%s: %w", op, entity.ErrEmptyPatch)
	}

	if _, err := uc.bookmarkRepo.GetByID(ctx, id); err != nil {
		return fmt.Errorf("%s: failed to look up bookmark: %w", op, err)
	}

	n, err := uc.bookmarkRepo.Update(ctx, id, patch)
	if err != nil {
		return fmt.Errorf("%s: failed to modify bookmark: %w", op, err)
	}

	if n == 0 {
		return fmt.Errorf("%s: %w", op, entity.ErrBookmarkNotFound)
	}

	return nil
}

func (uc *BookmarkUseCase) RemoveBookmark(ctx context.Context, id uuid.UUID) error {
	const op = "usecase.BookmarkUseCase.RemoveBookmark"

	if _, err := uc.bookmarkRepo.GetByID(ctx, id); err != nil {
		return fmt.Errorf("%s: failed to look up bookmark: %w", op, err)
	}

	n, err := uc.bookmarkRepo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("%s: failed to remove bookmark: %w", op, err)
	}

	if n == 0 {
		return fmt.Errorf("%s: %w", op, entity.ErrBookmarkNotFound)
	}

	return nil
}
