package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/iho/bookkeeper/internal/domain"
)

// memberRole resolves the actor's recorded membership in a book. The role
// carried on the request identifies the caller's claim only; mutations
// authorize against the membership record.
func memberRole(ctx context.Context, members MemberRepository, bookID string, actor domain.Actor) (domain.Role, error) {
	member, err := members.Get(ctx, bookID, actor.ID)
	if err != nil {
		if errors.Is(err, domain.ErrMemberNotFound) {
			return "", fmt.Errorf("%w: %s is not a member of book %s",
				domain.ErrInsufficientRole, actor.ID, bookID)
		}

		return "", err
	}

	return member.Role, nil
}
