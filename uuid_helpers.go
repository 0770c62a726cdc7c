package auth

import (
	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// ParseIdentityID parses a token subject into an identity id.
func ParseIdentityID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, errors.Wrap(err, errors.CategoryBadInput, "invalid identity id").
			WithCode(errors.CodeBadRequest)
	}
	return id, nil
}
