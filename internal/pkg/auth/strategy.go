package auth

import (
	"time"

	"github.com/polkiloo/storefront/internal/domain/model"
)

// Strategy issues and verifies identity tokens of the external identity provider.
type Strategy interface {
	IssueToken(identity model.Identity) (string, error)
	ParseToken(token string) (*model.Identity, error)
	Name() string
}

type Options struct {
	TTL time.Duration
}
