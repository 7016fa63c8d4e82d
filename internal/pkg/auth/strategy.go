package auth

import "time"

// Strategy issues and verifies tokens identifying trusted caller services.
type Strategy interface {
	IssueToken(caller string) (string, error)
	ParseToken(token string) (string, error)
	Name() string
}

type Options struct {
	TTL time.Duration
}
