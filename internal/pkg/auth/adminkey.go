package auth

import "golang.org/x/crypto/bcrypt"

// KeyVerifier checks presented admin keys against a stored hash.
type KeyVerifier interface {
	Hash(key string) (string, error)
	Compare(hash string, key string) error
}

// BcryptVerifier uses bcrypt for admin key hashing and comparison.
type BcryptVerifier struct {
	cost int
}

// NewBcryptVerifier creates BcryptVerifier with provided cost.
func NewBcryptVerifier(cost int) *BcryptVerifier {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &BcryptVerifier{cost: cost}
}

// Hash returns bcrypt hash for the provided key.
func (v *BcryptVerifier) Hash(key string) (string, error) {
	encoded, err := bcrypt.GenerateFromPassword([]byte(key), v.cost)
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}

// Compare checks a key against the stored hash.
func (v *BcryptVerifier) Compare(hash string, key string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(key))
}
