package playback

import (
	"encoding/json"
	"net/http"
	"os"

	"golang.org/x/crypto/bcrypt"
)

// DefaultHashCost bcrypt hash cost.
const DefaultHashCost = 10

// Account single user account.
type Account struct {
	Username string `json:"username"`
	// PasswordHash bcrypt hash of the password.
	PasswordHash string `json:"passwordHash"`
}

// Authenticator validates basic auth requests against an accounts file.
type Authenticator struct {
	accounts map[string]Account
	hashCost int
}

// NewAuthenticator reads accounts from a json file.
func NewAuthenticator(path string) (*Authenticator, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var accounts []Account
	if err := json.Unmarshal(raw, &accounts); err != nil {
		return nil, err
	}

	a := &Authenticator{
		accounts: make(map[string]Account, len(accounts)),
		hashCost: DefaultHashCost,
	}
	for _, account := range accounts {
		a.accounts[account.Username] = account
	}
	return a, nil
}

// ValidateRequest checks the request's basic auth credentials.
func (a *Authenticator) ValidateRequest(r *http.Request) bool {
	username, password, ok := r.BasicAuth()
	if !ok {
		return false
	}

	account, exists := a.accounts[username]
	if !exists {
		// Hash anyway to prevent timing based user enumeration.
		bcrypt.GenerateFromPassword([]byte(password), a.hashCost) //nolint:errcheck
		return false
	}

	err := bcrypt.CompareHashAndPassword(
		[]byte(account.PasswordHash), []byte(password))
	return err == nil
}

// HashPassword returns the bcrypt hash for an accounts file entry.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), DefaultHashCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
