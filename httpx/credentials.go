package httpx

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/oauth"
	"golang.org/x/crypto/bcrypt"

	"github.com/mbolis/quest-editor/config"
	"github.com/mbolis/quest-editor/database"
)

const (
	refreshTokenTTL = 8760 * time.Hour
	adminRole       = "admin"
)

var errCannotRefresh = errors.New("could not refresh")

type credentialsVerifier struct {
	db  *database.DB
	now func() time.Time
}

func CredentialsVerifier(db *database.DB) oauth.CredentialsVerifier {
	return &credentialsVerifier{db, time.Now}
}

// NewBearerServer issues admin tokens signed with the configured secret.
func NewBearerServer(db *database.DB, cfg config.Config) *oauth.BearerServer {
	return oauth.NewBearerServer(cfg.TokenSecret, cfg.TokenTTL, CredentialsVerifier(db), nil)
}

func (cs *credentialsVerifier) ValidateUser(username string, password string, scope string, r *http.Request) error {
	hash, err := cs.db.PasswordHash(r.Context(), username)
	if err != nil {
		return err
	}

	return bcrypt.CompareHashAndPassword(hash, []byte(password))
}
func (cs *credentialsVerifier) StoreTokenID(tokenType oauth.TokenType, credential string, tokenID string, refreshTokenID string) error {
	return cs.db.StoreToken(context.Background(), credential, tokenID, refreshTokenID, cs.now().Add(refreshTokenTTL))
}
func (cs *credentialsVerifier) ValidateTokenID(tokenType oauth.TokenType, credential string, tokenID string, refreshTokenID string) error {
	ok, err := cs.db.ConsumeToken(context.Background(), credential, tokenID, refreshTokenID, cs.now())
	if err != nil {
		return err
	}
	if !ok {
		return errCannotRefresh
	}
	return nil
}
func (*credentialsVerifier) AddClaims(tokenType oauth.TokenType, credential string, tokenID string, scope string, r *http.Request) (map[string]string, error) {
	return map[string]string{"roles": adminRole}, nil
}
func (*credentialsVerifier) AddProperties(tokenType oauth.TokenType, credential string, tokenID string, scope string, r *http.Request) (map[string]string, error) {
	return map[string]string{}, nil
}
func (*credentialsVerifier) ValidateClient(clientID string, clientSecret string, scope string, r *http.Request) error {
	return errors.New("not supported")
}

// SeedAdmin creates the configured admin user, or resets its password.
func SeedAdmin(ctx context.Context, db *database.DB, cfg config.Config) error {
	if cfg.AdminUser == "" {
		return nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return db.PutUser(ctx, cfg.AdminUser, hash)
}
