package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"parkingapp/logs"
	"parkingapp/models"
	"parkingapp/repository"
	"parkingapp/utils"

	"github.com/golang-jwt/jwt/v5"
)

const minPasswordLength = 6

var roleDescriptions = map[string]string{
	models.RoleAdmin: "System Administrator",
	models.RoleUser:  "General user of app",
}

// Principal is the authenticated caller of a request.
type Principal struct {
	AccountID uint
	Email     string
	Roles     []string
}

func (p *Principal) HasRole(role string) bool {
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

type LoginResult struct {
	ID        uint     `json:"id"`
	Username  string   `json:"username"`
	Roles     []string `json:"roles"`
	AuthToken string   `json:"auth_token"`
}

// AccountService handles registration, login and account administration.
type AccountService struct {
	store  repository.Store
	tokens *utils.TokenIssuer
}

func NewAccountService(store repository.Store, tokens *utils.TokenIssuer) *AccountService {
	return &AccountService{store: store, tokens: tokens}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AccountService) Register(ctx context.Context, email, username, password string) (*models.Account, error) {
	email = normalizeEmail(email)
	username = strings.TrimSpace(username)
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return nil, newError(ErrValidation, "A valid email is required")
	}
	if username == "" {
		return nil, newError(ErrValidation, "username is required")
	}
	if len(password) < minPasswordLength {
		return nil, newError(ErrValidation, "password must be at least %d characters", minPasswordLength)
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, err
	}
	account := &models.Account{
		Email:        email,
		DisplayName:  username,
		PasswordHash: hash,
		Active:       true,
	}
	err = s.store.Transaction(ctx, func(tx repository.Store) error {
		if _, err := tx.Accounts().FindByEmail(ctx, email); err == nil {
			return newError(ErrConflict, "Account already exists")
		} else if !errors.Is(err, repository.ErrNotFound) {
			return err
		}
		role, err := tx.Accounts().EnsureRole(ctx, models.RoleUser, roleDescriptions[models.RoleUser])
		if err != nil {
			return err
		}
		account.Roles = []models.PermissionGroup{*role}
		if err := tx.Accounts().Create(ctx, account); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return newError(ErrConflict, "Account already exists")
			}
			return err
		}
		return nil
	})
	if err != nil {
		logs.Logger.Warnf("Failed to register %s: %v", email, err)
		return nil, domainOr(err, "register %s", email)
	}
	logs.Logger.Infof("Account %d registered: %s", account.AccountID, email)
	return account, nil
}

func (s *AccountService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, newError(ErrValidation, "Email is required!")
	}
	account, err := s.store.Accounts().FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, newError(ErrNotFound, "Account not found")
	}
	if err != nil {
		return nil, fmt.Errorf("find account %s: %w", email, err)
	}
	if !utils.CheckPasswordHash(password, account.PasswordHash) {
		logs.Logger.Warnf("Incorrect password for account %d", account.AccountID)
		return nil, newError(ErrValidation, "Incorrect password")
	}
	if !account.Active {
		return nil, newError(ErrAuth, "Account is deactivated")
	}
	token, err := s.tokens.Issue(account.AccountID, account.RoleNames())
	if err != nil {
		return nil, err
	}
	logs.Logger.Infof("Account %d logged in", account.AccountID)
	return &LoginResult{
		ID:        account.AccountID,
		Username:  account.DisplayName,
		Roles:     account.RoleNames(),
		AuthToken: token,
	}, nil
}

// Authenticate verifies a bearer token and reloads the account so that
// deactivation and role changes apply to tokens already issued.
func (s *AccountService) Authenticate(ctx context.Context, token string) (*Principal, error) {
	accountID, _, err := s.tokens.Parse(token)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, newError(ErrAuth, "Token has expired")
		}
		return nil, newError(ErrAuth, "Invalid token")
	}
	account, err := s.store.Accounts().FindByID(ctx, accountID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, newError(ErrAuth, "Account not found")
	}
	if err != nil {
		return nil, fmt.Errorf("load account %d: %w", accountID, err)
	}
	if !account.Active {
		return nil, newError(ErrAuth, "Account is deactivated")
	}
	return &Principal{AccountID: account.AccountID, Email: account.Email, Roles: account.RoleNames()}, nil
}

func (s *AccountService) Profile(ctx context.Context, accountID uint) (*models.AccountResponse, error) {
	account, err := s.store.Accounts().FindByID(ctx, accountID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, newError(ErrNotFound, "Account not found")
	}
	if err != nil {
		return nil, fmt.Errorf("load account %d: %w", accountID, err)
	}
	resp := account.ToResponse()
	return &resp, nil
}

func (s *AccountService) SetActive(ctx context.Context, accountID uint, active bool) error {
	if err := s.store.Accounts().SetActive(ctx, accountID, active); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return newError(ErrNotFound, "Account not found")
		}
		return err
	}
	logs.Logger.Infof("Account %d active=%t", accountID, active)
	return nil
}

func (s *AccountService) AssignRole(ctx context.Context, accountID uint, role string) error {
	role = strings.ToLower(strings.TrimSpace(role))
	desc, ok := roleDescriptions[role]
	if !ok {
		return newError(ErrValidation, "Unknown role %q", role)
	}
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		if _, err := tx.Accounts().EnsureRole(ctx, role, desc); err != nil {
			return err
		}
		if err := tx.Accounts().AddRole(ctx, accountID, role); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return newError(ErrNotFound, "Account not found")
			}
			return err
		}
		return nil
	})
	if err != nil {
		return domainOr(err, "assign role %s to account %d", role, accountID)
	}
	logs.Logger.Infof("Role %s assigned to account %d", role, accountID)
	return nil
}

// EnsureDefaults seeds both roles and the administrator account.
func (s *AccountService) EnsureDefaults(ctx context.Context, adminEmail, adminName, adminPassword string) error {
	adminEmail = normalizeEmail(adminEmail)
	return s.store.Transaction(ctx, func(tx repository.Store) error {
		for _, name := range []string{models.RoleAdmin, models.RoleUser} {
			if _, err := tx.Accounts().EnsureRole(ctx, name, roleDescriptions[name]); err != nil {
				return fmt.Errorf("seed role %s: %w", name, err)
			}
		}
		existing, err := tx.Accounts().FindByEmail(ctx, adminEmail)
		if err == nil {
			if !existing.HasRole(models.RoleAdmin) {
				return tx.Accounts().AddRole(ctx, existing.AccountID, models.RoleAdmin)
			}
			logs.Logger.Infof("Admin already exists: email=%s", adminEmail)
			return nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return err
		}

		hash, err := utils.HashPassword(adminPassword)
		if err != nil {
			return err
		}
		role, err := tx.Accounts().EnsureRole(ctx, models.RoleAdmin, roleDescriptions[models.RoleAdmin])
		if err != nil {
			return err
		}
		admin := &models.Account{
			Email:        adminEmail,
			DisplayName:  adminName,
			PasswordHash: hash,
			Active:       true,
			Roles:        []models.PermissionGroup{*role},
		}
		if err := tx.Accounts().Create(ctx, admin); err != nil {
			return fmt.Errorf("create default admin: %w", err)
		}
		logs.Logger.Infof("Default admin created: email=%s", adminEmail)
		return nil
	})
}
