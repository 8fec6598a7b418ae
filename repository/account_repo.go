package repository

import (
	"context"
	"fmt"

	"parkingapp/models"

	"gorm.io/gorm"
)

type accountRepository struct {
	db *gorm.DB
}

func (r *accountRepository) Create(ctx context.Context, account *models.Account) error {
	if err := r.db.WithContext(ctx).Create(account).Error; err != nil {
		return fmt.Errorf("create account %s: %w", account.Email, translateError(err))
	}
	return nil
}

func (r *accountRepository) FindByID(ctx context.Context, id uint) (*models.Account, error) {
	var account models.Account
	if err := r.db.WithContext(ctx).Preload("Roles").First(&account, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &account, nil
}

func (r *accountRepository) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	var account models.Account
	if err := r.db.WithContext(ctx).Preload("Roles").Where("email = ?", email).Take(&account).Error; err != nil {
		return nil, translateError(err)
	}
	return &account, nil
}

func (r *accountRepository) List(ctx context.Context) ([]models.Account, error) {
	var accounts []models.Account
	if err := r.db.WithContext(ctx).Preload("Roles").Order("account_id").Find(&accounts).Error; err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return accounts, nil
}

func (r *accountRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Account{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count accounts: %w", err)
	}
	return count, nil
}

func (r *accountRepository) SetActive(ctx context.Context, id uint, active bool) error {
	res := r.db.WithContext(ctx).Model(&models.Account{}).Where("account_id = ?", id).Update("active", active)
	if res.Error != nil {
		return fmt.Errorf("set account %d active=%t: %w", id, active, res.Error)
	}
	if res.RowsAffected == 0 {
		// MySQL reports zero affected rows when the value is unchanged.
		var count int64
		if err := r.db.WithContext(ctx).Model(&models.Account{}).Where("account_id = ?", id).Count(&count).Error; err != nil {
			return fmt.Errorf("check account %d: %w", id, err)
		}
		if count == 0 {
			return ErrNotFound
		}
	}
	return nil
}

func (r *accountRepository) EnsureRole(ctx context.Context, name, description string) (*models.PermissionGroup, error) {
	role := models.PermissionGroup{Name: name, Description: description}
	if err := r.db.WithContext(ctx).Where(models.PermissionGroup{Name: name}).FirstOrCreate(&role).Error; err != nil {
		return nil, fmt.Errorf("ensure role %s: %w", name, translateError(err))
	}
	return &role, nil
}

func (r *accountRepository) AddRole(ctx context.Context, accountID uint, roleName string) error {
	var role models.PermissionGroup
	if err := r.db.WithContext(ctx).Where("name = ?", roleName).Take(&role).Error; err != nil {
		return translateError(err)
	}
	account := models.Account{AccountID: accountID}
	if err := r.db.WithContext(ctx).Select("account_id").Take(&account, accountID).Error; err != nil {
		return translateError(err)
	}
	if err := r.db.WithContext(ctx).Model(&account).Association("Roles").Append(&role); err != nil {
		return fmt.Errorf("add role %s to account %d: %w", roleName, accountID, translateError(err))
	}
	return nil
}
