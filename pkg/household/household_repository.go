package household

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"nomorewaste/domain"
	"nomorewaste/entities"
	"nomorewaste/pkg/activity"
)

type (
	HouseholdRepository interface {
		// CreateAndLink inserts the household and the creator's membership atomically.
		CreateAndLink(ctx context.Context, household *entities.Household, owner *entities.Member, entry *entities.ActivityLog) error
		GetHouseholdByID(ctx context.Context, id string) (*entities.Household, error)
		GetHouseholdByInviteCode(ctx context.Context, code string) (*entities.Household, error)
		GetMembership(ctx context.Context, userID string) (*entities.Member, error)
		AddMember(ctx context.Context, member *entities.Member, entry *entities.ActivityLog) error
		RemoveMember(ctx context.Context, userID string, entry *entities.ActivityLog) error
		SetInviteCode(ctx context.Context, householdID, code string, expiresAt time.Time) error
		DeleteHousehold(ctx context.Context, householdID string) error
	}

	householdRepository struct {
		db       *gorm.DB
		activity activity.ActivityRepository
	}
)

func NewHouseholdRepository(db *gorm.DB, activityRepository activity.ActivityRepository) HouseholdRepository {
	return &householdRepository{db: db, activity: activityRepository}
}

// membershipError maps a unique violation on fridge_members.user_id to ErrAlreadyInHousehold.
func membershipError(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domain.ErrAlreadyInHousehold
	}
	return err
}

func (r *householdRepository) CreateAndLink(ctx context.Context, household *entities.Household, owner *entities.Member, entry *entities.ActivityLog) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Members").Create(household).Error; err != nil {
			return err
		}
		owner.FridgeID = household.ID
		if err := tx.Create(owner).Error; err != nil {
			return membershipError(err)
		}
		if entry != nil {
			entry.FridgeID = household.ID
			if err := r.activity.WithTx(tx).AppendActivity(ctx, entry); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *householdRepository) GetHouseholdByID(ctx context.Context, id string) (*entities.Household, error) {
	var household entities.Household
	if err := r.db.WithContext(ctx).
		Preload("Members", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Where("id = ?", id).
		First(&household).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrHouseholdNotFound
		}
		return nil, err
	}
	return &household, nil
}

func (r *householdRepository) GetHouseholdByInviteCode(ctx context.Context, code string) (*entities.Household, error) {
	var household entities.Household
	if err := r.db.WithContext(ctx).Where("invite_code = ?", code).First(&household).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrInviteCodeNotFound
		}
		return nil, err
	}
	return &household, nil
}

func (r *householdRepository) GetMembership(ctx context.Context, userID string) (*entities.Member, error) {
	var member entities.Member
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&member).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotAMember
		}
		return nil, err
	}
	return &member, nil
}

func (r *householdRepository) AddMember(ctx context.Context, member *entities.Member, entry *entities.ActivityLog) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(member).Error; err != nil {
			return membershipError(err)
		}
		if entry != nil {
			return r.activity.WithTx(tx).AppendActivity(ctx, entry)
		}
		return nil
	})
}

func (r *householdRepository) RemoveMember(ctx context.Context, userID string, entry *entities.ActivityLog) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("user_id = ?", userID).Delete(&entities.Member{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrNotAMember
		}
		if entry != nil {
			return r.activity.WithTx(tx).AppendActivity(ctx, entry)
		}
		return nil
	})
}

// SetInviteCode overwrites the household's code. There is no compare-and-swap, so
// concurrent regenerations are last-writer-wins.
func (r *householdRepository) SetInviteCode(ctx context.Context, householdID, code string, expiresAt time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&entities.Household{}).
		Where("id = ?", householdID).
		Updates(map[string]interface{}{
			"invite_code":        code,
			"invite_code_expiry": expiresAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrHouseholdNotFound
	}
	return nil
}

// DeleteHousehold removes the household together with its members, items, history and activity.
func (r *householdRepository) DeleteHousehold(ctx context.Context, householdID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range []interface{}{
			&entities.Item{},
			&entities.WasteLog{},
			&entities.ConsumedLog{},
			&entities.ActivityLog{},
			&entities.ReceiptScan{},
			&entities.Member{},
		} {
			if err := tx.Where("fridge_id = ?", householdID).Delete(model).Error; err != nil {
				return err
			}
		}
		res := tx.Where("id = ?", householdID).Delete(&entities.Household{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrHouseholdNotFound
		}
		return nil
	})
}
