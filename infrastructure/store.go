package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"job-board/domain"
)

// Store is the only reader and writer of community and job rows. Tokens
// are persisted as digests; plaintext tokens leave the store exactly once,
// from the call that minted them.
type Store struct {
	DB     *gorm.DB
	Tokens *domain.TokenPolicy

	AdminTokenTTLHours int
	EditTokenTTLHours  int
}

func NewStore(db *gorm.DB, tokens *domain.TokenPolicy, adminTTLHours, editTTLHours int) *Store {
	return &Store{
		DB:                 db,
		Tokens:             tokens,
		AdminTokenTTLHours: adminTTLHours,
		EditTokenTTLHours:  editTTLHours,
	}
}

func persistenceErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, domain.ErrPersistence, err)
}

// CreateCommunity derives the slug from name, mints the admin token and
// returns the stored row together with the plaintext token.
func (s *Store) CreateCommunity(ctx context.Context, name string, description *string, adminEmail string) (*domain.Community, string, error) {
	token := s.Tokens.GenerateSecureToken()
	hash := domain.HashToken(token)
	expires := s.Tokens.GenerateTokenExpiry(s.AdminTokenTTLHours)

	community := domain.Community{
		Slug:              domain.BuildSlug(name, s.Tokens.GenerateSlugSuffix()),
		Name:              name,
		Description:       description,
		AdminEmail:        adminEmail,
		AdminTokenHash:    &hash,
		AdminTokenExpires: &expires,
	}

	if err := s.DB.WithContext(ctx).Create(&community).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, "", domain.ErrDuplicateSlug
		}
		return nil, "", persistenceErr("create community", err)
	}

	created, err := s.GetCommunityBySlug(ctx, community.Slug)
	if err != nil {
		return nil, "", err
	}
	if created == nil {
		return nil, "", persistenceErr("create community", errors.New("failed to retrieve created community"))
	}
	return created, token, nil
}

func (s *Store) GetCommunityBySlug(ctx context.Context, slug string) (*domain.Community, error) {
	return s.firstCommunity(ctx, "slug = ?", slug)
}

func (s *Store) GetCommunityByID(ctx context.Context, id uint) (*domain.Community, error) {
	return s.firstCommunity(ctx, "id = ?", id)
}

// GetCommunityByAdminToken treats an expired token exactly like an unknown one.
func (s *Store) GetCommunityByAdminToken(ctx context.Context, token string) (*domain.Community, error) {
	if token == "" {
		return nil, nil
	}
	community, err := s.firstCommunity(ctx, "admin_token_hash = ?", domain.HashToken(token))
	if err != nil || community == nil {
		return nil, err
	}
	if community.AdminTokenExpires == nil || !s.Tokens.ValidateToken(token, *community.AdminTokenExpires) {
		return nil, nil
	}
	return community, nil
}

func (s *Store) firstCommunity(ctx context.Context, query string, arg interface{}) (*domain.Community, error) {
	var community domain.Community
	err := s.DB.WithContext(ctx).Where(query, arg).First(&community).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, persistenceErr("fetch community", err)
	}
	return &community, nil
}

// UpdateCommunity changes only the fields present in update. An empty
// update is rejected before the store is touched.
func (s *Store) UpdateCommunity(ctx context.Context, id uint, update domain.CommunityUpdate) (*domain.Community, error) {
	if update.IsEmpty() {
		return nil, domain.ErrNoFieldsToUpdate
	}

	res := s.DB.WithContext(ctx).Model(&domain.Community{}).Where("id = ?", id).Updates(update.Columns())
	if res.Error != nil {
		return nil, persistenceErr("update community", res.Error)
	}
	if res.RowsAffected == 0 {
		// MySQL reports zero affected rows when the values did not change
		exists, err := s.GetCommunityByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if exists == nil {
			return nil, domain.ErrNotFound
		}
		return exists, nil
	}

	updated, err := s.GetCommunityByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, domain.ErrNotFound
	}
	return updated, nil
}

// GenerateMagicLink rotates the admin token. Any previously issued admin
// link stops working.
func (s *Store) GenerateMagicLink(ctx context.Context, communityID uint) (string, error) {
	token := s.Tokens.GenerateSecureToken()
	expires := s.Tokens.GenerateTokenExpiry(s.AdminTokenTTLHours)

	res := s.DB.WithContext(ctx).Model(&domain.Community{}).Where("id = ?", communityID).Updates(map[string]interface{}{
		"admin_token_hash":    domain.HashToken(token),
		"admin_token_expires": expires,
	})
	if res.Error != nil {
		return "", persistenceErr("generate magic link", res.Error)
	}
	if res.RowsAffected == 0 {
		return "", domain.ErrNotFound
	}
	return token, nil
}

// DeleteCommunity removes the community and all of its jobs in one transaction.
func (s *Store) DeleteCommunity(ctx context.Context, id uint) (bool, error) {
	var deleted bool
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("community_id = ?", id).Delete(&domain.Job{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&domain.Community{})
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected > 0
		return nil
	})
	if err != nil {
		return false, persistenceErr("delete community", err)
	}
	return deleted, nil
}

func (s *Store) CreateJob(ctx context.Context, data domain.NewJob) (*domain.Job, string, error) {
	token := s.Tokens.GenerateSecureToken()
	hash := domain.HashToken(token)
	expires := s.Tokens.GenerateTokenExpiry(s.EditTokenTTLHours)

	job := domain.Job{
		CommunityID:   data.CommunityID,
		Title:         data.Title,
		Company:       data.Company,
		Location:      data.Location,
		Category:      data.Category,
		JobType:       data.JobType,
		Remote:        data.Remote,
		SalaryMin:     data.SalaryMin,
		SalaryMax:     data.SalaryMax,
		Description:   data.Description,
		ContactInfo:   data.ContactInfo,
		PosterEmail:   data.PosterEmail,
		EditTokenHash: &hash,
		TokenExpires:  &expires,
	}

	if err := s.DB.WithContext(ctx).Omit(clause.Associations).Create(&job).Error; err != nil {
		return nil, "", persistenceErr("create job", err)
	}

	created, err := s.GetJobByID(ctx, job.ID)
	if err != nil {
		return nil, "", err
	}
	if created == nil {
		return nil, "", persistenceErr("create job", errors.New("failed to retrieve created job"))
	}
	return created, token, nil
}

func (s *Store) GetJobByID(ctx context.Context, id uint) (*domain.Job, error) {
	return s.firstJob(ctx, "id = ?", id)
}

// GetJobsByCommunityID lists a board's jobs, most recent first.
func (s *Store) GetJobsByCommunityID(ctx context.Context, communityID uint) ([]domain.Job, error) {
	jobs := []domain.Job{}
	err := s.DB.WithContext(ctx).
		Where("community_id = ?", communityID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&jobs).Error
	if err != nil {
		return nil, persistenceErr("list jobs", err)
	}
	return jobs, nil
}

// GetJobByEditToken treats an expired token exactly like an unknown one.
func (s *Store) GetJobByEditToken(ctx context.Context, token string) (*domain.Job, error) {
	if token == "" {
		return nil, nil
	}
	job, err := s.firstJob(ctx, "edit_token_hash = ?", domain.HashToken(token))
	if err != nil || job == nil {
		return nil, err
	}
	if job.TokenExpires == nil || !s.Tokens.ValidateToken(token, *job.TokenExpires) {
		return nil, nil
	}
	return job, nil
}

func (s *Store) firstJob(ctx context.Context, query string, arg interface{}) (*domain.Job, error) {
	var job domain.Job
	err := s.DB.WithContext(ctx).Where(query, arg).First(&job).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, persistenceErr("fetch job", err)
	}
	return &job, nil
}

// UpdateJob applies the fields present in update. With nothing to change
// it returns the current row.
func (s *Store) UpdateJob(ctx context.Context, id uint, update domain.JobUpdate) (*domain.Job, error) {
	cols := update.Columns()
	if len(cols) > 0 {
		err := s.DB.WithContext(ctx).Model(&domain.Job{}).Where("id = ?", id).Updates(cols).Error
		if err != nil {
			return nil, persistenceErr("update job", err)
		}
	}
	return s.GetJobByID(ctx, id)
}

// RotateEditToken replaces a job's edit token, invalidating the old link.
func (s *Store) RotateEditToken(ctx context.Context, jobID uint) (string, error) {
	token := s.Tokens.GenerateSecureToken()
	expires := s.Tokens.GenerateTokenExpiry(s.EditTokenTTLHours)

	res := s.DB.WithContext(ctx).Model(&domain.Job{}).Where("id = ?", jobID).Updates(map[string]interface{}{
		"edit_token_hash": domain.HashToken(token),
		"token_expires":   expires,
	})
	if res.Error != nil {
		return "", persistenceErr("rotate edit token", res.Error)
	}
	if res.RowsAffected == 0 {
		return "", domain.ErrNotFound
	}
	return token, nil
}

func (s *Store) DeleteJob(ctx context.Context, id uint) (bool, error) {
	res := s.DB.WithContext(ctx).Where("id = ?", id).Delete(&domain.Job{})
	if res.Error != nil {
		return false, persistenceErr("delete job", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// PurgeExpiredTokens clears token digests whose expiry has passed. Lookups
// already reject them; this keeps dead credentials out of the tables.
func (s *Store) PurgeExpiredTokens(ctx context.Context, now time.Time) (int64, error) {
	var purged int64
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.Community{}).
			Where("admin_token_expires IS NOT NULL AND admin_token_expires <= ?", now).
			Updates(map[string]interface{}{"admin_token_hash": nil, "admin_token_expires": nil})
		if res.Error != nil {
			return res.Error
		}
		purged += res.RowsAffected

		res = tx.Model(&domain.Job{}).
			Where("token_expires IS NOT NULL AND token_expires <= ?", now).
			Updates(map[string]interface{}{"edit_token_hash": nil, "token_expires": nil})
		if res.Error != nil {
			return res.Error
		}
		purged += res.RowsAffected
		return nil
	})
	if err != nil {
		return 0, persistenceErr("purge expired tokens", err)
	}
	return purged, nil
}
