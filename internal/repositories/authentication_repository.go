package repositories

import (
	"chirpchat/internal/errs"
	"chirpchat/internal/models"
	"chirpchat/internal/utils"

	"gorm.io/gorm"
)

type AuthenticationRepository struct {
	db *gorm.DB
}

func NewAuthenticationRepository(db *gorm.DB) *AuthenticationRepository {
	return &AuthenticationRepository{
		db: db,
	}
}

func (ar *AuthenticationRepository) CreateUser(user *models.User) (*models.User, []error) {
	var errors []error
	result := ar.db.Create(user)
	if result.Error != nil {
		errors = append(errors, result.Error)
		return nil, errors
	}
	if result.RowsAffected == 0 {
		errors = append(errors, errs.ErrUserNotFound)
		return nil, errors
	}
	return user, nil
}

func (ar *AuthenticationRepository) CheckIfUserExists(email string) *models.User {
	var user models.User
	result := ar.db.Where("email = ?", email).First(&user)
	if result.Error == nil && result.RowsAffected > 0 {
		return &user
	}
	return nil
}

func (ar *AuthenticationRepository) Login(login *models.LoginRequestBody) (*models.User, []error) {
	var errors []error
	user := ar.CheckIfUserExists(login.Email)
	if user == nil {
		errors = append(errors, errs.ErrUserNotFound)
		return nil, errors
	}
	if err := utils.CompareHashAndPassword(user.PasswordHash, login.Password); err != nil {
		errors = append(errors, errs.ErrWrongPassword)
		return nil, errors
	}
	return user, nil
}

func (ar *AuthenticationRepository) UpdateUserProfilePhoto(userID uint, url string) error {
	return ar.db.Model(&models.User{}).
		Where("id = ?", userID).
		Update("profile_photo", url).Error
}

func (ar *AuthenticationRepository) GetAllUsersWithPagination(page, size int) ([]models.User, int64, error) {
	var users []models.User
	var total int64

	if err := ar.db.
		Scopes(utils.Paginate(page, size)).
		Order("created_at DESC").
		Find(&users).Error; err != nil {
		return nil, 0, err
	}

	if err := ar.db.Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

// MissingUsers returns the ids in userIDs that do not resolve to a known
// user. Used to validate participant sets at conversation-creation time.
func (ar *AuthenticationRepository) MissingUsers(userIDs []uint) ([]uint, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}

	var found []uint
	if err := ar.db.Model(&models.User{}).
		Where("id IN ?", userIDs).
		Pluck("id", &found).Error; err != nil {
		return nil, err
	}

	known := make(map[uint]bool, len(found))
	for _, id := range found {
		known[id] = true
	}

	var missing []uint
	for _, id := range userIDs {
		if !known[id] {
			missing = append(missing, id)
		}
	}
	return missing, nil
}
