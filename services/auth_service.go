package services

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/VP171097/vitality/models"
	"github.com/VP171097/vitality/utils"
)

// AuthService owns accounts: registration, login, display-name updates
// and the reset-code flow. Error messages are the human-readable strings
// shown inline on the auth form.
type AuthService struct {
	db     *gorm.DB
	mailer *utils.Mailer // nil in dev: reset codes are logged instead of mailed
}

func NewAuthService(db *gorm.DB, mailer *utils.Mailer) *AuthService {
	return &AuthService{db: db, mailer: mailer}
}

func (s *AuthService) Register(email, password, displayName string) (*models.User, error) {
	hashed, err := utils.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := models.User{
		Email:       email,
		Password:    hashed,
		DisplayName: displayName,
	}
	if err := s.db.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, errors.New("an account with this email already exists")
		}
		return nil, err
	}
	return &user, nil
}

// Login checks the credentials and issues a session token.
func (s *AuthService) Login(email, password string) (string, *models.User, error) {
	var user models.User
	if err := s.db.Where("email = ?", email).First(&user).Error; err != nil {
		return "", nil, errors.New("invalid email or password")
	}
	if !utils.CheckPasswordHash(password, user.Password) {
		return "", nil, errors.New("invalid email or password")
	}

	token, err := utils.GenerateJWT(user.ID, user.Email)
	if err != nil {
		return "", nil, err
	}
	return token, &user, nil
}

func (s *AuthService) FindUserByID(id uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, id).Error; err != nil {
		return nil, errors.New("user not found")
	}
	return &user, nil
}

func (s *AuthService) UpdateDisplayName(userID uint, name string) error {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		return errors.New("user not found")
	}
	user.DisplayName = name
	return s.db.Save(&user).Error
}

// ForgotPassword issues a short-lived reset code. It never reveals whether
// the email exists.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) {
	var user models.User
	if err := s.db.Where("email = ?", email).First(&user).Error; err != nil {
		return
	}

	code := utils.GenerateRandomToken(6)
	user.ResetToken = code
	user.ResetTokenExp = time.Now().Add(15 * time.Minute)
	if err := s.db.Save(&user).Error; err != nil {
		logrus.WithError(err).Warn("store reset code")
		return
	}

	if s.mailer != nil {
		if err := s.mailer.SendResetEmail(ctx, user.Email, code); err != nil {
			logrus.WithError(err).Warn("send reset email")
		}
		return
	}
	logrus.WithField("email", email).Infof("mailer disabled, reset code: %s", code)
}

func (s *AuthService) ResetPassword(code, newPassword string) error {
	var user models.User
	if err := s.db.Where("reset_token = ?", code).First(&user).Error; err != nil {
		return errors.New("invalid or expired reset code")
	}
	if user.ResetToken == "" || time.Now().After(user.ResetTokenExp) {
		return errors.New("invalid or expired reset code")
	}

	hashed, err := utils.HashPassword(newPassword)
	if err != nil {
		return err
	}

	user.Password = hashed
	user.ResetToken = ""
	user.ResetTokenExp = time.Time{}
	return s.db.Save(&user).Error
}
