// Package twofactor wraps TOTP codes and one-time backup codes.
package twofactor

import (
	"crypto/rand"  // Backup code entropy
	"encoding/hex" // Backup code encoding
	"fmt"          // Error wrapping
	"strings"      // Normalizing user input
	"time"         // Usage timestamps

	"fivem_tools/internal/domain" // BackupCode model

	"github.com/pquerna/otp"      // OTP key type
	"github.com/pquerna/otp/totp" // TOTP generation and validation
	"golang.org/x/crypto/bcrypt"  // Backup code hashing
	"gorm.io/gorm"                // GORM ORM library
)

// BackupCodeCount is how many recovery codes are issued when 2FA is enabled
const BackupCodeCount = 10

// Generate creates a new TOTP secret for the account
func Generate(issuer, account string) (*otp.Key, error) {
	return totp.Generate(totp.GenerateOpts{
		Issuer:      issuer,
		AccountName: account,
	})
}

// ValidateCode checks a 6 digit TOTP code against secret
func ValidateCode(code, secret string) bool {
	code = normalize(code)
	return len(code) == 6 && secret != "" && totp.Validate(code, secret)
}

func normalize(code string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(code), " ", ""))
}

// NewBackupCodes returns plain codes for the user and bcrypt rows to store
func NewBackupCodes(userID uint) ([]string, []domain.BackupCode, error) {
	plain := make([]string, BackupCodeCount)
	rows := make([]domain.BackupCode, BackupCodeCount)
	for i := range plain {
		b := make([]byte, 5)
		if _, err := rand.Read(b); err != nil {
			return nil, nil, fmt.Errorf("generate backup code: %w", err)
		}
		s := hex.EncodeToString(b)
		plain[i] = s[:5] + "-" + s[5:]
		hash, err := bcrypt.GenerateFromPassword([]byte(plain[i]), bcrypt.DefaultCost)
		if err != nil {
			return nil, nil, fmt.Errorf("hash backup code: %w", err)
		}
		rows[i] = domain.BackupCode{UserID: userID, CodeHash: string(hash)}
	}
	return plain, rows, nil
}

// UseBackupCode consumes a matching unused backup code
func UseBackupCode(tx *gorm.DB, userID uint, code string, now time.Time) (bool, error) {
	code = normalize(code)
	if len(code) == 10 {
		code = code[:5] + "-" + code[5:] // Accept codes typed without the dash
	}
	var codes []domain.BackupCode
	if err := tx.Where("user_id = ? AND used_at IS NULL", userID).Find(&codes).Error; err != nil {
		return false, err
	}
	for _, bc := range codes {
		if bcrypt.CompareHashAndPassword([]byte(bc.CodeHash), []byte(code)) != nil {
			continue
		}
		res := tx.Model(&domain.BackupCode{}).Where("id = ? AND used_at IS NULL", bc.ID).Update("used_at", now)
		if res.Error != nil {
			return false, res.Error
		}
		return res.RowsAffected == 1, nil
	}
	return false, nil
}

// Verify accepts either the current TOTP code or an unused backup code
func Verify(tx *gorm.DB, user *domain.User, code string, now time.Time) (bool, error) {
	if !user.TwoFactorEnabled {
		return false, nil
	}
	if ValidateCode(code, user.TOTPSecret) {
		return true, nil
	}
	if len(normalize(code)) > 6 {
		return UseBackupCode(tx, user.ID, code, now)
	}
	return false, nil
}
