// Package settings stores JSON encoded site settings in the settings table.
package settings

import (
	"encoding/json" // Values are stored as JSON
	"errors"        // Not found checks
	"fmt"           // Error wrapping

	"fivem_tools/internal/domain" // Setting model

	"gorm.io/gorm"        // GORM ORM library
	"gorm.io/gorm/clause" // Upsert clause
)

// ErrInvalidValue marks a value that does not fit the type or range of its key
var ErrInvalidValue = errors.New("invalid setting value")

// Get decodes the value stored under key into dest, reporting whether it exists
func Get(db *gorm.DB, key string, dest any) (bool, error) {
	var s domain.Setting
	if err := db.Where(&domain.Setting{Key: key}).First(&s).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal([]byte(s.Value), dest); err != nil {
		return true, fmt.Errorf("%w: %s: %v", ErrInvalidValue, key, err)
	}
	return true, nil
}

// Decode parses a submitted value for key. Keys the application reads get their
// typed form and bounds checked, any other key keeps free-form JSON.
func Decode(key string, raw []byte) (any, error) {
	switch key {
	case domain.SettingSpinTicketCost:
		var v int
		if err := json.Unmarshal(raw, &v); err != nil || v < 1 || v > 100 {
			return nil, fmt.Errorf("%w: %s must be a whole number from 1 to 100", ErrInvalidValue, key)
		}
		return v, nil
	case domain.SettingSpinEnabled:
		var v bool
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("%w: %s must be true or false", ErrInvalidValue, key)
		}
		return v, nil
	case domain.SettingSpinTicketPrice:
		var v int64
		if err := json.Unmarshal(raw, &v); err != nil || v < 1 || v > 1000000 {
			return nil, fmt.Errorf("%w: %s must be a whole number from 1 to 1000000", ErrInvalidValue, key)
		}
		return v, nil
	case domain.SettingLinkvertise:
		var v domain.LinkvertiseSetting
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("%w: %s must be an object", ErrInvalidValue, key)
		}
		if v.Enabled && v.UserID == "" {
			return nil, fmt.Errorf("%w: Linkvertise user_id is required when enabled", ErrInvalidValue)
		}
		return v, nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("%w: %s is not valid JSON", ErrInvalidValue, key)
	}
	return v, nil
}

// getValid is Get for readers with a default: a value of the wrong shape counts as missing
func getValid(db *gorm.DB, key string, dest any) (bool, error) {
	ok, err := Get(db, key, dest)
	if errors.Is(err, ErrInvalidValue) {
		return false, nil
	}
	return ok, err
}

// Put stores value under key, replacing any previous value
func Put(db *gorm.DB, key string, value any) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&domain.Setting{Key: key, Value: string(b)}).Error
}

// Spin is the spin wheel configuration
type Spin struct {
	TicketCost       int   `json:"cost"`
	IsEnabled        bool  `json:"is_enabled"`
	TicketPriceCoins int64 `json:"ticket_price_coins"`
}

// DefaultSpin is used for every missing spin setting
var DefaultSpin = Spin{TicketCost: 1, IsEnabled: true, TicketPriceCoins: 500}

// LoadSpin reads the spin settings, falling back to defaults
func LoadSpin(db *gorm.DB) (Spin, error) {
	out := DefaultSpin
	var cost int
	if ok, err := getValid(db, domain.SettingSpinTicketCost, &cost); err != nil {
		return out, err
	} else if ok && cost > 0 {
		out.TicketCost = cost
	}
	var enabled bool
	if ok, err := getValid(db, domain.SettingSpinEnabled, &enabled); err != nil {
		return out, err
	} else if ok {
		out.IsEnabled = enabled
	}
	var price int64
	if ok, err := getValid(db, domain.SettingSpinTicketPrice, &price); err != nil {
		return out, err
	} else if ok && price > 0 {
		out.TicketPriceCoins = price
	}
	return out, nil
}

// SaveSpin writes every spin setting
func SaveSpin(db *gorm.DB, s Spin) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := Put(tx, domain.SettingSpinTicketCost, s.TicketCost); err != nil {
			return err
		}
		if err := Put(tx, domain.SettingSpinEnabled, s.IsEnabled); err != nil {
			return err
		}
		return Put(tx, domain.SettingSpinTicketPrice, s.TicketPriceCoins)
	})
}

// Linkvertise reads the download link wrapping setting
func Linkvertise(db *gorm.DB) (domain.LinkvertiseSetting, error) {
	var lv domain.LinkvertiseSetting
	_, err := getValid(db, domain.SettingLinkvertise, &lv)
	return lv, err
}
