package utils

import (
	"errors"       // Validation errors
	"net/url"      // URL parsing
	"regexp"       // Discord ID format
	"slices"       // Membership checks
	"strings"      // Trimming
	"unicode/utf8" // Character counting

	"fivem_tools/internal/domain" // Asset enumerations

	"github.com/gin-gonic/gin/binding"       // Gin binding engine
	"github.com/go-playground/validator/v10" // Struct validation
)

// Limits for forum and asset text
const (
	TitleMax         = 200
	ContentMin       = 10
	ContentMax       = 50000
	ReplyMax         = 10000
	MaxImages        = 10
	titleRepeatMax   = 10
	contentRepeatMax = 50
	replyRepeatMax   = 30
)

var discordIDPattern = regexp.MustCompile(`^\d{17,19}$`)

// Field validation errors
var (
	ErrTitleRequired = errors.New("Title cannot be empty")
	ErrTitleTooLong  = errors.New("Title too long (max 200 characters)")
	ErrTitleSpam     = errors.New("Title contains spam pattern")
	ErrContentShort  = errors.New("Content too short (min 10 characters)")
	ErrContentLong   = errors.New("Content too long (max 50000 characters)")
	ErrContentSpam   = errors.New("Content contains spam pattern")
	ErrReplyRequired = errors.New("Reply cannot be empty")
	ErrReplyTooLong  = errors.New("Reply too long (max 10000 characters)")
	ErrReplySpam     = errors.New("Reply contains spam pattern")
	ErrTooManyImages = errors.New("Too many images (max 10)")
)

// RegisterValidators adds the custom binding tags to gin's validator engine
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("unexpected validator engine")
	}
	if err := v.RegisterValidation("asset_category", oneOf(domain.AssetCategories)); err != nil {
		return err
	}
	if err := v.RegisterValidation("asset_framework", oneOf(domain.AssetFrameworks)); err != nil {
		return err
	}
	if err := v.RegisterValidation("report_type", oneOf(domain.ReportTypes)); err != nil {
		return err
	}
	if err := v.RegisterValidation("report_reason", oneOf(domain.ReportReasons)); err != nil {
		return err
	}
	return v.RegisterValidation("discord_id", func(fl validator.FieldLevel) bool {
		return IsDiscordID(fl.Field().String())
	})
}

func oneOf(values []string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return slices.Contains(values, fl.Field().String())
	}
}

// IsDiscordID reports whether s looks like a Discord snowflake
func IsDiscordID(s string) bool {
	return discordIDPattern.MatchString(s)
}

// HasRepeatRun reports whether some character repeats more than max times in a row
func HasRepeatRun(s string, max int) bool {
	var prev rune
	run := 0
	for i, r := range s {
		if i > 0 && r == prev {
			run++
		} else {
			run = 1
		}
		if run > max {
			return true
		}
		prev = r
	}
	return false
}

// ValidateTitle checks a thread title
func ValidateTitle(title string) error {
	t := strings.TrimSpace(title)
	switch {
	case t == "":
		return ErrTitleRequired
	case utf8.RuneCountInString(t) > TitleMax:
		return ErrTitleTooLong
	case HasRepeatRun(t, titleRepeatMax):
		return ErrTitleSpam
	}
	return nil
}

// ValidateContent checks a thread body
func ValidateContent(content string) error {
	t := strings.TrimSpace(content)
	n := utf8.RuneCountInString(t)
	switch {
	case n < ContentMin:
		return ErrContentShort
	case n > ContentMax:
		return ErrContentLong
	case HasRepeatRun(t, contentRepeatMax):
		return ErrContentSpam
	}
	return nil
}

// ValidateReply checks a reply body
func ValidateReply(content string) error {
	t := strings.TrimSpace(content)
	switch {
	case t == "":
		return ErrReplyRequired
	case utf8.RuneCountInString(t) > ReplyMax:
		return ErrReplyTooLong
	case HasRepeatRun(t, replyRepeatMax):
		return ErrReplySpam
	}
	return nil
}

// CleanImages keeps the valid http(s) image URLs and rejects more than MaxImages
func CleanImages(images []string) ([]string, error) {
	out := make([]string, 0, len(images))
	for _, img := range images {
		img = strings.TrimSpace(img)
		if ValidURL(img) {
			out = append(out, img)
		}
	}
	if len(out) > MaxImages {
		return nil, ErrTooManyImages
	}
	return out, nil
}

// ValidURL reports whether s is an absolute http or https URL
func ValidURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
