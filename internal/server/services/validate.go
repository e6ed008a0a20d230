package services

import (
	"fmt"
	"regexp"
	"unicode/utf8"

	"github.com/totymark/totymark/internal/common"
)

var (
	reUserName = regexp.MustCompile(`^[A-Za-z0-9_.-]{3,64}$`)
	reEmail    = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	reChatID   = regexp.MustCompile(`^[A-Za-z0-9_.:-]{1,128}$`)
)

const (
	minPasswordLen = 8
	maxPasswordLen = 1024
	maxBodyLen     = 4096
)

func invalid(format string, args ...any) error {
	return &common.ValidationError{Reason: fmt.Sprintf(format, args...)}
}

func validateUserName(name string) error {
	if !reUserName.MatchString(name) {
		return invalid("username must be 3-64 characters of letters, digits, '_', '.' or '-'")
	}
	return nil
}

func validatePassword(pw string) error {
	n := utf8.RuneCountInString(pw)
	if n < minPasswordLen {
		return invalid("password must be at least %d characters", minPasswordLen)
	}
	if len(pw) > maxPasswordLen {
		return invalid("password is too long")
	}
	return nil
}

func validateEmail(email string) error {
	if !reEmail.MatchString(email) {
		return invalid("email is not valid")
	}
	return nil
}

func validateChatID(chatID string) error {
	if !reChatID.MatchString(chatID) {
		return invalid("chat id is not valid")
	}
	return nil
}
