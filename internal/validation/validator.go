package validation

import (
	"errors"
	"html"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/gm7627442-hub/myownpymessnger-pet-project/internal/domain"
)

// Validation rejections. Identical input always yields the identical
// rejection, regardless of call count or prior state.
var (
	ErrUsernameTooShort = errors.New("username must be at least 3 characters")
	ErrUsernameTooLong  = errors.New("username must be at most 20 characters")
	ErrUsernameCharset  = errors.New("username may contain only letters, digits and _")
	ErrUsernameReserved = errors.New("this username is reserved")
	ErrPasswordTooShort = errors.New("password must be at least 6 characters")
	ErrPasswordTooLong  = errors.New("password is too long")
	ErrMessageEmpty     = errors.New("message cannot be empty")
	ErrMessageTooLong   = errors.New("message is too long (max 1000 characters)")
	ErrRoomNameTooShort = errors.New("room name must be at least 2 characters")
	ErrRoomNameTooLong  = errors.New("room name must be at most 30 characters")
	ErrRoomNameCharset  = errors.New("room name may contain only letters, digits, spaces, _ and -")
	ErrRoomNameReserved = errors.New("this room name is reserved")
)

var (
	usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
	roomNameRe = regexp.MustCompile(`^[a-zA-Z0-9_\- ]+$`)
	controlRe  = regexp.MustCompile("[\x00-\x08\x0B\x0C\x0E-\x1F\x7F]")
)

// maxRunLength is the longest allowed run of one repeated rune.
const maxRunLength = 10

var reservedUsernames = map[string]bool{
	"admin":     true,
	"system":    true,
	"server":    true,
	"root":      true,
	"null":      true,
	"undefined": true,
}

var reservedRoomNames = map[string]bool{
	"general":  true,
	"all":      true,
	"everyone": true,
	"system":   true,
}

var bannedSubstrings = []string{"spam", "реклама", "http://", "https://", "www."}

// CheckUsername validates account-name shape, length, charset and the
// reserved-name list.
func CheckUsername(username string) error {
	if len(username) < 3 {
		return ErrUsernameTooShort
	}
	if len(username) > 20 {
		return ErrUsernameTooLong
	}
	if !usernameRe.MatchString(username) {
		return ErrUsernameCharset
	}
	if reservedUsernames[strings.ToLower(username)] {
		return ErrUsernameReserved
	}
	return nil
}

// CheckPassword validates password length bounds.
func CheckPassword(password string) error {
	if len(password) < 6 {
		return ErrPasswordTooShort
	}
	if len(password) > 100 {
		return ErrPasswordTooLong
	}
	return nil
}

// CheckMessage validates a chat message body.
func CheckMessage(message string) error {
	if strings.TrimSpace(message) == "" {
		return ErrMessageEmpty
	}
	if len(message) > 1000 {
		return ErrMessageTooLong
	}
	return nil
}

// CheckRoomName validates a room name.
func CheckRoomName(name string) error {
	if len(name) < 2 {
		return ErrRoomNameTooShort
	}
	if len(name) > 30 {
		return ErrRoomNameTooLong
	}
	if !roomNameRe.MatchString(name) {
		return ErrRoomNameCharset
	}
	if reservedRoomNames[strings.ToLower(name)] {
		return ErrRoomNameReserved
	}
	return nil
}

// Sanitize escapes HTML metacharacters and strips control characters,
// keeping tab, newline and carriage return.
func Sanitize(text string) string {
	if text == "" {
		return ""
	}
	return controlRe.ReplaceAllString(html.EscapeString(text), "")
}

// IsSpam applies the posting-abuse heuristics against the sender's
// recent-message ring. It reports whether the text is spam and why.
func IsSpam(text string, recent []domain.RingEntry) (bool, string) {
	if hasLongRun(text) {
		return true, "repeated characters detected"
	}

	if upper, total := countUpper(text); total > 20 && float64(upper)/float64(total) > 0.8 {
		return true, "too many capital letters"
	}

	if len(recent) > 10 {
		window := recent[len(recent)-10:]
		if window[len(window)-1].Timestamp.Sub(window[0].Timestamp) < 30*time.Second {
			return true, "messages sent too frequently"
		}
	}

	lower := strings.ToLower(text)
	for _, word := range bannedSubstrings {
		if strings.Contains(lower, word) {
			return true, "banned word detected: " + word
		}
	}

	return false, ""
}

// hasLongRun reports whether text contains more than maxRunLength
// consecutive occurrences of the same rune.
func hasLongRun(text string) bool {
	var prev rune
	run := 0
	for _, r := range text {
		if r == prev {
			run++
		} else {
			prev, run = r, 1
		}
		if run > maxRunLength {
			return true
		}
	}
	return false
}

func countUpper(text string) (upper, total int) {
	for _, r := range text {
		total++
		if unicode.IsUpper(r) {
			upper++
		}
	}
	return upper, total
}
