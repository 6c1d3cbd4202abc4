package validation

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gm7627442-hub/myownpymessnger-pet-project/internal/domain"
)

func TestCheckUsername(t *testing.T) {
	tests := []struct {
		name     string
		username string
		wantErr  error
	}{
		{"valid", "alice_99", nil},
		{"minimum length", "abc", nil},
		{"too short", "ab", ErrUsernameTooShort},
		{"empty", "", ErrUsernameTooShort},
		{"too long", strings.Repeat("a", 21), ErrUsernameTooLong},
		{"bad charset", "ali ce", ErrUsernameCharset},
		{"bad charset dash", "ali-ce", ErrUsernameCharset},
		{"reserved", "admin", ErrUsernameReserved},
		{"reserved mixed case", "Admin", ErrUsernameReserved},
		{"reserved system", "system", ErrUsernameReserved},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckUsername(tt.username)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestCheckUsernameRejectionIsIdempotent(t *testing.T) {
	// Identical invalid input always yields the identical rejection.
	for i := 0; i < 5; i++ {
		assert.ErrorIs(t, CheckUsername("ab"), ErrUsernameTooShort)
	}
}

func TestCheckPassword(t *testing.T) {
	assert.NoError(t, CheckPassword("secret"))
	assert.ErrorIs(t, CheckPassword("12345"), ErrPasswordTooShort)
	assert.ErrorIs(t, CheckPassword(strings.Repeat("x", 101)), ErrPasswordTooLong)
}

func TestCheckMessage(t *testing.T) {
	assert.NoError(t, CheckMessage("hello"))
	assert.ErrorIs(t, CheckMessage(""), ErrMessageEmpty)
	assert.ErrorIs(t, CheckMessage("   "), ErrMessageEmpty)
	assert.ErrorIs(t, CheckMessage(strings.Repeat("x", 1001)), ErrMessageTooLong)
}

func TestCheckRoomName(t *testing.T) {
	tests := []struct {
		name    string
		room    string
		wantErr error
	}{
		{"valid", "team room-1", nil},
		{"too short", "a", ErrRoomNameTooShort},
		{"too long", strings.Repeat("r", 31), ErrRoomNameTooLong},
		{"bad charset", "team!", ErrRoomNameCharset},
		{"reserved general", "general", ErrRoomNameReserved},
		{"reserved everyone", "Everyone", ErrRoomNameReserved},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckRoomName(tt.room)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "", Sanitize(""))
	assert.Equal(t, "&lt;b&gt;hi&lt;/b&gt;", Sanitize("<b>hi</b>"))
	assert.Equal(t, "ab", Sanitize("a\x00\x1fb"))
	// Tab and newline survive.
	assert.Equal(t, "a\tb\nc", Sanitize("a\tb\nc"))
}

func TestIsSpamRepeatedCharacters(t *testing.T) {
	// Eleven consecutive identical characters trip the rule.
	spam, reason := IsSpam(strings.Repeat("a", 11), nil)
	assert.True(t, spam)
	assert.Contains(t, reason, "repeated characters")

	spam, _ = IsSpam(strings.Repeat("a", 10), nil)
	assert.False(t, spam)

	// The run may sit anywhere in the message.
	spam, _ = IsSpam("look at this aaaaaaaaaaa thing", nil)
	assert.True(t, spam)

	// Runs count runes, not bytes.
	spam, _ = IsSpam(strings.Repeat("я", 11), nil)
	assert.True(t, spam)

	// Alternating characters never form a run.
	spam, _ = IsSpam(strings.Repeat("ab", 20), nil)
	assert.False(t, spam)
}

func TestIsSpamUppercase(t *testing.T) {
	spam, reason := IsSpam("THIS IS DEFINITELY ALL SHOUTING TEXT", nil)
	assert.True(t, spam)
	assert.Contains(t, reason, "capital")

	// Short shouting is tolerated.
	spam, _ = IsSpam("HELLO THERE", nil)
	assert.False(t, spam)

	spam, _ = IsSpam("this is a normal lowercase sentence", nil)
	assert.False(t, spam)
}

func TestIsSpamFrequency(t *testing.T) {
	now := time.Now()
	var ring []domain.RingEntry
	for i := 0; i < 11; i++ {
		ring = append(ring, domain.RingEntry{
			Timestamp: now.Add(time.Duration(i) * time.Second),
			Content:   "m",
		})
	}

	spam, reason := IsSpam("one more", ring)
	require.True(t, spam)
	assert.Contains(t, reason, "frequently")

	// Same count spread over a minute is fine.
	slow := make([]domain.RingEntry, 11)
	for i := range slow {
		slow[i] = domain.RingEntry{Timestamp: now.Add(time.Duration(i) * 10 * time.Second)}
	}
	spam, _ = IsSpam("one more", slow)
	assert.False(t, spam)
}

func TestIsSpamBannedWords(t *testing.T) {
	for _, text := range []string{
		"buy my spam now",
		"visit http://example.com",
		"visit https://example.com",
		"go to www.example.com",
	} {
		spam, reason := IsSpam(text, nil)
		assert.True(t, spam, text)
		assert.Contains(t, reason, "banned word")
	}

	ok, _ := IsSpam("just a plain message", nil)
	assert.False(t, ok)
}
