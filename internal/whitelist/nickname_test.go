package whitelist

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestComposeNicknameFitsUnchanged(t *testing.T) {

	nickname := ComposeNickname("Juan", "Roblox123")
	assert.Equal(t, "Juan | Roblox123", nickname)
}

func TestComposeNicknameTruncates(t *testing.T) {

	nickname := ComposeNickname("AVeryLongDiscordDisplayName", "AnEquallyLongRobloxUsername")
	assert.LessOrEqual(t, len(nickname), 32)
	assert.Contains(t, nickname, " | ")

	parts := strings.SplitN(nickname, " | ", 2)
	assert.NotEmpty(t, parts[0])
	assert.NotEmpty(t, parts[1])
}

func TestComposeNicknameHandsBackUnusedBudget(t *testing.T) {

	// The short half does not need its full share, so the long half
	// should get the leftover
	nickname := ComposeNickname("Ana", strings.Repeat("r", 40))
	assert.LessOrEqual(t, len(nickname), 32)
	parts := strings.SplitN(nickname, " | ", 2)
	assert.Equal(t, "Ana", parts[0])
	assert.Len(t, parts[1], 29-len("Ana"))
}

func TestComposeNicknameCountsCharactersNotBytes(t *testing.T) {

	// 17 + 3 + 8 = 28 characters, even though the first half alone is
	// 34 bytes
	nickname := ComposeNickname(strings.Repeat("ñ", 17), "Robloxer")
	assert.Equal(t, strings.Repeat("ñ", 17)+" | Robloxer", nickname)
	assert.True(t, utf8.ValidString(nickname))
}

func TestComposeNicknameTruncatesOnRuneBoundaries(t *testing.T) {

	nickname := ComposeNickname(strings.Repeat("ñ", 20), strings.Repeat("é", 20))
	assert.True(t, utf8.ValidString(nickname))
	assert.Equal(t, 32, utf8.RuneCountInString(nickname))

	parts := strings.SplitN(nickname, " | ", 2)
	assert.Equal(t, strings.Repeat("ñ", 14), parts[0])
	assert.Equal(t, strings.Repeat("é", 15), parts[1])
}

func TestComposeNicknameExactBudget(t *testing.T) {

	// 14 + 3 + 15 = 32
	nickname := ComposeNickname(strings.Repeat("a", 14), strings.Repeat("b", 15))
	assert.Len(t, nickname, 32)
	assert.Equal(t, strings.Repeat("a", 14)+" | "+strings.Repeat("b", 15), nickname)
}
