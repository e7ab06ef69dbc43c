package whitelist

const nicknameSeparator = " | "
const nicknameBudget = 32

// ComposeNickname builds the "<platform-name> | <roblox-username>"
// nickname within the platform's 32-character limit. The budget counts
// characters, not bytes, so accented names truncate cleanly. When
// truncation is needed, both halves stay non-empty and the separator is
// preserved
func ComposeNickname(platformName string, robloxName string) string {

	first := []rune(platformName)
	second := []rune(robloxName)

	if len(first)+len(nicknameSeparator)+len(second) <= nicknameBudget {
		return platformName + nicknameSeparator + robloxName
	}

	available := nicknameBudget - len(nicknameSeparator)
	firstLen := min(len(first), available/2)
	secondLen := min(len(second), available-firstLen)
	// Hand unused budget back to the first half
	firstLen = min(len(first), available-secondLen)

	return string(first[:firstLen]) + nicknameSeparator + string(second[:secondLen])
}
