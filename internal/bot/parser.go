package bot

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

const (
	COMMAND_WHITELIST = iota
	COMMAND_RESTART   = iota
	COMMAND_RESET     = iota
	COMMAND_ANNOUNCE  = iota
	COMMAND_HELP      = iota
)

const (
	PARSEID_OK                     = iota
	PARSEID_NO_BOT_PREFIX          = iota
	PARSEID_NO_COMMAND             = iota
	PARSEID_COMMAND_NOT_RECOGNISED = iota
	PARSEID_NO_INPUT               = iota
	PARSEID_NOT_A_USER             = iota
	PARSEID_NOT_A_TOGGLE           = iota
)

var errorMessages map[int]string = map[int]string{
	PARSEID_NO_COMMAND:             "No command provided",
	PARSEID_COMMAND_NOT_RECOGNISED: "Command `%s` not recognised",
	PARSEID_NO_INPUT:               "Command `%s` requires an argument",
	PARSEID_NOT_A_USER:             "Input `%s` is not a user mention or id",
	PARSEID_NOT_A_TOGGLE:           "Input `%s` has to be `on` or `off`",
}

type ParseResult struct {
	command      int
	parseid      int
	errorMessage string
	arguments    interface{}
}

func Parse(prefix string, message string) ParseResult {

	// The message has to start with the bot prefix
	if !strings.HasPrefix(message, prefix) {
		log.Debug().Msg("Reject message not intended for the bot")
		return ParseResult{parseid: PARSEID_NO_BOT_PREFIX}
	}

	// Get the command if valid
	words := strings.Fields(strings.TrimSpace(message[len(prefix):]))
	if len(words) == 0 {
		parseid := PARSEID_NO_COMMAND
		return ParseResult{parseid: parseid, errorMessage: errorMessages[parseid]}
	}
	commandString := words[0]
	words = words[1:]

	noInput := func(command int) ParseResult {
		parseid := PARSEID_NO_INPUT
		return ParseResult{command: command, parseid: parseid, errorMessage: fmt.Sprintf(errorMessages[parseid], commandString)}
	}

	// Match the command

	switch commandString {
	case "whitelist":
		// pc!whitelist
		return ParseResult{command: COMMAND_WHITELIST, parseid: PARSEID_OK}
	case "rechazar-whitelist":
		// pc!rechazar-whitelist
		return ParseResult{command: COMMAND_RESTART, parseid: PARSEID_OK}
	case "reset-whitelist":
		// pc!reset-whitelist <user>
		command := COMMAND_RESET
		if len(words) == 0 {
			return noInput(command)
		}
		return parseUserId(command, words[0])
	case "anuncios":
		// pc!anuncios <on|off>
		command := COMMAND_ANNOUNCE
		if len(words) == 0 {
			return noInput(command)
		}
		return parseToggle(command, words[0])
	case "help":
		// pc!help
		return ParseResult{command: COMMAND_HELP, parseid: PARSEID_OK}
	default:
		parseid := PARSEID_COMMAND_NOT_RECOGNISED
		return ParseResult{parseid: parseid, errorMessage: fmt.Sprintf(errorMessages[parseid], commandString)}
	}
}

// parseUserId accepts a raw snowflake or a mention like <@123> / <@!123>
func parseUserId(command int, word string) ParseResult {

	userid := strings.TrimSuffix(word, ">")
	userid = strings.TrimPrefix(userid, "<@")
	userid = strings.TrimPrefix(userid, "!")

	if userid == "" || strings.ContainsFunc(userid, func(r rune) bool { return r < '0' || r > '9' }) {
		parseid := PARSEID_NOT_A_USER
		return ParseResult{command: command, parseid: parseid, errorMessage: fmt.Sprintf(errorMessages[parseid], word)}
	}

	return ParseResult{command: command, parseid: PARSEID_OK, arguments: userid}
}

func parseToggle(command int, word string) ParseResult {

	switch strings.ToLower(word) {
	case "on":
		return ParseResult{command: command, parseid: PARSEID_OK, arguments: true}
	case "off":
		return ParseResult{command: command, parseid: PARSEID_OK, arguments: false}
	default:
		parseid := PARSEID_NOT_A_TOGGLE
		return ParseResult{command: command, parseid: parseid, errorMessage: fmt.Sprintf(errorMessages[parseid], word)}
	}
}
