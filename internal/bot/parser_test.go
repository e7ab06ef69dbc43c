package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseIgnoresOtherMessages(t *testing.T) {

	result := Parse("pc!", "hola a todos")
	assert.Equal(t, PARSEID_NO_BOT_PREFIX, result.parseid)
}

func TestParseSimpleCommands(t *testing.T) {

	tests := []struct {
		message string
		command int
	}{
		{"pc!whitelist", COMMAND_WHITELIST},
		{"pc!rechazar-whitelist", COMMAND_RESTART},
		{"pc!help", COMMAND_HELP},
	}
	for _, test := range tests {
		result := Parse("pc!", test.message)
		assert.Equal(t, PARSEID_OK, result.parseid, test.message)
		assert.Equal(t, test.command, result.command, test.message)
	}
}

func TestParseResetAcceptsMentionsAndIds(t *testing.T) {

	tests := []struct {
		input  string
		userid string
	}{
		{"pc!reset-whitelist 123456789", "123456789"},
		{"pc!reset-whitelist <@123456789>", "123456789"},
		{"pc!reset-whitelist <@!123456789>", "123456789"},
	}
	for _, test := range tests {
		result := Parse("pc!", test.input)
		assert.Equal(t, PARSEID_OK, result.parseid, test.input)
		assert.Equal(t, COMMAND_RESET, result.command)
		assert.Equal(t, test.userid, result.arguments)
	}
}

func TestParseResetRejectsBadInput(t *testing.T) {

	result := Parse("pc!", "pc!reset-whitelist")
	assert.Equal(t, PARSEID_NO_INPUT, result.parseid)

	result = Parse("pc!", "pc!reset-whitelist pepito")
	assert.Equal(t, PARSEID_NOT_A_USER, result.parseid)
	assert.NotEmpty(t, result.errorMessage)
}

func TestParseAnnouncementsToggle(t *testing.T) {

	result := Parse("pc!", "pc!anuncios on")
	assert.Equal(t, PARSEID_OK, result.parseid)
	assert.Equal(t, true, result.arguments)

	result = Parse("pc!", "pc!anuncios OFF")
	assert.Equal(t, PARSEID_OK, result.parseid)
	assert.Equal(t, false, result.arguments)

	result = Parse("pc!", "pc!anuncios maybe")
	assert.Equal(t, PARSEID_NOT_A_TOGGLE, result.parseid)
}

func TestParseUnknownCommand(t *testing.T) {

	result := Parse("pc!", "pc!dance")
	assert.Equal(t, PARSEID_COMMAND_NOT_RECOGNISED, result.parseid)
	assert.NotEmpty(t, result.errorMessage)
}

func TestParseEmptyCommand(t *testing.T) {

	result := Parse("pc!", "pc!  ")
	assert.Equal(t, PARSEID_NO_COMMAND, result.parseid)
}
