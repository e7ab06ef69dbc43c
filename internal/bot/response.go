package bot

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"
)

// A command replies with plain text or with an embed; both best effort

type ResponseString struct {
	string
}
type ResponseEmbed struct {
	discordgo.MessageEmbed
}

type Response interface {
	Send(channelid string, discord *discordgo.Session)
}

func (response ResponseString) Send(channelid string, discord *discordgo.Session) {
	if _, err := discord.ChannelMessageSend(channelid, response.string); err != nil {
		log.Warn().Msg(fmt.Sprintf("Could not send message to channel %s: %s", channelid, err))
	}
}

func (response ResponseEmbed) Send(channelid string, discord *discordgo.Session) {
	if _, err := discord.ChannelMessageSendEmbed(channelid, &response.MessageEmbed); err != nil {
		log.Warn().Msg(fmt.Sprintf("Could not send embed to channel %s: %s", channelid, err))
	}
}
