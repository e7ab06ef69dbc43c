package bot

import (
	"fmt"
	"strings"
	"time"

	"purobot/internal/robloxapi"
	"purobot/internal/store"
	"purobot/internal/whitelist"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"
)

// Platform adapts the Discord session to the directory and presenter
// surfaces the whitelist flow talks to. Everything here is a remote
// call against Discord; the flow treats all of it as unreliable
type Platform struct {
	session          *discordgo.Session
	guildId          string
	categoryId       string
	staffRoleId      string
	resultsChannelId string
	logChannelId     string
}

func NewPlatform(session *discordgo.Session, guildId string, categoryId string, staffRoleId string, resultsChannelId string, logChannelId string) *Platform {
	return &Platform{
		session:          session,
		guildId:          guildId,
		categoryId:       categoryId,
		staffRoleId:      staffRoleId,
		resultsChannelId: resultsChannelId,
		logChannelId:     logChannelId,
	}
}

// CreateApplicantChannel creates the private text channel where one
// applicant runs their whitelist: visible to the applicant and staff,
// hidden from everyone else
func (p *Platform) CreateApplicantChannel(userid string, username string) (string, error) {

	overwrites := []*discordgo.PermissionOverwrite{
		{
			// @everyone shares its id with the guild
			ID:   p.guildId,
			Type: discordgo.PermissionOverwriteTypeRole,
			Deny: discordgo.PermissionViewChannel,
		},
		{
			ID:    userid,
			Type:  discordgo.PermissionOverwriteTypeMember,
			Allow: discordgo.PermissionViewChannel | discordgo.PermissionSendMessages | discordgo.PermissionReadMessageHistory,
		},
		{
			ID:    p.staffRoleId,
			Type:  discordgo.PermissionOverwriteTypeRole,
			Allow: discordgo.PermissionViewChannel | discordgo.PermissionSendMessages | discordgo.PermissionReadMessageHistory,
		},
	}

	channel, err := p.session.GuildChannelCreateComplex(p.guildId, discordgo.GuildChannelCreateData{
		Name:                 channelName(username),
		Type:                 discordgo.ChannelTypeGuildText,
		ParentID:             p.categoryId,
		PermissionOverwrites: overwrites,
	})
	if err != nil {
		return "", fmt.Errorf("could not create channel for user %s: %w", userid, err)
	}
	return channel.ID, nil
}

func (p *Platform) DeleteChannel(channelid string) error {
	_, err := p.session.ChannelDelete(channelid)
	return err
}

func (p *Platform) GrantRole(userid string, roleid string) error {
	return p.session.GuildMemberRoleAdd(p.guildId, userid, roleid)
}

func (p *Platform) RevokeRole(userid string, roleid string) error {
	return p.session.GuildMemberRoleRemove(p.guildId, userid, roleid)
}

func (p *Platform) SetNickname(userid string, nickname string) error {
	return p.session.GuildMemberNickname(p.guildId, userid, nickname)
}

// MemberName resolves the name the member shows in the server
func (p *Platform) MemberName(userid string) (string, error) {

	member, err := p.session.GuildMember(p.guildId, userid)
	if err != nil {
		return "", fmt.Errorf("could not fetch member %s: %w", userid, err)
	}
	if member.Nick != "" {
		return member.Nick, nil
	}
	if member.User.GlobalName != "" {
		return member.User.GlobalName, nil
	}
	return member.User.Username, nil
}

func (p *Platform) IsStaff(userid string) bool {

	member, err := p.session.GuildMember(p.guildId, userid)
	if err != nil {
		log.Warn().Msg(fmt.Sprintf("Could not fetch member %s for staff check: %s", userid, err))
		return false
	}
	for _, roleid := range member.Roles {
		if roleid == p.staffRoleId {
			return true
		}
	}
	return false
}

func (p *Platform) VerificationPrompt(channelid string, userid string, code string, timeout time.Duration) error {

	_, err := p.session.ChannelMessageSendComplex(channelid, &discordgo.MessageSend{
		Content:    fmt.Sprintf("<@%s>", userid),
		Embeds:     []*discordgo.MessageEmbed{VerificationEmbed(code, timeout)},
		Components: VerifyButton(userid),
	})
	return err
}

func (p *Platform) VerificationExpired(channelid string, userid string) {

	if _, err := p.session.ChannelMessageSendEmbed(channelid, VerificationExpiredEmbed()); err != nil {
		log.Warn().Msg(fmt.Sprintf("Could not send verification timeout notice to channel %s: %s", channelid, err))
	}
	p.sendDm(userid, TimeoutDmEmbed())
}

func (p *Platform) ProfileVerified(channelid string, profile robloxapi.Profile) {
	if _, err := p.session.ChannelMessageSendEmbed(channelid, ProfileVerifiedEmbed(profile)); err != nil {
		log.Warn().Msg(fmt.Sprintf("Could not send verified profile to channel %s: %s", channelid, err))
	}
}

func (p *Platform) Question(channelid string, index int, total int, question string, supplementary bool) (string, error) {

	message, err := p.session.ChannelMessageSendEmbed(channelid, QuestionEmbed(index, total, question, supplementary))
	if err != nil {
		return "", err
	}
	return message.ID, nil
}

func (p *Platform) QuestionnaireExpired(channelid string) {
	if _, err := p.session.ChannelMessageSendEmbed(channelid, QuestionnaireExpiredEmbed()); err != nil {
		log.Warn().Msg(fmt.Sprintf("Could not send questionnaire timeout notice to channel %s: %s", channelid, err))
	}
}

func (p *Platform) SupplementaryNotice(channelid string, userid string, primaryScore float64) {
	if _, err := p.session.ChannelMessageSendEmbed(channelid, SupplementaryEmbed(userid, primaryScore)); err != nil {
		log.Warn().Msg(fmt.Sprintf("Could not send supplementary notice to channel %s: %s", channelid, err))
	}
}

// ReviewRequest posts the application to the results channel, pinging
// staff and attaching the decision buttons. This one is not best
// effort: if staff never sees the card, the application is stuck
func (p *Platform) ReviewRequest(app store.Application, eval whitelist.Evaluation, combined *whitelist.CombinedEvaluation) error {

	_, err := p.session.ChannelMessageSendComplex(p.resultsChannelId, &discordgo.MessageSend{
		Content:    fmt.Sprintf("<@&%s> Nueva solicitud de whitelist pendiente de revisión", p.staffRoleId),
		Embeds:     []*discordgo.MessageEmbed{ApplicationEmbed(app, eval, combined)},
		Components: ReviewButtons(app.UserId),
	})
	return err
}

func (p *Platform) AutoApproved(app store.Application) {

	if _, err := p.session.ChannelMessageSendEmbed(app.ChannelId, AutoApprovedChannelEmbed(app)); err != nil {
		log.Warn().Msg(fmt.Sprintf("Could not send auto-approval notice to channel %s: %s", app.ChannelId, err))
	}
	if _, err := p.session.ChannelMessageSendEmbed(p.resultsChannelId, DecisionEmbed(app, true, "🤖 AutoMod (Sistema Automático)")); err != nil {
		log.Warn().Msg(fmt.Sprintf("Could not post auto-approval to results channel: %s", err))
	}
	p.audit(AuditEmbed(
		"🤖 Whitelist Auto-Aprobada",
		fmt.Sprintf("La whitelist de <@%s> fue aprobada automáticamente", app.UserId),
		colorGreen,
		map[string]string{"🎯 Puntuación": fmt.Sprintf("%.1f%%", app.Score)},
	))
}

func (p *Platform) Decision(app store.Application, approved bool, staff whitelist.Actor) {

	embed := DecisionEmbed(app, approved, staff.Name)
	if _, err := p.session.ChannelMessageSendEmbed(p.resultsChannelId, embed); err != nil {
		log.Warn().Msg(fmt.Sprintf("Could not post decision to results channel: %s", err))
	}
	if _, err := p.session.ChannelMessageSendEmbed(app.ChannelId, embed); err != nil {
		log.Debug().Msg(fmt.Sprintf("Could not post decision to channel %s: %s", app.ChannelId, err))
	}

	title := "❌ Whitelist Rechazada"
	color := colorRed
	if approved {
		title = "✅ Whitelist Aprobada"
		color = colorGreen
	}
	p.audit(AuditEmbed(
		title,
		fmt.Sprintf("La whitelist de <@%s> fue decidida manualmente", app.UserId),
		color,
		map[string]string{"👮 Staff": staff.Name, "🎯 Puntuación": fmt.Sprintf("%.1f%%", app.Score)},
	))
}

func (p *Platform) ResetNotice(app *store.Application, userid string, staff whitelist.Actor) {

	p.sendDm(userid, ResetDmEmbed(app, staff.Name))

	description := fmt.Sprintf("La whitelist de <@%s> fue reseteada", userid)
	fields := map[string]string{"👮 Staff": staff.Name}
	if app != nil {
		fields["📊 Estado Anterior"] = string(app.Status)
	}
	p.audit(AuditEmbed("🔄 Whitelist Reseteada", description, colorBlue, fields))
}

func (p *Platform) DeleteMessage(channelid string, messageid string) error {
	return p.session.ChannelMessageDelete(channelid, messageid)
}

func (p *Platform) sendDm(userid string, embed *discordgo.MessageEmbed) {

	channel, err := p.session.UserChannelCreate(userid)
	if err != nil {
		log.Debug().Msg(fmt.Sprintf("Could not open DM channel with user %s: %s", userid, err))
		return
	}
	if _, err := p.session.ChannelMessageSendEmbed(channel.ID, embed); err != nil {
		log.Debug().Msg(fmt.Sprintf("Could not send DM to user %s: %s", userid, err))
	}
}

func (p *Platform) audit(embed *discordgo.MessageEmbed) {

	if p.logChannelId == "" {
		return
	}
	if _, err := p.session.ChannelMessageSendEmbed(p.logChannelId, embed); err != nil {
		log.Warn().Msg(fmt.Sprintf("Could not write to log channel: %s", err))
	}
}

// channelName builds a Discord-safe channel name from the member's name
func channelName(username string) string {

	name := strings.ToLower(username)
	var builder strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			builder.WriteRune(r)
		case r == ' ', r == '-', r == '_':
			builder.WriteRune('-')
		}
	}
	cleaned := strings.Trim(builder.String(), "-")
	if cleaned == "" {
		cleaned = "usuario"
	}
	return "whitelist-" + cleaned
}
