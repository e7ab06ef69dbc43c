package bot

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"purobot/internal/config"
	"purobot/internal/robloxapi"
	"purobot/internal/scheduler"
	"purobot/internal/store"
	"purobot/internal/whitelist"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"
)

// Bot glues the Discord session to the whitelist flow: it translates
// messages and interactions into orchestrator calls and renders the
// results back
type Bot struct {
	cfg          *config.Config
	session      *discordgo.Session
	platform     *Platform
	orchestrator *whitelist.Orchestrator
	gate         *whitelist.ReviewGate
	announcer    *scheduler.Announcer
}

func NewBot(cfg *config.Config, st *store.Store, roblox *robloxapi.RobloxApi) (*Bot, error) {

	session, err := discordgo.New("Bot " + cfg.Discord.Token)
	if err != nil {
		return nil, fmt.Errorf("could not create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMembers |
		discordgo.IntentMessageContent

	platform := NewPlatform(session,
		cfg.Discord.GuildId,
		cfg.Whitelist.CategoryId,
		cfg.Whitelist.StaffRoleId,
		cfg.Whitelist.ResultsChannelId,
		cfg.Whitelist.LogChannelId)

	orchestrator := whitelist.NewOrchestrator(whitelist.Config{
		VerifyTimeout:  cfg.Whitelist.VerifyTimeout.Std(),
		AnswerTimeout:  cfg.Whitelist.AnswerTimeout.Std(),
		TeardownDelay:  cfg.Whitelist.TeardownDelay.Std(),
		ApproveRoleIds: cfg.Whitelist.ApproveRoleIds,
		RevokeRoleIds:  cfg.Whitelist.RevokeRoleIds,
	}, st, roblox, platform, platform)

	bot := &Bot{
		cfg:          cfg,
		session:      session,
		platform:     platform,
		orchestrator: orchestrator,
		gate:         whitelist.NewReviewGate(orchestrator, platform),
		announcer:    scheduler.NewAnnouncer(session, cfg.Announce.ChannelId, cfg.Announce.CronSpec, cfg.Announce.Enabled),
	}

	session.AddHandler(bot.onMessage)
	session.AddHandler(bot.onInteraction)

	return bot, nil
}

// Run opens the session and blocks until an interrupt arrives
func (bot *Bot) Run() error {

	if err := bot.session.Open(); err != nil {
		return fmt.Errorf("could not open discord session: %w", err)
	}
	defer bot.session.Close()

	if err := bot.announcer.Start(); err != nil {
		return err
	}
	defer bot.announcer.Stop()

	log.Info().Msg("Bot is running, press ctrl+c to exit")
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	return nil
}

func (bot *Bot) onMessage(discord *discordgo.Session, message *discordgo.MessageCreate) {

	// Reject my own messages and other bots
	if message.Author.ID == discord.State.User.ID || message.Author.Bot {
		return
	}

	// Ignore messages from private channels
	if message.GuildID == "" {
		return
	}

	// A questionnaire step may be waiting for this message as an answer
	consumed := bot.orchestrator.HandleMessage(whitelist.InboundMessage{
		UserId:    message.Author.ID,
		ChannelId: message.ChannelID,
		MessageId: message.ID,
		Content:   message.Content,
	})
	if consumed {
		return
	}

	parseResult := Parse(bot.cfg.Discord.Prefix, message.Content)
	switch parseResult.parseid {
	case PARSEID_NO_BOT_PREFIX:
		return
	case PARSEID_OK:
		log.Debug().Msg(fmt.Sprintf("Command understood: %s", message.Content))
		var responses []Response
		switch parseResult.command {
		case COMMAND_WHITELIST:
			responses = bot.whitelist(message.Author.ID, false)
		case COMMAND_RESTART:
			responses = bot.whitelist(message.Author.ID, true)
		case COMMAND_RESET:
			switch userid := parseResult.arguments.(type) {
			default:
				panic(fmt.Sprintf("unexpected type of user id %T", userid))
			case string:
				responses = bot.reset(userid, actorOf(message.Author, message.Member))
			}
		case COMMAND_ANNOUNCE:
			switch enabled := parseResult.arguments.(type) {
			default:
				panic(fmt.Sprintf("unexpected type of toggle %T", enabled))
			case bool:
				responses = bot.toggleAnnouncements(message.Author.ID, enabled)
			}
		case COMMAND_HELP:
			responses = HelpMessage(bot.cfg.Discord.Prefix)
		default:
			panic(fmt.Sprintf("Command %d is not one of the possible ones", parseResult.command))
		}
		bot.sendResponses(message.ChannelID, responses)
	default:
		errorMessage := parseResult.errorMessage
		log.Debug().Msg(fmt.Sprintf("Wrong input: '%s'. Reason: %s", message.Content, errorMessage))
		bot.sendResponses(message.ChannelID, InputNotValid(errorMessage))
	}
}

func (bot *Bot) whitelist(userid string, restart bool) []Response {

	channelid, err := bot.orchestrator.Begin(userid)
	switch {
	case errors.Is(err, whitelist.ErrAlreadyDecided):
		return AlreadyDecided()
	case errors.Is(err, whitelist.ErrDuplicateAttempt):
		return AttemptAlreadyActive()
	case err != nil:
		log.Error().Msg(fmt.Sprintf("Could not start whitelist for user %s: %s", userid, err))
		return IntakeFailed()
	}
	return ChannelCreated(channelid, restart)
}

func (bot *Bot) reset(targetid string, staff whitelist.Actor) []Response {

	err := bot.orchestrator.Reset(targetid, staff)
	switch {
	case errors.Is(err, whitelist.ErrUnauthorized):
		return NotStaff()
	case err != nil:
		log.Error().Msg(fmt.Sprintf("Could not reset whitelist of user %s: %s", targetid, err))
		return []Response{ResponseString{"❌ Error al resetear la whitelist. Inténtalo de nuevo más tarde."}}
	}
	return ResetDone(targetid)
}

func (bot *Bot) toggleAnnouncements(userid string, enabled bool) []Response {

	if !bot.platform.IsStaff(userid) {
		return NotStaff()
	}
	bot.announcer.SetEnabled(enabled)
	return AnnouncementsToggled(enabled)
}

func (bot *Bot) onInteraction(discord *discordgo.Session, interaction *discordgo.InteractionCreate) {

	switch interaction.Type {
	case discordgo.InteractionMessageComponent:
		bot.onComponent(interaction)
	case discordgo.InteractionModalSubmit:
		bot.onModalSubmit(interaction)
	}
}

func (bot *Bot) onComponent(interaction *discordgo.InteractionCreate) {

	action, userid := splitActionId(interaction.MessageComponentData().CustomID)
	presser := interactionUser(interaction)

	switch action {
	case customIdVerify:
		if presser.ID != userid {
			bot.respondEphemeral(interaction, "❌ Este botón no es para ti.")
			return
		}
		bot.openVerificationModal(interaction, userid)
	case customIdApprove:
		bot.decide(interaction, userid, true)
	case customIdReject:
		bot.decide(interaction, userid, false)
	}
}

// openVerificationModal asks the applicant for their Roblox username
func (bot *Bot) openVerificationModal(interaction *discordgo.InteractionCreate, userid string) {

	err := bot.session.InteractionRespond(interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID: actionId(customIdVerifyModal, userid),
			Title:    "Verificación de Roblox",
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{Components: []discordgo.MessageComponent{
					discordgo.TextInput{
						CustomID:    fieldIdUsername,
						Label:       "Nombre de usuario de Roblox",
						Style:       discordgo.TextInputShort,
						Placeholder: "Tu nombre de usuario (no el apodo)",
						Required:    true,
						MaxLength:   50,
					},
				}},
			},
		},
	})
	if err != nil {
		log.Warn().Msg(fmt.Sprintf("Could not open verification modal for user %s: %s", userid, err))
	}
}

func (bot *Bot) onModalSubmit(interaction *discordgo.InteractionCreate) {

	data := interaction.ModalSubmitData()
	action, userid := splitActionId(data.CustomID)
	if action != customIdVerifyModal {
		return
	}
	presser := interactionUser(interaction)
	if presser.ID != userid {
		bot.respondEphemeral(interaction, "❌ Este formulario no es para ti.")
		return
	}

	username := modalInput(data, fieldIdUsername)
	if username == "" {
		bot.respondEphemeral(interaction, "❌ Debes indicar tu nombre de usuario de Roblox.")
		return
	}

	_, err := bot.orchestrator.SubmitVerification(userid, username)
	switch {
	case errors.Is(err, whitelist.ErrProfileNotFound):
		bot.respondEphemeral(interaction, fmt.Sprintf("❌ No se encontró ninguna cuenta de Roblox llamada `%s`. Revisa el nombre e inténtalo de nuevo.", username))
	case errors.Is(err, whitelist.ErrCodeMismatch):
		bot.respondEphemeral(interaction, "❌ El código de verificación no está en la descripción de tu perfil. Agrégalo y vuelve a intentarlo.")
	case errors.Is(err, whitelist.ErrNoChallenge):
		bot.respondEphemeral(interaction, "❌ No tienes una verificación pendiente. Puede haber expirado; usa `pc!rechazar-whitelist` para reiniciar.")
	case err != nil:
		log.Error().Msg(fmt.Sprintf("Verification of user %s failed: %s", userid, err))
		bot.respondEphemeral(interaction, "❌ Error al verificar tu cuenta. Inténtalo de nuevo más tarde.")
	default:
		bot.respondEphemeral(interaction, "✅ ¡Cuenta verificada! El cuestionario comienza ahora en este canal.")
	}
}

func (bot *Bot) decide(interaction *discordgo.InteractionCreate, userid string, approve bool) {

	staff := actorOf(interactionUser(interaction), interaction.Member)

	var err error
	if approve {
		err = bot.gate.Approve(userid, staff)
	} else {
		err = bot.gate.Reject(userid, staff)
	}

	switch {
	case errors.Is(err, whitelist.ErrUnauthorized):
		bot.respondEphemeral(interaction, "❌ No tienes permisos para decidir whitelists.")
	case errors.Is(err, whitelist.ErrAlreadyDecided):
		bot.respondEphemeral(interaction, "❌ Esta whitelist ya fue decidida por otro miembro del staff.")
	case errors.Is(err, whitelist.ErrSideEffects):
		bot.respondEphemeral(interaction, "⚠️ Decisión registrada, pero algunos roles o el apodo no pudieron aplicarse. Revísalo manualmente.")
	case err != nil:
		log.Error().Msg(fmt.Sprintf("Decision on user %s failed: %s", userid, err))
		bot.respondEphemeral(interaction, "❌ Error al registrar la decisión. Inténtalo de nuevo.")
	default:
		if approve {
			bot.respondEphemeral(interaction, fmt.Sprintf("✅ Whitelist de <@%s> aprobada.", userid))
		} else {
			bot.respondEphemeral(interaction, fmt.Sprintf("❌ Whitelist de <@%s> rechazada.", userid))
		}
		bot.disableButtons(interaction)
	}
}

// disableButtons strips the decision buttons from the review card so a
// decided application does not look actionable
func (bot *Bot) disableButtons(interaction *discordgo.InteractionCreate) {

	if interaction.Message == nil {
		return
	}
	empty := []discordgo.MessageComponent{}
	_, err := bot.session.ChannelMessageEditComplex(&discordgo.MessageEdit{
		ID:         interaction.Message.ID,
		Channel:    interaction.Message.ChannelID,
		Components: &empty,
	})
	if err != nil {
		log.Debug().Msg(fmt.Sprintf("Could not remove buttons from review message: %s", err))
	}
}

func (bot *Bot) respondEphemeral(interaction *discordgo.InteractionCreate, content string) {

	err := bot.session.InteractionRespond(interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		log.Debug().Msg(fmt.Sprintf("Could not respond to interaction: %s", err))
	}
}

func (bot *Bot) sendResponses(channelid string, responses []Response) {
	for _, response := range responses {
		response.Send(channelid, bot.session)
	}
}

func interactionUser(interaction *discordgo.InteractionCreate) *discordgo.User {
	if interaction.Member != nil {
		return interaction.Member.User
	}
	return interaction.User
}

func actorOf(user *discordgo.User, member *discordgo.Member) whitelist.Actor {

	name := user.Username
	if user.GlobalName != "" {
		name = user.GlobalName
	}
	if member != nil && member.Nick != "" {
		name = member.Nick
	}
	return whitelist.Actor{Id: user.ID, Name: name}
}

func modalInput(data discordgo.ModalSubmitInteractionData, customid string) string {

	for _, row := range data.Components {
		actionsRow, ok := row.(*discordgo.ActionsRow)
		if !ok {
			continue
		}
		for _, component := range actionsRow.Components {
			input, ok := component.(*discordgo.TextInput)
			if ok && input.CustomID == customid {
				return input.Value
			}
		}
	}
	return ""
}
