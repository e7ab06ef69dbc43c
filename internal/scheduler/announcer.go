package scheduler

import (
	"fmt"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Announcer periodically posts the whitelist reminder to the configured
// channel. The toggle is runtime state, flipped by the announcements
// command; the cron schedule itself never changes while running
type Announcer struct {
	session   *discordgo.Session
	channelid string
	cronSpec  string
	cron      *cron.Cron

	mu      sync.Mutex
	enabled bool
}

func NewAnnouncer(session *discordgo.Session, channelid string, cronSpec string, enabled bool) *Announcer {
	return &Announcer{
		session:   session,
		channelid: channelid,
		cronSpec:  cronSpec,
		cron:      cron.New(cron.WithSeconds()),
		enabled:   enabled,
	}
}

func (a *Announcer) Start() error {

	if a.channelid == "" {
		log.Info().Msg("No announcement channel configured, announcements disabled")
		return nil
	}
	if _, err := a.cron.AddFunc(a.cronSpec, a.announce); err != nil {
		return fmt.Errorf("could not schedule announcements with spec %q: %w", a.cronSpec, err)
	}
	a.cron.Start()
	log.Info().Msg(fmt.Sprintf("Announcements scheduled with spec %q (enabled: %t)", a.cronSpec, a.Enabled()))
	return nil
}

func (a *Announcer) Stop() {
	a.cron.Stop()
}

func (a *Announcer) SetEnabled(enabled bool) {
	a.mu.Lock()
	a.enabled = enabled
	a.mu.Unlock()
	log.Info().Msg(fmt.Sprintf("Announcements enabled: %t", enabled))
}

func (a *Announcer) Enabled() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.enabled
}

func (a *Announcer) announce() {

	if !a.Enabled() {
		return
	}

	embed := &discordgo.MessageEmbed{
		Title:       "📢 Sistema de Whitelist",
		Description: "¿Aún no tienes tu whitelist? ¡Complétala para acceder al servidor de roleplay!",
		Color:       0x3498db,
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:   "🚀 ¿Cómo empezar?",
				Value:  "Usa el comando `pc!whitelist` y sigue las instrucciones en tu canal privado.",
				Inline: false,
			},
			{
				Name:   "📋 Requisitos",
				Value:  "• Una cuenta de Roblox\n• Responder el cuestionario de roleplay",
				Inline: false,
			},
		},
		Footer: &discordgo.MessageEmbedFooter{Text: "Puro Chile RP - Sistema de Whitelist"},
	}

	if _, err := a.session.ChannelMessageSendEmbed(a.channelid, embed); err != nil {
		log.Warn().Msg(fmt.Sprintf("Could not post whitelist announcement: %s", err))
		return
	}
	log.Debug().Msg("Posted whitelist announcement")
}
