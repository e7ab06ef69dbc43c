package bot

import (
	"fmt"
	"strings"
	"time"

	"purobot/internal/robloxapi"
	"purobot/internal/store"
	"purobot/internal/whitelist"

	"github.com/bwmarrin/discordgo"
)

// Embed colors used across the whitelist flow
const (
	colorBlue   int = 0x3498db
	colorGreen  int = 0x2ecc71
	colorRed    int = 0xe74c3c
	colorOrange int = 0xe67e22
	colorGold   int = 0xf1c40f
)

const footerText = "Puro Chile RP - Sistema de Whitelist"

// Component custom ids. The acted-on user id travels inside the id, so
// a press resolves against application state, not widget identity
const (
	customIdVerify      = "wl_verify"
	customIdVerifyModal = "wl_verify_modal"
	customIdApprove     = "wl_approve"
	customIdReject      = "wl_reject"
	fieldIdUsername     = "roblox_username"
)

func actionId(action string, userid string) string {
	return action + ":" + userid
}

// splitActionId returns the action and the embedded user id
func splitActionId(customid string) (string, string) {
	action, userid, _ := strings.Cut(customid, ":")
	return action, userid
}

func InputNotValid(errorMessage string) []Response {
	return []Response{ResponseString{fmt.Sprintf("Input not valid: \n> %s", errorMessage)}}
}

func HelpMessage(prefix string) []Response {

	embed := discordgo.MessageEmbed{Title: "Comandos disponibles", Color: colorBlue}
	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
		Name:   fmt.Sprintf("`%swhitelist`", prefix),
		Value:  "Inicia tu proceso de whitelist en un canal privado, con vinculación de Roblox",
		Inline: false,
	})
	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
		Name:   fmt.Sprintf("`%srechazar-whitelist`", prefix),
		Value:  "Reinicia tu proceso de whitelist después de un timeout",
		Inline: false,
	})
	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
		Name:   fmt.Sprintf("`%sreset-whitelist <usuario>`", prefix),
		Value:  "Staff: borra por completo la whitelist de un usuario para que pueda repetirla",
		Inline: false,
	})
	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
		Name:   fmt.Sprintf("`%sanuncios <on|off>`", prefix),
		Value:  "Staff: activa o desactiva los anuncios automáticos de whitelist",
		Inline: false,
	})
	return []Response{ResponseEmbed{embed}}
}

func ChannelCreated(channelid string, restart bool) []Response {

	if restart {
		content := fmt.Sprintf("🔄 Se ha creado un nuevo canal para completar tu whitelist: <#%s>", channelid)
		return []Response{ResponseString{content}}
	}
	return []Response{ResponseString{fmt.Sprintf("✅ Canal de whitelist creado: <#%s>", channelid)}}
}

func AttemptAlreadyActive() []Response {
	return []Response{ResponseString{"❌ Ya tienes un canal de whitelist activo."}}
}

func AlreadyDecided() []Response {
	return []Response{ResponseString{"❌ Ya has completado tu proceso de whitelist anteriormente. Solo se permite una whitelist por usuario."}}
}

func IntakeFailed() []Response {
	return []Response{ResponseString{"❌ Error al crear el canal de whitelist. Inténtalo de nuevo más tarde."}}
}

func NotStaff() []Response {
	return []Response{ResponseString{"❌ No tienes permisos para usar este comando."}}
}

func ResetDone(targetid string) []Response {

	embed := discordgo.MessageEmbed{
		Title:       "🔄 Whitelist Reseteada",
		Description: fmt.Sprintf("Se ha reseteado completamente la whitelist de <@%s>", targetid),
		Color:       colorBlue,
	}
	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
		Name:   "📧 Notificación",
		Value:  "Se ha enviado un DM al usuario con la información de su whitelist",
		Inline: false,
	})
	return []Response{ResponseEmbed{embed}}
}

func AnnouncementsToggled(enabled bool) []Response {
	if enabled {
		return []Response{ResponseString{"✅ Anuncios automáticos de whitelist activados."}}
	}
	return []Response{ResponseString{"❌ Anuncios automáticos de whitelist desactivados."}}
}

// VerificationEmbed holds the linking instructions and the challenge code
func VerificationEmbed(code string, timeout time.Duration) *discordgo.MessageEmbed {

	embed := &discordgo.MessageEmbed{
		Title:       "🎮 Vinculación de Cuenta de Roblox",
		Description: "Para continuar con tu whitelist, necesitas vincular tu cuenta de Roblox.",
		Color:       colorBlue,
		Footer:      &discordgo.MessageEmbedFooter{Text: footerText},
	}
	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
		Name:   "📋 Instrucciones",
		Value:  "1. Ve a tu perfil de Roblox\n2. Edita tu descripción\n3. Agrega el código de verificación\n4. Haz clic en 'Verificar Cuenta'",
		Inline: false,
	})
	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
		Name:   "🔑 Código de Verificación",
		Value:  fmt.Sprintf("```%s```", code),
		Inline: false,
	})
	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
		Name:   "⏰ Tiempo Límite",
		Value:  fmt.Sprintf("**Tienes %d minutos para completar la verificación**\nSi no verificas en este tiempo, la whitelist será cancelada automáticamente.", int(timeout.Minutes())),
		Inline: false,
	})
	return embed
}

func VerifyButton(userid string) []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.Button{
				Label:    "🔗 Verificar Cuenta de Roblox",
				Style:    discordgo.PrimaryButton,
				CustomID: actionId(customIdVerify, userid),
			},
		}},
	}
}

func VerificationExpiredEmbed() *discordgo.MessageEmbed {

	embed := &discordgo.MessageEmbed{
		Title:       "⏰ Tiempo Límite Alcanzado",
		Description: "La verificación de Roblox ha expirado por falta de tiempo.",
		Color:       colorRed,
		Footer:      &discordgo.MessageEmbedFooter{Text: footerText},
	}
	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
		Name:   "🔄 ¿Quieres intentar de nuevo?",
		Value:  "Usa el comando `pc!rechazar-whitelist` para reiniciar el proceso de whitelist.",
		Inline: false,
	})
	return embed
}

func QuestionnaireExpiredEmbed() *discordgo.MessageEmbed {

	embed := &discordgo.MessageEmbed{
		Title:       "⏰ Tiempo Límite Alcanzado",
		Description: "No respondiste una pregunta dentro del tiempo límite y el proceso de whitelist ha sido cancelado.",
		Color:       colorRed,
		Footer:      &discordgo.MessageEmbedFooter{Text: footerText},
	}
	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
		Name:   "🔄 ¿Quieres intentar de nuevo?",
		Value:  "Usa el comando `pc!rechazar-whitelist` para reiniciar el proceso de whitelist.",
		Inline: false,
	})
	return embed
}

func TimeoutDmEmbed() *discordgo.MessageEmbed {

	embed := &discordgo.MessageEmbed{
		Title:       "⏰ Tiempo Límite Alcanzado",
		Description: "**Tu proceso de whitelist ha expirado**",
		Color:       colorOrange,
		Footer:      &discordgo.MessageEmbedFooter{Text: footerText},
	}
	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
		Name:   "🔄 ¿Cómo continuar?",
		Value:  "Realiza de nuevo el comando `pc!rechazar-whitelist` para verificarte.",
		Inline: false,
	})
	return embed
}

func ProfileVerifiedEmbed(profile robloxapi.Profile) *discordgo.MessageEmbed {

	embed := &discordgo.MessageEmbed{
		Title:       "✅ Cuenta de Roblox Verificada",
		Description: "Tu cuenta de Roblox ha sido verificada exitosamente. Ahora responderás algunas preguntas.",
		Color:       colorGreen,
		Footer:      &discordgo.MessageEmbedFooter{Text: "Puro Chile RP - Iniciando Cuestionario..."},
	}
	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "👤 Nombre de Roblox", Value: profile.Username, Inline: true})
	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "🏷️ Apodo de Roblox", Value: profile.DisplayName, Inline: true})
	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "🔗 Link del Perfil", Value: fmt.Sprintf("[Ver Perfil](%s)", profile.ProfileUrl()), Inline: true})
	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "📅 Edad de la Cuenta", Value: profile.AccountAge(), Inline: true})
	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "📆 Cuenta Creada", Value: profile.Created.Format("02/01/2006"), Inline: true})
	if profile.AvatarUrl != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: profile.AvatarUrl}
	}
	return embed
}

func QuestionEmbed(index int, total int, question string, supplementary bool) *discordgo.MessageEmbed {

	title := fmt.Sprintf("📋 Pregunta %d de %d", index, total)
	color := colorBlue
	if supplementary {
		title = fmt.Sprintf("📚 Pregunta Adicional %d de %d", index, total)
		color = colorOrange
	}
	return &discordgo.MessageEmbed{
		Title:       title,
		Description: question,
		Color:       color,
		Footer:      &discordgo.MessageEmbedFooter{Text: footerText},
	}
}

func SupplementaryEmbed(userid string, primaryScore float64) *discordgo.MessageEmbed {

	embed := &discordgo.MessageEmbed{
		Title:       "📚 Preguntas Adicionales de Roleplay",
		Description: fmt.Sprintf("<@%s>, necesitas responder algunas preguntas adicionales sobre conceptos básicos de roleplay.", userid),
		Color:       colorOrange,
		Footer:      &discordgo.MessageEmbedFooter{Text: "Puro Chile RP - Evaluación Adicional"},
	}
	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
		Name:   "📊 Puntuación Inicial",
		Value:  fmt.Sprintf("**%.1f%%** - Se requiere 80%% para aprobación automática", primaryScore),
		Inline: false,
	})
	return embed
}

// ApplicationEmbed is the full review card handed to staff: evaluation
// summary, the Roblox snapshot and the scored answers
func ApplicationEmbed(app store.Application, eval whitelist.Evaluation, combined *whitelist.CombinedEvaluation) *discordgo.MessageEmbed {

	embed := &discordgo.MessageEmbed{
		Title:       "📋 Solicitud de Whitelist",
		Description: fmt.Sprintf("**Usuario:** %s\n**Discord:** <@%s>\n**ID:** `%s`", app.UserDisplay, app.UserId, app.UserId),
		Color:       colorGold,
		Footer:      &discordgo.MessageEmbedFooter{Text: "Puro Chile RP - Sistema de Whitelist Semi-Automatizado"},
	}

	if combined != nil {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "🤖 Evaluación Semi-Automatizada",
			Value: fmt.Sprintf("%s **Puntuación Final:** %.1f%%\n📊 **Preguntas Iniciales:** %.1f%%\n📚 **Preguntas Adicionales:** %.1f%%\n📝 **Recomendación:** %s",
				scoreIndicator(combined.Combined), combined.Combined, combined.Primary, combined.Secondary, combined.Recommendation),
			Inline: false,
		})
	} else {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "🤖 Evaluación Automática",
			Value: fmt.Sprintf("%s **Puntuación:** %.1f%%\n📝 **Estado:** %s",
				scoreIndicator(eval.Percentage), eval.Percentage, eval.Recommendation),
			Inline: false,
		})
	}

	embed.Fields = append(embed.Fields, robloxField(app.Roblox))

	questions := whitelist.Questions(whitelist.PrimaryRubric)
	for i, question := range questions {
		if i >= len(app.Answers) {
			break
		}
		answer := app.Answers[i]
		if len(answer) > 150 {
			answer = answer[:150] + "..."
		}
		emoji := "❌"
		if i < len(eval.AnswerScores) {
			if eval.AnswerScores[i] >= 7 {
				emoji = "✅"
			} else if eval.AnswerScores[i] >= 5 {
				emoji = "⚠️"
			}
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   fmt.Sprintf("**%d. %s** %s", i+1, question, emoji),
			Value:  answer,
			Inline: false,
		})
	}

	if app.Roblox.AvatarUrl != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: app.Roblox.AvatarUrl}
	}
	return embed
}

func ReviewButtons(userid string) []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.Button{
				Label:    "✅ Aceptar Whitelist",
				Style:    discordgo.SuccessButton,
				CustomID: actionId(customIdApprove, userid),
			},
			discordgo.Button{
				Label:    "❌ Rechazar Whitelist",
				Style:    discordgo.DangerButton,
				CustomID: actionId(customIdReject, userid),
			},
		}},
	}
}

func AutoApprovedChannelEmbed(app store.Application) *discordgo.MessageEmbed {

	embed := &discordgo.MessageEmbed{
		Title:       "🎉 ¡Whitelist Aprobada Automáticamente!",
		Description: fmt.Sprintf("**¡Felicidades <@%s>!** Tu whitelist ha sido aprobada automáticamente por obtener una puntuación perfecta.", app.UserId),
		Color:       colorGreen,
		Footer:      &discordgo.MessageEmbedFooter{Text: "Puro Chile RP - Aprobación Automática"},
	}
	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
		Name:   "🎯 Puntuación",
		Value:  fmt.Sprintf("**%.1f%%** - Respuestas perfectas", app.Score),
		Inline: true,
	})
	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
		Name:   "🔧 Procesado por",
		Value:  "🤖 AutoMod (Sistema Automático)",
		Inline: true,
	})
	return embed
}

func DecisionEmbed(app store.Application, approved bool, decidedBy string) *discordgo.MessageEmbed {

	status := "RECHAZADA"
	emoji := "❌"
	color := colorRed
	if approved {
		status = "APROBADA"
		emoji = "✅"
		color = colorGreen
	}

	embed := &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("%s Whitelist %s", emoji, status),
		Description: fmt.Sprintf("**Usuario:** %s\n**Discord:** <@%s>\n**ID:** `%s`", app.UserDisplay, app.UserId, app.UserId),
		Color:       color,
		Footer:      &discordgo.MessageEmbedFooter{Text: footerText},
	}
	embed.Fields = append(embed.Fields, robloxField(app.Roblox))
	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
		Name:   "👮 Decidido por",
		Value:  decidedBy,
		Inline: true,
	})
	if app.Roblox.AvatarUrl != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: app.Roblox.AvatarUrl}
	}
	return embed
}

func ResetDmEmbed(app *store.Application, staffName string) *discordgo.MessageEmbed {

	embed := &discordgo.MessageEmbed{
		Title:       "🔄 Tu Whitelist Ha Sido Reseteada",
		Description: "Tu proceso de whitelist ha sido reseteado por un miembro del staff.",
		Color:       colorOrange,
		Footer:      &discordgo.MessageEmbedFooter{Text: footerText},
	}
	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
		Name:   "👮 Staff Responsable",
		Value:  staffName,
		Inline: true,
	})
	if app != nil {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   "📊 Estado Anterior",
			Value:  fmt.Sprintf("**Estado:** %s\n**Fecha Original:** %s", app.Status, app.SubmittedAt.Format("02/01/2006")),
			Inline: false,
		})
	}
	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
		Name:   "🚀 Próximos Pasos",
		Value:  "Si deseas volver a hacer tu whitelist, usa el comando `pc!whitelist` en el servidor.",
		Inline: false,
	})
	return embed
}

// AuditEmbed is the log-channel entry for decisions and resets
func AuditEmbed(title string, description string, color int, fields map[string]string) *discordgo.MessageEmbed {

	embed := &discordgo.MessageEmbed{
		Title:       title,
		Description: description,
		Color:       color,
		Footer:      &discordgo.MessageEmbedFooter{Text: "Puro Chile RP - Log de Whitelist"},
	}
	for name, value := range fields {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: name, Value: value, Inline: true})
	}
	return embed
}

func robloxField(info store.RobloxInfo) *discordgo.MessageEmbedField {
	return &discordgo.MessageEmbedField{
		Name: "🎮 Información de Roblox",
		Value: fmt.Sprintf("**Nombre:** %s\n**Apodo:** %s\n**Perfil:** [Ver Perfil](%s)",
			info.Username, info.DisplayName, info.ProfileUrl),
		Inline: false,
	}
}

func scoreIndicator(score float64) string {
	switch {
	case score >= 80:
		return "🟢"
	case score >= 60:
		return "🟡"
	default:
		return "🔴"
	}
}
