package whitelist

import (
	"strings"
	"unicode/utf8"
)

// Rubric scores one question: keywords that a good answer mentions,
// and the weight of the question in the total
type Rubric struct {
	Question string
	Keywords []string
	Weight   int
}

// PrimaryRubric covers the eight questions of the main questionnaire.
// Weights sum to 100 so a perfect run scores exactly 100%
var PrimaryRubric = []Rubric{
	{
		Question: "¿Cuál es tu edad?",
		Keywords: []string{"15", "16", "17", "18", "19", "20", "21", "22", "23", "24", "25"},
		Weight:   5,
	},
	{
		Question: "¿Qué significa MG para ti?",
		Keywords: []string{"metagaming", "meta gaming", "información", "ic", "ooc", "fuera del juego", "beneficio", "exterior", "conoce", "personaje", "utiliza", "decisiones"},
		Weight:   15,
	},
	{
		Question: "¿Cuál es la diferencia entre RK y CK?",
		Keywords: []string{"revenge kill", "venganza", "character kill", "definitiva", "muerte", "personaje", "regresa", "vuelve", "antirol", "ck", "rk"},
		Weight:   15,
	},
	{
		Question: "¿Tienes experiencia previa en roleplay? Describe brevemente.",
		Keywords: []string{"sí", "si", "experiencia", "roleplay", "servidores", "juegos", "roblox", "fivem"},
		Weight:   10,
	},
	{
		Question: "¿Por qué quieres unirte a nuestro servidor?",
		Keywords: []string{"roleplay", "diversión", "amigos", "comunidad", "experiencia", "entretenimiento"},
		Weight:   10,
	},
	{
		Question: "¿Qué harías si 2 funcionarios policiales te apuntan?",
		Keywords: []string{"manos", "rendir", "obedece", "cooperar", "arriba", "quieto", "levantar", "no resistir", "parar"},
		Weight:   15,
	},
	{
		Question: "¿Qué roles realizarías dentro de nuestro server?",
		Keywords: []string{"civil", "ciudadano", "policía", "médico", "mecánico", "trabajo", "empleo"},
		Weight:   10,
	},
	{
		Question: "¿Qué es Roleplay?",
		Keywords: []string{"interpretar", "actuar", "personaje", "simulación", "real", "vida", "juego de roles", "rolear"},
		Weight:   20,
	},
}

// SecondaryRubric covers the supplementary questions asked when the
// primary score is too low
var SecondaryRubric = []Rubric{
	{
		Question: "¿Qué es PKT (PK Time)?",
		Keywords: []string{"player kill total", "pkt", "muerte", "personaje", "memoria", "pérdida", "total", "organización", "facción", "vida anterior"},
		Weight:   10,
	},
	{
		Question: "¿Qué significa IC y OOC? Explica la diferencia.",
		Keywords: []string{"in character", "out of character", "ic", "ooc", "personaje", "fuera", "dentro", "rol", "juego"},
		Weight:   10,
	},
	{
		Question: "¿Qué es CarKill y cuándo se puede aplicar?",
		Keywords: []string{"car kill", "ck", "vehículo", "vehiculo", "atropellar", "matar", "carro", "auto", "encima", "vida baja"},
		Weight:   10,
	},
	{
		Question: "¿Qué es VDM (Vehicle Death Match)?",
		Keywords: []string{"vehicle deathmatch", "vdm", "vehículo", "vehiculo", "arma", "intencional", "sin razón", "justificada", "daño"},
		Weight:   10,
	},
	{
		Question: "¿Qué es BD (Bad Driving) y por qué no se debe hacer?",
		Keywords: []string{"bad driving", "bd", "mala conducción", "tránsito", "leyes", "realista", "chocar", "imprudente", "altas velocidades"},
		Weight:   10,
	},
}

// Recommendation labels, as shown to staff
const (
	RecommendationAutoApprove   = "🤖 AutoMod: Aprobación Automática"
	RecommendationApprove       = "✅ Recomendado para aprobación"
	RecommendationManualReview  = "⚠️ Requiere revisión manual"
	RecommendationSupplementary = "🔄 Requiere preguntas adicionales"

	RecommendationCombinedAuto    = "🤖 AutoMod: Aprobación Automática (tras preguntas adicionales)"
	RecommendationCombinedApprove = "✅ Recomendado para aprobación (tras preguntas adicionales)"
	RecommendationCombinedReview  = "⚠️ Requiere revisión manual detallada"
	RecommendationCombinedReject  = "❌ Se recomienda rechazar o más capacitación"
)

// Evaluation is the result of scoring one answer set against one rubric
type Evaluation struct {
	Percentage         float64
	AnswerScores       []int
	Recommendation     string
	AutoApprove        bool
	NeedsSupplementary bool
}

// CombinedEvaluation merges the primary and supplementary passes
type CombinedEvaluation struct {
	Primary        float64
	Secondary      float64
	Combined       float64
	Recommendation string
	AutoApprove    bool
}

// Questions extracts the ordered question strings of a rubric
func Questions(rubric []Rubric) []string {
	questions := make([]string, len(rubric))
	for i := range rubric {
		questions[i] = rubric[i].Question
	}
	return questions
}

// scoreAnswer maps keyword matches to the 0-10 answer score.
// Keywords match as case-insensitive substrings
func scoreAnswer(answer string, keywords []string) int {

	lower := strings.ToLower(answer)
	matches := 0
	for _, keyword := range keywords {
		if strings.Contains(lower, keyword) {
			matches++
		}
	}

	switch {
	case matches >= 2:
		return 10
	case matches == 1:
		return 7
	case utf8.RuneCountInString(answer) >= 10:
		// At least tried to answer
		return 4
	default:
		return 0
	}
}

// Evaluate scores the answers positionally against the rubric.
// Pure function: same input, same output, no side effects
func Evaluate(answers []string, rubric []Rubric) Evaluation {

	scores := make([]int, len(rubric))
	var total float64
	var maxTotal int

	for i, entry := range rubric {
		maxTotal += entry.Weight
		if i >= len(answers) {
			continue
		}
		scores[i] = scoreAnswer(answers[i], entry.Keywords)
		total += float64(scores[i]) / 10 * float64(entry.Weight)
	}

	percentage := total / float64(maxTotal) * 100

	eval := Evaluation{Percentage: percentage, AnswerScores: scores}
	switch {
	case percentage >= 100:
		eval.Recommendation = RecommendationAutoApprove
		eval.AutoApprove = true
	case percentage >= 80:
		eval.Recommendation = RecommendationApprove
	case percentage >= 60:
		eval.Recommendation = RecommendationManualReview
	default:
		eval.Recommendation = RecommendationSupplementary
		eval.NeedsSupplementary = true
	}
	return eval
}

// EvaluateCombined weighs the primary pass at 70% and the supplementary
// pass at 30%. The combined thresholds differ from the primary ones on
// purpose: there is no supplementary tier left to fall into
func EvaluateCombined(primary Evaluation, secondary Evaluation) CombinedEvaluation {

	combined := 0.7*primary.Percentage + 0.3*secondary.Percentage

	eval := CombinedEvaluation{
		Primary:   primary.Percentage,
		Secondary: secondary.Percentage,
		Combined:  combined,
	}
	switch {
	case combined >= 100:
		eval.Recommendation = RecommendationCombinedAuto
		eval.AutoApprove = true
	case combined >= 80:
		eval.Recommendation = RecommendationCombinedApprove
	case combined >= 65:
		eval.Recommendation = RecommendationCombinedReview
	default:
		eval.Recommendation = RecommendationCombinedReject
	}
	return eval
}
