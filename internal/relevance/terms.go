package relevance

// relevantTerms is the UX/design vocabulary; each term contained in a title
// adds one point.
var relevantTerms = []string{
	"jornada do usuário", "prototipagem", "testes de usabilidade", "persona",
	"wireframe", "arquitetura da informação", "acessibilidade", "interface intuitiva",
	"métricas de ux", "análise heurística", "design centrado no usuário",
	"storytelling", "experiência emocional", "interação humano-computador",
	"feedback do usuário", "pesquisa qualitativa", "pesquisa quantitativa",
	"comportamento do consumidor", "design thinking", "microinterações",
	"psicologia cognitiva", "empatia", "navegação", "experiência multicanal",
	"experiência mobile", "experiência", "usuário",
	"usabilidade", "interação", "sistema", "digital", "informação",
	"tecnologia", "ux design", "design ops", "ux", "ergodesign",
	"design participativo", "product", "neurodesign", "user experience",
	"user", "experience", "comportamento", "web",
}

// bonus awards extra points when any of its phrases is present.
type bonus struct {
	phrases []string
	points  int
}

var bonuses = []bonus{
	{[]string{"ux design"}, 3},
	{[]string{"design thinking"}, 3},
	{[]string{"user experience"}, 3},
	{[]string{"jornada do usuário"}, 3},
	{[]string{"testes de usabilidade"}, 3},
	{[]string{"arquitetura da informação"}, 3},
	{[]string{"análise heurística"}, 3},
	{[]string{"design centrado no usuário"}, 3},
	{[]string{"interação humano-computador"}, 3},
	{[]string{"pesquisa qualitativa", "pesquisa quantitativa"}, 2},
	{[]string{"microinterações"}, 2},
	{[]string{"neurodesign"}, 2},
}

// exclusionTerms mark placeholder, test and draft content.
var exclusionTerms = []string{
	"spam", "teste automático", "teste automatico", "lorem ipsum",
	"placeholder", "exemplo", "sample", "demo", "versão beta",
	"versao beta", "rascunho", "borrador", "temporário",
}

// portugueseWordGroups feed the deterministic language fallback: function
// words, common verbs, articles, interrogatives, adverbs and domain words.
var portugueseWordGroups = [][]string{
	{"do", "da", "de", "em", "para", "por", "com", "sem", "sob", "sobre", "entre", "contra", "desde", "até"},
	{"é", "está", "estão", "ser", "estar", "ter", "haver", "fazer", "dizer", "ver", "ir", "vir", "dar", "saber", "poder", "querer"},
	{"um", "uma", "uns", "umas", "o", "a", "os", "as", "este", "esta", "estes", "estas", "esse", "essa", "esses", "essas"},
	{"que", "qual", "quais", "quem", "onde", "quando", "como", "porque", "porquê"},
	{"não", "sim", "também", "tambem", "ainda", "já", "sempre", "nunca", "agora", "hoje", "amanhã"},
	{"design", "usabilidade", "interface", "experiência", "experiencia", "usuario", "usuário"},
	{"tecnologia", "digital", "informação", "informacao", "visual", "gráfico", "grafico"},
}

// portugueseThreshold is the minimum number of fallback hits for a title to
// count as Portuguese.
const portugueseThreshold = 2
