// Package rules holds the static reference catalogs used for character
// creation and NPC evolution: races, classes, advantages, disadvantages,
// NPC skills and moods. The catalogs are immutable; there is no runtime
// mutation path.
package rules

// Attribute names, as used in bonus maps and point distributions.
const (
	Strength     = "strength"
	Dexterity    = "dexterity"
	Constitution = "constitution"
	Intelligence = "intelligence"
	Wisdom       = "wisdom"
	Charisma     = "charisma"
)

// AttributeNames lists the six primary attributes.
var AttributeNames = []string{Strength, Dexterity, Constitution, Intelligence, Wisdom, Charisma}

// IsAttribute reports whether name is one of the six primary attributes.
func IsAttribute(name string) bool {
	for _, a := range AttributeNames {
		if a == name {
			return true
		}
	}
	return false
}

// RacialTrait is an advantage or disadvantage inherent to a race.
type RacialTrait struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Cost        int    `json:"cost,omitempty"`   // advantages
	Points      int    `json:"points,omitempty"` // disadvantages
}

// RaceDef describes one playable race.
type RaceDef struct {
	Name          string         `json:"name"`
	Bonuses       map[string]int `json:"bonuses"`
	Penalties     map[string]int `json:"penalties,omitempty"`
	Description   string         `json:"description"`
	Advantages    []RacialTrait  `json:"racial_advantages"`
	Disadvantages []RacialTrait  `json:"racial_disadvantages"`
}

// ClassDef describes one character class.
type ClassDef struct {
	Name              string   `json:"name"`
	PrimaryAttributes []string `json:"primary_attributes"`
	HPBonus           int      `json:"hp_bonus"`
	MPBonus           int      `json:"mp_bonus"`
	Description       string   `json:"description"`
}

// Trait is a purchasable advantage (cost in points) or a disadvantage
// (points granted).
type Trait struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Cost        int    `json:"cost,omitempty"`
	Points      int    `json:"points,omitempty"`
	Description string `json:"description"`
}

// Race returns the race definition for the given key.
func Race(id string) (RaceDef, bool) {
	r, ok := races[id]
	return r, ok
}

// Class returns the class definition for the given key.
func Class(id string) (ClassDef, bool) {
	c, ok := classes[id]
	return c, ok
}

// Races returns the full race catalog.
func Races() map[string]RaceDef { return races }

// Classes returns the full class catalog.
func Classes() map[string]ClassDef { return classes }

// Advantages returns the purchasable advantage catalog.
func Advantages() []Trait { return advantages }

// Disadvantages returns the disadvantage catalog.
func Disadvantages() []Trait { return disadvantages }

// NPCSkills returns the skills an NPC can learn through evolution.
func NPCSkills() []string { return npcSkills }

// NPCMoods returns the moods an NPC can shift into.
func NPCMoods() []string { return npcMoods }

var races = map[string]RaceDef{
	"human": {
		Name:        "Humano",
		Bonuses:     map[string]int{Strength: 1, Dexterity: 1, Constitution: 1, Intelligence: 1, Wisdom: 1, Charisma: 1},
		Description: "Versáteis e adaptáveis, os humanos são a raça mais comum.",
		Advantages: []RacialTrait{
			{Name: "Versatilidade Humana", Description: "Pode escolher uma habilidade extra de qualquer classe"},
			{Name: "Determinação", Description: "+2 em testes de resistência mental"},
		},
		Disadvantages: []RacialTrait{
			{Name: "Vida Curta", Description: "Envelhece mais rapidamente que outras raças", Points: 1},
		},
	},
	"elf": {
		Name:        "Elfo",
		Bonuses:     map[string]int{Dexterity: 2, Intelligence: 1, Wisdom: 1},
		Description: "Ágeis e sábios, os elfos possuem longa vida e afinidade com magia.",
		Advantages: []RacialTrait{
			{Name: "Visão Élfica", Description: "Enxerga perfeitamente no escuro até 30 metros"},
			{Name: "Resistência à Magia", Description: "+3 em testes contra magias de encantamento"},
			{Name: "Afinidade Arcana", Description: "+2 em todos os testes relacionados à magia"},
		},
		Disadvantages: []RacialTrait{
			{Name: "Arrogância Élfica", Description: "Dificuldade em aceitar conselhos de outras raças", Points: 2},
			{Name: "Sensibilidade ao Ferro", Description: "-1 em testes quando em contato direto com ferro", Points: 1},
		},
	},
	"dwarf": {
		Name:        "Anão",
		Bonuses:     map[string]int{Strength: 2, Constitution: 2},
		Description: "Resistentes e fortes, os anões são mestres em artesanato e combate.",
		Advantages: []RacialTrait{
			{Name: "Resistência Anã", Description: "Resistência a venenos e doenças (+4 em testes)"},
			{Name: "Visão no Escuro", Description: "Enxerga no escuro até 20 metros"},
			{Name: "Maestria em Forja", Description: "+3 em testes de artesanato com metal e pedra"},
		},
		Disadvantages: []RacialTrait{
			{Name: "Baixa Estatura", Description: "Velocidade reduzida e dificuldade para alcançar objetos altos", Points: 2},
			{Name: "Teimosia", Description: "Dificuldade em mudar de opinião ou aceitar novas ideias", Points: 1},
		},
	},
	"halfling": {
		Name:        "Halfling",
		Bonuses:     map[string]int{Dexterity: 2, Charisma: 1},
		Description: "Pequenos mas corajosos, os halflings são conhecidos por sua sorte.",
		Advantages: []RacialTrait{
			{Name: "Sorte Halfling", Description: "Pode rolar novamente qualquer 1 natural uma vez por teste"},
			{Name: "Pés Peludos", Description: "+3 em testes de movimento silencioso"},
			{Name: "Coragem Natural", Description: "+2 em testes contra medo"},
		},
		Disadvantages: []RacialTrait{
			{Name: "Tamanho Pequeno", Description: "-2 em testes de força e alcance limitado", Points: 2},
			{Name: "Curiosidade Excessiva", Description: "Dificuldade em resistir a explorar lugares perigosos", Points: 1},
		},
	},
	"gnome": {
		Name:        "Gnomo",
		Bonuses:     map[string]int{Intelligence: 2, Dexterity: 1},
		Description: "Pequenos inventores curiosos com talento natural para ilusões.",
		Advantages: []RacialTrait{
			{Name: "Engenhosidade Gnômica", Description: "+3 em testes de engenhocas e mecanismos"},
			{Name: "Ilusionista Nato", Description: "Pode criar ilusões menores uma vez por dia"},
		},
		Disadvantages: []RacialTrait{
			{Name: "Tamanho Pequeno", Description: "-2 em testes de força e alcance limitado", Points: 2},
			{Name: "Distração Crônica", Description: "Dificuldade em manter o foco em tarefas longas", Points: 1},
		},
	},
	"orc": {
		Name:        "Orc",
		Bonuses:     map[string]int{Strength: 3, Constitution: 1},
		Penalties:   map[string]int{Intelligence: -1, Charisma: -1},
		Description: "Poderosos e selvagens, os orcs são guerreiros natos.",
		Advantages: []RacialTrait{
			{Name: "Fúria Orca", Description: "+2 em ataques quando ferido (abaixo de 50% da vida)"},
			{Name: "Resistência à Dor", Description: "Ignora penalidades de ferimentos leves"},
			{Name: "Visão Noturna", Description: "Enxerga no escuro até 15 metros"},
		},
		Disadvantages: []RacialTrait{
			{Name: "Temperamento Explosivo", Description: "Dificuldade em controlar a raiva em situações tensas", Points: 2},
			{Name: "Preconceito Social", Description: "-2 em testes sociais com raças civilizadas", Points: 2},
			{Name: "Sensibilidade à Luz", Description: "-1 em testes sob luz solar intensa", Points: 1},
		},
	},
	"dragonborn": {
		Name:        "Draconato",
		Bonuses:     map[string]int{Strength: 2, Charisma: 1, Constitution: 1},
		Description: "Descendentes de dragões, orgulhosos e poderosos.",
		Advantages: []RacialTrait{
			{Name: "Sopro Dracônico", Description: "Pode usar sopro de fogo uma vez por combate (dano baseado no nível)"},
			{Name: "Escamas Dracônicas", Description: "+1 de armadura natural"},
			{Name: "Resistência ao Fogo", Description: "Metade do dano de ataques de fogo"},
		},
		Disadvantages: []RacialTrait{
			{Name: "Orgulho Dracônico", Description: "Dificuldade em recuar ou admitir derrota", Points: 2},
			{Name: "Aparência Intimidadora", Description: "-2 em testes sociais iniciais com desconhecidos", Points: 1},
		},
	},
	"tiefling": {
		Name:        "Tiefling",
		Bonuses:     map[string]int{Charisma: 2, Intelligence: 1},
		Description: "Com sangue infernal, são temidos mas poderosos.",
		Advantages: []RacialTrait{
			{Name: "Herança Infernal", Description: "Pode usar magias menores de fogo e escuridão"},
			{Name: "Resistência ao Fogo", Description: "Metade do dano de ataques de fogo"},
			{Name: "Visão no Escuro", Description: "Enxerga no escuro até 25 metros"},
		},
		Disadvantages: []RacialTrait{
			{Name: "Marca Infernal", Description: "Aparência demoníaca causa medo e preconceito", Points: 3},
			{Name: "Tentações Sombrias", Description: "Vulnerável a influências malignas", Points: 2},
		},
	},
}

var classes = map[string]ClassDef{
	"warrior": {
		Name:              "Guerreiro",
		PrimaryAttributes: []string{Strength, Constitution},
		HPBonus:           10,
		MPBonus:           0,
		Description:       "Especialista em combate corpo a corpo e uso de armas.",
	},
	"mage": {
		Name:              "Mago",
		PrimaryAttributes: []string{Intelligence, Wisdom},
		HPBonus:           0,
		MPBonus:           15,
		Description:       "Mestre das artes arcanas e magias poderosas.",
	},
	"rogue": {
		Name:              "Ladino",
		PrimaryAttributes: []string{Dexterity, Charisma},
		HPBonus:           5,
		MPBonus:           5,
		Description:       "Especialista em furtividade, agilidade e habilidades sociais.",
	},
	"cleric": {
		Name:              "Clérigo",
		PrimaryAttributes: []string{Wisdom, Charisma},
		HPBonus:           7,
		MPBonus:           10,
		Description:       "Servo divino com poderes de cura e proteção.",
	},
	"ranger": {
		Name:              "Patrulheiro",
		PrimaryAttributes: []string{Dexterity, Wisdom},
		HPBonus:           8,
		MPBonus:           3,
		Description:       "Explorador da natureza com habilidades de rastreamento e tiro.",
	},
}

var advantages = []Trait{
	{ID: "night_vision", Name: "Visão Noturna", Cost: 2, Description: "Pode ver no escuro como se fosse dia."},
	{ID: "lucky", Name: "Sortudo", Cost: 3, Description: "Pode rolar novamente um dado por sessão."},
	{ID: "strong_will", Name: "Força de Vontade", Cost: 2, Description: "+2 em resistência mental."},
	{ID: "fast_learner", Name: "Aprendizado Rápido", Cost: 3, Description: "Ganha experiência 25% mais rápido."},
	{ID: "charismatic", Name: "Carismático", Cost: 2, Description: "+2 em todas as interações sociais."},
	{ID: "tough", Name: "Resistente", Cost: 2, Description: "+5 pontos de vida adicionais."},
	{ID: "magical_affinity", Name: "Afinidade Mágica", Cost: 3, Description: "+3 pontos de mana adicionais."},
}

var disadvantages = []Trait{
	{ID: "fear_heights", Name: "Medo de Altura", Points: 1, Description: "Penalidade em situações de altura."},
	{ID: "bad_luck", Name: "Azar", Points: 2, Description: "Falhas críticas são mais prováveis."},
	{ID: "weak_constitution", Name: "Constituição Fraca", Points: 2, Description: "-3 pontos de vida."},
	{ID: "antisocial", Name: "Antissocial", Points: 1, Description: "Penalidade em interações sociais."},
	{ID: "slow_learner", Name: "Aprendizado Lento", Points: 2, Description: "Ganha experiência 25% mais devagar."},
	{ID: "magic_resistance", Name: "Resistência à Magia", Points: 1, Description: "Dificuldade para usar e ser afetado por magia."},
	{ID: "phobia", Name: "Fobia", Points: 1, Description: "Medo extremo de algo específico."},
}

var npcSkills = []string{"Observação", "Persuasão", "Furtividade", "Combate", "Magia", "Artesanato"}

var npcMoods = []string{"feliz", "neutro", "triste", "irritado", "animado", "pensativo"}
