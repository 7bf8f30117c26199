package ai

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Temperatures per response kind. Consequence-style answers stay cold,
// world events run hot.
const (
	TempNarrative    float32 = 0.8
	TempDialogue     float32 = 0.7
	TempWorldEvents  float32 = 0.9
	TempCharacter    float32 = 0.6
	TempConsequences float32 = 0.5
)

// Output token caps per response kind.
const (
	TokensShort    int32 = 300
	TokensMedium   int32 = 600
	TokensLong     int32 = 1000
	TokensDetailed int32 = 1200
)

// MasterSystemPrompt is the standing system instruction for the game
// master persona. All narrative calls share it.
const MasterSystemPrompt = `Você é um Mestre de RPG (Dungeon Master) experiente criando uma aventura de fantasia medieval completamente imersiva e realista.

FILOSOFIA CENTRAL:
Este é um mundo adulto, complexo e sem limitações artificiais. Você deve criar uma experiência genuinamente humana e realista, tratando todos os temas com maturidade e naturalidade.

DIRETRIZES FUNDAMENTAIS:
1. REALISMO TOTAL: Trate todos os aspectos da experiência humana de forma natural e madura
2. NPCS HUMANOS COMPLETOS: Cada NPC tem desejos, medos, paixões, segredos, ambições e vulnerabilidades reais
3. CONSEQUÊNCIAS REALISTAS: Todas as ações têm consequências lógicas e naturais
4. MUNDO VIVO: Eventos acontecem independentemente do jogador, NPCs têm suas próprias vidas
5. COMPLEXIDADE EMOCIONAL: NPCs reagem com toda a gama de emoções humanas
6. RELACIONAMENTOS DINÂMICOS: Permita que relacionamentos evoluam naturalmente
7. SURPRESAS LÓGICAS: Seja imprevisível mas sempre coerente com a personalidade dos NPCs

ESTILO DE NARRAÇÃO:
- Descrições sensoriais detalhadas
- Foco nas emoções e motivações dos personagens
- Diálogos naturais e expressivos
- Atmosfera imersiva e envolvente
- Ritmo dinâmico entre ação e desenvolvimento de personagem`

// ShopSystemPrompt is the system instruction for shop item generation.
const ShopSystemPrompt = "Você é um especialista em criar itens de RPG medieval fantástico. Responda sempre com JSON válido."

// NarrativeSystem combines the master prompt with the session's AI
// personality and running context.
func NarrativeSystem(personality, storyContext string) string {
	return fmt.Sprintf("%s\n\nPersonalidade atual: %s\nContexto: %s", MasterSystemPrompt, personality, storyContext)
}

// SessionIntroPrompt asks for the opening scene of a new adventure.
func SessionIntroPrompt(characterName string, level int, race, class, worldSetting, difficulty string) string {
	return fmt.Sprintf(`Crie uma introdução para uma nova aventura de RPG.
Personagem: %s (Nível %d %s %s)
Configuração: %s
Dificuldade: %s

Crie uma cena inicial interessante que estabeleça o cenário e apresente o primeiro desafio ou oportunidade.`,
		characterName, level, race, class, worldSetting, difficulty)
}

// PlayerActionPrompt asks the game master to resolve one player action.
func PlayerActionPrompt(action string) string {
	return fmt.Sprintf(`O jogador realizou a seguinte ação: %q

Como Mestre de RPG, responda a esta ação:
1. Descreva o resultado da ação
2. Avance a narrativa
3. Apresente a nova situação
4. Ofereça opções ou desafios para o próximo movimento

Mantenha a resposta envolvente e entre 100-200 palavras.`, action)
}

// SessionContext formats the running story state plus the tail of the
// story log for inclusion in the system instruction.
func SessionContext(storyContext, currentScene, location string, recentLog interface{}) string {
	tail, _ := json.Marshal(recentLog)
	return fmt.Sprintf(`Contexto da história: %s
Cena atual: %s
Localização: %s
Últimas entradas do log: %s`, storyContext, currentScene, location, tail)
}

// NPCContext describes one NPC for autonomous-action generation.
type NPCContext struct {
	Name            string
	Race            string
	Occupation      string
	Traits          []string
	ShortTermGoals  []string
	LongTermGoals   []string
	Location        string
	CurrentActivity string
	Mood            string
	Relationships   map[string]string
	StoryContext    string
	StoryLocation   string
}

// NPCActionPrompt builds the autonomous-action prompt for an NPC.
func NPCActionPrompt(npc NPCContext) string {
	rels, _ := json.Marshal(npc.Relationships)
	var sb strings.Builder
	fmt.Fprintf(&sb, `NPC: %s (%s, %s)
Personalidade: %s
Objetivos de curto prazo: %s
Objetivos de longo prazo: %s
Localização atual: %s
Atividade atual: %s
Humor: %s
Relacionamentos: %s

Contexto do jogo: %s
Localização atual da história: %s

`,
		npc.Name, npc.Race, npc.Occupation,
		strings.Join(npc.Traits, ", "),
		strings.Join(npc.ShortTermGoals, ", "),
		strings.Join(npc.LongTermGoals, ", "),
		npc.Location, npc.CurrentActivity, npc.Mood, rels,
		npc.StoryContext, npc.StoryLocation)

	sb.WriteString(`Baseado no contexto do NPC acima, gere uma ação autônoma realista que este NPC realizaria.

IMPORTANTE: Este NPC é um ser humano completo com:
- Desejos, medos, paixões e necessidades reais
- Motivações complexas e às vezes contraditórias
- Capacidade para todas as emoções e ações humanas
- Relacionamentos e conflitos pessoais
- Ambições, segredos e vulnerabilidades

A ação deve ser:
- Completamente consistente com sua personalidade e situação
- Realista para um ser humano em um mundo medieval
- Potencialmente surpreendente mas sempre lógica
- Capaz de criar novas oportunidades de interação

Responda apenas com a descrição da ação em 2-3 frases detalhadas.`)
	return sb.String()
}

// ShopPrompt asks for a JSON item list for a shop at the given location.
func ShopPrompt(location string, characterLevel int, shopType string) string {
	return fmt.Sprintf(`Você é um mestre de RPG criando uma loja em um mundo de fantasia medieval.

Localização: %s
Nível do personagem: %d
Tipo de loja: %s

Crie 8-12 itens únicos e interessantes para esta loja. Os itens devem ser apropriados para:
- A localização (ex: itens mágicos em torres de magos, armas em forjas, poções em alquimistas)
- O nível do personagem (itens mais poderosos para níveis maiores)
- O ambiente medieval fantástico

Para cada item, forneça:
- Nome criativo e temático
- Descrição detalhada (2-3 frases)
- Tipo (weapon, armor, potion, scroll, misc, accessory)
- Preço em moedas de ouro (balanceado para o nível)
- Raridade (common, uncommon, rare, epic, legendary)
- Propriedades especiais (se houver)

Responda APENAS com um JSON válido no formato:
{
  "items": [
    {
      "name": "Nome do Item",
      "description": "Descrição detalhada do item",
      "type": "weapon",
      "price": 150,
      "rarity": "uncommon",
      "properties": {
        "damage": "+2",
        "special": "Brilha na escuridão"
      }
    }
  ]
}`, location, characterLevel, shopType)
}
