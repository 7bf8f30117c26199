// Package dice parses standard dice notation (3d6+2, 1d20, 2d10-1) and
// rolls it with an injectable random source.
package dice

import (
	"errors"
	"math/rand"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Roll limits. Rolls beyond these are rejected rather than truncated.
const (
	MaxQuantity = 100
	MaxSides    = 1000
	MaxBatch    = 20
)

var (
	ErrInvalidNotation = errors.New("invalid dice notation")
	ErrLimitExceeded   = errors.New("dice roll limits exceeded")
)

var notationRe = regexp.MustCompile(`^(\d+)d(\d+)([+-]\d+)?$`)

// Notation is a parsed dice expression.
type Notation struct {
	Quantity int `json:"quantity"`
	Sides    int `json:"sides"`
	Modifier int `json:"modifier"`
}

// Parse decodes notation like "3d6+2". Whitespace is ignored and the
// expression is case-insensitive.
func Parse(notation string) (Notation, error) {
	cleaned := strings.ToLower(strings.ReplaceAll(notation, " ", ""))
	m := notationRe.FindStringSubmatch(cleaned)
	if m == nil {
		return Notation{}, ErrInvalidNotation
	}
	quantity, _ := strconv.Atoi(m[1])
	sides, _ := strconv.Atoi(m[2])
	modifier := 0
	if m[3] != "" {
		modifier, _ = strconv.Atoi(m[3])
	}
	if quantity <= 0 || sides <= 0 {
		return Notation{}, ErrInvalidNotation
	}
	if quantity > MaxQuantity || sides > MaxSides {
		return Notation{}, ErrLimitExceeded
	}
	return Notation{Quantity: quantity, Sides: sides, Modifier: modifier}, nil
}

// Result is the outcome of one roll.
type Result struct {
	Notation string `json:"notation"`
	Rolls    []int  `json:"rolls"`
	Modifier int    `json:"modifier"`
	Total    int    `json:"total"`
}

// Roller rolls dice. The random source is injected so outcomes are
// reproducible under test; it is guarded because *rand.Rand is not safe
// for concurrent use.
type Roller struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRoller creates a Roller. A nil rng gets a time-seeded source.
func NewRoller(rng *rand.Rand) *Roller {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Roller{rng: rng}
}

// Roll parses and rolls one notation.
func (r *Roller) Roll(notation string) (Result, error) {
	n, err := Parse(notation)
	if err != nil {
		return Result{}, err
	}
	return r.RollParsed(notation, n), nil
}

// RollParsed rolls an already-parsed notation.
func (r *Roller) RollParsed(notation string, n Notation) Result {
	rolls := make([]int, n.Quantity)
	total := n.Modifier
	r.mu.Lock()
	for i := range rolls {
		rolls[i] = r.rng.Intn(n.Sides) + 1
		total += rolls[i]
	}
	r.mu.Unlock()
	return Result{Notation: notation, Rolls: rolls, Modifier: n.Modifier, Total: total}
}

// AttributeModifier converts an attribute score to its test modifier,
// (score-10)/2 rounded down, so 8 gives -1 and 14 gives +2.
func AttributeModifier(score int) int {
	d := score - 10
	if d < 0 {
		return -((-d + 1) / 2)
	}
	return d / 2
}

// TestResult is the outcome of an attribute test: 1d20 + modifier
// against a difficulty. A natural 20 always succeeds and a natural 1
// always fails.
type TestResult struct {
	Roll       int  `json:"roll"`
	Modifier   int  `json:"modifier"`
	Total      int  `json:"total"`
	Difficulty int  `json:"difficulty"`
	Success    bool `json:"success"`
	Critical   bool `json:"critical"`
	Fumble     bool `json:"fumble"`
}

// Test rolls 1d20 + modifier against the difficulty.
func (r *Roller) Test(modifier, difficulty int) TestResult {
	r.mu.Lock()
	roll := r.rng.Intn(20) + 1
	r.mu.Unlock()

	res := TestResult{
		Roll:       roll,
		Modifier:   modifier,
		Total:      roll + modifier,
		Difficulty: difficulty,
		Critical:   roll == 20,
		Fumble:     roll == 1,
	}
	res.Success = res.Critical || (!res.Fumble && res.Total >= difficulty)
	return res
}

// Preset is one ready-made roll.
type Preset struct {
	Name        string `json:"name"`
	Notation    string `json:"notation"`
	Description string `json:"description"`
}

// Presets returns the common roll catalog, grouped by use.
func Presets() map[string][]Preset {
	return map[string][]Preset{
		"common": {
			{Name: "D4", Notation: "1d4", Description: "Dado de 4 lados"},
			{Name: "D6", Notation: "1d6", Description: "Dado comum de 6 lados"},
			{Name: "D8", Notation: "1d8", Description: "Dado de 8 lados"},
			{Name: "D10", Notation: "1d10", Description: "Dado de 10 lados"},
			{Name: "D12", Notation: "1d12", Description: "Dado de 12 lados"},
			{Name: "D20", Notation: "1d20", Description: "Dado de 20 lados (mais comum em RPGs)"},
			{Name: "D100", Notation: "1d100", Description: "Dado percentual"},
		},
		"combat": {
			{Name: "Ataque Básico", Notation: "1d20+5", Description: "Rolagem de ataque com bônus +5"},
			{Name: "Dano de Espada", Notation: "1d8+3", Description: "Dano de espada longa"},
			{Name: "Dano de Arco", Notation: "1d6+2", Description: "Dano de arco curto"},
			{Name: "Dano Crítico", Notation: "2d8+6", Description: "Dano crítico dobrado"},
		},
		"attributes": {
			{Name: "Atributo 3D6", Notation: "3d6", Description: "Geração de atributo padrão"},
			{Name: "Atributo 4D6", Notation: "4d6", Description: "Geração de atributo (descartar menor)"},
			{Name: "Teste de Atributo", Notation: "1d20", Description: "Teste contra atributo"},
		},
		"magic": {
			{Name: "Bola de Fogo", Notation: "8d6", Description: "Dano de bola de fogo"},
			{Name: "Míssil Mágico", Notation: "1d4+1", Description: "Dano de míssil mágico"},
			{Name: "Cura Menor", Notation: "1d8+1", Description: "Cura de poção menor"},
		},
	}
}
