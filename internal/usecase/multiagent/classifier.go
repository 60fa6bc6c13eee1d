package multiagent

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"unicode"

	"github.com/ruvenwang/mindponics/internal/domain"
)

// discardLogger returns a no-op logger for components created without one.
func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// defaultKeywords maps query words to the specialty that answers them.
var defaultKeywords = map[domain.Specialty][]string{
	domain.SpecialtyWater: {
		"water", "ph", "ammonia", "nitrite", "nitrate", "oxygen",
		"quality", "parameter", "parameters", "alkalinity", "cloudy",
	},
	domain.SpecialtyFish: {
		"fish", "tilapia", "trout", "catfish", "fingerling", "fingerlings",
		"juvenile", "feed", "feeding", "fry", "gills", "fins", "stocking",
	},
	domain.SpecialtyPlant: {
		"plant", "plants", "lettuce", "basil", "tomato", "tomatoes", "crop",
		"leaf", "leaves", "nutrient", "nutrients", "deficiency", "yellowing",
		"seedling", "flowering", "fruiting", "harvest", "phosphorus", "potassium",
	},
	domain.SpecialtyBacteria: {
		"bacteria", "bacterial", "biofilter", "filter", "nitrification",
		"cycle", "cycling", "nitrifying", "media",
	},
	domain.SpecialtyEnvironment: {
		"environment", "climate", "humidity", "humid", "air", "light",
		"lighting", "ventilation", "greenhouse", "heating", "cooling", "room",
	},
}

// KeywordClassifier selects specialties whose keywords occur as words in the
// query. Matching is case-insensitive and results follow canonical order.
type KeywordClassifier struct {
	index map[string][]domain.Specialty
}

// NewKeywordClassifier builds a classifier over the built-in keyword table.
func NewKeywordClassifier() *KeywordClassifier {
	return NewKeywordClassifierWith(defaultKeywords)
}

// NewKeywordClassifierWith builds a classifier over a custom keyword table.
func NewKeywordClassifierWith(keywords map[domain.Specialty][]string) *KeywordClassifier {
	index := make(map[string][]domain.Specialty)
	for sp, words := range keywords {
		for _, w := range words {
			w = strings.ToLower(w)
			index[w] = append(index[w], sp)
		}
	}
	return &KeywordClassifier{index: index}
}

// Classify implements domain.Classifier. No match yields an empty result.
func (k *KeywordClassifier) Classify(_ context.Context, query string) ([]domain.Specialty, error) {
	hits := make(map[domain.Specialty]bool)
	words := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		for _, sp := range k.index[w] {
			hits[sp] = true
		}
	}
	return canonical(hits), nil
}

// PrefixClassifier routes queries that start with one or more @name tokens,
// such as "@fish @plant how are things?". Names are specialty names, agent
// persona names, or "all". Queries without a known prefix go to next.
type PrefixClassifier struct {
	next    domain.Classifier
	aliases map[string][]domain.Specialty
	logger  *slog.Logger
}

// NewPrefixClassifier creates a prefix classifier falling through to next.
// A nil logger discards output.
func NewPrefixClassifier(next domain.Classifier, logger *slog.Logger) *PrefixClassifier {
	if logger == nil {
		logger = discardLogger()
	}
	aliases := map[string][]domain.Specialty{"all": domain.AllSpecialties}
	aliases[strings.ToLower(OrchestratorName)] = domain.AllSpecialties
	for _, sp := range domain.AllSpecialties {
		aliases[string(sp)] = []domain.Specialty{sp}
		aliases[strings.ToLower(AgentName(sp))] = []domain.Specialty{sp}
	}
	return &PrefixClassifier{next: next, aliases: aliases, logger: logger}
}

// Classify implements domain.Classifier.
func (p *PrefixClassifier) Classify(ctx context.Context, query string) ([]domain.Specialty, error) {
	hits := make(map[domain.Specialty]bool)
	rest := strings.TrimSpace(query)
	for strings.HasPrefix(rest, "@") {
		name, tail, _ := strings.Cut(rest[1:], " ")
		sps, ok := p.aliases[strings.ToLower(strings.TrimRight(name, ",:"))]
		if !ok {
			p.logger.Debug("unknown prefix", "prefix", name)
			break
		}
		for _, sp := range sps {
			hits[sp] = true
		}
		rest = strings.TrimSpace(tail)
	}

	if len(hits) > 0 {
		out := canonical(hits)
		p.logger.Debug("prefix matched", "specialties", out)
		return out, nil
	}
	if p.next == nil {
		return nil, nil
	}
	return p.next.Classify(ctx, query)
}

// StripPrefix removes leading @name tokens from a query.
func StripPrefix(query string) string {
	rest := strings.TrimSpace(query)
	for strings.HasPrefix(rest, "@") {
		_, tail, _ := strings.Cut(rest, " ")
		rest = strings.TrimSpace(tail)
	}
	return rest
}

func canonical(set map[domain.Specialty]bool) []domain.Specialty {
	out := make([]domain.Specialty, 0, len(set))
	for _, sp := range domain.AllSpecialties {
		if set[sp] {
			out = append(out, sp)
		}
	}
	return out
}
