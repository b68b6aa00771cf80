package profanity

import (
	"embed"
	"encoding/json"
	"log"
	"regexp"
	"strings"
	"sync"
)

var (
	// Global instance for reuse (thread-safe)
	defaultFilter *Filter
	once          sync.Once
)

//go:embed words.json
var jsonData embed.FS

func loadBannedWords() []string {
	data, err := jsonData.ReadFile("words.json")
	if err != nil {
		log.Fatalf("Failed to read embedded file: %s", err)
	}

	var bannedWords []string
	if err := json.Unmarshal(data, &bannedWords); err != nil {
		log.Fatalf("Failed to unmarshal JSON: %s", err)
	}
	return bannedWords
}

// Filter screens message content before it is persisted and broadcast.
// Matching is resistant to common leetspeak and separator obfuscation.
type Filter struct {
	regex *regexp.Regexp
}

func NewFilter() *Filter {
	once.Do(func() {
		defaultFilter = &Filter{
			regex: buildMasterRegex(loadBannedWords()),
		}
	})

	return defaultFilter
}

func (f *Filter) ContainsProfanity(text string) bool {
	if text == "" {
		return false
	}
	return f.regex.MatchString(normalizeText(text))
}

func normalizeText(text string) string {
	s := strings.ToLower(text)
	s = strings.Map(func(r rune) rune {
		switch r {
		case 'á', 'à', 'â', 'ä', 'ã', 'å':
			return 'a'
		case 'é', 'è', 'ê', 'ë':
			return 'e'
		case 'í', 'ì', 'î', 'ï':
			return 'i'
		case 'ó', 'ò', 'ô', 'ö', 'õ':
			return 'o'
		case 'ú', 'ù', 'û', 'ü':
			return 'u'
		case 'ñ':
			return 'n'
		case 'ç':
			return 'c'
		default:
			return r
		}
	}, s)

	// Replace common leetspeak in one pass
	s = strings.NewReplacer(
		"@", "a", "4", "a",
		"3", "e", "€", "e",
		"1", "i", "!", "i", "|", "i",
		"0", "o",
		"$", "s", "5", "s",
		"7", "t", "+", "t",
	).Replace(s)

	// Collapse whitespace and common separators
	s = separatorRe.ReplaceAllString(s, " ")

	return s
}

var separatorRe = regexp.MustCompile(`[\s_.\-*/\\|]+`)

func buildMasterRegex(words []string) *regexp.Regexp {
	patterns := make([]string, 0, len(words))

	for _, base := range words {
		escaped := regexp.QuoteMeta(strings.ToLower(base))
		// Allow separators between letters: f.u.c.k matches after normalization
		var sb strings.Builder
		for i, r := range escaped {
			if i > 0 {
				sb.WriteString(`[^\p{L}]*`)
			}
			sb.WriteRune(r)
		}
		patterns = append(patterns, sb.String())
	}

	expression := `(?:^|\W)(` + strings.Join(patterns, "|") + `)(?:$|\W)`
	return regexp.MustCompile(expression)
}
