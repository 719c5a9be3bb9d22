package parser

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jonmartinstorm/slsnusern/internal/models"
)

// Serverless-dialekten tillater CloudFormation-intrinsics som egne tags.
// Vi godtar dem strukturelt uten å evaluere: skalar gir skalaren, sekvens
// gir sekvensen, mapping gir mappingen. Ukjente !-tags behandles likt.
var intrinsicTags = map[string]bool{
	"!Ref":         true,
	"!GetAtt":      true,
	"!Sub":         true,
	"!Join":        true,
	"!ImportValue": true,
	"!Select":      true,
	"!Split":       true,
	"!GetAZs":      true,
	"!Base64":      true,
	"!Cidr":        true,
	"!FindInMap":   true,
	"!Transform":   true,
	"!And":         true,
	"!Or":          true,
	"!Not":         true,
	"!Equals":      true,
	"!If":          true,
	"!Condition":   true,
}

var knownProviders = map[string]bool{
	"aws":        true,
	"azure":      true,
	"google":     true,
	"gcp":        true,
	"aliyun":     true,
	"tencent":    true,
	"ibm":        true,
	"openwhisk":  true,
	"knative":    true,
	"cloudflare": true,
	"fn":         true,
	"kubeless":   true,
	"spotinst":   true,
	"other":      true,
}

const tabWidth = 2

// ExpandTabs bytter tabulatorer med mellomrom. YAML-grammatikken forbyr
// tabs i innrykk, men mange av konfigfilene i datasettet har dem likevel.
func ExpandTabs(text string) string {
	return strings.ReplaceAll(text, "\t", strings.Repeat(" ", tabWidth))
}

// Parse tolker en serverless.yml og normaliserer den. nil betyr hard
// parsefeil; feilen er logget og skal ikke stoppe resten av repoet.
func Parse(raw string) *models.ParsedConfig {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(ExpandTabs(raw)), &doc); err != nil {
		slog.Warn("Klarte ikke parse serverless-config", "error", err)
		return nil
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		slog.Warn("Serverless-config er tom")
		return nil
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		// En ren intrinsic på rotnivå gir en degenerert post med samme
		// form, som er mer nyttig nedstrøms enn et hardt avslag.
		if root.Kind == yaml.ScalarNode && (isIntrinsicTag(root.Tag) || strings.HasPrefix(root.Value, "!")) {
			return &models.ParsedConfig{
				Plugins:      []string{},
				Runtimes:     []*string{nil},
				Events:       map[string]any{},
				ProviderName: "unknown",
				ParseError:   "YAML-roten er en intrinsic-funksjon",
			}
		}
		slog.Warn("Serverless-config har ikke mapping på rotnivå")
		return nil
	}

	cfg, ok := decode(root).(map[string]any)
	if !ok {
		return nil
	}
	return normalize(cfg)
}

func isIntrinsicTag(tag string) bool {
	if intrinsicTags[tag] {
		return true
	}
	return strings.HasPrefix(tag, "!") && !strings.HasPrefix(tag, "!!")
}

// decode er den felles treveisen for YAML-noder: skalar, sekvens eller
// mapping. Intrinsic-tags faller igjennom til verdien under taggen.
func decode(n *yaml.Node) any {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil
		}
		return decode(n.Content[0])
	case yaml.ScalarNode:
		return scalarValue(n)
	case yaml.SequenceNode:
		out := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			out = append(out, decode(c))
		}
		return out
	case yaml.MappingNode:
		out := make(map[string]any, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			key := fmt.Sprint(scalarValue(n.Content[i]))
			out[key] = decode(n.Content[i+1])
		}
		return out
	case yaml.AliasNode:
		if n.Alias != nil {
			return decode(n.Alias)
		}
		return nil
	default:
		return nil
	}
}

func scalarValue(n *yaml.Node) any {
	switch n.Tag {
	case "!!str":
		return n.Value
	case "!!int":
		if i, err := strconv.ParseInt(n.Value, 10, 64); err == nil {
			return i
		}
		return n.Value
	case "!!float":
		if f, err := strconv.ParseFloat(n.Value, 64); err == nil {
			return f
		}
		return n.Value
	case "!!bool":
		if b, err := strconv.ParseBool(n.Value); err == nil {
			return b
		}
		return n.Value
	case "!!null":
		return nil
	default:
		// Intrinsic- og andre ukjente tags: behold den rå skalaren.
		return n.Value
	}
}

func normalize(cfg map[string]any) *models.ParsedConfig {
	providerName := "unknown"
	var runtime *string

	switch p := cfg["provider"].(type) {
	case map[string]any:
		if name, ok := p["name"].(string); ok && name != "" {
			providerName = name
		}
		if rt, ok := p["runtime"].(string); ok {
			runtime = &rt
		}
	case nil:
		// provider mangler helt – behold "unknown" uten støy
	case string:
		if knownProviders[strings.ToLower(p)] {
			providerName = strings.ToLower(p)
			slog.Debug("Utledet provider-navn fra streng", "provider", providerName)
		} else {
			slog.Warn("Provider er en ukjent streng", "verdi", truncate(p, 100))
		}
	default:
		slog.Warn("Provider-konfigurasjonen er hverken mapping eller kjent streng", "type", fmt.Sprintf("%T", p))
	}

	plugins := []string{}
	switch v := cfg["plugins"].(type) {
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				plugins = append(plugins, s)
			} else {
				plugins = append(plugins, fmt.Sprint(item))
			}
		}
	case nil:
	default:
		// Bevisst: en rå skalar gir tom liste, ikke én-elements liste.
		// Datasettet er bygget slik, se DESIGN.md.
		slog.Warn("Tolker 'plugins' som tom liste", "type", fmt.Sprintf("%T", v))
	}

	events := map[string]any{}
	if fns, ok := cfg["functions"].(map[string]any); ok {
		events = fns
	}

	return &models.ParsedConfig{
		Plugins:      plugins,
		Runtimes:     []*string{runtime},
		Events:       events,
		ProviderName: providerName,
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
