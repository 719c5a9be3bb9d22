package parser

import (
	"fmt"
	"sort"

	"github.com/jonmartinstorm/slsnusern/internal/models"
)

// noEvent markerer en funksjon uten gjenkjennbare events.
const noEvent = "N/A"

// ExtractFunctionEvents flater ut functions-blokken til (funksjon, event)-
// par. Eventlisten kan være en sekvens av énnøkkels-mappinger, en sekvens av
// rene strenger, eller en mapping fra eventtype til konfigurasjon – alle tre
// normaliseres likt. Funksjoner uten events-nøkkel, med null-kropp eller
// strengkropp gir nøyaktig ett par med eventtype "N/A".
func ExtractFunctionEvents(functions map[string]any) []models.FuncEvent {
	var pairs []models.FuncEvent

	for _, name := range sortedKeys(functions) {
		body, ok := functions[name].(map[string]any)
		if !ok {
			pairs = append(pairs, models.FuncEvent{Function: name, Event: noEvent})
			continue
		}

		raw, present := body["events"]
		if !present {
			pairs = append(pairs, models.FuncEvent{Function: name, Event: noEvent})
			continue
		}

		switch events := raw.(type) {
		case []any:
			for _, item := range events {
				switch e := item.(type) {
				case map[string]any:
					for _, eventType := range sortedKeys(e) {
						pairs = append(pairs, models.FuncEvent{Function: name, Event: eventType})
					}
				case string:
					pairs = append(pairs, models.FuncEvent{Function: name, Event: e})
				default:
					pairs = append(pairs, models.FuncEvent{Function: name, Event: fmt.Sprint(e)})
				}
			}
		case map[string]any:
			for _, eventType := range sortedKeys(events) {
				pairs = append(pairs, models.FuncEvent{Function: name, Event: eventType})
			}
		default:
			pairs = append(pairs, models.FuncEvent{Function: name, Event: noEvent})
		}
	}

	return pairs
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
