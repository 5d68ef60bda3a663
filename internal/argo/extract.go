package argo

import (
	"strconv"
	"strings"
)

// The portal returns the same entity under several field-name variants
// depending on endpoint generation (desMateria vs materia, datGiorno vs
// data, ...). These helpers read loosely-typed payloads without caring
// which variant showed up.

func asMap(v interface{}) map[string]interface{} {
	m, _ := v.(map[string]interface{})
	return m
}

func asSlice(v interface{}) []interface{} {
	s, _ := v.([]interface{})
	return s
}

// str returns the first non-empty string among the named keys.
func str(m map[string]interface{}, keys ...string) string {
	if m == nil {
		return ""
	}
	for _, key := range keys {
		if value, ok := m[key].(string); ok {
			if trimmed := strings.TrimSpace(value); trimmed != "" {
				return trimmed
			}
		}
	}
	return ""
}

// scalar is str extended to numeric values: some endpoints return marks
// and dates as JSON numbers.
func scalar(m map[string]interface{}, keys ...string) string {
	if m == nil {
		return ""
	}
	for _, key := range keys {
		switch value := m[key].(type) {
		case string:
			if trimmed := strings.TrimSpace(value); trimmed != "" {
				return trimmed
			}
		case float64:
			return strconv.FormatFloat(value, 'f', -1, 64)
		}
	}
	return ""
}

// dig walks nested maps along the given path.
func dig(m map[string]interface{}, path ...string) interface{} {
	var current interface{} = m
	for _, key := range path {
		node := asMap(current)
		if node == nil {
			return nil
		}
		current = node[key]
	}
	return current
}

// studentName assembles a display name from whichever variant the payload
// carries: a full nominativo, or separate first/last name fields.
func studentName(alunno map[string]interface{}) string {
	if name := str(alunno, "desNominativo", "nominativo"); name != "" {
		return name
	}
	first := str(alunno, "desNome", "nome")
	last := str(alunno, "desCognome", "cognome")
	full := strings.TrimSpace(first + " " + last)
	return full
}

func studentClass(m map[string]interface{}) string {
	return str(m, "desClasse", "classe", "desDenominazioneClasse", "desSezione")
}
