package onnx

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"anymouse-hq/anymouse/pkg/recognizer"
)

// DefaultLabelMap maps common CoNLL/OntoNotes model labels to engine types.
var DefaultLabelMap = map[string]string{
	"PER":    recognizer.TypePerson,
	"PERSON": recognizer.TypePerson,
	"ORG":    recognizer.TypeOrganization,
	"LOC":    recognizer.TypeLocation,
	"GPE":    recognizer.TypeLocation,
	"DATE":   recognizer.TypeDate,
}

// loadLabels reads the ordered label list from labels.yaml or config.json.
func loadLabels(dir string) ([]string, error) {
	yamlPath := filepath.Join(dir, "labels.yaml")
	if data, err := os.ReadFile(yamlPath); err == nil {
		var labels []string
		if err := yaml.Unmarshal(data, &labels); err != nil {
			return nil, fmt.Errorf("parse %s: %w", yamlPath, err)
		}
		if len(labels) == 0 {
			return nil, fmt.Errorf("%s is empty", yamlPath)
		}
		return labels, nil
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read %s: %w", yamlPath, err)
	}

	jsonPath := filepath.Join(dir, "config.json")
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, fmt.Errorf("no labels.yaml or config.json in %s: %w", dir, err)
	}
	var meta struct {
		ID2Label map[string]string `json:"id2label"`
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("parse %s: %w", jsonPath, err)
	}
	return labelsFromIDMap(meta.ID2Label)
}

func labelsFromIDMap(id2label map[string]string) ([]string, error) {
	if len(id2label) == 0 {
		return nil, errors.New("id2label is empty")
	}
	type entry struct {
		id    int
		label string
	}
	entries := make([]entry, 0, len(id2label))
	for k, v := range id2label {
		id, err := strconv.Atoi(strings.TrimSpace(k))
		if err != nil {
			return nil, fmt.Errorf("id2label key %q: %w", k, err)
		}
		entries = append(entries, entry{id: id, label: v})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].id < entries[j].id })
	labels := make([]string, len(entries))
	for i, e := range entries {
		if e.id != i {
			return nil, fmt.Errorf("id2label is not contiguous at id %d", i)
		}
		labels[i] = e.label
	}
	return labels, nil
}

// splitLabel splits "B-PER" into ("B", "PER"). "O" yields ("", "O").
func splitLabel(lbl string) (string, string) {
	lbl = strings.TrimSpace(lbl)
	if lbl == "" {
		return "", ""
	}
	parts := strings.SplitN(lbl, "-", 2)
	if len(parts) == 1 {
		return "", lbl
	}
	return strings.ToUpper(parts[0]), parts[1]
}

// decodeEntities turns per-token BIO labels into byte spans. Consecutive
// tokens of the same type merge when the second is tagged I- (or untagged),
// and subword continuations always join the entity they belong to.
func decodeEntities(text string, labels []string, offsets []tokenOffset, labelMap map[string]string) []recognizer.Entity {
	var (
		entities []recognizer.Entity
		cur      *recognizer.Entity
	)
	emit := func() {
		if cur != nil {
			cur.Text = text[cur.Start:cur.End]
			entities = append(entities, *cur)
			cur = nil
		}
	}

	for i, lbl := range labels {
		if i >= len(offsets) {
			break
		}
		off := offsets[i]
		if off.Start < 0 || off.End <= off.Start {
			continue
		}
		prefix, raw := splitLabel(lbl)
		typ, ok := labelMap[strings.ToUpper(raw)]
		if raw == "" || strings.EqualFold(raw, "O") || !ok {
			emit()
			continue
		}
		continuation := cur != nil && off.Start == cur.End && cur.Type == typ
		if cur != nil && cur.Type == typ && (prefix != "B" || continuation) {
			cur.End = off.End
			continue
		}
		emit()
		cur = &recognizer.Entity{Start: off.Start, End: off.End, Type: typ}
	}
	emit()
	return entities
}
