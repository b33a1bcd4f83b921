// internal/game/prompts.go
package game

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
)

// FallbackPrompts keep rooms playable when no prompt file is available.
var FallbackPrompts = []string{"Cat wearing a hat", "Flying book", "Sad rain cloud"}

// LoadPrompts reads a CSV file with a "prompt" header column. Blank rows are skipped.
func LoadPrompts(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open prompts file: %w", err)
	}
	defer f.Close()
	return parsePrompts(f)
}

// LoadPromptsOrFallback is LoadPrompts that degrades to FallbackPrompts on any failure.
func LoadPromptsOrFallback(path string) []string {
	prompts, err := LoadPrompts(path)
	if err != nil {
		log.Warnf("Prompts: %v; using %d fallback prompts", err, len(FallbackPrompts))
		return append([]string(nil), FallbackPrompts...)
	}
	log.Infof("Prompts: loaded %d prompts from %s", len(prompts), path)
	return prompts
}

func parsePrompts(r io.Reader) ([]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read prompts header: %w", err)
	}
	col := -1
	for i, name := range header {
		if strings.EqualFold(strings.TrimSpace(name), "prompt") {
			col = i
			break
		}
	}
	if col < 0 {
		return nil, errors.New("prompts file has no 'prompt' column")
	}

	var prompts []string
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read prompts: %w", err)
		}
		if col >= len(row) {
			continue
		}
		if p := strings.TrimSpace(row[col]); p != "" {
			prompts = append(prompts, p)
		}
	}
	if len(prompts) == 0 {
		return nil, errors.New("prompts file is empty")
	}
	return prompts, nil
}

// assignPrompts gives each player a prompt from a shuffled copy of the pool. Prompts are
// unique per player until the pool runs out, after which the shuffled pool is reused.
func assignPrompts(playerIDs []string, pool []string, shuffle ShuffleFunc) (map[string]string, error) {
	if len(pool) == 0 {
		pool = FallbackPrompts
	}
	deck := append([]string(nil), pool...)
	shuffle(len(deck), func(i, j int) { deck[i], deck[j] = deck[j], deck[i] })

	var err error
	if len(playerIDs) > len(deck) {
		err = ErrPromptsExhausted
	}
	out := make(map[string]string, len(playerIDs))
	for i, id := range playerIDs {
		out[id] = deck[i%len(deck)]
	}
	return out, err
}
