package prompt

import (
	"sort"
	"strings"
	"sync"
)

// Completer completes slash commands and the model argument of /model.
type Completer struct {
	commands []string

	mu     sync.RWMutex
	models []string
}

// NewCompleter returns a completer for the given command names.
func NewCompleter(commands ...string) *Completer {
	cmds := append([]string(nil), commands...)
	sort.Strings(cmds)
	return &Completer{commands: cmds}
}

// SetModels replaces the model IDs offered after "/model ".
func (c *Completer) SetModels(ids []string) {
	models := append([]string(nil), ids...)
	sort.Strings(models)
	c.mu.Lock()
	c.models = models
	c.mu.Unlock()
}

// Complete returns input with its last word completed and the candidates
// that matched. With a single candidate the word is replaced by it; with
// several it is extended to their longest common prefix.
func (c *Completer) Complete(input string) (string, []string) {
	if c == nil || !strings.HasPrefix(input, "/") || strings.Contains(input, "\n") {
		return input, nil
	}

	if partial, ok := strings.CutPrefix(input, "/model "); ok {
		partial = strings.TrimLeft(partial, " ")
		if strings.Contains(partial, " ") {
			return input, nil
		}
		c.mu.RLock()
		matches := matchModels(c.models, partial)
		c.mu.RUnlock()
		return apply("/model ", partial, matches)
	}

	if strings.Contains(input, " ") {
		return input, nil
	}
	var matches []string
	for _, cmd := range c.commands {
		if strings.HasPrefix(cmd, input) {
			matches = append(matches, cmd)
		}
	}
	return apply("", input, matches)
}

// matchModels prefers prefix matches and falls back to substring matches.
func matchModels(models []string, partial string) []string {
	var prefix, contains []string
	lower := strings.ToLower(partial)
	for _, m := range models {
		lm := strings.ToLower(m)
		switch {
		case strings.HasPrefix(lm, lower):
			prefix = append(prefix, m)
		case strings.Contains(lm, lower):
			contains = append(contains, m)
		}
	}
	if len(prefix) > 0 {
		return prefix
	}
	return contains
}

func apply(head, word string, matches []string) (string, []string) {
	switch len(matches) {
	case 0:
		return head + word, nil
	case 1:
		completed := head + matches[0]
		if head == "" {
			completed += " "
		}
		return completed, matches
	}
	common := commonPrefix(matches)
	if len(common) < len(word) || !strings.HasPrefix(strings.ToLower(common), strings.ToLower(word)) {
		common = word
	}
	return head + common, matches
}

func commonPrefix(words []string) string {
	prefix := words[0]
	for _, w := range words[1:] {
		for !strings.HasPrefix(w, prefix) {
			prefix = prefix[:len(prefix)-1]
		}
	}
	return prefix
}
