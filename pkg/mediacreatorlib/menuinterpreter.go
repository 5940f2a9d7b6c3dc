// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package mediacreatorlib

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/microsoft/roomsystems-media-tools/internal/logger"
	"github.com/microsoft/roomsystems-media-tools/mediacreatorapi"
)

var (
	ErrMenuUndefinedNode = NewMediaCreatorError("Menu:UndefinedNode", "menu references an undefined node")
	ErrMenuFetchFailed   = NewMediaCreatorError("Menu:FetchFailed", "failed to acquire a menu download target")
	ErrMenuPromptFailed  = NewMediaCreatorError("Menu:PromptFailed", "failed to read menu selection")
)

// MenuVariables is the variable bag shared across one menu resolution pass.
// Node-local variables are merged in when a node is entered; the orchestrator
// consumes the final values after the pass completes.
type MenuVariables struct {
	values map[string]string
}

func NewMenuVariables() *MenuVariables {
	return &MenuVariables{
		values: map[string]string{},
	}
}

// Merge overwrites or inserts all entries of overrides into the bag.
func (v *MenuVariables) Merge(overrides map[string]string) {
	for name, value := range overrides {
		v.values[name] = value
	}
}

// Get returns the value of the named variable and whether it is set.
func (v *MenuVariables) Get(name string) (string, bool) {
	value, set := v.values[name]
	return value, set
}

// GetBool returns whether the named variable is set to "true".
func (v *MenuVariables) GetBool(name string) bool {
	value, set := v.values[name]
	return set && strings.EqualFold(value, "true")
}

// Prompter asks the operator to pick one entry from a list.
type Prompter interface {
	// ChooseFrom returns the index of the chosen entry. defaultIndex is the
	// preselected entry, or -1 when an explicit choice is required.
	ChooseFrom(title string, entries []string, defaultIndex int) (int, error)
}

// FetchFunc downloads and verifies one URL, returning the local path.
type FetchFunc func(url string) (string, error)

// MenuInterpreter walks the kit's selection tree, resolving operator choices
// into downloaded artifacts.
type MenuInterpreter struct {
	manifest *mediacreatorapi.KitManifest
	prompter Prompter
	fetch    FetchFunc

	// When set, menu nodes never preselect their first entry.
	DisableDefaultSelection bool
}

func NewMenuInterpreter(manifest *mediacreatorapi.KitManifest, prompter Prompter, fetch FetchFunc) *MenuInterpreter {
	return &MenuInterpreter{
		manifest: manifest,
		prompter: prompter,
		fetch:    fetch,
	}
}

// Resolve processes the named node and everything the operator selects below
// it, returning the local paths of all downloaded artifacts along the chosen
// path. Variable overrides declared on visited nodes accumulate in vars.
func (m *MenuInterpreter) Resolve(nodeName string, vars *MenuVariables) ([]string, error) {
	node, defined := m.manifest.MenuItems[nodeName]
	if !defined {
		return nil, fmt.Errorf("%w (%s)", ErrMenuUndefinedNode, nodeName)
	}

	if len(node.Variables) > 0 {
		logger.Log.Debugf("Menu node (%s) sets %d variable(s)", nodeName, len(node.Variables))
		vars.Merge(node.Variables)
	}

	switch node.Action {
	case mediacreatorapi.MenuActionTypeDownload:
		artifacts := []string(nil)
		for _, url := range node.Targets {
			localPath, err := m.fetch(url)
			if err != nil {
				return nil, fmt.Errorf("%w (%s):\n%w", ErrMenuFetchFailed, url, err)
			}
			artifacts = append(artifacts, localPath)
		}
		return artifacts, nil

	case mediacreatorapi.MenuActionTypeMenu:
		defaultIndex := 0
		if m.DisableDefaultSelection {
			defaultIndex = -1
		}

		choice, err := m.prompter.ChooseFrom(nodeName, node.Targets, defaultIndex)
		if err != nil {
			return nil, fmt.Errorf("%w:\n%w", ErrMenuPromptFailed, err)
		}
		if choice < 0 || choice >= len(node.Targets) {
			return nil, fmt.Errorf("%w: selection (%d) out of range", ErrMenuPromptFailed, choice)
		}

		return m.Resolve(node.Targets[choice], vars)

	case mediacreatorapi.MenuActionTypeRedirect:
		return m.Resolve(node.Targets[0], vars)

	case mediacreatorapi.MenuActionTypeWarn:
		logger.Log.Warnf("%s", node.Message)
		return nil, nil

	default:
		// The manifest was validated at load time.
		panic(fmt.Sprintf("unhandled menu action type (%s)", node.Action))
	}
}

// ConsolePrompter reads menu selections interactively.
type ConsolePrompter struct {
	In  io.Reader
	Out io.Writer
}

func (p *ConsolePrompter) ChooseFrom(title string, entries []string, defaultIndex int) (int, error) {
	fmt.Fprintf(p.Out, "%s:\n", title)
	for i, entry := range entries {
		marker := " "
		if i == defaultIndex {
			marker = "*"
		}
		fmt.Fprintf(p.Out, " %s %2d) %s\n", marker, i+1, entry)
	}

	reader := bufio.NewReader(p.In)
	for {
		if defaultIndex >= 0 {
			fmt.Fprintf(p.Out, "Selection [%d]: ", defaultIndex+1)
		} else {
			fmt.Fprint(p.Out, "Selection: ")
		}

		line, err := reader.ReadString('\n')
		if err != nil {
			return 0, fmt.Errorf("failed to read selection:\n%w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" && defaultIndex >= 0 {
			return defaultIndex, nil
		}

		selection, err := strconv.Atoi(line)
		if err == nil && selection >= 1 && selection <= len(entries) {
			return selection - 1, nil
		}

		fmt.Fprintf(p.Out, "Enter a number between 1 and %d.\n", len(entries))
	}
}
