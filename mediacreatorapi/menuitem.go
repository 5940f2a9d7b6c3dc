// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package mediacreatorapi

import (
	"fmt"

	"github.com/asaskevich/govalidator"
)

// MenuItem is one node in the kit's selection tree. Nodes are identified by
// name within the manifest's node map; the tree is strictly shaped (one
// selection at a time) and read-only after load.
type MenuItem struct {
	// Action selects how the node is processed.
	Action MenuActionType `yaml:"action" json:"action"`
	// Targets are URLs for download nodes, node names for menu nodes, and a
	// single node name for redirect nodes. Warn nodes have no targets.
	Targets []string `yaml:"targets" json:"targets,omitempty"`
	// Message is shown to the operator by warn nodes.
	Message string `yaml:"message" json:"message,omitempty"`
	// Variables are merged into the run's variable bag before the node is
	// processed. Existing keys are overwritten.
	Variables map[string]string `yaml:"variables" json:"variables,omitempty"`
}

func (i *MenuItem) IsValid() error {
	err := i.Action.IsValid()
	if err != nil {
		return err
	}

	switch i.Action {
	case MenuActionTypeDownload:
		if len(i.Targets) < 1 {
			return fmt.Errorf("download node must have at least one target URL")
		}
		for _, target := range i.Targets {
			if !govalidator.IsURL(target) {
				return fmt.Errorf("download node has invalid target URL (%s)", target)
			}
		}

	case MenuActionTypeMenu:
		if len(i.Targets) < 1 {
			return fmt.Errorf("menu node must have at least one target node")
		}

	case MenuActionTypeRedirect:
		if len(i.Targets) != 1 {
			return fmt.Errorf("redirect node must have exactly one target node (has %d)", len(i.Targets))
		}

	case MenuActionTypeWarn:
		if len(i.Targets) != 0 {
			return fmt.Errorf("warn node must not have targets")
		}
		if i.Message == "" {
			return fmt.Errorf("warn node must have a message")
		}
	}

	return nil
}
