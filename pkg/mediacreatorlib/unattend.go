// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package mediacreatorlib

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"github.com/microsoft/roomsystems-media-tools/internal/logger"
)

// SupportedCompatRevision is the newest answer-file compatibility revision
// this tool understands. Kits announce the revision they require through
// comment markers in the answer file.
const SupportedCompatRevision = 3

// The marker survives in comment form so that answer files stay
// bit-compatible with older tool releases that scrape for it.
const compatRevMarkerPrefix = "srsv2-compat-rev:"

var (
	ErrUnattendParse           = NewMediaCreatorError("Unattend:Parse", "failed to parse answer file")
	ErrUnattendStructure       = NewMediaCreatorError("Unattend:Structure", "answer file is missing a required element")
	ErrUnattendIncompatible    = NewMediaCreatorError("Unattend:Incompatible", "answer file requires a newer tool revision")
	ErrUnattendCompatMarker    = NewMediaCreatorError("Unattend:CompatMarker", "answer file has a malformed compatibility marker")
	ErrSysprepCommandMissing   = NewMediaCreatorError("Unattend:SysprepCommandMissing", "answer file has no sysprep command")
	ErrSysprepCommandAmbiguous = NewMediaCreatorError("Unattend:SysprepCommandAmbiguous", "answer file has multiple sysprep commands")
)

// UnattendFile is a loaded machine answer file. Mutations are applied in
// memory and written back with Save.
type UnattendFile struct {
	doc  *etree.Document
	path string
}

// LoadUnattend reads and parses the answer file at path.
func LoadUnattend(path string) (*UnattendFile, error) {
	doc := etree.NewDocument()

	err := doc.ReadFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w (%s):\n%w", ErrUnattendParse, path, err)
	}

	if doc.FindElement("/unattend") == nil {
		return nil, fmt.Errorf("%w (%s): no unattend root element", ErrUnattendParse, path)
	}

	return &UnattendFile{
		doc:  doc,
		path: path,
	}, nil
}

// Save writes the document back to the path it was loaded from.
func (u *UnattendFile) Save() error {
	err := u.doc.WriteToFile(u.path)
	if err != nil {
		return fmt.Errorf("failed to write answer file (%s):\n%w", u.path, err)
	}

	return nil
}

// CompatRevision returns the answer file's declared compatibility revision.
// The revision is embedded in comment markers; a document without markers
// requires revision 0 (always compatible). When multiple markers exist the
// maximum governs: the document requires the newest revision it announces.
func (u *UnattendFile) CompatRevision() (int, error) {
	maxRevision := 0

	var scan func(element *etree.Element) error
	scan = func(element *etree.Element) error {
		for _, child := range element.Child {
			switch token := child.(type) {
			case *etree.Comment:
				revision, isMarker, err := parseCompatRevMarker(token.Data)
				if err != nil {
					return err
				}
				if isMarker && revision > maxRevision {
					maxRevision = revision
				}

			case *etree.Element:
				err := scan(token)
				if err != nil {
					return err
				}
			}
		}
		return nil
	}

	// Top-level comments sit on the document element itself.
	err := scan(&u.doc.Element)
	if err != nil {
		return 0, err
	}

	return maxRevision, nil
}

// EnsureCompatible fails when the answer file requires a newer revision than
// this tool supports.
func (u *UnattendFile) EnsureCompatible() error {
	revision, err := u.CompatRevision()
	if err != nil {
		return err
	}

	if revision > SupportedCompatRevision {
		return fmt.Errorf("%w: document requires revision %d, tool supports revision %d",
			ErrUnattendIncompatible, revision, SupportedCompatRevision)
	}

	return nil
}

func parseCompatRevMarker(comment string) (revision int, isMarker bool, err error) {
	trimmed := strings.TrimSpace(comment)
	if len(trimmed) < len(compatRevMarkerPrefix) ||
		!strings.EqualFold(trimmed[:len(compatRevMarkerPrefix)], compatRevMarkerPrefix) {
		return 0, false, nil
	}

	value := strings.TrimSpace(trimmed[len(compatRevMarkerPrefix):])
	revision, err = strconv.Atoi(value)
	if err != nil || revision < 0 {
		return 0, false, fmt.Errorf("%w (%s)", ErrUnattendCompatMarker, trimmed)
	}

	return revision, true, nil
}

// InjectProductKey inserts the license key into the specialize pass. If the
// document already carries a ProductKey anywhere in that pass, the document
// is left untouched: a pre-seeded key always wins.
func (u *UnattendFile) InjectProductKey(key string) error {
	settings := u.doc.FindElement("//settings[@pass='specialize']")
	if settings == nil {
		return fmt.Errorf("%w: no specialize settings pass", ErrUnattendStructure)
	}

	if settings.FindElement(".//ProductKey") != nil {
		logger.Log.Debugf("Answer file already has a product key, leaving it alone")
		return nil
	}

	component := etree.NewElement("component")
	component.CreateAttr("name", "Microsoft-Windows-Shell-Setup")
	component.CreateAttr("processorArchitecture", "amd64")
	component.CreateAttr("publicKeyToken", "31bf3856ad364e35")
	component.CreateAttr("language", "neutral")
	component.CreateAttr("versionScope", "nonSxS")

	productKey := component.CreateElement("ProductKey")
	productKey.SetText(key)

	settings.InsertChildAt(0, component)
	return nil
}

// ConvertToLegacyBoot rewrites the windowsPE partition layout for legacy
// (BIOS) boot: the EFI system partition definition is dropped, the remaining
// partitions are renumbered sequentially from 1, and the OS image install
// target shifts down with them. Callers skip this entirely for UEFI boot.
func (u *UnattendFile) ConvertToLegacyBoot() error {
	setup := u.doc.FindElement("//settings[@pass='windowsPE']//component[@name='Microsoft-Windows-Setup']")
	if setup == nil {
		return fmt.Errorf("%w: no windowsPE setup component", ErrUnattendStructure)
	}

	createPartitions := setup.FindElement(".//DiskConfiguration/Disk/CreatePartitions")
	if createPartitions == nil {
		return fmt.Errorf("%w: no partition definitions in windowsPE setup component", ErrUnattendStructure)
	}

	partitions := createPartitions.SelectElements("CreatePartition")
	if len(partitions) < 2 {
		return fmt.Errorf("%w: expected an EFI partition and an OS partition, found %d partition(s)",
			ErrUnattendStructure, len(partitions))
	}

	// The first definition is the EFI system partition.
	createPartitions.RemoveChild(partitions[0])

	for i, partition := range partitions[1:] {
		order := partition.SelectElement("Order")
		if order == nil {
			return fmt.Errorf("%w: partition definition has no order", ErrUnattendStructure)
		}
		order.SetText(strconv.Itoa(i + 1))
	}

	installTo := setup.FindElement(".//ImageInstall/OSImage/InstallTo/PartitionID")
	if installTo == nil {
		return fmt.Errorf("%w: no OS image install target", ErrUnattendStructure)
	}

	installPartition, err := strconv.Atoi(installTo.Text())
	if err != nil || installPartition < 2 {
		return fmt.Errorf("%w: OS image install target (%s) does not follow the EFI partition",
			ErrUnattendStructure, installTo.Text())
	}
	installTo.SetText(strconv.Itoa(installPartition - 1))

	return nil
}

// SetPostInstallAction rewrites the sysprep invocation in the auditUser pass
// to shut the machine down instead of rebooting once setup completes.
// Passing shutdown=false leaves the command as authored.
func (u *UnattendFile) SetPostInstallAction(shutdown bool) error {
	command, err := u.findSysprepCommand()
	if err != nil {
		return err
	}

	// Tidy up: authoring tools tend to leave stale comments next to the
	// sysprep command.
	stripComments(command.Parent().Parent())

	if !shutdown {
		return nil
	}

	commandText := command.Text()
	rewritten := rewriteTrailingDirective(commandText, "/reboot", "/shutdown")
	if rewritten != commandText {
		command.SetText(rewritten)
	}

	return nil
}

// findSysprepCommand locates the single sysprep invocation in the auditUser
// pass. Zero or multiple matches are explicit errors: the document is assumed
// to carry exactly one, and anything else means the kit's answer file changed
// shape under us.
func (u *UnattendFile) findSysprepCommand() (*etree.Element, error) {
	settings := u.doc.FindElement("//settings[@pass='auditUser']")
	if settings == nil {
		return nil, fmt.Errorf("%w: no auditUser settings pass", ErrUnattendStructure)
	}

	matches := []*etree.Element(nil)
	for _, path := range settings.FindElements(".//RunSynchronousCommand/Path") {
		text := strings.ToLower(path.Text())
		if strings.Contains(text, "sysprep") && strings.Contains(text, "generalize") &&
			strings.Contains(text, "oobe") {
			matches = append(matches, path)
		}
	}

	switch len(matches) {
	case 0:
		return nil, ErrSysprepCommandMissing
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("%w (found %d)", ErrSysprepCommandAmbiguous, len(matches))
	}
}

func stripComments(element *etree.Element) {
	if element == nil {
		return
	}

	comments := []etree.Token(nil)
	for _, child := range element.Child {
		if _, isComment := child.(*etree.Comment); isComment {
			comments = append(comments, child)
		}
	}

	for _, comment := range comments {
		element.RemoveChild(comment)
	}
}

func rewriteTrailingDirective(command string, from string, to string) string {
	trimmed := strings.TrimRight(command, " \t")
	if strings.HasSuffix(strings.ToLower(trimmed), from) {
		return trimmed[:len(trimmed)-len(from)] + to
	}

	return command
}
