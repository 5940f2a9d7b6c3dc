// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package mediacreatorlib

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/microsoft/roomsystems-media-tools/internal/shell"
	"github.com/microsoft/roomsystems-media-tools/mediacreatorapi"
	"github.com/sirupsen/logrus"
)

var (
	ErrBaseImageSize = NewMediaCreatorError("Verify:BaseImageSize", "base image file has the wrong size")
	ErrBaseImageHash = NewMediaCreatorError("Verify:BaseImageHash", "base image file has the wrong content hash")
)

// Signature validation is delegated to the host platform; the exit status and
// output of its verification tool are the only signals consumed here.
const defaultSignatureTool = "signtool"

// SignatureVerifier validates the publisher signature of a local file.
type SignatureVerifier interface {
	VerifySignature(filePath string) error
}

// toolSignatureVerifier shells out to the host's signature verification tool.
type toolSignatureVerifier struct {
	tool string
}

// NewSignatureVerifier returns a verifier backed by the host's signature
// tool. toolOverride replaces the default tool name when non-empty.
func NewSignatureVerifier(toolOverride string) SignatureVerifier {
	tool := defaultSignatureTool
	if toolOverride != "" {
		tool = toolOverride
	}

	return &toolSignatureVerifier{
		tool: tool,
	}
}

func (v *toolSignatureVerifier) VerifySignature(filePath string) error {
	err := shell.NewExecBuilder(v.tool, "verify", "/pa", filePath).
		LogLevel(logrus.TraceLevel, logrus.DebugLevel).
		ErrorStderrLines(3).
		Execute()
	if err != nil {
		return fmt.Errorf("signature not valid for (%s):\n%w", filePath, err)
	}

	return nil
}

// CheckBaseImageIdentity verifies that the operator-supplied base image file
// matches the exact size and content hash the kit expects. The file is owned
// by the operator, so it is never deleted; a mismatch reports where to get
// the canonical image and blocks progress.
func CheckBaseImageIdentity(filePath string, identity mediacreatorapi.BaseImageIdentity) error {
	info, err := os.Stat(filePath)
	if err != nil {
		return fmt.Errorf("failed to stat base image (%s):\n%w", filePath, err)
	}

	if info.Size() != identity.SizeBytes {
		return fmt.Errorf("%w (%s): have %d bytes, expected %d bytes%s", ErrBaseImageSize, filePath,
			info.Size(), identity.SizeBytes, sourceHintSuffix(identity))
	}

	actualHash, err := fileSha256(filePath)
	if err != nil {
		return err
	}

	if !strings.EqualFold(actualHash, identity.Sha256) {
		return fmt.Errorf("%w (%s): have %s, expected %s%s", ErrBaseImageHash, filePath, actualHash,
			identity.Sha256, sourceHintSuffix(identity))
	}

	return nil
}

func sourceHintSuffix(identity mediacreatorapi.BaseImageIdentity) string {
	if identity.SourceHint == "" {
		return ""
	}
	return fmt.Sprintf("\nre-download the image from (%s)", identity.SourceHint)
}

func fileSha256(filePath string) (string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to open file for hashing (%s):\n%w", filePath, err)
	}
	defer f.Close()

	hasher := sha256.New()
	_, err = io.Copy(hasher, f)
	if err != nil {
		return "", fmt.Errorf("failed to hash file (%s):\n%w", filePath, err)
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}
