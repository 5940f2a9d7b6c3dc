// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package mediacreatorapi

import (
	"fmt"

	"github.com/asaskevich/govalidator"
)

// KitSource describes where the deployment kit payload comes from. Exactly
// one of the fields must be set.
type KitSource struct {
	// Url is a direct HTTP(S) download of the kit payload.
	Url string `yaml:"url" json:"url,omitempty"`
	// Oci pulls the kit payload from an OCI registry.
	Oci *OciKitSource `yaml:"oci" json:"oci,omitempty"`
}

// OciKitSource identifies a kit payload published as an OCI artifact.
type OciKitSource struct {
	// Uri is the artifact reference, including tag (e.g. "mcr.example.com/kits/room:4.12").
	Uri string `yaml:"uri" json:"uri"`
	// TrustCertificate is a path to the PEM certificate the artifact's
	// signature is verified against. Empty disables signature verification.
	TrustCertificate string `yaml:"trustCertificate" json:"trustCertificate,omitempty"`
}

func (s *KitSource) IsValid() error {
	if (s.Url != "") == (s.Oci != nil) {
		return fmt.Errorf("kit source must set exactly one of 'url' or 'oci'")
	}

	if s.Url != "" && !govalidator.IsURL(s.Url) {
		return fmt.Errorf("kit source has invalid URL (%s)", s.Url)
	}

	if s.Oci != nil {
		err := s.Oci.IsValid()
		if err != nil {
			return fmt.Errorf("invalid 'oci' field:\n%w", err)
		}
	}

	return nil
}

func (s *OciKitSource) IsValid() error {
	if s.Uri == "" {
		return fmt.Errorf("OCI kit source must have a URI")
	}

	return nil
}
