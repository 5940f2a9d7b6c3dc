// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package mediacreatorapi

import (
	"bytes"
	"os"

	"gopkg.in/yaml.v3"
)

type HasIsValid interface {
	IsValid() error
}

func UnmarshalAndValidateYamlFile[ValueType HasIsValid](yamlFilePath string, value ValueType) error {
	yamlFile, err := os.ReadFile(yamlFilePath)
	if err != nil {
		return err
	}

	err = UnmarshalAndValidateYaml(yamlFile, value)
	if err != nil {
		return err
	}

	return nil
}

func UnmarshalAndValidateYaml[ValueType HasIsValid](yamlData []byte, value ValueType) error {
	err := UnmarshalYaml(yamlData, value)
	if err != nil {
		return err
	}

	err = value.IsValid()
	if err != nil {
		return err
	}

	return nil
}

func UnmarshalYaml[ValueType any](yamlData []byte, value ValueType) error {
	reader := bytes.NewReader(yamlData)
	decoder := yaml.NewDecoder(reader)

	// Ensure unknown fields result in an error.
	decoder.KnownFields(true)

	err := decoder.Decode(value)
	if err != nil {
		return err
	}

	return nil
}

func MarshalYaml[ValueType any](value ValueType) (string, error) {
	yamlData, err := yaml.Marshal(value)
	if err != nil {
		return "", err
	}

	return string(yamlData), nil
}
