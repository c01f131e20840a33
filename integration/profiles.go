package integration

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go/aws/defaults"
	"gopkg.in/ini.v1"
)

// ListProfiles returns the sorted profile names found in the AWS shared
// credentials and config files
func ListProfiles() ([]string, error) {
	credsPath := os.Getenv("AWS_SHARED_CREDENTIALS_FILE")
	if credsPath == "" {
		credsPath = defaults.SharedCredentialsFilename()
	}

	configPath := os.Getenv("AWS_CONFIG_FILE")
	if configPath == "" {
		configPath = defaults.SharedConfigFilename()
	}

	profiles := make(map[string]struct{})

	if err := collectProfiles(credsPath, credentialsProfile, profiles); err != nil {
		return nil, fmt.Errorf("failed to load credentials file: %w", err)
	}
	if err := collectProfiles(configPath, configProfile, profiles); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	result := make([]string, 0, len(profiles))
	for p := range profiles {
		result = append(result, p)
	}
	sort.Strings(result)
	return result, nil
}

// credentialsProfile treats every section of the credentials file as a profile
func credentialsProfile(section string) (string, bool) {
	return section, true
}

// configProfile accepts [default] and [profile name] sections of the config
// file; [sso-session x], [services y] and the like are not profiles.
func configProfile(section string) (string, bool) {
	if section == "default" {
		return section, true
	}
	name, ok := strings.CutPrefix(section, "profile ")
	name = strings.TrimSpace(name)
	return name, ok && name != ""
}

func collectProfiles(path string, profileName func(string) (string, bool), into map[string]struct{}) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}

	f, err := ini.Load(path)
	if err != nil {
		return err
	}
	for _, section := range f.Sections() {
		if section.Name() == ini.DefaultSection {
			continue
		}
		if name, ok := profileName(section.Name()); ok {
			into[name] = struct{}{}
		}
	}
	return nil
}
