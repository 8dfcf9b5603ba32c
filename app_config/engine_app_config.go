package app_config

import (
	"io/ioutil"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// This is the app config of the content engine. Every value has a default,
// so an empty file is a valid config.
type EngineAppConfig struct {
	// Total attempts of one reaction write before giving up on serialization
	// conflicts.
	REACTION_MAX_ATTEMPTS int `yaml:"REACTION_MAX_ATTEMPTS"`
	// Maximum number of distinct reaction names on one target.
	REACTION_LIMIT_PER_TARGET int `yaml:"REACTION_LIMIT_PER_TARGET"`
	// Number of entries kept in each group feed.
	FEED_MAX_LENGTH int `yaml:"FEED_MAX_LENGTH"`
	// Meilisearch index holding content documents.
	SEARCH_INDEX_NAME string `yaml:"SEARCH_INDEX_NAME"`
	// Topic notifications are published on.
	NOTIFICATION_TOPIC string `yaml:"NOTIFICATION_TOPIC"`
	// Address the HTTP server listens on.
	HTTP_ADDR string `yaml:"HTTP_ADDR"`
	// Seconds to wait for in-flight requests and detached effects on
	// shutdown.
	SHUTDOWN_TIMEOUT_SECOND int64 `yaml:"SHUTDOWN_TIMEOUT_SECOND"`
}

func DefaultEngineAppConfig() EngineAppConfig {
	return EngineAppConfig{
		REACTION_MAX_ATTEMPTS:     3,
		REACTION_LIMIT_PER_TARGET: 21,
		FEED_MAX_LENGTH:           500,
		SEARCH_INDEX_NAME:         "contents",
		NOTIFICATION_TOPIC:        "content.notification",
		HTTP_ADDR:                 ":8080",
		SHUTDOWN_TIMEOUT_SECOND:   10,
	}
}

// ParseEngineAppConfig reads the yaml file at path on top of the defaults.
func ParseEngineAppConfig(path string) (EngineAppConfig, error) {
	c := DefaultEngineAppConfig()
	yamlFile, err := ioutil.ReadFile(path)
	if err != nil {
		return c, errors.Wrap(err, "fail to read app config "+path)
	}
	if err := yaml.Unmarshal(yamlFile, &c); err != nil {
		return c, errors.Wrap(err, "fail to parse app config "+path)
	}
	return c, nil
}
