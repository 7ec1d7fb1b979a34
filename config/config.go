// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads the secondbrain application configuration from a
// secondbrain.yaml file and SECONDBRAIN_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
	"github.com/spf13/viper"

	"github.com/mrdanjohnson/secondbrainv1/ai"
	"github.com/mrdanjohnson/secondbrainv1/analyzer"
	"github.com/mrdanjohnson/secondbrainv1/ranking"
)

const (
	// EnvPrefix prefixes every environment variable read by Load.
	EnvPrefix = "SECONDBRAIN"
	// FileName is the config file name without extension.
	FileName = "secondbrain"
)

// DefaultPaths are searched, in order, for secondbrain.yaml.
var DefaultPaths = []string{".", "./config", "$HOME/.secondbrain"}

// AppConfig is the complete application configuration.
type AppConfig struct {
	LogLevel  string          `mapstructure:"log_level" validate:"oneof=debug info warn error"`
	Storage   StorageConfig   `mapstructure:"storage"`
	AI        AIConfig        `mapstructure:"ai"`
	Search    SearchConfig    `mapstructure:"search"`
	Ingestion IngestionConfig `mapstructure:"ingestion"`
}

// StorageConfig selects and locates the memory store.
type StorageConfig struct {
	Backend string `mapstructure:"backend" validate:"oneof=badger postgres"`
	// Path is the BadgerDB directory.
	Path string `mapstructure:"path" validate:"required_if=Backend badger"`
	// DSN is the PostgreSQL connection string.
	DSN string `mapstructure:"dsn" validate:"required_if=Backend postgres"`
	// Dimension is the pgvector column size.
	Dimension int `mapstructure:"dimension" validate:"gte=0"`
}

// AIConfig configures the embedding and classification services.
type AIConfig struct {
	Backend         string  `mapstructure:"backend" validate:"oneof=openai anthropic"`
	APIKey          string  `mapstructure:"api_key"`
	AnthropicAPIKey string  `mapstructure:"anthropic_api_key" validate:"required_if=Backend anthropic"`
	EmbeddingHost   string  `mapstructure:"embedding_host" validate:"required,url"`
	ClassifierHost  string  `mapstructure:"classifier_host" validate:"omitempty,url"`
	EmbeddingModel  string  `mapstructure:"embedding_model" validate:"required"`
	ClassifierModel string  `mapstructure:"classifier_model" validate:"required"`
	Temperature     float64 `mapstructure:"temperature" validate:"gte=0,lte=2"`
}

// SearchConfig tunes the retrieval pipeline.
type SearchConfig struct {
	Limit          int           `mapstructure:"limit" validate:"gte=1"`
	Threshold      float64       `mapstructure:"threshold" validate:"gte=0,lte=1"`
	MaxFetch       int           `mapstructure:"max_fetch" validate:"gte=1"`
	EmbedTimeout   time.Duration `mapstructure:"embed_timeout" validate:"gt=0"`
	CategoryWeight float64       `mapstructure:"category_weight" validate:"gte=0"`
	TagWeight      float64       `mapstructure:"tag_weight" validate:"gte=0"`
	// TieBreak is "first" or "longest".
	TieBreak string `mapstructure:"tie_break" validate:"oneof=first longest"`
	// MatchMode is "substring" or "word".
	MatchMode string `mapstructure:"match_mode" validate:"oneof=substring word"`
	// CatalogTTL keeps the category and tag vocabulary cached. Zero reads
	// the store on every search.
	CatalogTTL time.Duration `mapstructure:"catalog_ttl" validate:"gte=0"`
}

// IngestionConfig sizes the enrichment worker pools.
type IngestionConfig struct {
	PoolSize int `mapstructure:"pool_size" validate:"gte=1"`
}

// Manager owns the viper instance used to load an AppConfig.
type Manager struct {
	cfg   *AppConfig
	viper *viper.Viper
}

// NewManager creates a Manager with defaults and environment bindings set.
func NewManager() *Manager {
	m := &Manager{
		cfg:   &AppConfig{},
		viper: viper.New(),
	}
	m.setDefaults()
	m.bindEnv()
	return m
}

// Viper exposes the underlying instance so callers can bind flags.
func (m *Manager) Viper() *viper.Viper {
	return m.viper
}

func (m *Manager) setDefaults() {
	defaults := ai.DefaultConfig()
	weights := ranking.DefaultWeights()

	m.viper.SetDefault("log_level", "info")
	m.viper.SetDefault("storage.backend", "badger")
	m.viper.SetDefault("storage.path", "./secondbrain.db")
	m.viper.SetDefault("storage.dimension", 0)
	m.viper.SetDefault("ai.backend", string(defaults.Backend))
	m.viper.SetDefault("ai.embedding_host", defaults.EmbeddingHost)
	m.viper.SetDefault("ai.embedding_model", defaults.EmbeddingModel)
	m.viper.SetDefault("ai.classifier_model", defaults.ClassifierModel)
	m.viper.SetDefault("ai.temperature", defaults.Temperature)
	m.viper.SetDefault("search.limit", 20)
	m.viper.SetDefault("search.threshold", 0.5)
	m.viper.SetDefault("search.max_fetch", 100)
	m.viper.SetDefault("search.embed_timeout", 15*time.Second)
	m.viper.SetDefault("search.category_weight", weights.Category)
	m.viper.SetDefault("search.tag_weight", weights.Tag)
	m.viper.SetDefault("search.tie_break", "first")
	m.viper.SetDefault("search.match_mode", "substring")
	m.viper.SetDefault("search.catalog_ttl", time.Duration(0))
	m.viper.SetDefault("ingestion.pool_size", 2)
}

func (m *Manager) bindEnv() {
	m.viper.SetEnvPrefix(EnvPrefix)
	m.viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	m.viper.AutomaticEnv()

	// Keys without a default are invisible to AutomaticEnv during Unmarshal.
	// The conventional provider variables are honored as well.
	_ = m.viper.BindEnv("storage.dsn")
	_ = m.viper.BindEnv("ai.classifier_host")
	_ = m.viper.BindEnv("ai.api_key", EnvPrefix+"_AI_API_KEY", "OPENAI_API_KEY")
	_ = m.viper.BindEnv("ai.anthropic_api_key", EnvPrefix+"_AI_ANTHROPIC_API_KEY", "ANTHROPIC_API_KEY")
}

// Load reads the config file, if any, from configPaths followed by
// DefaultPaths, applies the environment and validates the result. A
// missing file is not an error.
func (m *Manager) Load(configPaths ...string) (*AppConfig, error) {
	m.viper.SetConfigName(FileName)
	m.viper.SetConfigType("yaml")
	for _, path := range append(configPaths, DefaultPaths...) {
		m.viper.AddConfigPath(path)
	}

	if err := m.viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("%w: %w", ErrReadConfig, err)
		}
	}
	return m.decode()
}

// LoadFile reads exactly the named file.
func (m *Manager) LoadFile(path string) (*AppConfig, error) {
	m.viper.SetConfigFile(path)
	if err := m.viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadConfig, err)
	}
	return m.decode()
}

// ConfigFileUsed returns the file Load read, or "" when none was found.
func (m *Manager) ConfigFileUsed() string {
	return m.viper.ConfigFileUsed()
}

func (m *Manager) decode() (*AppConfig, error) {
	if err := m.viper.Unmarshal(m.cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecodeConfig, err)
	}
	if err := m.cfg.Validate(); err != nil {
		return nil, err
	}
	return m.cfg, nil
}

// Validate checks every field against its validate tag.
func (c *AppConfig) Validate() error {
	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// ProviderConfig converts the section into the ai package configuration.
// An empty ClassifierHost shares the embedding host.
func (c AIConfig) ProviderConfig() *ai.Config {
	return ai.NewConfig(
		ai.WithBackend(ai.Backend(c.Backend)),
		ai.WithAPIKey(c.APIKey),
		ai.WithAnthropicAPIKey(c.AnthropicAPIKey),
		ai.WithEmbeddingHost(c.EmbeddingHost),
		ai.WithClassifierHost(lo.CoalesceOrEmpty(c.ClassifierHost, c.EmbeddingHost)),
		ai.WithEmbeddingModel(c.EmbeddingModel),
		ai.WithClassifierModel(c.ClassifierModel),
		ai.WithTemperature(c.Temperature),
	)
}

// Weights returns the ranking weights.
func (c SearchConfig) Weights() ranking.Weights {
	return ranking.Weights{Category: c.CategoryWeight, Tag: c.TagWeight}
}

// AnalyzerTieBreak maps TieBreak onto the analyzer setting.
func (c SearchConfig) AnalyzerTieBreak() analyzer.TieBreak {
	if c.TieBreak == "longest" {
		return analyzer.TieBreakLongest
	}
	return analyzer.TieBreakFirst
}

// AnalyzerMatchMode maps MatchMode onto the analyzer setting.
func (c SearchConfig) AnalyzerMatchMode() analyzer.MatchMode {
	if c.MatchMode == "word" {
		return analyzer.MatchWord
	}
	return analyzer.MatchSubstring
}
