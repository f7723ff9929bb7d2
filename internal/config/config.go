package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/banshee-data/trackdqm/internal/lumimonitor"
	"github.com/banshee-data/trackdqm/internal/roadsearch"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// DefaultConfigPath is the path to the canonical defaults file.
const DefaultConfigPath = "config/trackdqm.defaults.json"

//go:embed schema.json
var schemaJSON []byte

const schemaURL = "trackdqm://config/schema.json"

// Config is the root configuration. Every field is optional; the Get*
// methods supply defaults for omitted keys so partial files are safe.
type Config struct {
	// Candidate maker
	CloudsLabel     *string `json:"clouds_label,omitempty"`
	CandidatesLabel *string `json:"candidates_label,omitempty"`
	SeedPolicy      *string `json:"seed_policy,omitempty"`
	HitOrdering     *string `json:"hit_ordering,omitempty"`

	// Lumi monitor
	ModuleName        *string  `json:"module_name,omitempty"`
	FolderName        *string  `json:"folder_name,omitempty"`
	PixelClusterLabel *string  `json:"pixel_cluster_label,omitempty"`
	LumiRecordLabel   *string  `json:"lumi_record_label,omitempty"`
	CorrelationMode   *string  `json:"correlation_mode,omitempty"`
	MissingLumiPolicy *string  `json:"missing_lumi_policy,omitempty"`
	MaxLumiBlocks     *int     `json:"max_lumi_blocks,omitempty"`
	NClustersBins     *int     `json:"nclusters_bins,omitempty"`
	NClustersMax      *float64 `json:"nclusters_max,omitempty"`

	// Output
	DBPath    *string `json:"db_path,omitempty"`
	ReportDir *string `json:"report_dir,omitempty"`
}

// Empty returns a Config with all fields unset.
func Empty() *Config {
	return &Config{}
}

// Load reads, schema-validates and decodes a JSON config file.
func Load(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse validates raw JSON against the embedded schema and decodes it.
func Parse(data []byte) (*Config, error) {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	schema, err := compileSchema()
	if err != nil {
		return nil, err
	}
	if err := schema.Validate(raw); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	cfg := Empty()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func compileSchema() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaURL, bytes.NewReader(schemaJSON)); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}
	schema, err := compiler.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
}

// MustLoadDefaultConfig loads DefaultConfigPath, searching the current
// directory and its parents. Panics if the file cannot be loaded, intended
// for test setup.
func MustLoadDefaultConfig() *Config {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath, // from internal/config/
		"../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := Load(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks the values the schema cannot express: the enumerations
// must also parse into their domain types.
func (c *Config) Validate() error {
	if _, err := c.RoadSearchConfig(); err != nil {
		return err
	}
	return c.LumiParams().Validate()
}

// RoadSearchConfig converts the candidate maker settings.
func (c *Config) RoadSearchConfig() (roadsearch.Config, error) {
	policy, err := roadsearch.ParseSeedPolicy(c.GetSeedPolicy())
	if err != nil {
		return roadsearch.Config{}, err
	}
	ordering, err := roadsearch.ParseHitOrdering(c.GetHitOrdering())
	if err != nil {
		return roadsearch.Config{}, err
	}
	return roadsearch.Config{SeedPolicy: policy, HitOrdering: ordering}, nil
}

// LumiParams converts the lumi monitor settings.
func (c *Config) LumiParams() lumimonitor.Params {
	return lumimonitor.Params{
		ModuleName:        c.GetModuleName(),
		FolderName:        c.GetFolderName(),
		PixelClusterLabel: c.GetPixelClusterLabel(),
		LumiRecordLabel:   c.GetLumiRecordLabel(),
		CorrelationMode:   lumimonitor.CorrelationMode(c.GetCorrelationMode()),
		MissingLumiPolicy: lumimonitor.MissingLumiPolicy(c.GetMissingLumiPolicy()),
		MaxLumiBlocks:     c.GetMaxLumiBlocks(),
		NClustersBins:     c.GetNClustersBins(),
		NClustersMax:      c.GetNClustersMax(),
	}
}

func stringOr(p *string, def string) string {
	if p == nil {
		return def
	}
	return *p
}

// GetCloudsLabel returns the clouds_label value or the default.
func (c *Config) GetCloudsLabel() string {
	return stringOr(c.CloudsLabel, "cleanRoadSearchClouds")
}

// GetCandidatesLabel returns the candidates_label value or the default.
func (c *Config) GetCandidatesLabel() string {
	return stringOr(c.CandidatesLabel, "rsTrackCandidates")
}

// GetSeedPolicy returns the seed_policy value or the default.
func (c *Config) GetSeedPolicy() string {
	return stringOr(c.SeedPolicy, string(roadsearch.SeedFirst))
}

// GetHitOrdering returns the hit_ordering value or the default.
func (c *Config) GetHitOrdering() string {
	return stringOr(c.HitOrdering, string(roadsearch.OrderAlongSeed))
}

// GetModuleName returns the module_name value or the default.
func (c *Config) GetModuleName() string {
	return stringOr(c.ModuleName, "DQMLumiMonitor")
}

// GetFolderName returns the folder_name value or the default.
func (c *Config) GetFolderName() string {
	return stringOr(c.FolderName, "Lumi")
}

// GetPixelClusterLabel returns the pixel_cluster_label value or the default.
func (c *Config) GetPixelClusterLabel() string {
	return stringOr(c.PixelClusterLabel, "siPixelClusters")
}

// GetLumiRecordLabel returns the lumi_record_label value or the default.
func (c *Config) GetLumiRecordLabel() string {
	return stringOr(c.LumiRecordLabel, "lumiProducer")
}

// GetCorrelationMode returns the correlation_mode value or the default.
func (c *Config) GetCorrelationMode() string {
	return stringOr(c.CorrelationMode, string(lumimonitor.CorrRatio))
}

// GetMissingLumiPolicy returns the missing_lumi_policy value or the default.
func (c *Config) GetMissingLumiPolicy() string {
	return stringOr(c.MissingLumiPolicy, string(lumimonitor.PolicyZero))
}

// GetMaxLumiBlocks returns the max_lumi_blocks value or the default.
func (c *Config) GetMaxLumiBlocks() int {
	if c.MaxLumiBlocks == nil {
		return 2000
	}
	return *c.MaxLumiBlocks
}

// GetNClustersBins returns the nclusters_bins value or the default.
func (c *Config) GetNClustersBins() int {
	if c.NClustersBins == nil {
		return 100
	}
	return *c.NClustersBins
}

// GetNClustersMax returns the nclusters_max value or the default.
func (c *Config) GetNClustersMax() float64 {
	if c.NClustersMax == nil {
		return 10000
	}
	return *c.NClustersMax
}

// GetDBPath returns the db_path value or the default.
func (c *Config) GetDBPath() string {
	return stringOr(c.DBPath, "trackdqm.db")
}

// GetReportDir returns the report_dir value or the default. Empty disables
// report output.
func (c *Config) GetReportDir() string {
	return stringOr(c.ReportDir, "report")
}
