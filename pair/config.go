// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package pair

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/luxfi/geth/common"
	"gopkg.in/yaml.v3"

	"github.com/luxfi/lbpair/lbmath"
	"github.com/luxfi/lbpair/params"
)

// Config describes one pair at creation time.
type Config struct {
	Address              common.Address             `json:"address" yaml:"address"`
	TokenX               Token                      `json:"token_x" yaml:"token_x"`
	TokenY               Token                      `json:"token_y" yaml:"token_y"`
	BinStep              uint16                     `json:"bin_step" yaml:"bin_step"`
	ActiveID             uint32                     `json:"active_id" yaml:"active_id"`
	Factory              common.Address             `json:"factory" yaml:"factory"`
	ProtocolFeeRecipient common.Address             `json:"protocol_fee_recipient" yaml:"protocol_fee_recipient"`
	StaticFeeParameters  params.StaticFeeParameters `json:"static_fee_parameters" yaml:"static_fee_parameters"`
	OracleLength         uint16                     `json:"oracle_length,omitempty" yaml:"oracle_length,omitempty"`
}

// Verify tries to verify Config and returns an error accordingly.
func (c *Config) Verify() error {
	if c.Address == (common.Address{}) {
		return fmt.Errorf("%w: missing pair address", ErrInvalidConfig)
	}
	if err := c.TokenX.Verify(); err != nil {
		return fmt.Errorf("token x: %w", err)
	}
	if err := c.TokenY.Verify(); err != nil {
		return fmt.Errorf("token y: %w", err)
	}
	if c.TokenX == c.TokenY {
		return fmt.Errorf("%w: identical tokens %s", ErrInvalidConfig, c.TokenX)
	}
	if c.BinStep == 0 {
		return fmt.Errorf("%w: zero bin step", ErrInvalidConfig)
	}
	if c.ActiveID > lbmath.MaxBinID {
		return fmt.Errorf("%w: active id %d", ErrIDOverflow, c.ActiveID)
	}
	if c.Factory == (common.Address{}) {
		return fmt.Errorf("%w: missing factory", ErrInvalidConfig)
	}
	return c.StaticFeeParameters.Verify(c.BinStep)
}

// LoadConfig reads a JSON or YAML pair config, chosen by file extension,
// and verifies it.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := new(Config)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	default:
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Verify(); err != nil {
		return nil, err
	}
	return cfg, nil
}
