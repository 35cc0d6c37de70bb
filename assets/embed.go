package assets

import (
	_ "embed"
)

// SampleConfigYAML contains the annotated sample configuration shipped with
// the binary. It mirrors config.DefaultConfig.
//
//go:embed serialscan.yaml
var SampleConfigYAML []byte
