package config

import (
	"bytes"

	"github.com/nyarchlinux/nyarchify/pkg/errors"
	"github.com/pelletier/go-toml/v2"
)

const generatedHeader = `# nyarchify configuration
# Save as ~/.config/nyarchify/config.toml and keep only the keys you change.

`

// Generate renders cfg as a TOML config file
func Generate(cfg *Config) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(generatedHeader)

	enc := toml.NewEncoder(&buf)
	enc.SetIndentTables(true)
	if err := enc.Encode(cfg); err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, "failed to encode configuration")
	}
	return buf.Bytes(), nil
}
