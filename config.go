// config.go --  This file is part of goGDF project.
// goGDF authors, 2026
//
//	goGDF is distributed in the hope that it will be useful,
//	but WITHOUT ANY WARRANTY; without even the implied warranty
//	of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
//	See the GNU General Public License for more details.
//
//	You should have received a copy of the GNU General Public License
//	along with this program.  If not, see http://www.gnu.org/licenses/
//
// ------------------------------------------------
package gogdf

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config carries the numerical knobs of a build in file form. Zero
// values keep the builder defaults; ExcludeDDBlock is a pointer so an
// absent key and an explicit false stay distinguishable.
type Config struct {
	Eta                float64 `yaml:"eta"`
	Mesh               []int   `yaml:"mesh"`
	KeCutoff           float64 `yaml:"ke_cutoff"`
	LinearDepThreshold float64 `yaml:"linear_dep_threshold"`
	J2CEigAlways       bool    `yaml:"j2c_eig_always"`
	ExcludeDDBlock     *bool   `yaml:"exclude_dd_block"`
	ExcludeDAux        bool    `yaml:"exclude_d_aux"`
	MaxMemoryMB        int     `yaml:"max_memory_mb"`
	Precision          float64 `yaml:"precision"`
	Omega              float64 `yaml:"omega"`

	Output   string `yaml:"output"`
	InMemory bool   `yaml:"in_memory"`
	Compress bool   `yaml:"compress"`
}

func (c *Config) validate() error {
	if c.Eta < 0 {
		return fmt.Errorf("%w: eta = %g", ErrBadConfig, c.Eta)
	}
	if c.KeCutoff < 0 {
		return fmt.Errorf("%w: ke_cutoff = %g", ErrBadConfig, c.KeCutoff)
	}
	if len(c.Mesh) != 0 && len(c.Mesh) != 3 {
		return fmt.Errorf("%w: mesh needs 3 dimensions, got %d", ErrBadConfig, len(c.Mesh))
	}
	for _, n := range c.Mesh {
		if n < 0 {
			return fmt.Errorf("%w: mesh dimension %d", ErrBadConfig, n)
		}
	}
	if c.LinearDepThreshold < 0 {
		return fmt.Errorf("%w: linear_dep_threshold = %g", ErrBadConfig, c.LinearDepThreshold)
	}
	if c.MaxMemoryMB < 0 {
		return fmt.Errorf("%w: max_memory_mb = %d", ErrBadConfig, c.MaxMemoryMB)
	}
	if c.Precision < 0 {
		return fmt.Errorf("%w: precision = %g", ErrBadConfig, c.Precision)
	}
	return nil
}

// LoadConfig reads and validates a yaml config file.
func LoadConfig(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadConfig, err)
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %v", ErrBadConfig, path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyTo pushes the set knobs onto a builder, leaving defaults where
// the config is silent.
func (c *Config) ApplyTo(b *Builder) {
	if c.Eta != 0 {
		b.Eta = c.Eta
	}
	if len(c.Mesh) == 3 {
		b.Mesh = [3]int{c.Mesh[0], c.Mesh[1], c.Mesh[2]}
	}
	if c.KeCutoff != 0 {
		b.KeCutoff = c.KeCutoff
	}
	if c.LinearDepThreshold != 0 {
		b.LinearDepThreshold = c.LinearDepThreshold
	}
	if c.J2CEigAlways {
		b.J2CEigAlways = true
	}
	if c.ExcludeDDBlock != nil {
		b.ExcludeDDBlock = *c.ExcludeDDBlock
	}
	if c.ExcludeDAux {
		b.ExcludeDAux = true
	}
	if c.MaxMemoryMB != 0 {
		b.MaxMemoryMB = c.MaxMemoryMB
	}
}
