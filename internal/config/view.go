package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// ViewFile is the optional TOML file holding CLI view defaults.
type ViewFile struct {
	View ViewDefaults `toml:"view"`
}

type ViewDefaults struct {
	Category  *string `toml:"category"`
	Sort      *string `toml:"sort"`
	Direction *string `toml:"direction"`
	Year      *string `toml:"year"`
	Month     *string `toml:"month"`
	Weighting *string `toml:"weighting"`
}

// LoadViewFile reads path. A missing file is not an error.
func LoadViewFile(path string) (ViewFile, error) {
	if path == "" {
		return ViewFile{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return ViewFile{}, nil
		}
		return ViewFile{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var f ViewFile
	if _, err := toml.DecodeFile(path, &f); err != nil {
		return ViewFile{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return f, nil
}

func XDGConfigHome() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(home, ".config")
}

func DefaultViewFilePath() string {
	return filepath.Join(XDGConfigHome(), "rotboard", "config.toml")
}

func DefaultViewFileTemplate() string {
	return `# rotboard view defaults; command line flags win over these.
[view]
# category = "all"        # all | top50 | personality
# sort = "rot_score"      # rank | username | rating | rot_score | games | blunders | mistakes | inaccuracies
# direction = "desc"      # asc | desc
# year = "2025"
# month = "all"           # all | 01..12
# weighting = "weighted"  # weighted | unweighted
`
}
