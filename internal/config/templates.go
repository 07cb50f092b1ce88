package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# Forex Journal Configuration

[storage]
# SQLite database file, relative to this directory unless absolute
db_path = "journal.db"
# Key the trade list is stored under
key = "forexTrades"

[server]
# Listen address for 'journal serve'
addr = "127.0.0.1:8080"
read_timeout = "15s"
write_timeout = "15s"

[ui]
# Enable colored output
color_enabled = true
# Number of trades shown by 'journal list --recent'
recent_count = 5

[logging]
# Log level: debug, info, warn, error
level = "info"
# Rotating log file, relative to this directory unless absolute
file = "logs/journal.log"
max_size = 100
max_backups = 7
max_age = 30

[audit]
# Record every create, delete and import as JSON lines
enabled = true
dir = "audit"
`

func createTemplateConfig(configDir, name string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, name+".toml")
	if err := os.WriteFile(path, []byte(configTemplate), 0644); err != nil {
		return fmt.Errorf("writing config template: %w", err)
	}

	return nil
}
