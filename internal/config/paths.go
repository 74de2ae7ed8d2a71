package config

import (
	"os"
	"path/filepath"
)

func defaultHistoryPath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "homeval", "history")
	}
	return filepath.Join(".homeval", "history")
}
