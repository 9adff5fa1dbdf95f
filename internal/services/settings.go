package services

import (
	"time"

	"inkwell/internal/db"
	"inkwell/internal/models"
	"inkwell/internal/utils"
)

const settingsCacheKey = "settings:all"

// GetSettings returns the settings table as a key/value map, cached for a
// minute. Handlers invalidate the cache after updates.
func GetSettings() map[string]string {
	if cached := utils.GetCache().Get(settingsCacheKey); cached != nil {
		if m, ok := cached.(map[string]string); ok {
			return m
		}
	}

	var rows []models.Setting
	db.DB.Find(&rows)

	m := make(map[string]string, len(rows))
	for _, s := range rows {
		m[s.Key] = s.Value
	}

	utils.GetCache().Set(settingsCacheKey, m, 1*time.Minute)
	return m
}

// BoolSetting reads a toggle; missing keys default to false.
func BoolSetting(key string) bool {
	return GetSettings()[key] == "true"
}

// InvalidateSettings drops the cached settings map.
func InvalidateSettings() {
	utils.GetCache().Delete(settingsCacheKey)
}
