package service

import (
	"strconv"

	"github.com/greenpoints/gp-ui/database"
	"github.com/greenpoints/gp-ui/database/model"
	"github.com/greenpoints/gp-ui/logger"
	"github.com/greenpoints/gp-ui/util/common"
	"github.com/greenpoints/gp-ui/util/random"
)

var defaultValueMap = map[string]string{
	"webListen":     "",
	"webPort":       "2090",
	"webBasePath":   "/",
	"sessionMaxAge": "60",
	"pageSize":      "50",
	"secret":        random.Seq(32),
	"insightsModel": "gemini-1.5-flash",
}

// SettingService stores panel runtime settings in the settings table,
// falling back to defaultValueMap for unset keys.
type SettingService struct{}

func (s *SettingService) getSetting(key string) (*model.Setting, error) {
	db := database.GetDB()
	setting := &model.Setting{}
	err := db.Model(model.Setting{}).
		Where("key = ?", key).
		First(setting).
		Error
	if err != nil {
		return nil, err
	}
	return setting, nil
}

func (s *SettingService) saveSetting(key string, value string) error {
	setting, err := s.getSetting(key)
	db := database.GetDB()
	if database.IsNotFound(err) {
		return db.Create(&model.Setting{Key: key, Value: value}).Error
	} else if err != nil {
		return err
	}
	setting.Value = value
	return db.Save(setting).Error
}

func (s *SettingService) getString(key string) (string, error) {
	setting, err := s.getSetting(key)
	if database.IsNotFound(err) {
		value, ok := defaultValueMap[key]
		if !ok {
			return "", common.NewErrorf("key <%v> not in defaultValueMap", key)
		}
		return value, nil
	} else if err != nil {
		return "", err
	}
	return setting.Value, nil
}

func (s *SettingService) getInt(key string) (int, error) {
	str, err := s.getString(key)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(str)
}

func (s *SettingService) setInt(key string, value int) error {
	return s.saveSetting(key, strconv.Itoa(value))
}

// ResetSettings drops all stored settings, reverting to defaults.
func (s *SettingService) ResetSettings() error {
	err := database.GetDB().
		Where("1 = 1").
		Delete(model.Setting{}).
		Error
	if err != nil {
		return err
	}
	logger.Notice("settings reset to defaults")
	return nil
}

func (s *SettingService) GetListen() (string, error) {
	return s.getString("webListen")
}

func (s *SettingService) GetPort() (int, error) {
	return s.getInt("webPort")
}

func (s *SettingService) SetPort(port int) error {
	return s.setInt("webPort", port)
}

// GetBasePath returns the panel base path, normalized to have leading and
// trailing slashes.
func (s *SettingService) GetBasePath() (string, error) {
	basePath, err := s.getString("webBasePath")
	if err != nil {
		return "", err
	}
	if basePath == "" {
		basePath = "/"
	}
	if basePath[0] != '/' {
		basePath = "/" + basePath
	}
	if basePath[len(basePath)-1] != '/' {
		basePath += "/"
	}
	return basePath, nil
}

// GetSecret returns the cookie-signing secret, generating and persisting one
// on first use.
func (s *SettingService) GetSecret() ([]byte, error) {
	secret, err := s.getString("secret")
	if err != nil {
		return nil, err
	}
	if saveErr := s.saveSetting("secret", secret); saveErr != nil {
		logger.Warning("save secret failed:", saveErr)
	}
	return []byte(secret), nil
}

// GetSessionMaxAge returns the session lifetime in minutes.
func (s *SettingService) GetSessionMaxAge() (int, error) {
	return s.getInt("sessionMaxAge")
}

func (s *SettingService) GetPageSize() (int, error) {
	return s.getInt("pageSize")
}

func (s *SettingService) GetInsightsModel() (string, error) {
	return s.getString("insightsModel")
}
