package config

import (
	"errors"
	"fmt"
	"github.com/spf13/viper"
)

type NotificationsConfig struct {
	// TelegramToken is optional, chat delivery is disabled when empty.
	TelegramToken                string  `mapstructure:"telegram_token"`
	TelegramMaxMessagesPerSecond float32 `mapstructure:"telegram_max_messages_per_second"`
	RetentionDays                int     `mapstructure:"retention_days"`
	FanOutConcurrency            int     `mapstructure:"fan_out_concurrency"`
}

func (config NotificationsConfig) validate() error {
	var errs []error

	if config.RetentionDays <= 0 {
		errs = append(errs, fmt.Errorf("retention_days must be greater than zero"))
	}
	if config.FanOutConcurrency <= 0 {
		errs = append(errs, fmt.Errorf("fan_out_concurrency must be greater than zero"))
	}
	if config.TelegramToken != "" && config.TelegramMaxMessagesPerSecond <= 0 {
		errs = append(errs, fmt.Errorf("telegram_max_messages_per_second must be greater than zero"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("multiple errors occurred: %w", errors.Join(errs...))
	}

	return nil
}

func (config NotificationsConfig) bindEnvironmentVariables(v *viper.Viper) error {
	var errs []error

	if err := v.BindEnv("notifications.telegram_token", "TELEGRAM_TOKEN"); err != nil {
		errs = append(errs, err)
	}

	if err := v.BindEnv("notifications.retention_days", "NOTIFICATIONS_RETENTION_DAYS"); err != nil {
		errs = append(errs, err)
	}

	if err := v.BindEnv("notifications.fan_out_concurrency", "NOTIFICATIONS_FAN_OUT_CONCURRENCY"); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}
