package config

import "github.com/spf13/viper"

type MetricsConfig struct {
	// Addr is shared by /metrics and the realtime websocket endpoint.
	Addr string `mapstructure:"addr"`
}

func (config MetricsConfig) bindEnvironmentVariables(v *viper.Viper) error {
	return v.BindEnv("metrics.addr", "HTTP_ADDR")
}
