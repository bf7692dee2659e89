package config

import (
	"github.com/spf13/viper"
)

type Config struct {
	Port        string
	Mode        string
	MongoURI    string
	MongoDB     string
	JWTSecret   string
	ConsulAddr  string
	ServiceName string

	LogFile       string
	LogLevel      string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int

	// Cron spec for the periodic statistics broadcast on the global feed.
	StatsBroadcastSpec string

	// Upper bound for the dispatch matcher's expanding radius search.
	DispatchMaxRadiusMeters float64
}

func LoadConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("GIN_MODE", "debug")
	v.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGO_DB", "crisis-iq")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("CONSUL_ADDR", "")
	v.SetDefault("SERVICE_NAME", "crisis-service")
	v.SetDefault("LOG_FILE", "logs/crisis-service.log")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_MAX_SIZE_MB", 100)
	v.SetDefault("LOG_MAX_BACKUPS", 5)
	v.SetDefault("LOG_MAX_AGE_DAYS", 30)
	v.SetDefault("STATS_BROADCAST_SPEC", "0 */1 * * * *")
	v.SetDefault("DISPATCH_MAX_RADIUS_METERS", 100000.0)

	return &Config{
		Port:                    v.GetString("PORT"),
		Mode:                    v.GetString("GIN_MODE"),
		MongoURI:                v.GetString("MONGO_URI"),
		MongoDB:                 v.GetString("MONGO_DB"),
		JWTSecret:               v.GetString("JWT_SECRET"),
		ConsulAddr:              v.GetString("CONSUL_ADDR"),
		ServiceName:             v.GetString("SERVICE_NAME"),
		LogFile:                 v.GetString("LOG_FILE"),
		LogLevel:                v.GetString("LOG_LEVEL"),
		LogMaxSizeMB:            v.GetInt("LOG_MAX_SIZE_MB"),
		LogMaxBackups:           v.GetInt("LOG_MAX_BACKUPS"),
		LogMaxAgeDays:           v.GetInt("LOG_MAX_AGE_DAYS"),
		StatsBroadcastSpec:      v.GetString("STATS_BROADCAST_SPEC"),
		DispatchMaxRadiusMeters: v.GetFloat64("DISPATCH_MAX_RADIUS_METERS"),
	}
}
