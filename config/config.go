// config/config.go
package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

// Configuration stores all recognized settings for a PDP deployment.
type Configuration struct {
	Engine        EngineConfiguration
	Redis         RedisConfiguration
	Elasticsearch ElasticsearchConfiguration
	Neo4j         Neo4jConfiguration
	LDAP          LDAPConfiguration
}

// EngineConfiguration holds the decision-engine settings. There is no
// evaluation-timeout setting; deadlines are the caller's context.
type EngineConfiguration struct {
	CombiningAlgorithm       string
	EnableAuditLog           bool
	EnablePerformanceMetrics bool
}

// RedisConfiguration stores data for the policy-cache Redis connection.
type RedisConfiguration struct {
	Addr            string
	Password        string
	DB              int
	DefaultCacheTTL time.Duration
}

// ElasticsearchConfiguration stores data for the audit sink connection.
type ElasticsearchConfiguration struct {
	URL string
}

// Neo4jConfiguration stores data for the graph attribute provider.
type Neo4jConfiguration struct {
	URI      string
	Username string
	Password string
}

// LDAPConfiguration stores data for the directory attribute provider.
type LDAPConfiguration struct {
	URL          string
	BindDN       string
	BindPassword string
	BaseDN       string
}

var config *Configuration

// Init reads configuration from config/config.yaml (when present) and
// the environment, applying defaults first.
func Init() error {
	viper.AddConfigPath("config")
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.AutomaticEnv()

	viper.SetDefault("engine.combiningAlgorithm", "deny-overrides")
	viper.SetDefault("engine.enableAuditLog", false)
	viper.SetDefault("engine.enablePerformanceMetrics", false)
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.defaultCacheTTL", "10m")
	viper.SetDefault("elasticsearch.url", "http://localhost:9200")
	viper.SetDefault("neo4j.uri", "bolt://localhost:7687")
	viper.SetDefault("ldap.url", "ldap://localhost:389")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("No config file found. Using default settings and environment variables.")
		} else {
			return err
		}
	}

	return viper.Unmarshal(&config)
}

// Get returns the loaded configuration.
func Get() *Configuration {
	return config
}

// GetString retrieves a string value from the configuration.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt retrieves an integer value from the configuration.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool retrieves a boolean value from the configuration.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetDuration retrieves a duration value from the configuration.
func GetDuration(key string) time.Duration {
	return viper.GetDuration(key)
}
