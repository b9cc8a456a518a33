package config

import "time"

type Config struct {
	Server  HTTPServerConfig `json:"server"`
	LLM     LLMConfig        `json:"llm"`
	Mongo   MongoConfig
	Archive ArchiveConfig
}

type HTTPServerConfig struct {
	Host         string        `json:"host" default:"0.0.0.0"`
	Port         int           `json:"port" default:"8080"`
	ReadTimeout  time.Duration `json:"read_timeout" default:"120s"`
	WriteTimeout time.Duration `json:"write_timeout" default:"120s"`
}

type LLMConfig struct {
	APIKey      string        `json:"api_key" required:"true"`
	BaseURL     string        `json:"base_url" default:"https://api.openai.com/v1/chat/completions"`
	Model       string        `json:"model" default:"gpt-4o-mini"`
	Temperature float64       `json:"temperature" default:"0.2"`
	Timeout     time.Duration `json:"timeout" default:"120s"`
}

type MongoConfig struct {
	URI      string `json:"uri" required:"true"`
	Database string `json:"database" required:"true"`
}

type ArchiveConfig struct {
	Dir string `json:"dir" default:"./diagrams"`
}
