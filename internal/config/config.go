package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	LLM      LLMConfig      `yaml:"llm"`
	RAG      RAGConfig      `yaml:"rag"`
	Database DatabaseConfig `yaml:"database"`
	Twilio   TwilioConfig   `yaml:"twilio"`
	Upload   UploadConfig   `yaml:"upload"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
}

type LLMConfig struct {
	BaseURL        string `yaml:"base_url"`
	Key            string `yaml:"key"`
	Model          string `yaml:"model"`
	EmbeddingModel string `yaml:"embedding_model"`
}

type RAGConfig struct {
	ChunkSize    int    `yaml:"chunk_size"`
	ChunkOverlap int    `yaml:"chunk_overlap"`
	TopK         int    `yaml:"top_k"`
	Collection   string `yaml:"collection"`
	DBPath       string `yaml:"db_path"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
	Key string `yaml:"key"`
	// SSLMode is appended to the URL as sslmode; leave empty if the URL
	// already sets it.
	SSLMode string `yaml:"ssl_mode"`
	Debug   bool   `yaml:"debug"`
}

type TwilioConfig struct {
	AccountSID string `yaml:"account_sid"`
	AuthToken  string `yaml:"auth_token"`
	From       string `yaml:"from"`
}

type UploadConfig struct {
	Dir   string `yaml:"dir"`
	Watch bool   `yaml:"watch"`
}

const (
	defaultChunkSize    = 2048
	defaultChunkOverlap = 32
	defaultTopK         = 6
	defaultCollection   = "document_gpt"
)

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	// secrets come in as ${VAR} references
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.RAG.ChunkSize <= 0 {
		c.RAG.ChunkSize = defaultChunkSize
	}
	if c.RAG.ChunkOverlap <= 0 {
		c.RAG.ChunkOverlap = defaultChunkOverlap
	}
	if c.RAG.TopK <= 0 {
		c.RAG.TopK = defaultTopK
	}
	if c.RAG.Collection == "" {
		c.RAG.Collection = defaultCollection
	}
	if c.RAG.DBPath == "" {
		c.RAG.DBPath = "./chromemdb"
	}
	if c.Upload.Dir == "" {
		c.Upload.Dir = filepath.Join(os.TempDir(), "document_gpt")
	}
}
