package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/linkmap-analysis/pkg/config"
)

func validCOSConfig() *COSConfig {
	return &COSConfig{
		Bucket:    "maps-1250000000",
		Region:    "ap-guangzhou",
		SecretID:  "test-id",
		SecretKey: "test-key",
	}
}

func TestNewCOSStorage_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*COSConfig)
		errMsg string
	}{
		{"MissingBucket", func(c *COSConfig) { c.Bucket = "" }, "bucket and region are required"},
		{"MissingRegion", func(c *COSConfig) { c.Region = "" }, "bucket and region are required"},
		{"MissingCredentials", func(c *COSConfig) { c.SecretKey = "" }, "credentials are required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validCOSConfig()
			tt.mutate(cfg)

			storage, err := NewCOSStorage(cfg)
			assert.Error(t, err)
			assert.Nil(t, storage)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}

	t.Run("ValidConfig", func(t *testing.T) {
		storage, err := NewCOSStorage(validCOSConfig())
		assert.NoError(t, err)
		assert.NotNil(t, storage)
	})
}

func TestCOSStorage_GetURL(t *testing.T) {
	storage, err := NewCOSStorage(validCOSConfig())
	assert.NoError(t, err)

	assert.Equal(t,
		"https://maps-1250000000.cos.ap-guangzhou.myqcloud.com/reports/app/report.json",
		storage.GetURL("reports/app/report.json"))

	cfg := validCOSConfig()
	cfg.Scheme = "http"
	cfg.Domain = "tencentcos.cn"
	storage, err = NewCOSStorage(cfg)
	assert.NoError(t, err)
	assert.Equal(t, "http://maps-1250000000.cos.ap-guangzhou.tencentcos.cn/a.map", storage.GetURL("a.map"))
}

func TestNewStorage_COS(t *testing.T) {
	cfg := &config.StorageConfig{
		Type:      "cos",
		Bucket:    "test-bucket",
		Region:    "ap-guangzhou",
		SecretID:  "test-id",
		SecretKey: "test-key",
	}

	storage, err := NewStorage(cfg)
	assert.NoError(t, err)

	_, ok := storage.(*COSStorage)
	assert.True(t, ok)
}

func TestValidateConfig(t *testing.T) {
	t.Run("NilConfig", func(t *testing.T) {
		err := ValidateConfig(nil)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "storage config is nil")
	})

	tests := []struct {
		name   string
		cfg    config.StorageConfig
		errMsg string
	}{
		{"InvalidStorageType", config.StorageConfig{Type: "s3"}, "unsupported storage type"},
		{"COSMissingBucket", config.StorageConfig{Type: "cos", Region: "r", SecretID: "i", SecretKey: "k"}, "COS bucket is required"},
		{"COSMissingRegion", config.StorageConfig{Type: "cos", Bucket: "b", SecretID: "i", SecretKey: "k"}, "COS region is required"},
		{"COSMissingCredentials", config.StorageConfig{Type: "cos", Bucket: "b", Region: "r"}, "COS credentials are required"},
		{"LocalMissingPath", config.StorageConfig{Type: "local"}, "local storage path is required"},
		{"EmptyTypeMissingPath", config.StorageConfig{}, "local storage path is required"},
		{"ValidCOSConfig", config.StorageConfig{Type: "cos", Bucket: "b", Region: "r", SecretID: "i", SecretKey: "k"}, ""},
		{"ValidLocalConfig", config.StorageConfig{Type: "local", LocalPath: "/tmp/storage"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateConfig(&tt.cfg)
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			assert.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}
