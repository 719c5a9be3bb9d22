package config_test

import (
	"testing"

	"github.com/jonmartinstorm/slsnusern/internal/config"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestConfig(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Config Suite")
}

func fakeEnv(env map[string]string) func(string) string {
	return func(key string) string {
		return env[key]
	}
}

var _ = Describe("LoadConfigWithEnv", func() {
	It("leser konfigurasjon fra injisert env", func() {
		cfg := config.LoadConfigWithEnv(fakeEnv(map[string]string{
			"GITHUB_AUTH_TOKEN": "abc123",
			"SLSNUSERN_INPUT":   "urls.txt",
			"SLSNUSERN_PARALL":  "4",
			"SLSNUSERDEBUG":     "true",
		}))

		Expect(cfg.Token).To(Equal("abc123"))
		Expect(cfg.InputPath).To(Equal("urls.txt"))
		Expect(cfg.Parallelism).To(Equal(4))
		Expect(cfg.Debug).To(BeTrue())
	})

	It("bruker jsonl og standard utfil når ingenting er satt", func() {
		cfg := config.LoadConfigWithEnv(fakeEnv(nil))

		Expect(cfg.Storage).To(Equal(config.StorageJSONL))
		Expect(cfg.OutputPath).To(Equal("repository_metadata.jsonl"))
		Expect(cfg.Parallelism).To(Equal(1))
	})
})

var _ = Describe("Validate", func() {
	base := func() config.Config {
		return config.LoadConfigWithEnv(fakeEnv(map[string]string{
			"GITHUB_AUTH_TOKEN": "t",
			"SLSNUSERN_INPUT":   "urls.txt",
		}))
	}

	It("godtar en minimal token-konfigurasjon", func() {
		Expect(config.Validate(base())).To(Succeed())
	})

	It("feiler uten token og uten app-auth", func() {
		cfg := base()
		cfg.Token = ""
		Expect(config.Validate(cfg)).To(MatchError(ContainSubstring("GITHUB_AUTH_TOKEN")))
	})

	It("godtar app-auth uten token", func() {
		cfg := base()
		cfg.Token = ""
		cfg.AppID = 12
		cfg.AppInstallationID = 34
		cfg.AppPrivateKey = "key.pem"
		Expect(config.Validate(cfg)).To(Succeed())
	})

	It("feiler uten inputfil", func() {
		cfg := base()
		cfg.InputPath = ""
		Expect(config.Validate(cfg)).To(MatchError(ContainSubstring("SLSNUSERN_INPUT")))
	})

	It("feiler på ikke-positiv parallelism", func() {
		cfg := config.LoadConfigWithEnv(fakeEnv(map[string]string{
			"GITHUB_AUTH_TOKEN": "t",
			"SLSNUSERN_INPUT":   "urls.txt",
			"SLSNUSERN_PARALL":  "-2",
		}))
		Expect(config.Validate(cfg)).To(MatchError(ContainSubstring("SLSNUSERN_PARALL")))
	})

	It("krever DSN for postgres-lagring", func() {
		cfg := base()
		cfg.Storage = config.StoragePostgres
		Expect(config.Validate(cfg)).To(MatchError(ContainSubstring("POSTGRES_DSN")))
	})

	It("krever prosjekt og datasett for bigquery-lagring", func() {
		cfg := base()
		cfg.Storage = config.StorageBigQuery
		Expect(config.Validate(cfg)).To(MatchError(ContainSubstring("BQ_PROJECT_ID")))
	})

	It("avviser ukjent lagringstype", func() {
		cfg := base()
		cfg.Storage = "minneposer"
		Expect(config.Validate(cfg)).To(MatchError(ContainSubstring("SLS_STORAGE")))
	})
})
